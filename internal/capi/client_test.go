package capi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/tbourn/go-lead-capture/internal/config"
	"github.com/tbourn/go-lead-capture/internal/domain"
)

func testCfg(base string) config.CAPIConfig {
	return config.CAPIConfig{
		BaseURL:     base,
		APIVersion:  "v18.0",
		PixelID:     "887364637173488",
		AccessToken: "secret-token",
		Source:      "Landing Vendedores",
	}
}

func sampleEvent() Event {
	return NewLeadEvent(domain.LeadSubmission{Email: domain.Str("Juan@Test.com")}, "Landing Vendedores", time.Unix(1700000000, 0))
}

func TestClient_Send_Success(t *testing.T) {
	var gotPath, gotToken, gotCT string
	var gotBody Batch
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s; want POST", r.Method)
		}
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("access_token")
		gotCT = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"events_received":1,"messages":[],"fbtrace_id":"AbC123"}`))
	}))
	defer srv.Close()

	c := NewClient(testCfg(srv.URL+"/"), srv.Client())
	rec, err := c.Send(context.Background(), sampleEvent())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotPath != "/v18.0/887364637173488/events" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotToken != "secret-token" || gotCT != "application/json" {
		t.Fatalf("token=%q content-type=%q", gotToken, gotCT)
	}
	if len(gotBody.Data) != 1 || gotBody.Data[0].EventName != "Lead" || *gotBody.Data[0].UserData.Email != sha256JuanEmail {
		t.Fatalf("unexpected body: %+v", gotBody)
	}
	if rec.EventsReceived != 1 || rec.FBTraceID != "AbC123" || rec.StatusCode != http.StatusOK || len(rec.Raw) == 0 {
		t.Fatalf("unexpected receipt: %+v", rec)
	}
	if strings.Contains(c.Endpoint(), "secret-token") {
		t.Fatalf("endpoint must not contain the token")
	}
}

func TestClient_Send_RemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190,"fbtrace_id":"X"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(testCfg(srv.URL), srv.Client()).Send(context.Background(), sampleEvent())
	var de *DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DeliveryError, got %T %v", err, err)
	}
	if de.Stage != StageStatus || de.StatusCode != http.StatusBadRequest || de.Message != "Invalid OAuth access token." {
		t.Fatalf("unexpected delivery error: %+v", de)
	}
	if !strings.Contains(de.Error(), "status 400") {
		t.Fatalf("Error() should mention status: %q", de.Error())
	}
}

func TestClient_Send_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(testCfg(srv.URL), srv.Client()).Send(context.Background(), sampleEvent())
	var de *DeliveryError
	if !errors.As(err, &de) || de.StatusCode != http.StatusBadGateway || de.Message != "upstream exploded" {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestClient_Send_UndecodableSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>ok</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(testCfg(srv.URL), srv.Client()).Send(context.Background(), sampleEvent())
	var de *DeliveryError
	if !errors.As(err, &de) || de.Stage != StageDecode || de.Unwrap() == nil {
		t.Fatalf("expected decode failure, got %v", err)
	}
}

func TestClient_Send_TransportError_TokenScrubbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close() // connection refused from here on

	_, err := NewClient(testCfg(base), nil).Send(context.Background(), sampleEvent())
	var de *DeliveryError
	if !errors.As(err, &de) || de.Stage != StageTransport {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Fatalf("access token leaked into error: %q", err.Error())
	}
}

func TestClient_Send_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(testCfg(srv.URL), srv.Client()).Send(ctx, sampleEvent())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}

func Test_truncate(t *testing.T) {
	if truncate("abc", 0) != "abc" || truncate("abc", 5) != "abc" {
		t.Fatalf("truncate should not touch short strings")
	}
	if got := truncate("abcdef", 3); got != "abc…" {
		t.Fatalf("truncate = %q", got)
	}
	// "ñ" is two bytes; a cut inside it backs off to the rune start.
	if got := truncate("añb", 2); got != "a…" {
		t.Fatalf("truncate = %q; want %q", got, "a…")
	}
}

func TestClient_Send_LongMultibyteError_StaysValidUTF8(t *testing.T) {
	body := "x" + strings.Repeat("é", 400)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	_, err := NewClient(testCfg(srv.URL), srv.Client()).Send(context.Background(), sampleEvent())
	var de *DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DeliveryError, got %T %v", err, err)
	}
	if !utf8.ValidString(de.Message) {
		t.Fatalf("message is not valid UTF-8: %q", de.Message)
	}
	if !strings.HasSuffix(de.Message, "…") || len(de.Message) > 300+len("…") {
		t.Fatalf("message not truncated: %d bytes", len(de.Message))
	}
}
