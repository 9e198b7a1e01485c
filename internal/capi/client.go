package capi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-lead-capture/internal/config"
)

// maxResponseBytes caps how much of the remote response body is read.
const maxResponseBytes = 64 << 10

// Delivery stages reported by DeliveryError.
const (
	StageEncode    = "encode"
	StageRequest   = "request"
	StageTransport = "transport"
	StageStatus    = "status"
	StageDecode    = "decode"
)

// DeliveryError describes a failed event delivery. It never contains the
// access token.
type DeliveryError struct {
	Stage      string // one of the Stage* constants
	StatusCode int    // HTTP status when a response was received
	Message    string // remote error message, when the platform sent one
	Err        error  // underlying cause, if any
}

func (e *DeliveryError) Error() string {
	var b strings.Builder
	b.WriteString("capi delivery failed at ")
	b.WriteString(e.Stage)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Receipt is the platform's acknowledgement of a delivered batch.
type Receipt struct {
	StatusCode     int             `json:"-"`
	Latency        time.Duration   `json:"-"`
	EventsReceived int             `json:"events_received"`
	Messages       []string        `json:"messages"`
	FBTraceID      string          `json:"fbtrace_id"`
	Raw            json.RawMessage `json:"-"`
}

// graphError is the error envelope returned by the Graph API.
type graphError struct {
	Error struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

// Client posts event batches to /{version}/{pixel}/events, authenticated by
// the access_token query parameter. It does not retry.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// NewClient builds a Client from configuration. When hc is nil a fresh
// http.Client is used, with cfg.Timeout applied if positive.
func NewClient(cfg config.CAPIConfig, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	endpoint := fmt.Sprintf("%s/%s/%s/events",
		strings.TrimRight(cfg.BaseURL, "/"),
		url.PathEscape(cfg.APIVersion),
		url.PathEscape(cfg.PixelID),
	)
	return &Client{endpoint: endpoint, token: cfg.AccessToken, http: hc}
}

// Endpoint returns the events URL without credentials.
func (c *Client) Endpoint() string { return c.endpoint }

// Send delivers events as a single batch. Any failure is returned as a
// *DeliveryError; a nil error means the platform answered with 2xx.
func (c *Client) Send(ctx context.Context, events ...Event) (*Receipt, error) {
	ctx, span := otel.Tracer("github.com/tbourn/go-lead-capture/internal/capi").Start(ctx, "capi.Send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("capi.endpoint", c.endpoint),
			attribute.Int("capi.events", len(events)),
		),
	)
	defer span.End()

	rec, err := c.send(ctx, events)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("capi.events_received", rec.EventsReceived))
	return rec, nil
}

func (c *Client) send(ctx context.Context, events []Event) (*Receipt, error) {
	body, err := json.Marshal(Batch{Data: events})
	if err != nil {
		return nil, &DeliveryError{Stage: StageEncode, Err: err}
	}

	q := url.Values{}
	q.Set("access_token", c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, &DeliveryError{Stage: StageRequest, Err: scrubURLError(err)}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &DeliveryError{Stage: StageTransport, Err: scrubURLError(err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &DeliveryError{Stage: StageTransport, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		de := &DeliveryError{Stage: StageStatus, StatusCode: resp.StatusCode}
		var ge graphError
		if json.Unmarshal(raw, &ge) == nil && ge.Error.Message != "" {
			de.Message = ge.Error.Message
		} else {
			de.Message = truncate(strings.TrimSpace(string(raw)), 300)
		}
		return nil, de
	}

	rec := &Receipt{StatusCode: resp.StatusCode, Latency: time.Since(start), Raw: json.RawMessage(raw)}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, &DeliveryError{Stage: StageDecode, StatusCode: resp.StatusCode, Err: err}
	}
	return rec, nil
}

// scrubURLError removes the query string (which carries the access token)
// from *url.Error values produced by net/http.
func scrubURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		if u, perr := url.Parse(ue.URL); perr == nil {
			u.RawQuery = ""
			ue.URL = u.String()
		} else {
			ue.URL = "[redacted]"
		}
	}
	return err
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "…"
}
