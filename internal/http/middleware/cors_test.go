package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newCORSRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS()...)
	r.Any("/lead", func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodOptions:
			c.Status(http.StatusOK)
		case http.MethodPost:
			c.JSON(http.StatusOK, gin.H{"success": true})
		default:
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		}
	})
	return r
}

func assertCORS(t *testing.T, h http.Header) {
	t.Helper()
	if h.Get("Access-Control-Allow-Origin") != "*" ||
		h.Get("Access-Control-Allow-Headers") != "Content-Type" ||
		h.Get("Access-Control-Allow-Methods") != "POST, OPTIONS" {
		t.Fatalf("unexpected CORS headers: %#v", h)
	}
}

func TestCORS_HeadersOnEveryResponse(t *testing.T) {
	r := newCORSRouter()
	for _, m := range []string{http.MethodPost, http.MethodOptions, http.MethodGet, http.MethodDelete} {
		for _, origin := range []string{"", "https://landing.example"} {
			req := httptest.NewRequest(m, "/lead", nil)
			if origin != "" {
				req.Header.Set("Origin", origin)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assertCORS(t, w.Header())
		}
	}
}

func TestCORS_PreflightIsEmpty200(t *testing.T) {
	r := newCORSRouter()
	req := httptest.NewRequest(http.MethodOptions, "/lead", nil)
	req.Header.Set("Origin", "https://landing.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Fatalf("preflight = %d %q; want empty 200", w.Code, w.Body.String())
	}
	assertCORS(t, w.Header())
}
