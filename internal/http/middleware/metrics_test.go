package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters_InflightAndLabels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.Any("/api/guardar-lead", func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusOK) // no body: size stays -1
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	basePost := testutil.ToFloat64(httpReqs.WithLabelValues("POST", "/api/guardar-lead", "200"))
	baseOpt := testutil.ToFloat64(httpReqs.WithLabelValues("OPTIONS", "/api/guardar-lead", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedPath, "404"))

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/api/guardar-lead", nil),
		httptest.NewRequest(http.MethodOptions, "/api/guardar-lead", nil),
		httptest.NewRequest(http.MethodGet, "/wp-login.php", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("POST", "/api/guardar-lead", "200")); got != basePost+1 {
		t.Fatalf("counter POST = %v; want %v", got, basePost+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("OPTIONS", "/api/guardar-lead", "200")); got != baseOpt+1 {
		t.Fatalf("counter OPTIONS = %v; want %v", got, baseOpt+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedPath, "404")); got != base404+1 {
		t.Fatalf("unmatched routes must share one label; got %v want %v", got, base404+1)
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}

func Test_methodLabel(t *testing.T) {
	if methodLabel("POST") != "POST" || methodLabel("OPTIONS") != "OPTIONS" {
		t.Fatalf("known methods must pass through")
	}
	if methodLabel("PURGE") != "OTHER" {
		t.Fatalf("unknown methods must be folded")
	}
}
