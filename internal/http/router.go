// Package httpapi wires the HTTP transport (Gin) to the lead service,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, and rate limiting.
//
// Middleware that can end a request early (CORS pre-flight, rate limiting,
// body limits) runs after the headers every response must carry are set.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/tbourn/go-lead-capture/docs"
	"github.com/tbourn/go-lead-capture/internal/config"
	"github.com/tbourn/go-lead-capture/internal/http/handlers"
	"github.com/tbourn/go-lead-capture/internal/http/middleware"
)

// healthCheckTimeout bounds each HealthCheck run by GET /health.
const healthCheckTimeout = 2 * time.Second

// HealthCheck is a named dependency check run by GET /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the lead endpoint at cfg.APIBasePath + cfg.LeadPath.
// GET /health answers 503 while any of checks fails.
//
// Middleware order:
//  1. OpenTelemetry
//  2. RequestID
//  3. RedactingLogger (attaches the request-scoped logger)
//  4. Recovery
//  5. Metrics
//  6. CORS, then security headers
//  7. Body size limiter
//  8. Rate limiter, only when cfg.RateRPS > 0
func RegisterRoutes(r *gin.Engine, svc handlers.LeadService, cfg config.Config, checks ...HealthCheck) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())

	r.Use(middleware.CORS()...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	if cfg.MaxBodyBytes > 0 {
		r.Use(limitBody(cfg.MaxBodyBytes))
	}
	if cfg.RateRPS > 0 {
		rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
		r.Use(rl.Handler())
	}

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.MsgNotFound)
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.MsgMethodNotAllowed)
	})

	r.GET("/health", health(checks))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.SwaggerEnabled {
		docs := r.Group("/swagger", gzip.Gzip(gzip.DefaultCompression))
		docs.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(svc)

	// Every method reaches the handler so the 405 body and CORS headers
	// come from one place.
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Any(cfg.LeadPath, h.Lead)
}

// health runs every check and reports the failing ones by name.
func health(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		failed := map[string]string{}
		for _, hc := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
			err := hc.Check(ctx)
			cancel()
			if err != nil {
				failed[hc.Name] = err.Error()
			}
		}
		if len(failed) > 0 {
			middleware.LoggerFrom(c).Warn().Interface("checks", failed).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// limitBody caps the request body at maxBytes. Reads past the cap fail
// downstream and surface as a 500.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
