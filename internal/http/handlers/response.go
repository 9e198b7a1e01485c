// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response envelopes and the helpers that write them,
// so success and failure bodies have the same shape on every route.
//
// Conventions:
//   - Every error response is an ErrorResponse: {"error": "<message>"}.
//   - `fail()` centralizes error logging; 5xx responses are logged with the
//     request-scoped logger (the correlation id travels in X-Request-ID).
//   - `ok()` writes a JSON success body.
//
// Example error response:
//
//	HTTP/1.1 405 Method Not Allowed
//	{ "error": "Method not allowed" }
//
// Example success response:
//
//	HTTP/1.1 200 OK
//	{ "success": true, "message": "Lead guardado y enviado a CAPI", "data": [ ... ] }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lead-capture/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by all endpoints.
type ErrorResponse struct {
	// Human-readable message; for store failures, the raw store error.
	Error string `json:"error" example:"Method not allowed"`
}

// fail aborts the request with an ErrorResponse and logs server-side errors.
func fail(c *gin.Context, status int, msg string) {
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("error", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}

// Fail is the exported variant of fail(), used by router fallbacks.
func Fail(c *gin.Context, status int, msg string) { fail(c, status, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// empty writes status with no body.
func empty(c *gin.Context, status int) {
	c.Status(status)
	c.Writer.WriteHeaderNow()
}
