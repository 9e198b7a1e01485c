// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the cross-origin posture of the API: any origin, the
// Content-Type request header, and the POST/OPTIONS methods.
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Values of the CORS response headers.
const (
	CORSAllowOrigin  = "*"
	CORSAllowHeaders = "Content-Type"
	CORSAllowMethods = "POST, OPTIONS"
)

// CORS returns the middleware chain that puts the CORS headers on every
// response. The first handler writes them unconditionally, including for
// requests without an Origin header. The second (gin-contrib/cors) answers
// browser pre-flight requests with an empty 200 and handles Vary/Expose.
func CORS() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", CORSAllowOrigin)
			h.Set("Access-Control-Allow-Headers", CORSAllowHeaders)
			h.Set("Access-Control-Allow-Methods", CORSAllowMethods)
			c.Next()
		},
		cors.New(cors.Config{
			AllowAllOrigins: true,
			// one entry, so the pre-flight header keeps the ", " separator
			AllowMethods:              []string{CORSAllowMethods},
			AllowHeaders:              []string{CORSAllowHeaders},
			ExposeHeaders:             []string{requestIDHeader},
			AllowCredentials:          false,
			MaxAge:                    12 * time.Hour,
			OptionsResponseStatusCode: http.StatusOK,
		}),
	}
}
