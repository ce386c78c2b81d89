// Package middleware provides the gin middleware of the timing API:
// request logging and request metrics.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nrkno/sofie-core-sub006/internal/logger"
)

// RequestLogger logs one structured line per request. Timing views are
// polled aggressively by presentation clients, so the line stays short.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)

		logger.Log.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")

		if len(c.Errors) > 0 {
			logger.Log.Error().
				Strs("errors", c.Errors.Errors()).
				Str("path", path).
				Msg("Request completed with errors")
		}
	}
}
