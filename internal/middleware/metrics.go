package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nrkno/sofie-core-sub006/internal/metrics"
)

// RequestMetrics returns a Gin middleware that counts requests and
// error responses.
func RequestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.IncRequests()

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			m.IncErrors()
		}
	}
}
