package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adlnet/edlm-portal-backend/internal/observability"
)

// Metrics records latency per route and, for failed requests, an error count
// per resource and service error code. Scrapes of /metrics are not counted.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.FullPath() == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		m.APIInflight(1)
		defer m.APIInflight(-1)

		c.Next()

		route := c.FullPath()
		status := c.Writer.Status()
		m.ObserveAPI(c.Request.Method, route, status, time.Since(start))
		if status >= 400 {
			m.ObserveAPIError(resourceOf(route), errorCode(c))
		}
	}
}
