package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oncology-insights-server/internal/metrics"
)

// Metrics records request counts and latency per matched route
func Metrics(m *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
