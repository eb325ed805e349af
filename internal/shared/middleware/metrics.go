package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"bookstore-fulfillment/pkg/metrics"
)

// Metrics records request count and latency by matched route template.
func Metrics(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.Observe(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
