package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	prom "github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request counts and latencies by route template, so path
// parameters do not explode label cardinality.
func Metrics(m *prom.ConsolidationMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		active := m.HTTPActiveRequests.WithLabelValues()
		active.Inc()
		defer active.Dec()

		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

//Personal.AI order the ending
