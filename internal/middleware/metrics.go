package middleware

import (
	"time"

	"portkeeper/services"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware records per-route request counts, durations and
// error counts for the Prometheus endpoint.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}

		services.IncrementRequestCount(route)
		services.RecordRequestDuration(route, time.Since(start).Seconds())
		if c.Writer.Status() >= 400 {
			services.IncrementErrorCount(route)
		}
	}
}
