package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/metrics"
)

// Metrics records request count and latency by route template
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := m.StartRequest()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		done(c.Request.Method, route, c.Writer.Status())
	}
}
