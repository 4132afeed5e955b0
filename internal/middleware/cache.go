package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore marks responses uncacheable. Availability and hold state must
// always come from a fresh computation, never an intermediary cache.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
