package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ErrorLogger drains errors handlers attached via c.Error. Responses are
// already rendered by then; this is the logging backstop for unexpected ones.
func ErrorLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, e := range c.Errors {
			logger.Error().
				Err(e.Err).
				Str("request_id", c.GetString(ContextRequestID)).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Msg("request error")
		}
	}
}
