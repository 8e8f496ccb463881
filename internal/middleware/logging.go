package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs every HTTP request with method, path, status, user, and
// duration. Errors attached to the gin context are logged at warn level.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Milliseconds()
		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"user_id", GetUserID(c),
			"duration_ms", duration,
		}

		switch {
		case len(c.Errors) > 0:
			slog.Warn("request error", append(attrs, "error", c.Errors.String())...)
		case status >= 500:
			slog.Error("request failed", attrs...)
		default:
			slog.Info("request ok", attrs...)
		}
	}
}
