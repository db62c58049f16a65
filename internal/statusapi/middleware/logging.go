package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// SlogRequestLogger logs one line per request through the status API's
// listener. Since this surface has no write endpoints, the
// two things worth calling out are auth rejections (an API key was
// configured and the caller got it wrong) and response size, since
// /querylog is the one route whose payload varies with what a caller
// asks for rather than with fixed resolver state.
func SlogRequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if logger == nil {
			return
		}

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"response_bytes", c.Writer.Size(),
			"remote", c.Request.RemoteAddr,
		}

		if status == 401 || status == 403 {
			logger.Warn("status api auth rejected", fields...)
			return
		}
		logger.Info("status api request", fields...)
	}
}
