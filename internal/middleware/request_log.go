package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/funwriting/ai-agents/internal/logger"
)

// RequestLogger logs each request with latency and status.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	requestLog := log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		requestLog.Info("Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
