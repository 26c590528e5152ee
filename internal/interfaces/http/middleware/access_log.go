package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/freightdesk/backend/internal/infrastructure/log"
)

// AccessLog 结构化访问日志，携带关联 ID
func AccessLog() gin.HandlerFunc {
	logger := log.NewModuleLogger("http", "access")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// WebSocket 升级后的长连接不记录
		if c.Writer.Status() == 101 {
			return
		}

		args := append(log.LogCtxFromContext(c.Request.Context()),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
		if c.Writer.Status() >= 500 {
			logger.Warn("request failed", args...)
			return
		}
		logger.Debug("request handled", args...)
	}
}
