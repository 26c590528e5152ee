package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/freightdesk/backend/internal/infrastructure/log"
)

// HeaderCorrelationID 关联 ID 请求头，客户端重试时保持不变
const HeaderCorrelationID = "X-Correlation-Id"

// Correlation 为每个请求分配请求 ID 和关联 ID，写入上下文和响应头
func Correlation() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlation := c.GetHeader(HeaderCorrelationID)
		if correlation == "" {
			correlation = uuid.NewString()
		}

		ctx := log.WithRequestID(c.Request.Context(), uuid.NewString())
		ctx = log.WithCorrelationID(ctx, correlation)
		c.Request = c.Request.WithContext(ctx)

		c.Header(HeaderCorrelationID, correlation)
		c.Next()
	}
}
