package log

import (
	"context"
	"log/slog"
)

type contextKey string

// 上下文键定义
const (
	// RequestContextID HTTP 请求 ID
	RequestContextID contextKey = "request_id"

	// CorrelationContextID 跨服务关联 ID
	CorrelationContextID contextKey = "correlation_id"

	// NotificationContextID 通知 ID
	NotificationContextID contextKey = "notification_id"
)

// WithRequestID 在上下文中添加请求 ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestContextID, requestID)
}

// WithCorrelationID 在上下文中添加关联 ID
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, CorrelationContextID, correlationID)
}

// CorrelationID 读取关联 ID
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(CorrelationContextID).(string)
	return id
}

// WithNotificationID 在上下文中添加通知 ID
func WithNotificationID(ctx context.Context, notificationID string) context.Context {
	return context.WithValue(ctx, NotificationContextID, notificationID)
}

// LogCtxFromContext 从上下文中提取日志字段
func LogCtxFromContext(ctx context.Context) []any {
	var attrs []any

	if id, ok := ctx.Value(RequestContextID).(string); ok {
		attrs = append(attrs, slog.String(string(RequestContextID), id))
	}
	if id, ok := ctx.Value(CorrelationContextID).(string); ok {
		attrs = append(attrs, slog.String(string(CorrelationContextID), id))
	}
	if id, ok := ctx.Value(NotificationContextID).(string); ok {
		attrs = append(attrs, slog.String(string(NotificationContextID), id))
	}

	return attrs
}

// FromContext 返回附带上下文字段的 logger
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	attrs := LogCtxFromContext(ctx)
	if len(attrs) == 0 {
		return logger
	}
	return logger.With(attrs...)
}
