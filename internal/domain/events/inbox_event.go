package events

import (
	"time"

	"github.com/freightdesk/backend/internal/domain/notification"
)

// InboxEvent 收件箱变更事件
// 携带变更后的只读快照，订阅者直接用于渲染
type InboxEvent struct {
	// EventType 事件类型
	EventType EventType
	// Version 单调递增的版本号，订阅者据此丢弃乱序到达的旧事件
	Version uint64
	// Notifications 排序后的通知快照
	Notifications []notification.Notification
	// UnreadCount 未读数
	UnreadCount int
	// IsConnected 实时通道是否可用
	IsConnected bool
	// IsLoading 是否有拉取请求在途
	IsLoading bool
	// Error 最近一次失败信息
	Error string
	// EventTime 事件发生时间
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *InboxEvent) Type() EventType {
	return e.EventType
}

// Timestamp 实现 Event 接口
func (e *InboxEvent) Timestamp() time.Time {
	return e.EventTime
}
