// Package events 定义领域事件类型和接口
// 用于系统内部的事件驱动通信
package events

import "time"

// EventType 事件类型标识
type EventType string

// 收件箱相关事件类型
const (
	// InboxChanged 通知集合或未读数变化
	InboxChanged EventType = "inbox.changed"
	// InboxStateChanged 连接/加载/错误状态变化
	InboxStateChanged EventType = "inbox.state_changed"
)

// Event 领域事件接口
// 所有事件类型都必须实现此接口
type Event interface {
	// Type 返回事件类型
	Type() EventType
	// Timestamp 返回事件发生时间
	Timestamp() time.Time
}
