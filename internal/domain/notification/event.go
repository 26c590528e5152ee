package notification

import (
	"encoding/json"
	"time"
)

// EventType 实时通道事件类型
type EventType string

const (
	EventCreated EventType = "notification.created" // 新通知
	EventRead    EventType = "notification.read"    // 已读状态变更

	EventPing EventType = "ping" // 心跳
	EventPong EventType = "pong" // 心跳响应
)

// 心跳配置
const (
	HeartbeatInterval = 30 * time.Second
	HeartbeatTimeout  = 60 * time.Second
)

// 重连配置
const (
	ReconnectMinInterval = 1 * time.Second
	ReconnectMaxInterval = 30 * time.Second
)

// Event 实时通道事件
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewEvent 创建新事件
func NewEvent(eventType EventType, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   data,
	}, nil
}

// ParsePayload 解析事件数据
func (e *Event) ParsePayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// ConnectionState 连接状态
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

// String 返回状态字符串
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// EventListener 实时通道监听器
type EventListener interface {
	// OnEvent 收到推送事件
	OnEvent(event *Event)
	// OnConnect 每次连接（含重连）成功
	OnConnect()
	// OnDisconnect 连接断开
	OnDisconnect(err error)
}
