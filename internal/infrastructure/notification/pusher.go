package notification

import (
	"github.com/freightdesk/backend/internal/application/notification"
	domainNotification "github.com/freightdesk/backend/internal/domain/notification"
	"github.com/freightdesk/backend/internal/infrastructure/websocket"
)

// WebSocketPusher WebSocket 推送实现
type WebSocketPusher struct {
	hub *websocket.Hub
}

// NewWebSocketPusher 创建 WebSocket 推送器
func NewWebSocketPusher(hub *websocket.Hub) *WebSocketPusher {
	return &WebSocketPusher{hub: hub}
}

// PushCreated 广播新通知
func (p *WebSocketPusher) PushCreated(n *domainNotification.Notification) error {
	return p.push(domainNotification.EventCreated, n)
}

// PushRead 广播已读状态
func (p *WebSocketPusher) PushRead(n *domainNotification.Notification) error {
	return p.push(domainNotification.EventRead, n)
}

func (p *WebSocketPusher) push(eventType domainNotification.EventType, n *domainNotification.Notification) error {
	event, err := domainNotification.NewEvent(eventType, n)
	if err != nil {
		return err
	}
	return p.hub.Broadcast(event)
}

// 编译时检查接口实现
var _ notification.Pusher = (*WebSocketPusher)(nil)
