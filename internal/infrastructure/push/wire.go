package push

import (
	"github.com/google/wire"

	"github.com/freightdesk/backend/internal/domain/notification"
	"github.com/freightdesk/backend/internal/infrastructure/config"
)

// ProviderSet 推送通道 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideConnectionManagerFactory,
)

// ConnectionManagerFactory 按监听器创建连接管理器
// 监听器由门面提供，门面又依赖连接状态，故以工厂形式注入
type ConnectionManagerFactory func(endpoint string, listener notification.EventListener) *ConnectionManager

// ProvideConnectionManagerFactory 根据客户端配置创建工厂
func ProvideConnectionManagerFactory(cfg *config.Config) ConnectionManagerFactory {
	return func(endpoint string, listener notification.EventListener) *ConnectionManager {
		return NewConnectionManager(endpoint, listener,
			WithReconnectInterval(cfg.Client.ReconnectMin, cfg.Client.ReconnectMax),
			WithHeartbeat(cfg.WebSocket.HeartbeatInterval, cfg.WebSocket.HeartbeatTimeout),
		)
	}
}
