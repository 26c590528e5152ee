package notification

import (
	"github.com/google/wire"

	appNotification "github.com/freightdesk/backend/internal/application/notification"
)

// ProviderSet 通知基础设施层 ProviderSet
// 仓储实现由 storage 包按 DSN 选择
var ProviderSet = wire.NewSet(
	NewWebSocketPusher,
	wire.Bind(
		new(appNotification.Pusher),
		new(*WebSocketPusher),
	),
)
