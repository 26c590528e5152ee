package infrastructure

import (
	"github.com/google/wire"

	"github.com/freightdesk/backend/internal/infrastructure/config"
	"github.com/freightdesk/backend/internal/infrastructure/discovery"
	"github.com/freightdesk/backend/internal/infrastructure/eventbus"
	"github.com/freightdesk/backend/internal/infrastructure/notification"
	"github.com/freightdesk/backend/internal/infrastructure/push"
	"github.com/freightdesk/backend/internal/infrastructure/remote"
	"github.com/freightdesk/backend/internal/infrastructure/storage"
	"github.com/freightdesk/backend/internal/infrastructure/validation"
	"github.com/freightdesk/backend/internal/infrastructure/websocket"
)

// ProviderSet 通知服务端基础设施层总 ProviderSet
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	websocket.ProviderSet,
	notification.ProviderSet,
	storage.ProviderSet,
	validation.ProviderSet,
	discovery.ProviderSet,
)

// ClientProviderSet 通知消费方基础设施层总 ProviderSet
var ClientProviderSet = wire.NewSet(
	config.ProviderSet,
	eventbus.ProviderSet,
	remote.ProviderSet,
	push.ProviderSet,
	validation.ProviderSet,
	discovery.ProviderSet,
)
