package application

import (
	"github.com/google/wire"

	"github.com/freightdesk/backend/internal/application/inbox"
	"github.com/freightdesk/backend/internal/application/notification"
)

// ProviderSet 服务端应用层总 ProviderSet
var ProviderSet = wire.NewSet(
	notification.ProviderSet,
)

// ClientProviderSet 消费方应用层总 ProviderSet
var ClientProviderSet = wire.NewSet(
	inbox.ProviderSet,
)
