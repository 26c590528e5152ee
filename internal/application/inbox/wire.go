package inbox

import (
	"github.com/freightdesk/backend/internal/domain/events"
	"github.com/freightdesk/backend/internal/domain/notification"
	"github.com/google/wire"
)

// ProviderSet 收件箱应用层 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideFacade,
)

// ProvideFacade 供 Wire 使用的构造函数
func ProvideFacade(remote Remote, bus events.EventBus, domainSvc *notification.Service, decoder FilterDecoder) *Facade {
	return NewFacade(remote, bus, domainSvc, WithFilterDecoder(decoder))
}
