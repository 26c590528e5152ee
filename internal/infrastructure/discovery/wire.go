package discovery

import (
	"github.com/google/wire"

	"github.com/freightdesk/backend/internal/infrastructure/config"
)

// ProviderSet 服务发现 ProviderSet
var ProviderSet = wire.NewSet(
	NewAdvertiser,
	ProvideBrowser,
)

// ProvideBrowser 按客户端配置创建发现器
func ProvideBrowser(cfg *config.ClientConfig) *Browser {
	return NewBrowser(cfg.DiscoverTimeout)
}
