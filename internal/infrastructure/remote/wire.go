package remote

import (
	"net/http"

	"github.com/google/wire"

	"github.com/freightdesk/backend/internal/application/inbox"
	"github.com/freightdesk/backend/internal/infrastructure/config"
)

// ProviderSet 远程通知服务客户端 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideHTTPClient,
	wire.Bind(new(inbox.Remote), new(*HTTPClient)),
)

// ProvideHTTPClient 根据客户端配置创建
func ProvideHTTPClient(cfg *config.ClientConfig) *HTTPClient {
	return NewHTTPClient(cfg.BaseURL,
		&http.Client{Timeout: cfg.RequestTimeout},
		WithMaxRetries(cfg.MaxRetries),
	)
}
