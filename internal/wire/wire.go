//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"

	"github.com/freightdesk/backend/internal/application"
	"github.com/freightdesk/backend/internal/domain/notification"
	"github.com/freightdesk/backend/internal/infrastructure"
	"github.com/freightdesk/backend/internal/infrastructure/config"
	"github.com/freightdesk/backend/internal/interfaces"
)

// InitializeServer 初始化通知服务（HTTP + WebSocket + MCP）
func InitializeServer(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		// 按层组合 ProviderSet
		infrastructure.ProviderSet, // 基础设施层
		notification.ProviderSet,   // 领域层
		application.ProviderSet,    // 应用层
		interfaces.ProviderSet,     // 接口层
		NewApp,
	)
	return nil, nil, nil
}

// InitializeClient 初始化通知消费方（收件箱门面 + 推送通道）
func InitializeClient(cfg *config.Config) (*Client, func(), error) {
	wire.Build(
		infrastructure.ClientProviderSet,
		notification.ProviderSet,
		application.ClientProviderSet,
		NewClient,
	)
	return nil, nil, nil
}
