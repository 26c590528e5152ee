package wire

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/freightdesk/backend/internal/infrastructure/config"
	"github.com/freightdesk/backend/internal/infrastructure/discovery"
	applog "github.com/freightdesk/backend/internal/infrastructure/log"
	"github.com/freightdesk/backend/internal/infrastructure/singleton"
	"github.com/freightdesk/backend/internal/infrastructure/websocket"
	"github.com/freightdesk/backend/internal/interfaces"
)

// Version 服务版本，通过局域网发布给消费方
const Version = "1.0.0"

// App 通知服务主结构，组合所有服务
type App struct {
	HTTPServer *interfaces.HTTPServer
	MCPServer  *interfaces.MCPServer
	wsHub      *websocket.Hub
	advertiser *discovery.Advertiser
	serverCfg  config.ServerConfig
	discovery  config.DiscoveryConfig
	serveErr   chan error
	logger     *slog.Logger
}

// NewApp 创建应用实例
func NewApp(
	cfg *config.Config,
	httpServer *interfaces.HTTPServer,
	mcpServer *interfaces.MCPServer,
	wsHub *websocket.Hub,
	advertiser *discovery.Advertiser,
) *App {
	return &App{
		HTTPServer: httpServer,
		MCPServer:  mcpServer,
		wsHub:      wsHub,
		advertiser: advertiser,
		serverCfg:  cfg.Server,
		discovery:  cfg.Discovery,
		serveErr:   make(chan error, 1),
		logger:     applog.NewModuleLogger("app", "main"),
	}
}

// Start 启动所有服务
// 端口已被另一个健康实例占用时返回 singleton.ErrAlreadyRunning
func (a *App) Start() error {
	a.logger.Info("Starting FreightDesk notification service")

	listener, err := singleton.Acquire(a.HTTPServer.Addr())
	if err != nil {
		return err
	}

	// 启动 WebSocket Hub
	a.wsHub.Start()

	// 启动 HTTP 服务器（goroutine）
	go func(l net.Listener) {
		if err := a.HTTPServer.Serve(l); err != nil {
			a.logger.Error("HTTP server stopped unexpectedly",
				"error", err,
			)
			a.serveErr <- err
		}
	}(listener)

	if a.discovery.Advertise {
		if err := a.advertiser.Start(a.instanceName(), a.HTTPServer.Port(), Version); err != nil {
			// 发布失败不影响本机访问
			a.logger.Warn("Failed to advertise service on LAN",
				"error", err,
			)
		}
	}

	a.logger.Info("FreightDesk notification service started",
		"addr", listener.Addr().String(),
		"mcp", a.serverCfg.EnableMCP,
	)
	return nil
}

// Errors 服务运行期间的致命错误
func (a *App) Errors() <-chan error {
	return a.serveErr
}

// Stop 停止所有服务
func (a *App) Stop() error {
	a.logger.Info("Stopping FreightDesk notification service")

	a.advertiser.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), a.serverCfg.ShutdownTimeout)
	defer cancel()
	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		a.logger.Error("Failed to stop HTTP server",
			"error", err,
		)
		a.wsHub.Stop()
		return err
	}

	a.wsHub.Stop()

	a.logger.Info("FreightDesk notification service stopped")
	return nil
}

// instanceName 局域网实例名，未配置时使用主机名
func (a *App) instanceName() string {
	if a.discovery.Instance != "" {
		return a.discovery.Instance
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "freightdesk"
	}
	return fmt.Sprintf("freightdesk-%s", host)
}
