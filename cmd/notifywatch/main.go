// notifywatch 连接通知服务，在终端输出实时的收件箱变化
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/freightdesk/backend/internal/domain/events"
	"github.com/freightdesk/backend/internal/infrastructure/config"
	"github.com/freightdesk/backend/internal/infrastructure/discovery"
	applog "github.com/freightdesk/backend/internal/infrastructure/log"
	"github.com/freightdesk/backend/internal/wire"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	baseURL := flag.String("url", "", "notification service base URL, overrides config")
	discover := flag.Bool("discover", false, "resolve the service on the local network")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *baseURL != "" {
		cfg.Client.BaseURL = *baseURL
	}
	if *discover {
		cfg.Client.Discover = true
	}

	// 初始化日志系统，配置文件中的级别优先于 FREIGHTDESK_LOG_* 环境变量
	applog.Init(applog.NewConfigFromEnv().Override("freightdesk-notifywatch", cfg.Log.Level, cfg.Log.Format))
	logger := applog.NewModuleLogger("notifywatch", "main")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 显式指定地址时不做局域网发现
	if cfg.Client.Discover && *baseURL == "" {
		resolved, err := discovery.ProvideBrowser(&cfg.Client).Resolve(ctx)
		switch {
		case err == nil:
			logger.Info("Discovered notification service",
				"base_url", resolved,
			)
			cfg.Client.BaseURL = resolved
		case errors.Is(err, discovery.ErrNoService):
			logger.Warn("No notification service found on LAN, using configured address",
				"base_url", cfg.Client.BaseURL,
			)
		default:
			logger.Warn("LAN discovery failed",
				"error", err,
			)
		}
	}

	client, cleanup, err := wire.InitializeClient(cfg)
	if err != nil {
		logger.Error("Failed to initialize client",
			"error", err,
		)
		os.Exit(1)
	}
	defer cleanup()

	unsubscribe := client.Facade.Subscribe(func(event *events.InboxEvent) {
		logger.Info("Inbox changed",
			"version", event.Version,
			"notifications", len(event.Notifications),
			"unread", event.UnreadCount,
			"connected", event.IsConnected,
			"loading", event.IsLoading,
			"error", event.Error,
		)
	})

	if *configPath != "" {
		go func() {
			err := config.Watch(ctx, *configPath, func(next *config.Config) {
				if next.Log.Level != "" {
					applog.SetLevel(next.Log.Level)
				}
			})
			if err != nil {
				logger.Warn("Config watcher unavailable",
					"error", err,
				)
			}
		}()
	}

	if err := client.Start(ctx); err != nil {
		logger.Error("Failed to start client",
			"error", err,
		)
		unsubscribe()
		client.Stop()
		os.Exit(1)
	}

	<-ctx.Done()

	logger.Info("Shutting down notifywatch...")
	unsubscribe()
	client.Stop()
}
