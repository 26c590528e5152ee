// @title FreightDesk Notification API
// @version 1.0
// @description 货运调度实时通知服务 API
// @host localhost:19970
// @BasePath /api/v1
// @schemes http
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/freightdesk/backend/internal/infrastructure/config"
	applog "github.com/freightdesk/backend/internal/infrastructure/log"
	"github.com/freightdesk/backend/internal/infrastructure/singleton"
	"github.com/freightdesk/backend/internal/wire"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化日志系统，配置文件中的级别优先于 FREIGHTDESK_LOG_* 环境变量
	applog.Init(applog.NewConfigFromEnv().Override("", cfg.Log.Level, cfg.Log.Format))
	logger := applog.GetLogger()

	// Wire 自动生成的初始化函数
	app, cleanup, err := wire.InitializeServer(cfg)
	if err != nil {
		logger.Error("Failed to initialize application",
			"error", err,
		)
		os.Exit(1)
	}
	defer cleanup()

	if err := app.Start(); err != nil {
		if errors.Is(err, singleton.ErrAlreadyRunning) {
			logger.Info("Another instance is already running, exiting",
				"addr", cfg.Server.HTTPPort,
			)
			cleanup()
			os.Exit(0)
		}
		logger.Error("Failed to start application",
			"error", err,
		)
		cleanup()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 配置热更新只调整日志级别，其余配置需重启生效
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

	// 优雅关闭
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-app.Errors():
		logger.Error("HTTP server failed",
			"error", err,
		)
	}

	logger.Info("Shutting down application...")
	cancel()
	if err := app.Stop(); err != nil {
		logger.Error("Error during application shutdown",
			"error", err,
		)
	}
	logger.Info("Application stopped")
}
