package storage

import (
	"strings"

	"github.com/google/wire"

	"github.com/freightdesk/backend/internal/domain/notification"
	"github.com/freightdesk/backend/internal/infrastructure/config"
	infraNotification "github.com/freightdesk/backend/internal/infrastructure/notification"
	"github.com/freightdesk/backend/internal/infrastructure/log"
)

// memoryDSN 使用进程内仓储，不落盘
const memoryDSN = "memory://"

// ProviderSet Storage 基础设施层 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideRepository, // 按 DSN 选择通知仓储
)

// ProvideRepository 按 DSN 提供通知仓储
// memory:// 使用内存仓储，postgres:// 使用 postgres，其余为 sqlite 文件
func ProvideRepository(cfg *config.DatabaseConfig) (notification.Repository, func(), error) {
	logger := log.NewModuleLogger("storage", "repository")

	if strings.HasPrefix(cfg.DSN, memoryDSN) {
		logger.Info("using in-memory notification repository")
		return infraNotification.NewMemoryRepository(), func() {}, nil
	}

	db, err := OpenDB(cfg.DSN)
	if err != nil {
		return nil, nil, err
	}

	driver, _ := parseDSN(cfg.DSN)
	logger.Info("notification repository opened",
		"driver", driver,
	)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database",
				"error", err,
			)
		}
	}
	return NewNotificationRepository(db), cleanup, nil
}
