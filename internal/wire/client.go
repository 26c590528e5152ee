package wire

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/freightdesk/backend/internal/application/inbox"
	"github.com/freightdesk/backend/internal/domain/events"
	"github.com/freightdesk/backend/internal/domain/notification"
	"github.com/freightdesk/backend/internal/infrastructure/config"
	applog "github.com/freightdesk/backend/internal/infrastructure/log"
	"github.com/freightdesk/backend/internal/infrastructure/push"
)

// Client 通知消费方，组合收件箱门面与推送通道
type Client struct {
	Facade *inbox.Facade

	cfg           *config.ClientConfig
	bus           events.EventBus
	newConnection push.ConnectionManagerFactory
	logger        *slog.Logger

	mu   sync.Mutex
	conn *push.ConnectionManager
}

// NewClient 创建消费方实例
func NewClient(
	cfg *config.ClientConfig,
	facade *inbox.Facade,
	bus events.EventBus,
	factory push.ConnectionManagerFactory,
) *Client {
	return &Client{
		Facade:        facade,
		cfg:           cfg,
		bus:           bus,
		newConnection: factory,
		logger:        applog.NewModuleLogger("app", "client"),
	}
}

// Start 建立推送通道并拉取首页
// 首页拉取失败只记录，门面状态会携带错误，推送通道重连后自动补偿
func (c *Client) Start(ctx context.Context) error {
	endpoint, err := push.WebSocketURL(c.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid notification service address: %w", err)
	}

	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	conn := c.newConnection(endpoint, c.Facade.LiveListener())
	c.conn = conn
	c.mu.Unlock()

	c.Facade.AttachConnection(conn)
	conn.Start()

	page, err := c.Facade.Fetch(ctx, notification.Filter{Limit: c.cfg.PageSize})
	if err != nil {
		c.logger.Warn("Initial fetch failed",
			"base_url", c.cfg.BaseURL,
			"error", err,
		)
		return nil
	}
	c.logger.Info("Notification client started",
		"base_url", c.cfg.BaseURL,
		"loaded", len(page.Items),
		"total", page.Total,
	)
	return nil
}

// Stop 关闭推送通道、补偿任务与事件总线
func (c *Client) Stop() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			c.logger.Warn("Failed to close push connection",
				"error", err,
			)
		}
	}
	c.Facade.Close()
	c.bus.Close()
}
