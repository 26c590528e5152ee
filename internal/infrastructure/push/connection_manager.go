package push

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/freightdesk/backend/internal/domain/notification"
	"github.com/freightdesk/backend/internal/infrastructure/log"
)

// ConnectionManager 连接管理器
// 维护一条到通知服务的实时连接，断开后按指数退避自动重连
type ConnectionManager struct {
	mu       sync.RWMutex
	client   *WebSocketClient
	endpoint string
	listener notification.EventListener

	minInterval       time.Duration
	maxInterval       time.Duration
	checkInterval     time.Duration
	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration

	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// ManagerOption 连接管理器配置项
type ManagerOption func(*ConnectionManager)

// WithReconnectInterval 设置重连退避区间
func WithReconnectInterval(min, max time.Duration) ManagerOption {
	return func(m *ConnectionManager) {
		if min > 0 {
			m.minInterval = min
		}
		if max >= m.minInterval {
			m.maxInterval = max
		}
	}
}

// WithHeartbeat 设置心跳间隔与超时
func WithHeartbeat(interval, timeout time.Duration) ManagerOption {
	return func(m *ConnectionManager) {
		if interval > 0 {
			m.heartbeatInterval = interval
		}
		if timeout > 0 {
			m.heartbeatTimeout = timeout
		}
	}
}

// withCheckInterval 设置连接巡检间隔（测试使用）
func withCheckInterval(d time.Duration) ManagerOption {
	return func(m *ConnectionManager) {
		m.checkInterval = d
	}
}

// NewConnectionManager 创建连接管理器
func NewConnectionManager(endpoint string, listener notification.EventListener, opts ...ManagerOption) *ConnectionManager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &ConnectionManager{
		endpoint:          endpoint,
		listener:          listener,
		minInterval:       notification.ReconnectMinInterval,
		maxInterval:       notification.ReconnectMaxInterval,
		checkInterval:     time.Second,
		heartbeatInterval: notification.HeartbeatInterval,
		heartbeatTimeout:  notification.HeartbeatTimeout,
		logger:            log.NewModuleLogger("push", "connection_manager"),
		ctx:               ctx,
		cancel:            cancel,
	}
	for _, opt := range opts {
		opt(m)
	}

	client := NewWebSocketClient(endpoint, listener)
	client.heartbeatInterval = m.heartbeatInterval
	client.heartbeatTimeout = m.heartbeatTimeout
	m.client = client
	return m
}

// Start 启动连接与重连监控，立即返回
// 首次连接失败不会报错，由监控循环继续重试
func (m *ConnectionManager) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.monitorConnection()
}

// monitorConnection 监控连接状态，断开时自动重连
func (m *ConnectionManager) monitorConnection() {
	defer m.wg.Done()

	retryInterval := m.minInterval
	for {
		if m.ctx.Err() != nil {
			return
		}

		if m.client.IsConnected() {
			retryInterval = m.minInterval
			select {
			case <-m.ctx.Done():
				return
			case <-time.After(m.checkInterval):
			}
			continue
		}

		if err := m.client.Connect(m.ctx); err != nil {
			if m.ctx.Err() != nil {
				return
			}
			m.logger.Warn("connect failed",
				"endpoint", m.endpoint,
				"retry_interval", retryInterval,
				"error", err,
			)

			select {
			case <-m.ctx.Done():
				return
			case <-time.After(retryInterval):
			}

			// 指数退避
			retryInterval *= 2
			if retryInterval > m.maxInterval {
				retryInterval = m.maxInterval
			}
			continue
		}

		m.logger.Info("notification channel connected",
			"endpoint", m.endpoint,
		)
		retryInterval = m.minInterval
	}
}

// IsConnected 是否已连接
func (m *ConnectionManager) IsConnected() bool {
	return m.client.IsConnected()
}

// State 当前连接状态
func (m *ConnectionManager) State() notification.ConnectionState {
	return m.client.GetState()
}

// Endpoint 推送地址
func (m *ConnectionManager) Endpoint() string {
	return m.endpoint
}

// Close 停止重连并关闭连接
func (m *ConnectionManager) Close() error {
	m.cancel()
	err := m.client.Close()
	m.wg.Wait()

	m.logger.Info("connection manager closed",
		"endpoint", m.endpoint,
	)
	return err
}
