package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/freightdesk/backend/internal/domain/notification"
	"github.com/freightdesk/backend/internal/infrastructure/log"
)

// maxMessageSize 单条推送消息上限
const maxMessageSize = 512 * 1024

// WebSocketClient 实时通道客户端
type WebSocketClient struct {
	mu       sync.RWMutex
	conn     *websocket.Conn
	endpoint string
	state    notification.ConnectionState
	lastPing time.Time
	connDone chan struct{}
	sendChan chan []byte
	closed   bool

	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration

	listener notification.EventListener
	logger   *slog.Logger
}

// NewWebSocketClient 创建实时通道客户端
// endpoint 为完整的 ws:// 或 wss:// 地址
func NewWebSocketClient(endpoint string, listener notification.EventListener) *WebSocketClient {
	return &WebSocketClient{
		endpoint:          endpoint,
		state:             notification.StateDisconnected,
		sendChan:          make(chan []byte, 64),
		heartbeatInterval: notification.HeartbeatInterval,
		heartbeatTimeout:  notification.HeartbeatTimeout,
		listener:          listener,
		logger:            log.NewModuleLogger("push", "websocket_client"),
	}
}

// WebSocketURL 根据服务基础地址生成推送地址
// http 映射为 ws，https 映射为 wss
func WebSocketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/v1/notifications/ws"
	return u.String(), nil
}

// Connect 建立连接
func (c *WebSocketClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("client closed")
	}
	if c.state == notification.StateConnected {
		c.mu.Unlock()
		return nil
	}
	c.state = notification.StateConnecting
	c.mu.Unlock()

	c.logger.Info("connecting to notification channel",
		"url", c.endpoint,
	)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		c.mu.Lock()
		c.state = notification.StateDisconnected
		c.mu.Unlock()
		return fmt.Errorf("failed to connect: %w", err)
	}

	done := make(chan struct{})
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return fmt.Errorf("client closed")
	}
	c.conn = conn
	c.connDone = done
	c.state = notification.StateConnected
	c.lastPing = time.Now()
	c.mu.Unlock()

	c.logger.Info("connected to notification channel",
		"url", c.endpoint,
	)

	if c.listener != nil {
		c.listener.OnConnect()
	}

	go c.readPump(conn, done)
	go c.writePump(conn, done)

	return nil
}

// readPump 读取推送
func (c *WebSocketClient) readPump(conn *websocket.Conn, done chan struct{}) {
	var readErr error
	defer func() {
		c.handleDisconnect(conn, done, readErr)
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(c.heartbeatTimeout))
	conn.SetPongHandler(func(string) error {
		c.touch()
		return conn.SetReadDeadline(time.Now().Add(c.heartbeatTimeout))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
				// 主动关闭
			default:
				readErr = err
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					c.logger.Warn("connection read error",
						"error", err,
					)
				}
			}
			return
		}

		c.touch()
		_ = conn.SetReadDeadline(time.Now().Add(c.heartbeatTimeout))

		var event notification.Event
		if err := json.Unmarshal(message, &event); err != nil {
			c.logger.Warn("failed to parse message",
				"error", err,
			)
			continue
		}

		if event.Type == notification.EventPong || event.Type == notification.EventPing {
			continue
		}

		if c.listener != nil {
			c.listener.OnEvent(&event)
		}
	}
}

// writePump 发送心跳与待发消息
func (c *WebSocketClient) writePump(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(c.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case message := <-c.sendChan:
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("failed to write message",
					"error", err,
				)
				conn.Close()
				return
			}
		case <-ticker.C:
			pingEvent, _ := notification.NewEvent(notification.EventPing, nil)
			data, _ := json.Marshal(pingEvent)
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				conn.Close()
				return
			}
		}
	}
}

// touch 记录最近一次收到数据的时间
func (c *WebSocketClient) touch() {
	c.mu.Lock()
	c.lastPing = time.Now()
	c.mu.Unlock()
}

// handleDisconnect 处理断开，只对当前连接生效
func (c *WebSocketClient) handleDisconnect(conn *websocket.Conn, done chan struct{}, err error) {
	c.mu.Lock()
	current := c.conn == conn
	if current {
		c.state = notification.StateDisconnected
		c.conn = nil
	}
	select {
	case <-done:
	default:
		close(done)
	}
	c.mu.Unlock()

	conn.Close()

	if !current {
		return
	}

	c.logger.Info("disconnected from notification channel",
		"url", c.endpoint,
	)
	if c.listener != nil {
		c.listener.OnDisconnect(err)
	}
}

// Send 发送事件
func (c *WebSocketClient) Send(event *notification.Event) error {
	if !c.IsConnected() {
		return fmt.Errorf("not connected")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case c.sendChan <- data:
		return nil
	default:
		return fmt.Errorf("send buffer full")
	}
}

// Close 关闭连接，关闭后不能再次连接
func (c *WebSocketClient) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	done := c.connDone
	c.conn = nil
	c.state = notification.StateDisconnected
	if done != nil {
		select {
		case <-done:
		default:
			close(done)
		}
	}
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		return conn.Close()
	}
	return nil
}

// GetState 获取连接状态
func (c *WebSocketClient) GetState() notification.ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected 是否已连接
func (c *WebSocketClient) IsConnected() bool {
	return c.GetState() == notification.StateConnected
}

// LastPing 最近一次收到数据的时间
func (c *WebSocketClient) LastPing() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastPing
}
