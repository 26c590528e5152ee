package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/freightdesk/backend/internal/domain/notification"
	"github.com/freightdesk/backend/internal/infrastructure/config"
	"github.com/freightdesk/backend/internal/infrastructure/log"
)

// ErrHubStopped Hub 已停止
var ErrHubStopped = errors.New("websocket hub stopped")

// maxMessageSize 客户端上行消息上限
const maxMessageSize = 64 * 1024

// Hub WebSocket 连接管理中心，向所有订阅者广播通知事件
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	stopOnce   sync.Once
	startOnce  sync.Once

	upgrader          websocket.Upgrader
	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration
	logger            *slog.Logger
}

// Client 单个订阅连接
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub 创建 Hub
func NewHub(cfg *config.WebSocketConfig) *Hub {
	h := &Hub{
		clients:           make(map[*Client]struct{}),
		register:          make(chan *Client),
		unregister:        make(chan *Client),
		broadcast:         make(chan []byte, 64),
		done:              make(chan struct{}),
		heartbeatInterval: notification.HeartbeatInterval,
		heartbeatTimeout:  notification.HeartbeatTimeout,
		logger:            log.NewModuleLogger("websocket", "hub"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // 局域网内允许所有来源
			},
		},
	}
	if cfg != nil {
		if cfg.ReadBufferSize > 0 {
			h.upgrader.ReadBufferSize = cfg.ReadBufferSize
		}
		if cfg.WriteBufferSize > 0 {
			h.upgrader.WriteBufferSize = cfg.WriteBufferSize
		}
		if cfg.HeartbeatInterval > 0 {
			h.heartbeatInterval = cfg.HeartbeatInterval
		}
		if cfg.HeartbeatTimeout > 0 {
			h.heartbeatTimeout = cfg.HeartbeatTimeout
		}
	}
	return h
}

// Run 运行 Hub（需要在 goroutine 中运行）
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					// 消费过慢的连接直接断开，由客户端重连后补偿
					delete(h.clients, c)
					close(c.send)
					h.logger.Warn("dropping slow subscriber",
						"remote", c.conn.RemoteAddr().String(),
					)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Start 启动 Hub（启动后台 goroutine）
func (h *Hub) Start() {
	h.startOnce.Do(func() {
		go h.Run()
	})
}

// Stop 停止 Hub 并关闭所有连接
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// ClientCount 当前订阅者数量
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast 向所有订阅者广播事件
func (h *Hub) Broadcast(event *notification.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.broadcast <- data:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// ServeWS 升级 HTTP 连接并注册为订阅者
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return ErrHubStopped
	}

	h.logger.Info("subscriber connected",
		"remote", conn.RemoteAddr().String(),
	)

	go c.writePump()
	go c.readPump()
	return nil
}

// readPump 读取客户端消息，只处理心跳
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
		c.hub.logger.Info("subscriber disconnected",
			"remote", c.conn.RemoteAddr().String(),
		)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.hub.heartbeatTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.heartbeatTimeout))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("connection read error",
					"error", err,
				)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.hub.heartbeatTimeout))

		var event notification.Event
		if err := json.Unmarshal(message, &event); err != nil {
			continue
		}
		if event.Type != notification.EventPing {
			continue
		}

		pong, _ := notification.NewEvent(notification.EventPong, nil)
		data, _ := json.Marshal(pong)
		c.hub.mu.RLock()
		_, alive := c.hub.clients[c]
		if alive {
			select {
			case c.send <- data:
			default:
			}
		}
		c.hub.mu.RUnlock()
	}
}

// writePump 写出广播消息和控制帧心跳
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.heartbeatInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
