package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// 环境变量名
const (
	EnvHTTPPort       = "FREIGHTDESK_HTTP_PORT"
	EnvDatabaseDSN    = "FREIGHTDESK_DATABASE_DSN"
	EnvBaseURL        = "FREIGHTDESK_BASE_URL"
	EnvDiscover       = "FREIGHTDESK_DISCOVER"
	EnvMaxRetries     = "FREIGHTDESK_MAX_RETRIES"
	EnvRequestTimeout = "FREIGHTDESK_REQUEST_TIMEOUT"
	EnvLogLevel       = "FREIGHTDESK_LOG_LEVEL"
	EnvAdvertise      = "FREIGHTDESK_ADVERTISE"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Client    ClientConfig    `yaml:"client"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort        string        `yaml:"httpPort"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// EnableMCP 是否挂载 /mcp/sse
	EnableMCP bool `yaml:"enableMCP"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// DSN 存储地址
	// memory:// 使用内存仓库；postgres:// 使用 PostgreSQL；其余视为 sqlite 文件路径
	// 留空表示数据目录下的 notifications.db
	DSN string `yaml:"dsn"`
}

// WebSocketConfig 实时通道配置
type WebSocketConfig struct {
	ReadBufferSize    int           `yaml:"readBufferSize"`
	WriteBufferSize   int           `yaml:"writeBufferSize"`
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval"`
	HeartbeatTimeout  time.Duration `yaml:"heartbeatTimeout"`
}

// ClientConfig 客户端（通知消费方）配置
type ClientConfig struct {
	// BaseURL 通知服务地址，例如 http://127.0.0.1:19970
	BaseURL string `yaml:"baseURL"`
	// Discover 为 true 且 BaseURL 为空时通过局域网发现服务
	Discover        bool          `yaml:"discover"`
	DiscoverTimeout time.Duration `yaml:"discoverTimeout"`
	ReconnectMin    time.Duration `yaml:"reconnectMin"`
	ReconnectMax    time.Duration `yaml:"reconnectMax"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	MaxRetries      int           `yaml:"maxRetries"`
	PageSize        int           `yaml:"pageSize"`
}

// DiscoveryConfig 局域网服务发布配置
type DiscoveryConfig struct {
	Advertise bool   `yaml:"advertise"`
	Instance  string `yaml:"instance"`
}

// LogConfig 日志配置，为空的字段沿用 FREIGHTDESK_LOG_* 环境变量
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NewConfig 创建配置（默认值 + 环境变量）
func NewConfig() *Config {
	cfg := defaultConfig()
	cfg.applyEnv()
	return cfg
}

// defaultConfig 默认值
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        ":19970",
			ShutdownTimeout: 10 * time.Second,
			EnableMCP:       true,
		},
		Database: DatabaseConfig{
			DSN: "",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:    1024,
			WriteBufferSize:   1024,
			HeartbeatInterval: 30 * time.Second,
			HeartbeatTimeout:  60 * time.Second,
		},
		Client: ClientConfig{
			BaseURL:         "http://127.0.0.1:19970",
			DiscoverTimeout: 3 * time.Second,
			ReconnectMin:    time.Second,
			ReconnectMax:    30 * time.Second,
			RequestTimeout:  15 * time.Second,
			MaxRetries:      3,
			PageSize:        20,
		},
		Discovery: DiscoveryConfig{
			Advertise: true,
		},
	}
}

// applyEnv 环境变量覆盖，无法解析的值忽略
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvHTTPPort); v != "" {
		c.Server.HTTPPort = v
	}
	if v := os.Getenv(EnvDatabaseDSN); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Client.BaseURL = v
	}
	if v, err := strconv.ParseBool(os.Getenv(EnvDiscover)); err == nil {
		c.Client.Discover = v
	}
	if v, err := strconv.Atoi(os.Getenv(EnvMaxRetries)); err == nil {
		c.Client.MaxRetries = v
	}
	if v, err := time.ParseDuration(os.Getenv(EnvRequestTimeout)); err == nil {
		c.Client.RequestTimeout = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v, err := strconv.ParseBool(os.Getenv(EnvAdvertise)); err == nil {
		c.Discovery.Advertise = v
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Server.HTTPPort == "" {
		return fmt.Errorf("server.httpPort is required")
	}
	if c.Client.ReconnectMin <= 0 || c.Client.ReconnectMax < c.Client.ReconnectMin {
		return fmt.Errorf("client reconnect interval invalid: min=%s max=%s", c.Client.ReconnectMin, c.Client.ReconnectMax)
	}
	if c.Client.MaxRetries < 0 {
		return fmt.Errorf("client.maxRetries must not be negative")
	}
	if c.Client.PageSize < 0 || c.Client.PageSize > 100 {
		return fmt.Errorf("client.pageSize must be between 0 and 100")
	}
	return nil
}

// DatabaseDSN 返回生效的存储地址，留空时落在数据目录
func (c *Config) DatabaseDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return filepath.Join(GetDataDir(), "notifications.db")
}

// NewDatabaseConfig 创建数据库配置，DSN 已解析为生效值
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &DatabaseConfig{DSN: cfg.DatabaseDSN()}
}

// NewWebSocketConfig 创建实时通道配置
func NewWebSocketConfig(cfg *Config) *WebSocketConfig {
	return &cfg.WebSocket
}

// NewServerConfig 创建服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewClientConfig 创建客户端配置
func NewClientConfig(cfg *Config) *ClientConfig {
	return &cfg.Client
}
