package log

import (
	"os"
	"strconv"
	"strings"
)

// 日志相关环境变量，与应用配置共用 FREIGHTDESK_ 前缀
const (
	EnvLevel     = "FREIGHTDESK_LOG_LEVEL"
	EnvFormat    = "FREIGHTDESK_LOG_FORMAT"
	EnvOutput    = "FREIGHTDESK_LOG_OUTPUT"
	EnvAddSource = "FREIGHTDESK_LOG_ADD_SOURCE"
	// EnvMode 运行模式，development 时强制 debug 级别并附带源码位置
	EnvMode = "FREIGHTDESK_ENV"
)

// DefaultService 日志中 service 字段的默认值
const DefaultService = "freightdesk-backend"

// Config 日志配置
type Config struct {
	// Service 写入每条日志的 service 字段，区分服务端与消费方进程
	Service string
	// Level debug, info, warn, error
	Level string
	// Format console 或 json
	Format string
	// Output stdout 或 file:/path/to/log
	Output    string
	AddSource bool
}

// NewConfigFromEnv 从 FREIGHTDESK_LOG_* 环境变量创建配置
func NewConfigFromEnv() *Config {
	cfg := &Config{
		Service:   DefaultService,
		Level:     getEnvWithDefault(EnvLevel, "info"),
		Format:    getEnvWithDefault(EnvFormat, "console"),
		Output:    getEnvWithDefault(EnvOutput, "stdout"),
		AddSource: getEnvBool(EnvAddSource, false),
	}

	if cfg.isDevelopment() {
		cfg.Level = "debug"
		cfg.Format = "console"
		cfg.AddSource = true
	}

	return cfg
}

// Override 用配置文件中的非空值覆盖，开发模式下级别保持 debug
func (c *Config) Override(service, level, format string) *Config {
	if service != "" {
		c.Service = service
	}
	if c.isDevelopment() {
		return c
	}
	if level != "" {
		c.Level = level
	}
	if format != "" {
		c.Format = format
	}
	return c
}

func (c *Config) isDevelopment() bool {
	return strings.EqualFold(os.Getenv(EnvMode), "development")
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool 无法解析时返回默认值
func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
