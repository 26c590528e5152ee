package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/freightdesk/backend/internal/infrastructure/log"
)

// ErrNoService 超时前没有发现通知服务
var ErrNoService = errors.New("no notification service found on the local network")

// Service 发现的通知服务
type Service struct {
	Instance string
	Host     string
	Port     int
	Version  string
	APIPath  string
}

// BaseURL 服务基础地址
func (s Service) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", s.Host, s.Port)
}

// Browser mDNS 服务发现器
type Browser struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewBrowser 创建发现器，timeout 为单次浏览的上限
func NewBrowser(timeout time.Duration) *Browser {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Browser{
		timeout: timeout,
		logger:  log.NewModuleLogger("discovery", "browser"),
	}
}

// Resolve 返回第一个发现的通知服务的基础地址
func (b *Browser) Resolve(ctx context.Context) (string, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create resolver: %w", err)
	}

	browseCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 10)
	if err := resolver.Browse(browseCtx, ServiceType, Domain, entries); err != nil {
		return "", fmt.Errorf("failed to browse services: %w", err)
	}

	for {
		select {
		case <-browseCtx.Done():
			return "", ErrNoService
		case entry, ok := <-entries:
			if !ok {
				return "", ErrNoService
			}
			svc, ok := toService(entry)
			if !ok {
				continue
			}
			b.logger.Info("notification service discovered",
				"instance", svc.Instance,
				"url", svc.BaseURL(),
				"version", svc.Version,
			)
			return svc.BaseURL(), nil
		}
	}
}

// toService 解析服务条目，没有 IPv4 地址的条目被跳过
func toService(entry *zeroconf.ServiceEntry) (Service, bool) {
	if entry == nil || len(entry.AddrIPv4) == 0 {
		return Service{}, false
	}

	svc := Service{
		Instance: entry.Instance,
		Host:     entry.AddrIPv4[0].String(),
		Port:     entry.Port,
		APIPath:  APIPath,
	}
	for _, txt := range entry.Text {
		key, value := parseTxtRecord(txt)
		switch key {
		case "version":
			svc.Version = value
		case "api":
			svc.APIPath = value
		}
	}
	return svc, true
}

// parseTxtRecord 解析 TXT 记录（格式：key=value）
func parseTxtRecord(txt string) (string, string) {
	for i := 0; i < len(txt); i++ {
		if txt[i] == '=' {
			return txt[:i], txt[i+1:]
		}
	}
	return txt, ""
}
