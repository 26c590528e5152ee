package discovery

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/grandcat/zeroconf"

	"github.com/freightdesk/backend/internal/infrastructure/log"
)

// 服务类型与 TXT 记录
const (
	ServiceType = "_freightdesk._tcp"
	Domain      = "local."
	APIPath     = "/api/v1/notifications"
)

// Advertiser mDNS 服务广播器，让局域网内的客户端无需配置地址即可找到通知服务
type Advertiser struct {
	mu      sync.Mutex
	server  *zeroconf.Server
	running bool
	logger  *slog.Logger
}

// NewAdvertiser 创建 mDNS 广播器
func NewAdvertiser() *Advertiser {
	return &Advertiser{
		logger: log.NewModuleLogger("discovery", "advertiser"),
	}
}

// Start 开始广播服务
// 有局域网地址时只在这些接口上广播，否则交给 zeroconf 使用全部接口
func (a *Advertiser) Start(instance string, port int, version string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("advertiser is already running")
	}
	if instance == "" {
		instance, _ = os.Hostname()
		if instance == "" {
			instance = "freightdesk"
		}
	}

	txtRecords := []string{
		"version=" + version,
		"api=" + APIPath,
	}

	interfaces, err := AvailableInterfaces()
	if err != nil {
		return err
	}

	var (
		ips    []string
		ifaces []net.Interface
	)
	for _, iface := range interfaces {
		ips = append(ips, iface.Addresses...)
		if sysIface, err := net.InterfaceByName(iface.Name); err == nil {
			ifaces = append(ifaces, *sysIface)
		}
	}

	a.logger.Info("starting mDNS advertiser",
		"instance", instance,
		"port", port,
		"ips", ips,
	)

	var server *zeroconf.Server
	if len(ips) > 0 {
		server, err = zeroconf.RegisterProxy(instance, ServiceType, Domain, port, instance, ips, txtRecords, ifaces)
	} else {
		server, err = zeroconf.Register(instance, ServiceType, Domain, port, txtRecords, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	a.server = server
	a.running = true
	return nil
}

// Stop 停止广播
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return
	}
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	a.running = false

	a.logger.Info("mDNS advertiser stopped")
}

// IsRunning 是否正在广播
func (a *Advertiser) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}
