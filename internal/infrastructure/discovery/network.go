package discovery

import (
	"fmt"
	"net"
	"sort"
	"strings"
)

// 虚拟网卡名称前缀列表
var virtualInterfacePrefixes = []string{
	"vmnet",   // VMware
	"vboxnet", // VirtualBox
	"veth",    // Docker/容器
	"docker",  // Docker
	"br-",     // Docker bridge
	"virbr",   // libvirt/KVM
	"cni",     // Kubernetes CNI
	"flannel", // Kubernetes flannel
	"tun",     // VPN tunnel
	"tap",     // VPN tap
	"utun",    // macOS VPN
	"awdl",    // Apple Wireless Direct Link
}

// Interface 可用于广播的网络接口
type Interface struct {
	Name      string
	Addresses []string
	IsVirtual bool
}

// AvailableInterfaces 获取可用的网络接口
// 排除未启用和回环接口，只保留私有 IPv4 地址，物理网卡排在前面
func AvailableInterfaces() ([]Interface, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to get interfaces: %w", err)
	}

	var result []Interface
	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		var ipv4Addrs []string
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipnet.IP.To4()
			if ip4 == nil || !isValidLANAddress(ip4) {
				continue
			}
			ipv4Addrs = append(ipv4Addrs, ip4.String())
		}

		if len(ipv4Addrs) > 0 {
			result = append(result, Interface{
				Name:      iface.Name,
				Addresses: ipv4Addrs,
				IsVirtual: isVirtualInterface(iface.Name),
			})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].IsVirtual != result[j].IsVirtual {
			return !result[i].IsVirtual
		}
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// isValidLANAddress 判断是否为有效的局域网地址
func isValidLANAddress(ip net.IP) bool {
	if ip.IsLoopback() {
		return false
	}
	// 链路本地地址 169.254.x.x
	if ip.IsLinkLocalUnicast() {
		return false
	}
	return ip.IsPrivate()
}

// isVirtualInterface 判断是否为虚拟网卡
func isVirtualInterface(name string) bool {
	lowerName := strings.ToLower(name)
	for _, prefix := range virtualInterfacePrefixes {
		if strings.HasPrefix(lowerName, prefix) {
			return true
		}
	}
	return false
}
