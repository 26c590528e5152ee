package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/assert"
)

func TestIsValidLANAddress(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"192.168.1.20", true},
		{"10.0.0.5", true},
		{"172.16.3.4", true},
		{"127.0.0.1", false},
		{"169.254.10.1", false},
		{"8.8.8.8", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isValidLANAddress(net.ParseIP(tt.ip).To4()), tt.ip)
	}
}

func TestIsVirtualInterface(t *testing.T) {
	assert.True(t, isVirtualInterface("docker0"))
	assert.True(t, isVirtualInterface("vEth1234"))
	assert.True(t, isVirtualInterface("utun3"))
	assert.False(t, isVirtualInterface("eth0"))
	assert.False(t, isVirtualInterface("en0"))
}

func TestParseTxtRecord(t *testing.T) {
	key, value := parseTxtRecord("version=1.2.0")
	assert.Equal(t, "version", key)
	assert.Equal(t, "1.2.0", value)

	key, value = parseTxtRecord("api=/a=b")
	assert.Equal(t, "api", key)
	assert.Equal(t, "/a=b", value)

	key, value = parseTxtRecord("flag")
	assert.Equal(t, "flag", key)
	assert.Empty(t, value)
}

func TestToService(t *testing.T) {
	entry := zeroconf.NewServiceEntry("depot-7", ServiceType, Domain)
	entry.Port = 19970
	entry.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.20")}
	entry.Text = []string{"version=1.0.0", "api=/api/v1/notifications"}

	svc, ok := toService(entry)
	assert.True(t, ok)
	assert.Equal(t, "depot-7", svc.Instance)
	assert.Equal(t, "1.0.0", svc.Version)
	assert.Equal(t, "http://192.168.1.20:19970", svc.BaseURL())

	_, ok = toService(zeroconf.NewServiceEntry("v6-only", ServiceType, Domain))
	assert.False(t, ok)

	_, ok = toService(nil)
	assert.False(t, ok)
}
