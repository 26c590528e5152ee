package singleton

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_PortAvailable(t *testing.T) {
	// 使用随机可用端口
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	result, err := Acquire(addr)
	require.NoError(t, err)
	require.NotNil(t, result)
	defer result.Close()

	assert.Equal(t, addr, result.Addr().String())
}

func TestAcquire_HealthyInstance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := Acquire(strings.TrimPrefix(server.URL, "http://"))
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Nil(t, result)
}

func TestAcquire_UnhealthyInstance(t *testing.T) {
	// 占用端口但不提供健康检查
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	result, err := Acquire(listener.Addr().String())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyRunning)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "health check failed")
}

func TestIsAddrInUse(t *testing.T) {
	l1, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l1.Close()

	_, err = net.Listen("tcp", l1.Addr().String())
	assert.True(t, isAddrInUse(err), "应该检测到地址已在使用")

	_, err = net.Listen("tcp", "invalid")
	assert.False(t, isAddrInUse(err), "不应该检测为地址已在使用")

	assert.False(t, isAddrInUse(nil))
}

func TestIsInstanceRunning(t *testing.T) {
	t.Run("实例返回非200状态码", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		assert.False(t, isInstanceRunning(strings.TrimPrefix(server.URL, "http://")), "非200状态码不应视为实例健康")
	})

	t.Run("地址无效", func(t *testing.T) {
		assert.False(t, isInstanceRunning("no-port"))
	})
}
