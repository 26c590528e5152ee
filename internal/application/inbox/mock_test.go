package inbox

import (
	"context"
	"sync"
	"time"

	"github.com/freightdesk/backend/internal/domain/notification"
)

var t0 = time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

// mockRemote 手写的远程服务替身
type mockRemote struct {
	mu sync.Mutex

	listFn    func(ctx context.Context, filter notification.Filter) (notification.Page, error)
	markFn    func(ctx context.Context, id string) (notification.Notification, error)
	markAllFn func(ctx context.Context, ids []string) ([]notification.ReadReceipt, error)
	createFn  func(ctx context.Context, input notification.CreateInput) (notification.Notification, error)

	listCalls    []notification.Filter
	markCalls    []string
	markAllCalls [][]string
	createCalls  int
}

func (m *mockRemote) List(ctx context.Context, filter notification.Filter) (notification.Page, error) {
	m.mu.Lock()
	m.listCalls = append(m.listCalls, filter)
	fn := m.listFn
	m.mu.Unlock()
	if fn == nil {
		return notification.Page{Page: filter.Page}, nil
	}
	return fn(ctx, filter)
}

func (m *mockRemote) MarkAsRead(ctx context.Context, id string) (notification.Notification, error) {
	m.mu.Lock()
	m.markCalls = append(m.markCalls, id)
	fn := m.markFn
	m.mu.Unlock()
	if fn == nil {
		at := t0.Add(time.Hour)
		return notification.Notification{ID: id, ReadAt: &at}, nil
	}
	return fn(ctx, id)
}

func (m *mockRemote) MarkAllAsRead(ctx context.Context, ids []string) ([]notification.ReadReceipt, error) {
	m.mu.Lock()
	m.markAllCalls = append(m.markAllCalls, ids)
	fn := m.markAllFn
	m.mu.Unlock()
	if fn == nil {
		receipts := make([]notification.ReadReceipt, 0, len(ids))
		for _, id := range ids {
			receipts = append(receipts, notification.ReadReceipt{ID: id, ReadAt: t0.Add(time.Hour)})
		}
		return receipts, nil
	}
	return fn(ctx, ids)
}

func (m *mockRemote) Create(ctx context.Context, input notification.CreateInput) (notification.Notification, error) {
	m.mu.Lock()
	m.createCalls++
	fn := m.createFn
	m.mu.Unlock()
	return fn(ctx, input)
}

func (m *mockRemote) listCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listCalls)
}

func (m *mockRemote) markCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.markCalls)
}

// mockConnectivity 可控的连接状态
type mockConnectivity struct {
	mu        sync.Mutex
	connected bool
}

func (c *mockConnectivity) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *mockConnectivity) set(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

// mockDecoder 固定返回值的解码器
type mockDecoder struct {
	filter notification.Filter
	err    error
}

func (d mockDecoder) Decode(map[string]any) (notification.Filter, error) {
	return d.filter, d.err
}

func newNotification(id string, createdAt time.Time, priority notification.Priority) notification.Notification {
	return notification.Notification{
		ID:        id,
		Type:      notification.TypeShipmentUpdate,
		Priority:  priority,
		Title:     "Shipment " + id,
		CreatedAt: createdAt,
	}
}

func readNotification(id string, createdAt, readAt time.Time) notification.Notification {
	n := newNotification(id, createdAt, notification.PriorityMedium)
	n.ReadAt = &readAt
	return n
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func newTestFacade(remote Remote, opts ...Option) *Facade {
	opts = append([]Option{WithClock(fixedClock(t0.Add(30 * time.Minute)))}, opts...)
	return NewFacade(remote, nil, nil, opts...)
}

func idsOf(items []notification.Notification) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].ID
	}
	return out
}
