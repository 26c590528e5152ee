package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/freightdesk/backend/internal/domain/notification"
)

// MemoryRepository 内存仓储实现
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*notification.Notification
}

// NewMemoryRepository 创建内存仓储
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items: make(map[string]*notification.Notification),
	}
}

// Save 保存通知
func (r *MemoryRepository) Save(ctx context.Context, n *notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := n.Clone()
	r.items[n.ID] = &cp
	return nil
}

// FindByID 根据 ID 查找通知
func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*notification.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.items[id]
	if !ok {
		return nil, notification.ErrNotFound
	}
	cp := n.Clone()
	return &cp, nil
}

// List 按条件分页查询，返回当页数据和总数
func (r *MemoryRepository) List(ctx context.Context, filter notification.Filter) ([]notification.Notification, int, error) {
	r.mu.RLock()
	var matched []notification.Notification
	for _, n := range r.items {
		if filter.Matches(n) {
			matched = append(matched, n.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return notification.Less(&matched[i], &matched[j])
	})

	total := len(matched)
	offset := filter.Offset()
	if offset >= total {
		return []notification.Notification{}, total, nil
	}
	end := offset + filter.EffectiveLimit()
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// MarkRead 标记已读，已读记录保持原有 readAt
func (r *MemoryRepository) MarkRead(ctx context.Context, id string, at time.Time) (*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return nil, notification.ErrNotFound
	}
	if n.ReadAt == nil {
		t := at
		n.ReadAt = &t
	}
	cp := n.Clone()
	return &cp, nil
}

// MarkAllRead 标记全部未读，返回本次新标记的回执
func (r *MemoryRepository) MarkAllRead(ctx context.Context, at time.Time) ([]notification.ReadReceipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var receipts []notification.ReadReceipt
	for _, n := range r.items {
		if n.ReadAt != nil {
			continue
		}
		t := at
		n.ReadAt = &t
		receipts = append(receipts, notification.ReadReceipt{ID: n.ID, ReadAt: at})
	}
	return receipts, nil
}

// FindReadReceipts 查询指定记录中已读的回执
func (r *MemoryRepository) FindReadReceipts(ctx context.Context, ids []string) ([]notification.ReadReceipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var receipts []notification.ReadReceipt
	for _, id := range ids {
		n, ok := r.items[id]
		if !ok || n.ReadAt == nil {
			continue
		}
		receipts = append(receipts, notification.ReadReceipt{ID: id, ReadAt: *n.ReadAt})
	}
	return receipts, nil
}

// UpdateDeliveryStatus 更新投递状态
func (r *MemoryRepository) UpdateDeliveryStatus(ctx context.Context, id string, status notification.DeliveryStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return notification.ErrNotFound
	}
	n.DeliveryStatus = status
	return nil
}

// CountUnread 未读总数
func (r *MemoryRepository) CountUnread(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, n := range r.items {
		if n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

// 编译时检查接口实现
var _ notification.Repository = (*MemoryRepository)(nil)
