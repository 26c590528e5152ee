package inbox

import (
	"sort"
	"sync"
	"time"

	"github.com/freightdesk/backend/internal/domain/notification"
)

// Store 通知集合，UI 的唯一数据源
// 每次变更都在锁内一次性完成，变更之间不会交错
type Store struct {
	mu    sync.RWMutex
	items []notification.Notification // 始终保持排序
	index map[string]int
	epoch uint64
	// pending 尚未得到服务端答复的乐观已读，id -> 乐观写入的 readAt
	pending map[string]time.Time
}

// View 某一时刻的一致视图
type View struct {
	Notifications []notification.Notification
	UnreadCount   int
}

// NewStore 创建空集合
func NewStore() *Store {
	return &Store{
		index:   make(map[string]int),
		pending: make(map[string]time.Time),
	}
}

// Merge 按权威规则合并通知，返回集合是否发生变化
// 相同输入重复合并是幂等的
func (s *Store) Merge(incoming []notification.Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mergeLocked(incoming)
}

// mergeIfEpoch 仅当集合在请求发出后未被清空时合并
// 返回 accepted=false 表示响应已过期被丢弃
func (s *Store) mergeIfEpoch(epoch uint64, incoming []notification.Notification) (changed, accepted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false, false
	}
	return s.mergeLocked(incoming), true
}

func (s *Store) mergeLocked(incoming []notification.Notification) bool {
	changed := false
	for i := range incoming {
		in := &incoming[i]
		if in.ID == "" {
			continue
		}
		pos, exists := s.index[in.ID]
		if !exists {
			s.items = append(s.items, in.Clone())
			s.index[in.ID] = len(s.items) - 1
			changed = true
			continue
		}
		if notification.Supersedes(&s.items[pos], in) || s.replacesOptimisticLocked(pos, in) {
			s.items[pos] = in.Clone()
			changed = true
		}
	}
	if changed {
		s.resortLocked()
	}
	return changed
}

// replacesOptimisticLocked 服务端已读记录替换尚在途的乐观值
// 替换后 revert/reconcile 的守卫不再命中，服务端的 readAt 得以保留
func (s *Store) replacesOptimisticLocked(pos int, in *notification.Notification) bool {
	if in.ReadAt == nil {
		return false
	}
	optimistic, ok := s.pending[in.ID]
	if !ok {
		return false
	}
	readAt := s.items[pos].ReadAt
	return readAt != nil && readAt.Equal(optimistic) && !in.ReadAt.Equal(optimistic)
}

func (s *Store) resortLocked() {
	sort.Slice(s.items, func(i, j int) bool {
		return notification.Less(&s.items[i], &s.items[j])
	})
	for i := range s.items {
		s.index[s.items[i].ID] = i
	}
}

// Snapshot 返回排序后的深拷贝，调用方修改不会影响集合
func (s *Store) Snapshot() []notification.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() []notification.Notification {
	out := make([]notification.Notification, len(s.items))
	for i := range s.items {
		out[i] = s.items[i].Clone()
	}
	return out
}

// View 同一把锁下取快照和未读数
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		Notifications: s.snapshotLocked(),
		UnreadCount:   s.unreadLocked(),
	}
}

// UnreadCount 未读数，每次都从集合重新计算
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unreadLocked()
}

func (s *Store) unreadLocked() int {
	count := 0
	for i := range s.items {
		if s.items[i].ReadAt == nil {
			count++
		}
	}
	return count
}

// Get 按 id 获取通知副本
func (s *Store) Get(id string) (notification.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.index[id]
	if !ok {
		return notification.Notification{}, false
	}
	return s.items[pos].Clone(), true
}

// Has 是否包含指定 id
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// Len 集合大小
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Epoch 当前代数，清空时递增
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// markRead 乐观标记单条已读，仅对存在且未读的记录生效
func (s *Store) markRead(id string, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.index[id]
	if !ok || s.items[pos].ReadAt != nil {
		return false
	}
	s.items[pos].ReadAt = &at
	s.pending[id] = at
	return true
}

// markAllRead 乐观标记全部未读记录，返回被标记的 id
func (s *Store) markAllRead(at time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for i := range s.items {
		if s.items[i].ReadAt != nil {
			continue
		}
		t := at
		s.items[i].ReadAt = &t
		s.pending[s.items[i].ID] = at
		ids = append(ids, s.items[i].ID)
	}
	return ids
}

// revertRead 回滚乐观已读
// 只有记录仍处于本次乐观写入的状态时才回滚，期间被其他来源更新过则保持不变
func (s *Store) revertRead(id string, optimistic time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settleLocked(id, optimistic)
	pos, ok := s.index[id]
	if !ok {
		return false
	}
	readAt := s.items[pos].ReadAt
	if readAt == nil || !readAt.Equal(optimistic) {
		return false
	}
	s.items[pos].ReadAt = nil
	return true
}

// reconcileRead 用服务端的 readAt 替换乐观值，条件同 revertRead
func (s *Store) reconcileRead(id string, optimistic, authoritative time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settleLocked(id, optimistic)
	pos, ok := s.index[id]
	if !ok {
		return false
	}
	readAt := s.items[pos].ReadAt
	if readAt == nil || !readAt.Equal(optimistic) {
		return false
	}
	t := authoritative
	s.items[pos].ReadAt = &t
	return true
}

// settleLocked 结束一次乐观写入的在途状态，只清理同一次写入登记的条目
func (s *Store) settleLocked(id string, optimistic time.Time) {
	if at, ok := s.pending[id]; ok && at.Equal(optimistic) {
		delete(s.pending, id)
	}
}

// applyReceipts 将服务端回执应用到仍未读的记录上
func (s *Store) applyReceipts(receipts []notification.ReadReceipt) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied := 0
	for _, r := range receipts {
		pos, ok := s.index[r.ID]
		if !ok || s.items[pos].ReadAt != nil {
			continue
		}
		t := r.ReadAt
		s.items[pos].ReadAt = &t
		applied++
	}
	return applied
}

// clear 清空集合并进入新的代数
func (s *Store) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.index = make(map[string]int)
	s.pending = make(map[string]time.Time)
	s.epoch++
}
