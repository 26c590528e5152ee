package inbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/freightdesk/backend/internal/domain/notification"
	"github.com/freightdesk/backend/internal/infrastructure/log"
)

// errNotConfirmed 服务端返回的记录仍为未读
var errNotConfirmed = errors.New("server did not confirm read state")

// MutationCoordinator 变更协调器
// 先乐观更新本地集合，再根据服务端确认或拒绝进行对账
type MutationCoordinator struct {
	remote    Remote
	store     *Store
	status    *statusTracker
	domainSvc *notification.Service
	now       func() time.Time
	onChange  func()
	logger    *slog.Logger
}

func newMutationCoordinator(
	remote Remote,
	store *Store,
	status *statusTracker,
	domainSvc *notification.Service,
	now func() time.Time,
	onChange func(),
) *MutationCoordinator {
	return &MutationCoordinator{
		remote:    remote,
		store:     store,
		status:    status,
		domainSvc: domainSvc,
		now:       now,
		onChange:  onChange,
		logger:    log.NewModuleLogger("inbox", "mutation_coordinator"),
	}
}

// MarkAsRead 标记单条已读
// 记录不存在或已读时直接返回，不发起远程请求
// 失败只上报一次，不自动重试
func (m *MutationCoordinator) MarkAsRead(ctx context.Context, id string) error {
	optimistic := m.now()
	if !m.store.markRead(id, optimistic) {
		return nil
	}
	m.onChange()

	confirmed, err := m.remote.MarkAsRead(ctx, id)
	if err == nil && confirmed.ReadAt == nil {
		err = errNotConfirmed
	}
	if err != nil {
		m.store.revertRead(id, optimistic)
		return m.fail(notification.NewMutationError("mark as read", err), "id", id)
	}

	m.store.reconcileRead(id, optimistic, *confirmed.ReadAt)
	m.status.clearError()
	m.onChange()
	return nil
}

// MarkAllAsRead 批量已读
// 服务端未确认的记录回滚，部分失败返回 *notification.PartialMarkError
func (m *MutationCoordinator) MarkAllAsRead(ctx context.Context) error {
	optimistic := m.now()
	ids := m.store.markAllRead(optimistic)
	if len(ids) > 0 {
		m.onChange()
	}

	receipts, err := m.remote.MarkAllAsRead(ctx, ids)
	if err != nil {
		for _, id := range ids {
			m.store.revertRead(id, optimistic)
		}
		return m.fail(notification.NewMutationError("mark all as read", err), "count", len(ids))
	}

	confirmed := make(map[string]time.Time, len(receipts))
	for _, r := range receipts {
		confirmed[r.ID] = r.ReadAt
	}

	var kept, reverted []string
	for _, id := range ids {
		readAt, ok := confirmed[id]
		if !ok {
			if m.store.revertRead(id, optimistic) {
				reverted = append(reverted, id)
			}
			continue
		}
		m.store.reconcileRead(id, optimistic, readAt)
		kept = append(kept, id)
	}

	// 乐观标记之后才到达、但已被服务端一并标记的记录
	m.store.applyReceipts(receipts)

	if len(reverted) > 0 {
		return m.fail(&notification.PartialMarkError{Confirmed: kept, Reverted: reverted}, "reverted", len(reverted))
	}
	m.status.clearError()
	m.onChange()
	return nil
}

// CreateNotification 创建通知
// 不做乐观插入，id 和 createdAt 以服务端为准；并发调用互不合并、互不取消
func (m *MutationCoordinator) CreateNotification(ctx context.Context, input notification.CreateInput) (notification.Notification, error) {
	if err := m.domainSvc.ValidateInput(&input); err != nil {
		m.status.setError(err)
		m.onChange()
		return notification.Notification{}, err
	}

	epoch := m.store.Epoch()
	created, err := m.remote.Create(ctx, input)
	if err != nil {
		return notification.Notification{}, m.fail(notification.NewMutationError("create notification", err), "type", input.Type)
	}

	m.store.mergeIfEpoch(epoch, []notification.Notification{created})
	m.status.clearError()
	m.onChange()
	return created.Clone(), nil
}

// ClearNotifications 清空集合（登出/重置）
func (m *MutationCoordinator) ClearNotifications() {
	m.store.clear()
	m.status.clearError()
	m.onChange()
}

// fail 记录错误并通知订阅者
func (m *MutationCoordinator) fail(err error, args ...any) error {
	m.status.setError(err)
	m.logger.Warn("mutation failed",
		append([]any{"error", err}, args...)...,
	)
	m.onChange()
	return err
}
