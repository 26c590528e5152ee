package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/freightdesk/backend/internal/domain/notification"
	"github.com/freightdesk/backend/internal/infrastructure/log"
)

// Service 应用服务（用例编排）
type Service struct {
	domainRepo notification.Repository
	domainSvc  *notification.Service
	pusher     Pusher
	now        func() time.Time
	logger     *slog.Logger
}

// NewService 创建应用服务
func NewService(
	domainRepo notification.Repository,
	domainSvc *notification.Service,
	pusher Pusher,
) *Service {
	return &Service{
		domainRepo: domainRepo,
		domainSvc:  domainSvc,
		pusher:     pusher,
		now:        time.Now,
		logger:     log.NewModuleLogger("notification", "service"),
	}
}

// CreateAndPush 创建并推送通知（用例）
// 推送成功后投递状态由 pending 变为 sent，推送失败不影响保存
func (s *Service) CreateAndPush(ctx context.Context, dto *CreateNotificationDTO) (*notification.Notification, error) {
	// 1. 使用领域服务验证
	input := dto.toInput()
	if err := s.domainSvc.ValidateInput(&input); err != nil {
		return nil, err
	}

	// 2. 创建领域实体，id 与 createdAt 由服务端分配
	n := &notification.Notification{
		ID:             uuid.New().String(),
		Type:           input.Type,
		Priority:       input.Priority,
		Title:          input.Title,
		Message:        input.Message,
		Data:           input.Data,
		CreatedAt:      s.now().UTC(),
		DeliveryStatus: notification.DeliveryPending,
	}

	// 3. 保存到仓储
	if err := s.domainRepo.Save(ctx, n); err != nil {
		return nil, fmt.Errorf("save notification: %w", err)
	}

	// 4. 推送给所有订阅者
	if err := s.pusher.PushCreated(n); err != nil {
		s.logger.Warn("failed to push notification",
			"id", n.ID,
			"error", err,
		)
		return n, nil
	}
	if err := s.domainRepo.UpdateDeliveryStatus(ctx, n.ID, notification.DeliverySent); err != nil {
		s.logger.Warn("failed to update delivery status",
			"id", n.ID,
			"error", err,
		)
		return n, nil
	}
	n.DeliveryStatus = notification.DeliverySent

	s.logger.Debug("notification created",
		"id", n.ID,
		"type", n.Type,
		"priority", n.Priority,
	)
	return n, nil
}

// List 分页查询
func (s *Service) List(ctx context.Context, filter notification.Filter) (*ListResult, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	filter = filter.Normalize()

	items, total, err := s.domainRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if items == nil {
		items = []notification.Notification{}
	}
	return &ListResult{
		Items: items,
		Page:  filter.Page,
		Limit: filter.EffectiveLimit(),
		Total: total,
	}, nil
}

// Get 获取单条通知
func (s *Service) Get(ctx context.Context, id string) (*notification.Notification, error) {
	return s.domainRepo.FindByID(ctx, id)
}

// MarkRead 标记已读（幂等）
// 已读记录保持原有 readAt，只有首次标记才广播
func (s *Service) MarkRead(ctx context.Context, id string) (*notification.Notification, error) {
	existing, err := s.domainRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.IsRead() {
		return existing, nil
	}

	n, err := s.domainRepo.MarkRead(ctx, id, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.pusher.PushRead(n); err != nil {
		s.logger.Warn("failed to push read state",
			"id", id,
			"error", err,
		)
	}
	return n, nil
}

// MarkAllRead 全部已读
// 返回本次新标记的回执，以及 ids 中已经是已读状态的回执
func (s *Service) MarkAllRead(ctx context.Context, ids []string) ([]notification.ReadReceipt, error) {
	marked, err := s.domainRepo.MarkAllRead(ctx, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("mark all read: %w", err)
	}

	seen := make(map[string]struct{}, len(marked))
	receipts := make([]notification.ReadReceipt, 0, len(marked)+len(ids))
	for _, r := range marked {
		seen[r.ID] = struct{}{}
		receipts = append(receipts, r)
	}

	if len(ids) > 0 {
		existing, err := s.domainRepo.FindReadReceipts(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("find read receipts: %w", err)
		}
		for _, r := range existing {
			if _, ok := seen[r.ID]; ok {
				continue
			}
			seen[r.ID] = struct{}{}
			receipts = append(receipts, r)
		}
	}

	for _, r := range marked {
		n, err := s.domainRepo.FindByID(ctx, r.ID)
		if err != nil {
			continue
		}
		if err := s.pusher.PushRead(n); err != nil {
			s.logger.Warn("failed to push read state",
				"id", r.ID,
				"error", err,
			)
		}
	}

	s.logger.Debug("marked all notifications read",
		"marked", len(marked),
		"receipts", len(receipts),
	)
	return receipts, nil
}

// UnreadCount 未读总数
func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	return s.domainRepo.CountUnread(ctx)
}
