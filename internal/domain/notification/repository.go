package notification

import (
	"context"
	"time"
)

// Repository 通知仓储接口（服务端）
type Repository interface {
	Save(ctx context.Context, n *Notification) error
	FindByID(ctx context.Context, id string) (*Notification, error)
	List(ctx context.Context, filter Filter) ([]Notification, int, error)
	MarkRead(ctx context.Context, id string, at time.Time) (*Notification, error)
	// MarkAllRead 将所有未读标记为已读，返回本次新标记的回执
	MarkAllRead(ctx context.Context, at time.Time) ([]ReadReceipt, error)
	FindReadReceipts(ctx context.Context, ids []string) ([]ReadReceipt, error)
	UpdateDeliveryStatus(ctx context.Context, id string, status DeliveryStatus) error
	CountUnread(ctx context.Context) (int, error)
}
