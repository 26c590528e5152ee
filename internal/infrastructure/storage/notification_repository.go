package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/freightdesk/backend/internal/domain/notification"
)

// 确保 NotificationRepository 实现了 notification.Repository 接口
var _ notification.Repository = (*NotificationRepository)(nil)

const notificationColumns = `id, type, priority, priority_rank, title, message, data, created_at, read_at, delivery_status`

// notificationRow 表行映射
type notificationRow struct {
	ID             string         `db:"id"`
	Type           string         `db:"type"`
	Priority       string         `db:"priority"`
	PriorityRank   int            `db:"priority_rank"`
	Title          string         `db:"title"`
	Message        string         `db:"message"`
	Data           sql.NullString `db:"data"`
	CreatedAt      int64          `db:"created_at"`
	ReadAt         sql.NullInt64  `db:"read_at"`
	DeliveryStatus string         `db:"delivery_status"`
}

func toRow(n *notification.Notification) (*notificationRow, error) {
	row := &notificationRow{
		ID:             n.ID,
		Type:           string(n.Type),
		Priority:       string(n.Priority),
		PriorityRank:   n.Priority.Rank(),
		Title:          n.Title,
		Message:        n.Message,
		CreatedAt:      n.CreatedAt.UnixNano(),
		DeliveryStatus: string(n.DeliveryStatus),
	}
	if row.DeliveryStatus == "" {
		row.DeliveryStatus = string(notification.DeliveryPending)
	}
	if n.Data != nil {
		data, err := json.Marshal(n.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data: %w", err)
		}
		row.Data = sql.NullString{String: string(data), Valid: true}
	}
	if n.ReadAt != nil {
		row.ReadAt = sql.NullInt64{Int64: n.ReadAt.UnixNano(), Valid: true}
	}
	return row, nil
}

func (r *notificationRow) toEntity() (notification.Notification, error) {
	n := notification.Notification{
		ID:             r.ID,
		Type:           notification.Type(r.Type),
		Priority:       notification.Priority(r.Priority),
		Title:          r.Title,
		Message:        r.Message,
		CreatedAt:      time.Unix(0, r.CreatedAt).UTC(),
		DeliveryStatus: notification.DeliveryStatus(r.DeliveryStatus),
	}
	if r.Data.Valid && r.Data.String != "" {
		if err := json.Unmarshal([]byte(r.Data.String), &n.Data); err != nil {
			return n, fmt.Errorf("failed to unmarshal data of %s: %w", r.ID, err)
		}
	}
	if r.ReadAt.Valid {
		t := time.Unix(0, r.ReadAt.Int64).UTC()
		n.ReadAt = &t
	}
	return n, nil
}

// NotificationRepository 基于 sqlx 的通知仓储，支持 sqlite 与 postgres
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository 创建通知仓储实例
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Save 保存通知（按 id upsert）
func (r *NotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	row, err := toRow(n)
	if err != nil {
		return err
	}

	query := r.db.Rebind(`
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			read_at = excluded.read_at,
			delivery_status = excluded.delivery_status`)

	_, err = r.db.ExecContext(ctx, query,
		row.ID,
		row.Type,
		row.Priority,
		row.PriorityRank,
		row.Title,
		row.Message,
		row.Data,
		row.CreatedAt,
		row.ReadAt,
		row.DeliveryStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// FindByID 根据 ID 查找通知
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*notification.Notification, error) {
	var row notificationRow
	query := r.db.Rebind(`SELECT ` + notificationColumns + ` FROM notifications WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notification.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query notification: %w", err)
	}
	n, err := row.toEntity()
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// whereClause 把查询条件翻译为 SQL 条件
func whereClause(filter notification.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.UnreadOnly {
		conds = append(conds, "read_at IS NULL")
	}
	switch filter.Status {
	case notification.StatusRead:
		conds = append(conds, "read_at IS NOT NULL")
	case notification.StatusUnread:
		conds = append(conds, "read_at IS NULL")
	case notification.StatusPending, notification.StatusSent:
		conds = append(conds, "delivery_status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Priority != "" {
		conds = append(conds, "priority = ?")
		args = append(args, string(filter.Priority))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List 按条件分页查询，返回当页数据和总数
func (r *NotificationRepository) List(ctx context.Context, filter notification.Filter) ([]notification.Notification, int, error) {
	where, args := whereClause(filter)

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM notifications`+where), args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := r.db.Rebind(`SELECT ` + notificationColumns + ` FROM notifications` + where +
		` ORDER BY created_at DESC, priority_rank DESC, id ASC LIMIT ? OFFSET ?`)
	pageArgs := append(append([]any{}, args...), filter.EffectiveLimit(), filter.Offset())

	var rows []notificationRow
	if err := r.db.SelectContext(ctx, &rows, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	items := make([]notification.Notification, 0, len(rows))
	for i := range rows {
		n, err := rows[i].toEntity()
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, nil
}

// MarkRead 标记已读，已读记录保持原有 readAt
func (r *NotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) (*notification.Notification, error) {
	query := r.db.Rebind(`UPDATE notifications SET read_at = ? WHERE id = ? AND read_at IS NULL`)
	if _, err := r.db.ExecContext(ctx, query, at.UnixNano(), id); err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return r.FindByID(ctx, id)
}

// MarkAllRead 标记全部未读，返回本次新标记的回执
func (r *NotificationRepository) MarkAllRead(ctx context.Context, at time.Time) ([]notification.ReadReceipt, error) {
	var ids []string
	query := r.db.Rebind(`UPDATE notifications SET read_at = ? WHERE read_at IS NULL RETURNING id`)
	if err := r.db.SelectContext(ctx, &ids, query, at.UnixNano()); err != nil {
		return nil, fmt.Errorf("failed to mark all notifications read: %w", err)
	}

	readAt := time.Unix(0, at.UnixNano()).UTC()
	receipts := make([]notification.ReadReceipt, 0, len(ids))
	for _, id := range ids {
		receipts = append(receipts, notification.ReadReceipt{ID: id, ReadAt: readAt})
	}
	return receipts, nil
}

// FindReadReceipts 查询指定记录中已读的回执
func (r *NotificationRepository) FindReadReceipts(ctx context.Context, ids []string) ([]notification.ReadReceipt, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT id, read_at FROM notifications WHERE read_at IS NOT NULL AND id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build receipts query: %w", err)
	}

	var rows []struct {
		ID     string `db:"id"`
		ReadAt int64  `db:"read_at"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query read receipts: %w", err)
	}

	receipts := make([]notification.ReadReceipt, 0, len(rows))
	for _, row := range rows {
		receipts = append(receipts, notification.ReadReceipt{ID: row.ID, ReadAt: time.Unix(0, row.ReadAt).UTC()})
	}
	return receipts, nil
}

// UpdateDeliveryStatus 更新投递状态
func (r *NotificationRepository) UpdateDeliveryStatus(ctx context.Context, id string, status notification.DeliveryStatus) error {
	query := r.db.Rebind(`UPDATE notifications SET delivery_status = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update delivery status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return notification.ErrNotFound
	}
	return nil
}

// CountUnread 未读总数
func (r *NotificationRepository) CountUnread(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE read_at IS NULL`); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
