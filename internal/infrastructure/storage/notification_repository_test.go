package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightdesk/backend/internal/domain/notification"
	"github.com/freightdesk/backend/internal/infrastructure/config"
)

// setupTestDB 创建临时测试数据库
func setupTestDB(t *testing.T) (*sqlx.DB, func()) {
	t.Helper()

	// 创建临时目录
	tmpDir, err := os.MkdirTemp("", "notification_test_*")
	require.NoError(t, err)

	db, err := OpenDB(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)

	// 清理函数
	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}

	return db, cleanup
}

var base = time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

func newNotification(id string, offset time.Duration, priority notification.Priority) *notification.Notification {
	return &notification.Notification{
		ID:             id,
		Type:           notification.TypeShipmentUpdate,
		Priority:       priority,
		Title:          "Shipment " + id,
		Message:        "status changed",
		Data:           map[string]any{"shipmentId": "SHP-" + id},
		CreatedAt:      base.Add(offset),
		DeliveryStatus: notification.DeliveryPending,
	}
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn    string
		driver string
		source string
	}{
		{"postgres://u:p@localhost/freight", driverPostgres, "postgres://u:p@localhost/freight"},
		{"postgresql://localhost/freight", driverPostgres, "postgresql://localhost/freight"},
		{"sqlite:///var/lib/freightdesk/n.db", driverSQLite, "/var/lib/freightdesk/n.db"},
		{"/tmp/n.db", driverSQLite, "/tmp/n.db"},
	}
	for _, tt := range tests {
		driver, source := parseDSN(tt.dsn)
		assert.Equal(t, tt.driver, driver, tt.dsn)
		assert.Equal(t, tt.source, source, tt.dsn)
	}
}

func TestNotificationRepository_SaveAndFind(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	ctx := context.Background()

	n := newNotification("a", 0, notification.PriorityHigh)
	require.NoError(t, repo.Save(ctx, n))

	found, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Shipment a", found.Title)
	assert.Equal(t, notification.PriorityHigh, found.Priority)
	assert.True(t, base.Equal(found.CreatedAt))
	assert.Nil(t, found.ReadAt)
	assert.Equal(t, "SHP-a", found.Data["shipmentId"])

	// 重复保存只更新可变字段
	n.DeliveryStatus = notification.DeliverySent
	require.NoError(t, repo.Save(ctx, n))
	found, err = repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, notification.DeliverySent, found.DeliveryStatus)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, notification.ErrNotFound)
}

func TestNotificationRepository_ListOrderingAndPaging(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newNotification("old", 0, notification.PriorityCritical)))
	require.NoError(t, repo.Save(ctx, newNotification("b", time.Hour, notification.PriorityLow)))
	require.NoError(t, repo.Save(ctx, newNotification("a", time.Hour, notification.PriorityLow)))
	require.NoError(t, repo.Save(ctx, newNotification("hi", time.Hour, notification.PriorityHigh)))

	items, total, err := repo.List(ctx, notification.Filter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	ids := make([]string, 0, len(items))
	for _, n := range items {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"hi", "a", "b", "old"}, ids)

	items, total, err = repo.List(ctx, notification.Filter{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, items, 1)
	assert.Equal(t, "old", items[0].ID)
}

func TestNotificationRepository_ListFilters(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newNotification("a", 0, notification.PriorityHigh)))
	require.NoError(t, repo.Save(ctx, newNotification("b", time.Minute, notification.PriorityLow)))
	_, err := repo.MarkRead(ctx, "a", base.Add(time.Hour))
	require.NoError(t, err)

	items, total, err := repo.List(ctx, notification.Filter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "b", items[0].ID)

	items, _, err = repo.List(ctx, notification.Filter{Status: notification.StatusRead})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)

	items, _, err = repo.List(ctx, notification.Filter{Priority: notification.PriorityLow})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].ID)

	items, _, err = repo.List(ctx, notification.Filter{Status: notification.StatusPending})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestNotificationRepository_MarkRead(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, newNotification("a", 0, notification.PriorityHigh)))

	first := base.Add(time.Hour)
	n, err := repo.MarkRead(ctx, "a", first)
	require.NoError(t, err)
	require.NotNil(t, n.ReadAt)
	assert.True(t, first.Equal(*n.ReadAt))

	// 再次标记保持原有 readAt
	n, err = repo.MarkRead(ctx, "a", first.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, first.Equal(*n.ReadAt))

	_, err = repo.MarkRead(ctx, "missing", first)
	assert.ErrorIs(t, err, notification.ErrNotFound)
}

func TestNotificationRepository_MarkAllRead(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, newNotification("a", 0, notification.PriorityHigh)))
	require.NoError(t, repo.Save(ctx, newNotification("b", time.Minute, notification.PriorityHigh)))
	require.NoError(t, repo.Save(ctx, newNotification("c", 2*time.Minute, notification.PriorityHigh)))

	earlier := base.Add(time.Hour)
	_, err := repo.MarkRead(ctx, "a", earlier)
	require.NoError(t, err)

	at := base.Add(2 * time.Hour)
	receipts, err := repo.MarkAllRead(ctx, at)
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	for _, r := range receipts {
		assert.Contains(t, []string{"b", "c"}, r.ID)
		assert.True(t, at.Equal(r.ReadAt))
	}

	count, err := repo.CountUnread(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	existing, err := repo.FindReadReceipts(ctx, []string{"a", "missing"})
	require.NoError(t, err)
	require.Len(t, existing, 1)
	assert.True(t, earlier.Equal(existing[0].ReadAt))

	none, err := repo.FindReadReceipts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNotificationRepository_UpdateDeliveryStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, newNotification("a", 0, notification.PriorityMedium)))

	require.NoError(t, repo.UpdateDeliveryStatus(ctx, "a", notification.DeliverySent))
	found, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, notification.DeliverySent, found.DeliveryStatus)

	err = repo.UpdateDeliveryStatus(ctx, "missing", notification.DeliverySent)
	assert.ErrorIs(t, err, notification.ErrNotFound)
}

func TestProvideRepository(t *testing.T) {
	repo, cleanup, err := ProvideRepository(&config.DatabaseConfig{DSN: "memory://"})
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, repo)

	dir := t.TempDir()
	repo, cleanup, err = ProvideRepository(&config.DatabaseConfig{DSN: filepath.Join(dir, "nested", "n.db")})
	require.NoError(t, err)
	defer cleanup()

	count, err := repo.CountUnread(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
