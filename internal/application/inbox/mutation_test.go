package inbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightdesk/backend/internal/domain/notification"
)

func TestMarkAllAsRead_SingleUnread(t *testing.T) {
	remote := &mockRemote{}
	f := newTestFacade(remote)
	f.store.Merge([]notification.Notification{newNotification("A", t0, notification.PriorityHigh)})
	require.Equal(t, 1, f.UnreadCount())

	require.NoError(t, f.MarkAllAsRead(context.Background()))

	assert.Equal(t, 0, f.UnreadCount())
	got, _ := f.store.Get("A")
	require.NotNil(t, got.ReadAt)
	// 服务端的 readAt 为准
	assert.True(t, got.ReadAt.Equal(t0.Add(time.Hour)))
	assert.Equal(t, [][]string{{"A"}}, remote.markAllCalls)
	assert.Empty(t, f.State().Error)
}

func TestMarkAsRead_FailureReverts(t *testing.T) {
	remote := &mockRemote{
		markFn: func(ctx context.Context, id string) (notification.Notification, error) {
			return notification.Notification{}, errors.New("connection reset")
		},
	}
	f := newTestFacade(remote)
	f.store.Merge([]notification.Notification{newNotification("A", t0, notification.PriorityLow)})

	err := f.MarkAsRead(context.Background(), "A")
	require.Error(t, err)
	assert.ErrorIs(t, err, notification.ErrMutation)

	got, _ := f.store.Get("A")
	assert.Nil(t, got.ReadAt)
	assert.Equal(t, 1, f.UnreadCount())
	assert.Contains(t, f.State().Error, "connection reset")
	assert.ErrorIs(t, f.Err(), notification.ErrMutation)
	assert.Equal(t, 1, remote.markCount(), "失败不自动重试")
}

func TestMarkAsRead_PushedReadSurvivesLostResponse(t *testing.T) {
	serverReadAt := t0.Add(2 * time.Hour)
	var f *Facade
	remote := &mockRemote{
		markFn: func(ctx context.Context, id string) (notification.Notification, error) {
			// 服务端已落库并推送，但响应在返回途中丢失
			event, err := notification.NewEvent(notification.EventRead, readNotification(id, t0, serverReadAt))
			require.NoError(t, err)
			f.LiveListener().OnEvent(event)
			return notification.Notification{}, errors.New("read timeout")
		},
	}
	f = newTestFacade(remote)
	f.store.Merge([]notification.Notification{newNotification("A", t0, notification.PriorityLow)})

	err := f.MarkAsRead(context.Background(), "A")
	assert.ErrorIs(t, err, notification.ErrMutation)

	got, _ := f.store.Get("A")
	require.NotNil(t, got.ReadAt)
	assert.True(t, got.ReadAt.Equal(serverReadAt))
	assert.Equal(t, 0, f.UnreadCount())
}

func TestMarkAllAsRead_PushedReadSurvivesFailure(t *testing.T) {
	serverReadAt := t0.Add(2 * time.Hour)
	var f *Facade
	remote := &mockRemote{
		markAllFn: func(ctx context.Context, ids []string) ([]notification.ReadReceipt, error) {
			event, err := notification.NewEvent(notification.EventRead, readNotification("A", t0, serverReadAt))
			require.NoError(t, err)
			f.LiveListener().OnEvent(event)
			return nil, errors.New("gateway timeout")
		},
	}
	f = newTestFacade(remote)
	f.store.Merge([]notification.Notification{
		newNotification("A", t0, notification.PriorityLow),
		newNotification("B", t0.Add(time.Minute), notification.PriorityLow),
	})

	err := f.MarkAllAsRead(context.Background())
	assert.ErrorIs(t, err, notification.ErrMutation)

	a, _ := f.store.Get("A")
	require.NotNil(t, a.ReadAt)
	assert.True(t, a.ReadAt.Equal(serverReadAt))
	b, _ := f.store.Get("B")
	assert.Nil(t, b.ReadAt)
	assert.Equal(t, 1, f.UnreadCount())
}

func TestMarkAsRead_UnconfirmedIsFailure(t *testing.T) {
	remote := &mockRemote{
		markFn: func(ctx context.Context, id string) (notification.Notification, error) {
			return newNotification(id, t0, notification.PriorityLow), nil
		},
	}
	f := newTestFacade(remote)
	f.store.Merge([]notification.Notification{newNotification("A", t0, notification.PriorityLow)})

	err := f.MarkAsRead(context.Background(), "A")
	assert.ErrorIs(t, err, notification.ErrMutation)
	assert.Equal(t, 1, f.UnreadCount())
}

func TestMarkAsRead_NoOpWithoutRemoteCall(t *testing.T) {
	remote := &mockRemote{}
	f := newTestFacade(remote)
	f.store.Merge([]notification.Notification{readNotification("R", t0, t0.Add(time.Minute))})

	require.NoError(t, f.MarkAsRead(context.Background(), "R"))
	require.NoError(t, f.MarkAsRead(context.Background(), "missing"))

	assert.Equal(t, 0, remote.markCount())
	got, _ := f.store.Get("R")
	assert.True(t, got.ReadAt.Equal(t0.Add(time.Minute)))
}

func TestMarkAsRead_ReconcilesServerReadAt(t *testing.T) {
	serverAt := t0.Add(45 * time.Minute)
	remote := &mockRemote{
		markFn: func(ctx context.Context, id string) (notification.Notification, error) {
			n := newNotification(id, t0, notification.PriorityLow)
			n.ReadAt = &serverAt
			return n, nil
		},
	}
	f := newTestFacade(remote)
	f.store.Merge([]notification.Notification{newNotification("A", t0, notification.PriorityLow)})

	require.NoError(t, f.MarkAsRead(context.Background(), "A"))

	got, _ := f.store.Get("A")
	require.NotNil(t, got.ReadAt)
	assert.True(t, got.ReadAt.Equal(serverAt))
}

func TestMarkAsRead_OptimisticBeforeRemote(t *testing.T) {
	var f *Facade
	remote := &mockRemote{}
	remote.markFn = func(ctx context.Context, id string) (notification.Notification, error) {
		// 远程调用期间本地已经是已读
		assert.Equal(t, 0, f.UnreadCount())
		at := t0.Add(time.Hour)
		return notification.Notification{ID: id, ReadAt: &at}, nil
	}
	f = newTestFacade(remote)
	f.store.Merge([]notification.Notification{newNotification("A", t0, notification.PriorityLow)})

	require.NoError(t, f.MarkAsRead(context.Background(), "A"))
}

func TestMarkAsRead_ClearsPreviousError(t *testing.T) {
	fail := true
	remote := &mockRemote{}
	remote.markFn = func(ctx context.Context, id string) (notification.Notification, error) {
		if fail {
			return notification.Notification{}, errors.New("timeout")
		}
		at := t0.Add(time.Hour)
		return notification.Notification{ID: id, ReadAt: &at}, nil
	}
	f := newTestFacade(remote)
	f.store.Merge([]notification.Notification{newNotification("A", t0, notification.PriorityLow)})

	require.Error(t, f.MarkAsRead(context.Background(), "A"))
	require.NotEmpty(t, f.State().Error)

	fail = false
	require.NoError(t, f.MarkAsRead(context.Background(), "A"))
	assert.Empty(t, f.State().Error)
	assert.NoError(t, f.Err())
}

func TestMarkAllAsRead_PartialFailure(t *testing.T) {
	remote := &mockRemote{
		markAllFn: func(ctx context.Context, ids []string) ([]notification.ReadReceipt, error) {
			return []notification.ReadReceipt{{ID: "A", ReadAt: t0.Add(time.Hour)}}, nil
		},
	}
	f := newTestFacade(remote)
	f.store.Merge([]notification.Notification{
		newNotification("A", t0, notification.PriorityLow),
		newNotification("B", t0.Add(time.Minute), notification.PriorityLow),
	})

	err := f.MarkAllAsRead(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, notification.ErrMutation)

	var partial *notification.PartialMarkError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, []string{"A"}, partial.Confirmed)
	assert.Equal(t, []string{"B"}, partial.Reverted)

	b, _ := f.store.Get("B")
	assert.Nil(t, b.ReadAt)
	assert.Equal(t, 1, f.UnreadCount())
}

func TestMarkAllAsRead_FailureRevertsAll(t *testing.T) {
	remote := &mockRemote{
		markAllFn: func(ctx context.Context, ids []string) ([]notification.ReadReceipt, error) {
			return nil, errors.New("service unavailable")
		},
	}
	f := newTestFacade(remote)
	f.store.Merge([]notification.Notification{
		newNotification("A", t0, notification.PriorityLow),
		newNotification("B", t0, notification.PriorityLow),
		readNotification("C", t0, t0.Add(time.Minute)),
	})

	err := f.MarkAllAsRead(context.Background())
	assert.ErrorIs(t, err, notification.ErrMutation)
	assert.Equal(t, 2, f.UnreadCount())

	c, _ := f.store.Get("C")
	assert.NotNil(t, c.ReadAt, "原本已读的记录不受回滚影响")
}

func TestMarkAllAsRead_AppliesLateArrivals(t *testing.T) {
	var f *Facade
	remote := &mockRemote{}
	remote.markAllFn = func(ctx context.Context, ids []string) ([]notification.ReadReceipt, error) {
		// 请求期间推送到达的新通知，服务端一并标记
		f.store.Merge([]notification.Notification{newNotification("late", t0.Add(time.Hour), notification.PriorityLow)})
		return []notification.ReadReceipt{
			{ID: "A", ReadAt: t0.Add(time.Hour)},
			{ID: "late", ReadAt: t0.Add(time.Hour)},
		}, nil
	}
	f = newTestFacade(remote)
	f.store.Merge([]notification.Notification{newNotification("A", t0, notification.PriorityLow)})

	require.NoError(t, f.MarkAllAsRead(context.Background()))
	assert.Equal(t, 0, f.UnreadCount())
}

func TestStalePushAfterLocalRead(t *testing.T) {
	remote := &mockRemote{}
	f := newTestFacade(remote)
	a := newNotification("A", t0, notification.PriorityLow)
	f.store.Merge([]notification.Notification{a})

	require.NoError(t, f.MarkAsRead(context.Background(), "A"))

	// 推送通道送来同一 createdAt 的未读旧版本
	event, err := notification.NewEvent(notification.EventCreated, a)
	require.NoError(t, err)
	f.LiveListener().OnEvent(event)

	got, _ := f.store.Get("A")
	assert.NotNil(t, got.ReadAt)
	assert.Equal(t, 0, f.UnreadCount())
}

func TestCreateNotification(t *testing.T) {
	remote := &mockRemote{
		createFn: func(ctx context.Context, input notification.CreateInput) (notification.Notification, error) {
			return notification.Notification{
				ID:        "srv-1",
				Type:      input.Type,
				Priority:  input.Priority,
				Title:     input.Title,
				Message:   input.Message,
				Data:      input.Data,
				CreatedAt: t0,
			}, nil
		},
	}
	f := newTestFacade(remote)

	created, err := f.CreateNotification(context.Background(), notification.CreateInput{
		Type:     notification.TypeCustomsClearance,
		Priority: notification.PriorityHigh,
		Title:    "Customs hold",
		Data:     map[string]any{"port": "Rotterdam"},
	})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", created.ID)
	assert.Equal(t, []string{"srv-1"}, idsOf(f.Notifications()))
	assert.Equal(t, 1, f.UnreadCount())
}

func TestCreateNotification_ValidationSkipsRemote(t *testing.T) {
	remote := &mockRemote{}
	f := newTestFacade(remote)

	tests := []notification.CreateInput{
		{Priority: notification.PriorityLow, Title: "no type"},
		{Type: notification.TypePaymentDue, Title: "no priority"},
		{Type: notification.TypePaymentDue, Priority: "urgent", Title: "bad priority"},
		{Type: notification.TypePaymentDue, Priority: notification.PriorityLow},
	}
	for i, input := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, err := f.CreateNotification(context.Background(), input)
			assert.ErrorIs(t, err, notification.ErrValidation)
			assert.NotEmpty(t, f.State().Error)
		})
	}
	assert.Equal(t, 0, remote.createCalls)
}

func TestCreateNotification_ConcurrentCallsAllIssued(t *testing.T) {
	var mu sync.Mutex
	seq := 0
	remote := &mockRemote{
		createFn: func(ctx context.Context, input notification.CreateInput) (notification.Notification, error) {
			mu.Lock()
			seq++
			id := fmt.Sprintf("srv-%d", seq)
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			return notification.Notification{
				ID: id, Type: input.Type, Priority: input.Priority, Title: input.Title, CreatedAt: t0,
			}, nil
		},
	}
	f := newTestFacade(remote)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.CreateNotification(context.Background(), notification.CreateInput{
				Type: notification.TypeFleetUpdate, Priority: notification.PriorityMedium, Title: fmt.Sprintf("truck %d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, remote.createCalls)
	assert.Len(t, f.Notifications(), 10)
	assert.Equal(t, 10, f.UnreadCount())
}

func TestCreateNotification_RemoteFailure(t *testing.T) {
	remote := &mockRemote{
		createFn: func(ctx context.Context, input notification.CreateInput) (notification.Notification, error) {
			return notification.Notification{}, errors.New("rejected")
		},
	}
	f := newTestFacade(remote)

	_, err := f.CreateNotification(context.Background(), notification.CreateInput{
		Type: notification.TypeUserAction, Priority: notification.PriorityLow, Title: "Ping",
	})
	assert.ErrorIs(t, err, notification.ErrMutation)
	assert.Empty(t, f.Notifications(), "不做乐观插入")
}

func TestClearNotifications(t *testing.T) {
	remote := &mockRemote{}
	f := newTestFacade(remote)
	f.store.Merge([]notification.Notification{
		newNotification("A", t0, notification.PriorityLow),
		newNotification("B", t0, notification.PriorityLow),
	})
	f.status.setError(errors.New("stale"))

	f.ClearNotifications()

	assert.Empty(t, f.Notifications())
	assert.Equal(t, 0, f.UnreadCount())
	assert.Empty(t, f.State().Error)
}
