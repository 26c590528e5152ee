package inbox

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightdesk/backend/internal/domain/notification"
)

func TestFetch_UnreadPage(t *testing.T) {
	remote := &mockRemote{
		listFn: func(ctx context.Context, filter notification.Filter) (notification.Page, error) {
			return notification.Page{
				Items: []notification.Notification{
					newNotification("n1", t0.Add(time.Minute), notification.PriorityHigh),
					newNotification("n2", t0, notification.PriorityLow),
				},
				Page:  1,
				Limit: 20,
				Total: 2,
			}, nil
		},
	}
	f := newTestFacade(remote)

	page, err := f.Fetch(context.Background(), notification.Filter{Page: 1, Limit: 20, UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	assert.Equal(t, []string{"n1", "n2"}, idsOf(f.Notifications()))
	assert.Equal(t, 2, f.UnreadCount())
	assert.False(t, f.State().IsLoading)
	assert.Empty(t, f.State().Error)

	require.Len(t, remote.listCalls, 1)
	assert.True(t, remote.listCalls[0].UnreadOnly)
}

func TestFetch_DefaultsPage(t *testing.T) {
	remote := &mockRemote{}
	f := newTestFacade(remote)

	_, err := f.Fetch(context.Background(), notification.Filter{})
	require.NoError(t, err)
	require.Len(t, remote.listCalls, 1)
	assert.Equal(t, 1, remote.listCalls[0].Page)
}

func TestFetch_ValidationBeforeNetwork(t *testing.T) {
	remote := &mockRemote{}
	f := newTestFacade(remote)

	tests := []notification.Filter{
		{Limit: 101},
		{Page: -1},
		{Status: "archived"},
		{Priority: "urgent"},
		{UnreadOnly: true, Status: notification.StatusRead},
	}
	for i, filter := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, err := f.Fetch(context.Background(), filter)
			assert.ErrorIs(t, err, notification.ErrValidation)
			assert.NotEmpty(t, f.State().Error)
		})
	}
	assert.Equal(t, 0, remote.listCount())
}

func TestFetch_FailureLeavesStoreUntouched(t *testing.T) {
	remote := &mockRemote{
		listFn: func(ctx context.Context, filter notification.Filter) (notification.Page, error) {
			return notification.Page{}, errors.New("502 bad gateway")
		},
	}
	f := newTestFacade(remote)
	f.store.Merge([]notification.Notification{newNotification("keep", t0, notification.PriorityLow)})

	_, err := f.Fetch(context.Background(), notification.Filter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, notification.ErrFetch)

	assert.Equal(t, []string{"keep"}, idsOf(f.Notifications()))
	assert.False(t, f.State().IsLoading)
	assert.Contains(t, f.State().Error, "502")
}

func TestFetch_LoadingWhileInFlight(t *testing.T) {
	var f *Facade
	remote := &mockRemote{}
	remote.listFn = func(ctx context.Context, filter notification.Filter) (notification.Page, error) {
		assert.True(t, f.State().IsLoading)
		return notification.Page{}, nil
	}
	f = newTestFacade(remote)

	_, err := f.Fetch(context.Background(), notification.Filter{})
	require.NoError(t, err)
	assert.False(t, f.State().IsLoading)
}

func TestFetch_LateResponseAfterClearDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	remote := &mockRemote{
		listFn: func(ctx context.Context, filter notification.Filter) (notification.Page, error) {
			close(started)
			<-release
			return notification.Page{Items: []notification.Notification{
				newNotification("ghost", t0, notification.PriorityLow),
			}}, nil
		},
	}
	f := newTestFacade(remote)

	done := make(chan error, 1)
	go func() {
		_, err := f.Fetch(context.Background(), notification.Filter{})
		done <- err
	}()

	<-started
	f.ClearNotifications()
	close(release)

	require.NoError(t, <-done)
	assert.Empty(t, f.Notifications(), "清空后到达的响应应被丢弃")
}

func TestFetch_DoesNotRegressLocalRead(t *testing.T) {
	remote := &mockRemote{
		listFn: func(ctx context.Context, filter notification.Filter) (notification.Page, error) {
			return notification.Page{Items: []notification.Notification{
				newNotification("A", t0, notification.PriorityLow),
			}}, nil
		},
	}
	f := newTestFacade(remote)
	f.store.Merge([]notification.Notification{readNotification("A", t0, t0.Add(time.Minute))})

	_, err := f.Fetch(context.Background(), notification.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 0, f.UnreadCount())
}

func TestCatchUp_StopsAtKnownRecord(t *testing.T) {
	remote := &mockRemote{
		listFn: func(ctx context.Context, filter notification.Filter) (notification.Page, error) {
			switch filter.Page {
			case 1:
				return notification.Page{Items: []notification.Notification{
					newNotification("new-2", t0.Add(2*time.Hour), notification.PriorityLow),
					newNotification("new-1", t0.Add(time.Hour), notification.PriorityLow),
				}, Page: 1, HasMore: true}, nil
			case 2:
				return notification.Page{Items: []notification.Notification{
					newNotification("known", t0, notification.PriorityLow),
				}, Page: 2, HasMore: true}, nil
			default:
				t.Errorf("unexpected page %d", filter.Page)
				return notification.Page{}, nil
			}
		},
	}
	f := newTestFacade(remote)
	f.store.Merge([]notification.Notification{newNotification("known", t0, notification.PriorityLow)})

	merged, err := f.query.CatchUp(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, merged)
	assert.Equal(t, []string{"new-2", "new-1", "known"}, idsOf(f.Notifications()))
	assert.Equal(t, 2, remote.listCount())
}

func TestCatchUp_BoundedPages(t *testing.T) {
	remote := &mockRemote{
		listFn: func(ctx context.Context, filter notification.Filter) (notification.Page, error) {
			return notification.Page{Items: []notification.Notification{
				newNotification(fmt.Sprintf("p%d", filter.Page), t0.Add(-time.Duration(filter.Page)*time.Minute), notification.PriorityLow),
			}, Page: filter.Page, HasMore: true}, nil
		},
	}
	f := newTestFacade(remote)

	_, err := f.query.CatchUp(context.Background())
	require.NoError(t, err)
	assert.Equal(t, maxCatchUpPages, remote.listCount())
}
