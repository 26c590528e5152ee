package eventbus

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/freightdesk/backend/internal/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInboxEvent(version uint64) *events.InboxEvent {
	return &events.InboxEvent{
		EventType: events.InboxChanged,
		Version:   version,
		EventTime: time.Now(),
	}
}

func TestEventBus_Subscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	var received atomic.Bool
	unsub := bus.Subscribe(events.InboxChanged, events.HandlerFunc(func(event events.Event) error {
		received.Store(true)
		return nil
	}))
	defer unsub()

	bus.Publish(newInboxEvent(1))

	assert.Eventually(t, received.Load, time.Second, 10*time.Millisecond)
}

func TestEventBus_MultipleHandlers(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	var count atomic.Int32
	for i := 0; i < 3; i++ {
		unsub := bus.Subscribe(events.InboxChanged, events.HandlerFunc(func(event events.Event) error {
			count.Add(1)
			return nil
		}))
		defer unsub()
	}

	bus.Publish(newInboxEvent(1))

	assert.Eventually(t, func() bool { return count.Load() == 3 }, time.Second, 10*time.Millisecond)
}

func TestEventBus_SubscribeMultiple(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	var count atomic.Int32
	unsub := bus.SubscribeMultiple(
		[]events.EventType{events.InboxChanged, events.InboxStateChanged},
		events.HandlerFunc(func(event events.Event) error {
			count.Add(1)
			return nil
		}),
	)
	defer unsub()

	bus.Publish(newInboxEvent(1))
	bus.Publish(&events.InboxEvent{EventType: events.InboxStateChanged, EventTime: time.Now()})

	assert.Eventually(t, func() bool { return count.Load() == 2 }, time.Second, 10*time.Millisecond)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	var first, second atomic.Int32
	unsubFirst := bus.Subscribe(events.InboxChanged, events.HandlerFunc(func(event events.Event) error {
		first.Add(1)
		return nil
	}))
	unsubSecond := bus.Subscribe(events.InboxChanged, events.HandlerFunc(func(event events.Event) error {
		second.Add(1)
		return nil
	}))
	defer unsubSecond()

	unsubFirst()
	// 重复取消是安全的
	unsubFirst()

	bus.Publish(newInboxEvent(1))

	assert.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
}

func TestEventBus_ErrorIsolation(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	var successCount atomic.Int32
	bus.Subscribe(events.InboxChanged, events.HandlerFunc(func(event events.Event) error {
		return errors.New("handler error")
	}))
	bus.Subscribe(events.InboxChanged, events.HandlerFunc(func(event events.Event) error {
		successCount.Add(1)
		return nil
	}))

	bus.Publish(newInboxEvent(1))

	assert.Eventually(t, func() bool { return successCount.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestEventBus_PanicRecovery(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	var successCount atomic.Int32
	bus.Subscribe(events.InboxChanged, events.HandlerFunc(func(event events.Event) error {
		panic("handler panic")
	}))
	bus.Subscribe(events.InboxChanged, events.HandlerFunc(func(event events.Event) error {
		successCount.Add(1)
		return nil
	}))

	require.NotPanics(t, func() {
		bus.Publish(newInboxEvent(1))
	})

	assert.Eventually(t, func() bool { return successCount.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestEventBus_PublishAfterClose(t *testing.T) {
	bus := NewEventBus()

	var count atomic.Int32
	bus.Subscribe(events.InboxChanged, events.HandlerFunc(func(event events.Event) error {
		count.Add(1)
		return nil
	}))
	bus.Close()

	bus.Publish(newInboxEvent(1))
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, int32(0), count.Load())
}

func TestEventBus_CloseWaitsForHandlers(t *testing.T) {
	bus := NewEventBus()

	handlerStarted := make(chan struct{})
	handlerDone := make(chan struct{})

	bus.Subscribe(events.InboxChanged, events.HandlerFunc(func(event events.Event) error {
		close(handlerStarted)
		time.Sleep(200 * time.Millisecond)
		close(handlerDone)
		return nil
	}))

	bus.Publish(newInboxEvent(1))
	<-handlerStarted

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		bus.Close()
	}()

	select {
	case <-handlerDone:
	case <-time.After(time.Second):
		t.Fatal("handler should have completed")
	}
	wg.Wait()
}
