package outbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domoutbox "github.com/alinasirlou2020/mobile-shop/internal/domain/outbox"
)

type testEvent struct {
	name string
	seq  int
}

func (e testEvent) EventName() string { return e.name }

func TestPublishDeliversInOrder(t *testing.T) {
	bus := NewBus(16, 4, nil)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	var mu sync.Mutex
	var got []int
	bus.Subscribe("test.event", func(_ context.Context, e domoutbox.Event) error {
		evt := e.(testEvent)
		mu.Lock()
		got = append(got, evt.seq)
		mu.Unlock()
		return nil
	})

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(context.Background(), testEvent{name: "test.event", seq: i}))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 10
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i, seq := range got {
		assert.Equal(t, i, seq, "events must arrive in publish order")
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	bus := NewBus(16, 4, nil)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	var delivered sync.WaitGroup
	delivered.Add(3)
	for i := 0; i < 3; i++ {
		bus.Subscribe("test.event", func(_ context.Context, _ domoutbox.Event) error {
			delivered.Done()
			return nil
		})
	}

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "test.event"}))

	done := make(chan struct{})
	go func() {
		delivered.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not all subscribers received the event")
	}
}

func TestPublishWithoutSubscribersIsDropped(t *testing.T) {
	bus := NewBus(16, 4, nil)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "nobody.listens"}))
}

func TestPublishNilEventIsNoop(t *testing.T) {
	bus := NewBus(16, 4, nil)
	require.NoError(t, bus.Publish(context.Background(), nil))
}

func TestHandlerPanicDoesNotStopDispatch(t *testing.T) {
	bus := NewBus(16, 4, nil)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	bus.Subscribe("test.event", func(_ context.Context, _ domoutbox.Event) error {
		panic("handler exploded")
	})

	seen := make(chan int, 2)
	bus.Subscribe("test.event", func(_ context.Context, e domoutbox.Event) error {
		seen <- e.(testEvent).seq
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "test.event", seq: 1}))
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "test.event", seq: 2}))

	for want := 1; want <= 2; want++ {
		select {
		case got := <-seen:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("event %d never delivered", want)
		}
	}
}

func TestPublishAbortsOnCanceledContextWhenFull(t *testing.T) {
	bus := NewBus(1, 1, nil)
	// Not started: the queue fills and the second publish must respect ctx.
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "test.event"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := bus.Publish(ctx, testEvent{name: "test.event"})
	assert.ErrorIs(t, err, context.Canceled)
}
