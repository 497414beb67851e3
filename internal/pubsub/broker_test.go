package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBroker_DeliversToEverySubscriber(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx := context.Background()
	subs := []<-chan Event[int]{broker.Subscribe(ctx), broker.Subscribe(ctx)}
	require.Equal(t, 2, broker.SubscriberCount())

	broker.Publish(CreatedEvent, 7)

	for i, ch := range subs {
		select {
		case ev := <-ch:
			require.Equal(t, 7, ev.Payload, "subscriber %d", i)
			require.Equal(t, CreatedEvent, ev.Type)
			require.False(t, ev.Timestamp.IsZero())
		case <-time.After(100 * time.Millisecond):
			require.Fail(t, "timeout", "subscriber %d", i)
		}
	}
}

func TestBroker_CancelledContextClosesChannel(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "channel not closed after cancel")
	}
	require.Eventually(t, func() bool { return broker.SubscriberCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestBroker_FullSubscriberDropsEvents(t *testing.T) {
	broker := NewBrokerWithBuffer[int](1)
	defer broker.Close()

	ch := broker.Subscribe(context.Background())
	broker.Publish(UpdatedEvent, 1)
	broker.Publish(UpdatedEvent, 2)

	ev := <-ch
	require.Equal(t, 1, ev.Payload)
	select {
	case <-ch:
		require.Fail(t, "second event should have been dropped")
	default:
	}
}

func TestBroker_SubscribeAfterClose(t *testing.T) {
	broker := NewBroker[string]()
	broker.Close()
	broker.Close()

	_, ok := <-broker.Subscribe(context.Background())
	require.False(t, ok)
	broker.Publish(UpdatedEvent, "ignored")
}

func TestContinuousListener(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := NewContinuousListener[string](ctx, broker)
	broker.Publish(UpdatedEvent, "session.json")

	msg := listener.Listen()()
	ev, ok := msg.(Event[string])
	require.True(t, ok)
	require.Equal(t, "session.json", ev.Payload)

	cancel()
	require.Nil(t, listener.Listen()())
}
