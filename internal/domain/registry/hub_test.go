package registry_test

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/webitel/screens-rating/internal/domain/event"
	"github.com/webitel/screens-rating/internal/domain/model"
	"github.com/webitel/screens-rating/internal/domain/registry"
)

var discard = slog.New(slog.DiscardHandler)

func result(target model.OperationIdentity) event.Eventer {
	return event.NewDeleteRatingEvent(target, uuid.New(), model.NewDeleteRequest("com.liferay.RatingEntry", 1001), nil)
}

type recorder struct {
	mu     sync.Mutex
	events []event.Eventer
}

func (r *recorder) add(ev event.Eventer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recorder) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.GetID())
	}
	return out
}

func TestHub_Broadcast(t *testing.T) {
	t.Run("ok: routes only to the target identity", func(t *testing.T) {
		hub := registry.NewHub(registry.WithEvictionInterval(0), registry.WithLogger(discard))
		defer hub.Shutdown()

		var mine, other recorder
		hub.Subscribe(registry.NewSubscriberFunc(42, mine.add))
		hub.Subscribe(registry.NewSubscriberFunc(7, other.add))

		require.True(t, hub.Broadcast(result(42)))

		require.Eventually(t, func() bool { return mine.len() == 1 }, time.Second, 5*time.Millisecond)
		require.Never(t, func() bool { return other.len() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
		require.Equal(t, uint64(1), hub.Stats().Delivered)
	})

	t.Run("ok: fan-out to every subscriber of an identity, in order", func(t *testing.T) {
		hub := registry.NewHub(registry.WithEvictionInterval(0), registry.WithLogger(discard))
		defer hub.Shutdown()

		var a, b recorder
		hub.Subscribe(registry.NewSubscriberFunc(42, a.add))
		hub.Subscribe(registry.NewSubscriberFunc(42, b.add))

		var sent []string
		for range 5 {
			ev := result(42)
			sent = append(sent, ev.GetID())
			require.True(t, hub.Broadcast(ev))
		}

		require.Eventually(t, func() bool { return a.len() == 5 && b.len() == 5 }, time.Second, 5*time.Millisecond)
		require.Equal(t, sent, a.ids())
		require.Equal(t, sent, b.ids())
	})

	t.Run("error: nobody subscribed", func(t *testing.T) {
		hub := registry.NewHub(registry.WithEvictionInterval(0), registry.WithLogger(discard))
		defer hub.Shutdown()

		require.False(t, hub.Broadcast(result(42)))
		require.Equal(t, uint64(1), hub.Stats().Unrouted)
	})

	t.Run("error: mailbox overflow drops", func(t *testing.T) {
		hub := registry.NewHub(
			registry.WithEvictionInterval(0),
			registry.WithMailboxSize(1),
			registry.WithLogger(discard),
		)
		defer hub.Shutdown()

		release := make(chan struct{})
		var entered atomic.Bool
		hub.Subscribe(registry.NewSubscriberFunc(42, func(event.Eventer) {
			entered.Store(true)
			<-release
		}))

		require.True(t, hub.Broadcast(result(42)))
		require.Eventually(t, entered.Load, time.Second, 5*time.Millisecond)

		require.True(t, hub.Broadcast(result(42)))
		require.False(t, hub.Broadcast(result(42)))
		require.Equal(t, uint64(1), hub.Stats().Dropped)
		close(release)
	})

	t.Run("ok: panicking subscriber does not stop the cell", func(t *testing.T) {
		hub := registry.NewHub(registry.WithEvictionInterval(0), registry.WithLogger(discard))
		defer hub.Shutdown()

		var calls atomic.Int32
		hub.Subscribe(registry.NewSubscriberFunc(42, func(event.Eventer) {
			if calls.Add(1) == 1 {
				panic("listener bug")
			}
		}))

		require.True(t, hub.Broadcast(result(42)))
		require.True(t, hub.Broadcast(result(42)))
		require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	})
}

func TestHub_Unsubscribe(t *testing.T) {
	t.Run("ok: immediate reclamation with zero idle timeout", func(t *testing.T) {
		hub := registry.NewHub(registry.WithEvictionInterval(0), registry.WithIdleTimeout(0))
		defer hub.Shutdown()

		var rec recorder
		sub := registry.NewSubscriberFunc(42, rec.add)
		hub.Subscribe(sub)
		require.True(t, hub.IsSubscribed(42))

		hub.Unsubscribe(42, sub.GetID())
		require.False(t, hub.IsSubscribed(42))
		require.Zero(t, hub.Stats().TotalCells)

		require.False(t, hub.Broadcast(result(42)))
		require.Zero(t, rec.len())
	})

	t.Run("ok: resubscribe after reclamation", func(t *testing.T) {
		hub := registry.NewHub(registry.WithEvictionInterval(0), registry.WithIdleTimeout(0))
		defer hub.Shutdown()

		first := registry.NewSubscriberFunc(42, func(event.Eventer) {})
		hub.Subscribe(first)
		hub.Unsubscribe(42, first.GetID())

		var rec recorder
		hub.Subscribe(registry.NewSubscriberFunc(42, rec.add))
		require.True(t, hub.Broadcast(result(42)))
		require.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, 5*time.Millisecond)
	})

	t.Run("ok: unknown identity is a no-op", func(t *testing.T) {
		hub := registry.NewHub(registry.WithEvictionInterval(0))
		defer hub.Shutdown()

		hub.Unsubscribe(99, uuid.New())
		require.Zero(t, hub.Stats().TotalCells)
	})
}

func TestHub_Janitor(t *testing.T) {
	hub := registry.NewHub(
		registry.WithEvictionInterval(10*time.Millisecond),
		registry.WithIdleTimeout(20*time.Millisecond),
		registry.WithLogger(discard),
	)
	defer hub.Shutdown()

	sub := registry.NewSubscriberFunc(42, func(event.Eventer) {})
	hub.Subscribe(sub)
	hub.Subscribe(registry.NewSubscriberFunc(7, func(event.Eventer) {}))
	hub.Unsubscribe(42, sub.GetID())

	require.Eventually(t, func() bool {
		s := hub.Stats()
		return s.TotalCells == 1 && s.Cells[0].Identity == 7
	}, time.Second, 10*time.Millisecond)
}

func TestHub_Shutdown(t *testing.T) {
	hub := registry.NewHub(registry.WithEvictionInterval(time.Millisecond))
	hub.Subscribe(registry.NewSubscriberFunc(42, func(event.Eventer) {}))

	hub.Shutdown()
	hub.Shutdown()

	require.Zero(t, hub.Stats().TotalCells)
	require.False(t, hub.Broadcast(result(42)))
}
