package registry

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/webitel/screens-rating/internal/domain/event"
	"github.com/webitel/screens-rating/internal/domain/model"
)

// Hubber defines the gateway for subscription management and event routing.
type Hubber interface {
	Broadcast(ev event.Eventer) bool
	Subscribe(sub Subscriber)
	Unsubscribe(identity model.OperationIdentity, subID uuid.UUID)
	IsSubscribed(identity model.OperationIdentity) bool
	Stats() model.HubStats
	Shutdown()
}

var _ Hubber = (*Hub)(nil)

// Hub implements a [SCALABLE_REGISTRY] using the Virtual Cell pattern.
type Hub struct {
	// cells stores Map[model.OperationIdentity]Celler. Optimized for [READ_HEAVY] workloads.
	cells  sync.Map
	config hubConfig

	startedAt time.Time
	delivered atomic.Uint64
	dropped   atomic.Uint64
	unrouted  atomic.Uint64

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		config:    defaultHubConfig(),
		startedAt: time.Now(),
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.config.evictionInterval > 0 {
		go h.janitor()
	}
	return h
}

func (h *Hub) IsSubscribed(identity model.OperationIdentity) bool {
	val, ok := h.cells.Load(identity)
	if !ok {
		return false
	}
	return val.(Celler).Stats().Subscribers > 0
}

// Broadcast routes the event to the [IDENTITY_CELL] of its target.
// Returns false when nobody is subscribed or the mailbox overflowed.
func (h *Hub) Broadcast(ev event.Eventer) bool {
	val, ok := h.cells.Load(ev.GetTarget())
	if !ok {
		h.unrouted.Add(1)
		return false
	}
	if !val.(Celler).Push(ev) {
		h.dropped.Add(1)
		h.config.logger.Warn("MAILBOX_OVERFLOW",
			"identity", ev.GetTarget(),
			"event_id", ev.GetID(),
		)
		return false
	}
	return true
}

// Subscribe attaches the subscriber to its identity cell, creating it lazily.
func (h *Hub) Subscribe(sub Subscriber) {
	identity := sub.GetIdentity()
	for {
		val, loaded := h.cells.Load(identity)
		if !loaded {
			cell := NewCell(identity, h.config.mailboxSize, h.config.logger, h.markDelivered)
			val, loaded = h.cells.LoadOrStore(identity, cell)
			if loaded {
				cell.Stop()
			}
		}
		cell := val.(Celler)
		if cell.Attach(sub) {
			return
		}
		// [RACE] the cell was evicted between Load and Attach.
		h.cells.CompareAndDelete(identity, val)
	}
}

// Unsubscribe performs [GRACEFUL_RECLAMATION] of the subscriber's slot.
func (h *Hub) Unsubscribe(identity model.OperationIdentity, subID uuid.UUID) {
	val, ok := h.cells.Load(identity)
	if !ok {
		return
	}
	cell := val.(Celler)
	if cell.Detach(subID) && h.config.idleTimeout <= 0 && cell.TryStop(0) {
		h.cells.CompareAndDelete(identity, val)
	}
}

func (h *Hub) Stats() model.HubStats {
	stats := model.HubStats{
		Delivered: h.delivered.Load(),
		Dropped:   h.dropped.Load(),
		Unrouted:  h.unrouted.Load(),
		Uptime:    time.Since(h.startedAt),
	}
	h.cells.Range(func(_, val any) bool {
		cs := val.(Celler).Stats()
		stats.TotalCells++
		stats.TotalSubscribers += cs.Subscribers
		stats.Cells = append(stats.Cells, cs)
		return true
	})
	sort.Slice(stats.Cells, func(i, j int) bool {
		return stats.Cells[i].Identity < stats.Cells[j].Identity
	})
	return stats
}

// Shutdown stops the janitor and every cell goroutine.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		h.cells.Range(func(key, val any) bool {
			val.(Celler).Stop()
			h.cells.Delete(key)
			return true
		})
	})
}

func (h *Hub) markDelivered() {
	h.delivered.Add(1)
}

func (h *Hub) janitor() {
	ticker := time.NewTicker(h.config.evictionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.evictIdle()
		}
	}
}

func (h *Hub) evictIdle() {
	evicted := 0
	h.cells.Range(func(key, val any) bool {
		if val.(Celler).TryStop(h.config.idleTimeout) {
			h.cells.CompareAndDelete(key, val)
			evicted++
		}
		return true
	})
	if evicted > 0 {
		h.config.logger.Debug("IDLE_CELLS_EVICTED", "count", evicted)
	}
}
