/*
Package registry routes result events to the interactors that are waiting for them.

Key Architectural Concepts:
  - Virtual Cells: every live operation identity is represented by an isolated
    'Cell' (Actor) holding all subscribers registered for that identity.
  - Decoupling & Backpressure: each cell owns a mailbox drained by a single
    goroutine, so a slow listener never stalls the bus consumer.
  - Ordering: events for one identity are delivered in the order they were
    pushed; nothing is promised across identities.
*/
package registry

import (
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/webitel/screens-rating/internal/domain/event"
	"github.com/webitel/screens-rating/internal/domain/model"
)

// Celler defines the internal API for identity-specific delivery units.
type Celler interface {
	Push(ev event.Eventer) bool
	Attach(sub Subscriber) bool
	Detach(subID uuid.UUID) bool
	IsIdle(timeout time.Duration) bool
	TryStop(idleTimeout time.Duration) bool
	Stats() model.CellStats
	Stop()
}

// Cell implements [ISOLATED_DELIVERY] logic for a single operation identity.
type Cell struct {
	identity model.OperationIdentity

	// [MAILBOX]
	// Buffered channel that decouples the bus consumer from listener code.
	mailbox chan event.Eventer

	// [SUBSCRIBERS]
	// Usually one interactor, but several screens may share an identity.
	subscribers map[uuid.UUID]Subscriber

	mu     sync.RWMutex
	doneCh chan struct{}
	once   sync.Once

	stopped        bool
	lastActivityAt time.Time

	onDelivered func()
	logger      *slog.Logger
}

func NewCell(identity model.OperationIdentity, bufferSize int, logger *slog.Logger, onDelivered func()) *Cell {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	if onDelivered == nil {
		onDelivered = func() {}
	}
	c := &Cell{
		identity:       identity,
		mailbox:        make(chan event.Eventer, bufferSize),
		subscribers:    make(map[uuid.UUID]Subscriber),
		doneCh:         make(chan struct{}),
		lastActivityAt: time.Now(),
		onDelivered:    onDelivered,
		logger:         logger,
	}
	go c.loop()
	return c
}

// IsIdle reports whether the cell has no subscribers and no recent traffic.
func (c *Cell) IsIdle(timeout time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.subscribers) == 0 && len(c.mailbox) == 0 && time.Since(c.lastActivityAt) > timeout
}

func (c *Cell) touch() {
	c.mu.Lock()
	c.lastActivityAt = time.Now()
	c.mu.Unlock()
}

// Push enqueues without blocking. False means the mailbox is full or the cell stopped.
func (c *Cell) Push(ev event.Eventer) bool {
	c.touch()
	select {
	case <-c.doneCh:
		return false
	default:
	}
	select {
	case c.mailbox <- ev:
		return true
	default:
		return false
	}
}

// Attach registers a subscriber. It fails once the cell has been stopped,
// so the hub can replace an evicted cell.
func (c *Cell) Attach(sub Subscriber) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return false
	}
	c.lastActivityAt = time.Now()
	c.subscribers[sub.GetID()] = sub
	return true
}

// Detach removes a subscriber and reports whether the cell is now empty.
func (c *Cell) Detach(subID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscribers, subID)
	c.lastActivityAt = time.Now()
	return len(c.subscribers) == 0
}

func (c *Cell) Stats() model.CellStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return model.CellStats{
		Identity:    c.identity,
		Subscribers: len(c.subscribers),
		Pending:     len(c.mailbox),
	}
}

func (c *Cell) loop() {
	for {
		select {
		case <-c.doneCh:
			return
		case ev := <-c.mailbox:
			c.deliver(ev)
		}
	}
}

func (c *Cell) deliver(ev event.Eventer) {
	// Snapshot so a subscriber may detach itself from inside its callback.
	c.mu.RLock()
	subs := make([]Subscriber, 0, len(c.subscribers))
	for _, sub := range c.subscribers {
		subs = append(subs, sub)
	}
	c.mu.RUnlock()

	for _, sub := range subs {
		c.safeDeliver(sub, ev)
	}
}

func (c *Cell) safeDeliver(sub Subscriber, ev event.Eventer) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("SUBSCRIBER_PANIC_RECOVERED",
				"err", r,
				"identity", c.identity,
				"event_id", ev.GetID(),
				"stack", string(debug.Stack()),
			)
		}
	}()
	sub.OnResultEvent(ev)
	c.onDelivered()
}

// TryStop stops the cell only if it is idle, atomically with respect to Attach.
func (c *Cell) TryStop(idleTimeout time.Duration) bool {
	c.mu.Lock()
	if c.stopped || len(c.subscribers) > 0 || len(c.mailbox) > 0 || time.Since(c.lastActivityAt) < idleTimeout {
		c.mu.Unlock()
		return false
	}
	c.stopped = true
	c.mu.Unlock()

	c.once.Do(func() { close(c.doneCh) })
	return true
}

func (c *Cell) Stop() {
	c.once.Do(func() {
		c.mu.Lock()
		c.stopped = true
		c.mu.Unlock()
		close(c.doneCh)
	})
}
