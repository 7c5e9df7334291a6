package service

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/webitel/screens-rating/internal/domain/event"
	"github.com/webitel/screens-rating/internal/domain/model"
	"github.com/webitel/screens-rating/internal/domain/registry"
)

// Base is the state every interactor shares: who it is and whom it reports to.
// Concrete interactors embed it and implement OnResultEvent themselves.
type Base struct {
	id       uuid.UUID
	identity model.OperationIdentity
	listener Listener

	mu  sync.Mutex
	hub registry.Hubber
}

func NewBase(identity model.OperationIdentity, listener Listener) (*Base, error) {
	if !identity.IsValid() {
		return nil, fmt.Errorf("%w: %d", model.ErrInvalidIdentity, identity)
	}
	if listener == nil {
		return nil, fmt.Errorf("interactor %d: listener is nil", identity)
	}
	return &Base{
		id:       uuid.New(),
		identity: identity,
		listener: listener,
	}, nil
}

// GetID identifies this interactor's subscription, not its operations.
func (b *Base) GetID() uuid.UUID { return b.id }

func (b *Base) GetIdentity() model.OperationIdentity { return b.identity }

func (b *Base) Listener() Listener { return b.listener }

// IsValidEvent accepts only events produced for this identity.
func (b *Base) IsValidEvent(ev event.Eventer) bool {
	return ev != nil && ev.GetTarget() == b.identity
}

// attach subscribes self to the result stream of its identity. Attaching twice is a no-op.
func (b *Base) attach(hub registry.Hubber, self registry.Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hub != nil {
		return
	}
	b.hub = hub
	hub.Subscribe(self)
}

// detach drops the subscription. Late results for this identity go nowhere.
func (b *Base) detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hub == nil {
		return
	}
	b.hub.Unsubscribe(b.identity, b.id)
	b.hub = nil
}

func (b *Base) IsAttached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hub != nil
}
