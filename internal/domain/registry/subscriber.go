package registry

import (
	"github.com/google/uuid"
	"github.com/webitel/screens-rating/internal/domain/event"
	"github.com/webitel/screens-rating/internal/domain/model"
)

// Subscriber receives every result event routed to its identity.
type Subscriber interface {
	GetID() uuid.UUID
	GetIdentity() model.OperationIdentity
	OnResultEvent(ev event.Eventer)
}

// SubscriberFunc adapts a plain function to Subscriber.
type SubscriberFunc struct {
	ID       uuid.UUID
	Identity model.OperationIdentity
	Fn       func(ev event.Eventer)
}

func NewSubscriberFunc(identity model.OperationIdentity, fn func(ev event.Eventer)) *SubscriberFunc {
	return &SubscriberFunc{ID: uuid.New(), Identity: identity, Fn: fn}
}

func (s *SubscriberFunc) GetID() uuid.UUID                     { return s.ID }
func (s *SubscriberFunc) GetIdentity() model.OperationIdentity { return s.Identity }
func (s *SubscriberFunc) OnResultEvent(ev event.Eventer)       { s.Fn(ev) }
