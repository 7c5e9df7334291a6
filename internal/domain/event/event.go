package event

import (
	"github.com/google/uuid"
	"github.com/webitel/screens-rating/internal/domain/model"
)

type EventKind int16

const (
	RatingEntryDeleted EventKind = iota + 1
)

func (k EventKind) String() string {
	switch k {
	case RatingEntryDeleted:
		return "RatingEntryDeleted"
	default:
		return "Unknown"
	}
}

// Eventer defines the contract for result events flowing through the Hub.
type Eventer interface {
	GetID() string
	GetRequestID() uuid.UUID
	GetKind() EventKind
	GetTarget() model.OperationIdentity
	GetOccurredAt() int64
	IsFailed() bool
	GetError() *model.RemoteError
}

// Exportable defines an event that should be published to the message bus.
type Exportable interface {
	// An empty key means the event stays local.
	GetRoutingKey() string
}
