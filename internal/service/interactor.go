package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/webitel/screens-rating/internal/domain/event"
	"github.com/webitel/screens-rating/internal/domain/model"
	"github.com/webitel/screens-rating/internal/domain/registry"
)

//go:generate mockery --name EntryDeleter --output ./mocks --outpkg mocks --with-expecter --filename entry_deleter.go
//go:generate mockery --name Listener --output ./mocks --outpkg mocks --with-expecter --filename listener.go

const (
	opDeleteRating = "delete-rating"

	// deliveredWindow bounds how many delivered request tokens are remembered for redelivery checks.
	deliveredWindow = 256
)

// EntryDeleter is the remote ratings stub. DeleteEntry returns once the call is
// started; its outcome is published later as a DeleteRatingEvent carrying the token.
type EntryDeleter interface {
	DeleteEntry(ctx context.Context, className string, classPK int64) (uuid.UUID, error)
}

// EntryDeleterFactory builds a stub whose results are tagged with identity.
type EntryDeleterFactory func(identity model.OperationIdentity) (EntryDeleter, error)

var _ registry.Subscriber = (*DeleteRatingInteractor)(nil)

// DeleteRatingInteractor removes a rating entry and reports the outcome to its listener.
//
// Results come back through the hub, never through DeleteRating itself. Every
// event carrying this identity reaches the listener, including results of
// requests dispatched by an earlier interactor with the same identity. A request
// token is delivered at most once.
type DeleteRatingInteractor struct {
	*Base

	deleters EntryDeleterFactory
	logger   *slog.Logger

	mu        sync.Mutex
	pending   map[uuid.UUID]struct{}
	delivered *lru.Cache[uuid.UUID, struct{}]
	closed    bool
}

func NewDeleteRatingInteractor(identity model.OperationIdentity, listener Listener, deleters EntryDeleterFactory, logger *slog.Logger) (*DeleteRatingInteractor, error) {
	base, err := NewBase(identity, listener)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	delivered, err := lru.New[uuid.UUID, struct{}](deliveredWindow)
	if err != nil {
		return nil, err
	}
	return &DeleteRatingInteractor{
		Base:      base,
		deleters:  deleters,
		logger:    logger.With("identity", identity),
		pending:   make(map[uuid.UUID]struct{}),
		delivered: delivered,
	}, nil
}

// Attach starts receiving results for this identity.
func (i *DeleteRatingInteractor) Attach(hub registry.Hubber) {
	i.attach(hub, i)
}

// DeleteRating dispatches the removal and returns without waiting for the outcome.
// A returned error is always a *model.DispatchError; no result follows it.
func (i *DeleteRatingInteractor) DeleteRating(ctx context.Context, className string, classPK int64) error {
	_, err := i.Dispatch(ctx, className, classPK)
	return err
}

// Dispatch is DeleteRating that also returns the request token its result will carry.
func (i *DeleteRatingInteractor) Dispatch(ctx context.Context, className string, classPK int64) (uuid.UUID, error) {
	// Held across the dispatch so a fast result cannot overtake the token registration.
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return uuid.Nil, model.NewDispatchError(opDeleteRating, model.ErrInteractorClosed)
	}

	deleter, err := i.deleters(i.GetIdentity())
	if err != nil {
		return uuid.Nil, asDispatchError(err)
	}

	requestID, err := deleter.DeleteEntry(ctx, className, classPK)
	if err != nil {
		return uuid.Nil, asDispatchError(err)
	}

	i.pending[requestID] = struct{}{}
	return requestID, nil
}

// OnResultEvent is called by the hub for every result routed to this identity.
func (i *DeleteRatingInteractor) OnResultEvent(ev event.Eventer) {
	if !i.IsValidEvent(ev) {
		if ev != nil {
			i.logger.Debug("FOREIGN_EVENT_DROPPED", "target", ev.GetTarget(), "event_id", ev.GetID())
		}
		return
	}
	if ev.GetKind() != event.RatingEntryDeleted {
		return
	}

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return
	}
	// ContainsOrAdd reports true when the token was already delivered.
	if seen, _ := i.delivered.ContainsOrAdd(ev.GetRequestID(), struct{}{}); seen {
		i.mu.Unlock()
		i.logger.Debug("DUPLICATE_RESULT_DROPPED", "request_id", ev.GetRequestID(), "event_id", ev.GetID())
		return
	}
	_, own := i.pending[ev.GetRequestID()]
	delete(i.pending, ev.GetRequestID())
	i.mu.Unlock()

	if !own {
		i.logger.Debug("INHERITED_RESULT_ACCEPTED", "request_id", ev.GetRequestID(), "event_id", ev.GetID())
	}

	var failure error
	if ev.IsFailed() {
		failure = failureOf(ev)
	}

	if rl, ok := i.Listener().(RequestListener); ok {
		rl.OnDeleteOutcome(ev.GetRequestID(), failure)
		return
	}
	if failure != nil {
		i.Listener().OnDeleteFailure(failure)
		return
	}
	i.Listener().OnDeleteSuccess()
}

// Pending is the number of dispatched requests still waiting for a result.
func (i *DeleteRatingInteractor) Pending() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.pending)
}

// Close detaches from the hub. Requests still in flight complete remotely,
// and their results go to the next interactor opened with this identity, if any.
func (i *DeleteRatingInteractor) Close() {
	i.mu.Lock()
	i.closed = true
	clear(i.pending)
	i.mu.Unlock()

	i.detach()
}

// failureOf hands over the event's payload as is. Decoded and constructed events
// always carry one; ErrMissingFailure only marks a hand-built event that lacks it.
func failureOf(ev event.Eventer) error {
	if re := ev.GetError(); re != nil {
		return re
	}
	return model.ErrMissingFailure
}

func asDispatchError(err error) error {
	var de *model.DispatchError
	if errors.As(err, &de) {
		return err
	}
	return model.NewDispatchError(opDeleteRating, err)
}
