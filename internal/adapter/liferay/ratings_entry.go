package liferay

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/webitel/screens-rating/internal/domain/event"
	"github.com/webitel/screens-rating/internal/domain/model"
	"github.com/webitel/screens-rating/internal/session"
)

const (
	CommandDeleteEntry = "/ratingsentry/delete-entry"
	opDeleteEntry      = "ratingsentry.delete-entry"
)

// RatingsEntryService is the portal ratings stub.
// Results of its calls are published tagged with the session target.
type RatingsEntryService struct {
	session  *session.Session
	executor *Executor
}

func NewRatingsEntryService(sess *session.Session, executor *Executor) *RatingsEntryService {
	return &RatingsEntryService{session: sess, executor: executor}
}

// Target is the identity every result of this stub is tagged with.
func (s *RatingsEntryService) Target() model.OperationIdentity {
	return s.session.Target
}

// DeleteEntry starts the removal of the rating entry and returns the request token
// carried by its result event.
func (s *RatingsEntryService) DeleteEntry(ctx context.Context, className string, classPK int64) (uuid.UUID, error) {
	req := model.NewDeleteRequest(className, classPK)
	if err := req.Validate(); err != nil {
		return uuid.Nil, model.NewDispatchError(opDeleteEntry, err)
	}
	if !s.session.Target.IsValid() {
		return uuid.Nil, model.NewDispatchError(opDeleteEntry, fmt.Errorf("%w: %d", model.ErrInvalidIdentity, s.session.Target))
	}

	sess, target := s.session, s.session.Target
	call := func(ctx context.Context) error {
		_, err := s.executor.client.Invoke(ctx, sess, CommandDeleteEntry, req)
		return err
	}
	result := func(requestID uuid.UUID, err error) event.Eventer {
		return event.NewDeleteRatingEvent(target, requestID, req, err)
	}

	return s.executor.Submit(ctx, opDeleteEntry, call, result)
}

// Factory builds stubs bound to a callback target from the current session.
type Factory struct {
	sessions *session.Context
	executor *Executor
}

func NewFactory(sessions *session.Context, executor *Executor) *Factory {
	return &Factory{sessions: sessions, executor: executor}
}

// NewRatingsEntryService fails with a *model.DispatchError when nobody is logged in.
func (f *Factory) NewRatingsEntryService(target model.OperationIdentity) (*RatingsEntryService, error) {
	sess, err := f.sessions.CreateFromCurrent()
	if err != nil {
		return nil, model.NewDispatchError(opDeleteEntry, err)
	}
	return NewRatingsEntryService(sess.WithTarget(target), f.executor), nil
}
