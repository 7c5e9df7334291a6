package service_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/webitel/screens-rating/internal/domain/event"
	"github.com/webitel/screens-rating/internal/domain/model"
	"github.com/webitel/screens-rating/internal/domain/registry"
	"github.com/webitel/screens-rating/internal/service"
	"github.com/webitel/screens-rating/internal/service/mocks"
)

const className = "com.liferay.RatingEntry"

var discard = slog.New(slog.DiscardHandler)

func factoryOf(d service.EntryDeleter) service.EntryDeleterFactory {
	return func(model.OperationIdentity) (service.EntryDeleter, error) { return d, nil }
}

func newInteractor(t *testing.T, identity model.OperationIdentity, l service.Listener, d service.EntryDeleter) *service.DeleteRatingInteractor {
	t.Helper()
	it, err := service.NewDeleteRatingInteractor(identity, l, factoryOf(d), discard)
	require.NoError(t, err)
	return it
}

// outcomeRecorder records per-request outcomes; the embedded mock fails the test
// if the plain callbacks are used instead.
type outcomeRecorder struct {
	service.Listener
	ids  []uuid.UUID
	errs []error
}

func (r *outcomeRecorder) OnDeleteOutcome(requestID uuid.UUID, err error) {
	r.ids = append(r.ids, requestID)
	r.errs = append(r.errs, err)
}

func TestNewDeleteRatingInteractor(t *testing.T) {
	t.Run("error: invalid identity", func(t *testing.T) {
		_, err := service.NewDeleteRatingInteractor(model.NoIdentity, mocks.NewListener(t), nil, discard)
		require.ErrorIs(t, err, model.ErrInvalidIdentity)
	})

	t.Run("error: nil listener", func(t *testing.T) {
		_, err := service.NewDeleteRatingInteractor(42, nil, nil, discard)
		require.Error(t, err)
	})

	t.Run("ok: construction has no side effects", func(t *testing.T) {
		it := newInteractor(t, 42, mocks.NewListener(t), mocks.NewEntryDeleter(t))
		require.Equal(t, model.OperationIdentity(42), it.GetIdentity())
		require.False(t, it.IsAttached())
		require.Zero(t, it.Pending())
	})
}

func TestDeleteRatingInteractor_DeleteRating(t *testing.T) {
	ctx := context.Background()

	t.Run("ok: success event notifies success", func(t *testing.T) {
		listener := mocks.NewListener(t)
		deleter := mocks.NewEntryDeleter(t)
		it := newInteractor(t, 42, listener, deleter)

		token := uuid.New()
		deleter.EXPECT().DeleteEntry(ctx, className, int64(1001)).Return(token, nil).Once()
		listener.EXPECT().OnDeleteSuccess().Return().Once()

		require.NoError(t, it.DeleteRating(ctx, className, 1001))
		require.Equal(t, 1, it.Pending())

		it.OnResultEvent(event.NewDeleteRatingEvent(42, token, model.NewDeleteRequest(className, 1001), nil))
		require.Zero(t, it.Pending())
	})

	t.Run("ok: failure event passes its payload unchanged", func(t *testing.T) {
		listener := mocks.NewListener(t)
		deleter := mocks.NewEntryDeleter(t)
		it := newInteractor(t, 42, listener, deleter)

		token := uuid.New()
		deleter.EXPECT().DeleteEntry(ctx, className, int64(1001)).Return(token, nil).Once()

		ev := event.NewDeleteRatingEvent(42, token, model.NewDeleteRequest(className, 1001),
			model.NewRemoteError(model.RemotePermissionDenied, "User 20123 must have DELETE permission"))

		var got error
		listener.EXPECT().OnDeleteFailure(mock.Anything).Run(func(err error) { got = err }).Return().Once()

		require.NoError(t, it.DeleteRating(ctx, className, 1001))
		it.OnResultEvent(ev)

		require.Same(t, ev.GetError(), got)
	})

	t.Run("ok: foreign identity is ignored", func(t *testing.T) {
		listener := mocks.NewListener(t)
		deleter := mocks.NewEntryDeleter(t)
		it := newInteractor(t, 42, listener, deleter)

		token := uuid.New()
		deleter.EXPECT().DeleteEntry(ctx, className, int64(1001)).Return(token, nil).Once()
		require.NoError(t, it.DeleteRating(ctx, className, 1001))

		it.OnResultEvent(event.NewDeleteRatingEvent(7, token, model.NewDeleteRequest(className, 1001),
			model.NewRemoteError(model.RemoteNetwork, "network")))

		listener.AssertNotCalled(t, "OnDeleteFailure", mock.Anything)
		listener.AssertNotCalled(t, "OnDeleteSuccess")
		require.Equal(t, 1, it.Pending())
	})

	t.Run("ok: recreated screen receives the in-flight result", func(t *testing.T) {
		deleter := mocks.NewEntryDeleter(t)
		first := newInteractor(t, 42, mocks.NewListener(t), deleter)

		token := uuid.New()
		deleter.EXPECT().DeleteEntry(ctx, className, int64(1001)).Return(token, nil).Once()
		require.NoError(t, first.DeleteRating(ctx, className, 1001))
		first.Close()

		listener := mocks.NewListener(t)
		listener.EXPECT().OnDeleteSuccess().Return().Once()
		second := newInteractor(t, 42, listener, mocks.NewEntryDeleter(t))

		ok := event.NewDeleteRatingEvent(42, token, model.NewDeleteRequest(className, 1001), nil)
		second.OnResultEvent(ok)
		second.OnResultEvent(ok)
		second.OnResultEvent(nil)

		require.Zero(t, second.Pending())
	})

	t.Run("ok: failure without payload is still reported", func(t *testing.T) {
		listener := mocks.NewListener(t)
		it := newInteractor(t, 42, listener, mocks.NewEntryDeleter(t))

		ev := event.NewDeleteRatingEvent(42, uuid.New(), model.NewDeleteRequest(className, 1001), nil)
		ev.Failed = true
		listener.EXPECT().OnDeleteFailure(model.ErrMissingFailure).Return().Once()

		it.OnResultEvent(ev)
	})

	t.Run("ok: two dispatches, two outcomes, redelivery ignored", func(t *testing.T) {
		listener := mocks.NewListener(t)
		deleter := mocks.NewEntryDeleter(t)
		it := newInteractor(t, 42, listener, deleter)

		first, second := uuid.New(), uuid.New()
		deleter.EXPECT().DeleteEntry(ctx, className, int64(1001)).Return(first, nil).Once()
		deleter.EXPECT().DeleteEntry(ctx, className, int64(1001)).Return(second, nil).Once()
		listener.EXPECT().OnDeleteSuccess().Return().Once()
		listener.EXPECT().OnDeleteFailure(mock.Anything).Return().Once()

		require.NoError(t, it.DeleteRating(ctx, className, 1001))
		require.NoError(t, it.DeleteRating(ctx, className, 1001))
		require.Equal(t, 2, it.Pending())

		req := model.NewDeleteRequest(className, 1001)
		ok := event.NewDeleteRatingEvent(42, first, req, nil)
		it.OnResultEvent(ok)
		it.OnResultEvent(ok)
		it.OnResultEvent(event.NewDeleteRatingEvent(42, second, req, model.NewRemoteError(model.RemoteNotFound, "gone")))

		require.Zero(t, it.Pending())
	})

	t.Run("ok: request listener gets the token of each outcome", func(t *testing.T) {
		deleter := mocks.NewEntryDeleter(t)
		listener := &outcomeRecorder{Listener: mocks.NewListener(t)}
		it := newInteractor(t, 42, listener, deleter)

		first, second := uuid.New(), uuid.New()
		deleter.EXPECT().DeleteEntry(ctx, className, int64(1001)).Return(first, nil).Once()
		deleter.EXPECT().DeleteEntry(ctx, className, int64(1002)).Return(second, nil).Once()

		got, err := it.Dispatch(ctx, className, 1001)
		require.NoError(t, err)
		require.Equal(t, first, got)
		got, err = it.Dispatch(ctx, className, 1002)
		require.NoError(t, err)
		require.Equal(t, second, got)

		gone := model.NewRemoteError(model.RemoteNotFound, "gone")
		it.OnResultEvent(event.NewDeleteRatingEvent(42, second, model.NewDeleteRequest(className, 1002), gone))
		it.OnResultEvent(event.NewDeleteRatingEvent(42, first, model.NewDeleteRequest(className, 1001), nil))

		require.Equal(t, []uuid.UUID{second, first}, listener.ids)
		require.Equal(t, []error{gone, nil}, listener.errs)
	})

	t.Run("error: no session fails synchronously", func(t *testing.T) {
		listener := mocks.NewListener(t)
		noSession := func(model.OperationIdentity) (service.EntryDeleter, error) {
			return nil, model.NewDispatchError("ratingsentry.delete-entry", model.ErrNoSession)
		}
		it, err := service.NewDeleteRatingInteractor(42, listener, noSession, discard)
		require.NoError(t, err)

		err = it.DeleteRating(ctx, className, 1001)

		var de *model.DispatchError
		require.ErrorAs(t, err, &de)
		require.ErrorIs(t, err, model.ErrNoSession)
		require.Zero(t, it.Pending())
	})

	t.Run("error: stub failure is wrapped as dispatch error", func(t *testing.T) {
		deleter := mocks.NewEntryDeleter(t)
		it := newInteractor(t, 42, mocks.NewListener(t), deleter)

		boom := errors.New("boom")
		deleter.EXPECT().DeleteEntry(ctx, className, int64(1001)).Return(uuid.Nil, boom).Once()

		err := it.DeleteRating(ctx, className, 1001)

		var de *model.DispatchError
		require.ErrorAs(t, err, &de)
		require.ErrorIs(t, err, boom)
		require.Zero(t, it.Pending())
	})

	t.Run("error: closed interactor", func(t *testing.T) {
		listener := mocks.NewListener(t)
		deleter := mocks.NewEntryDeleter(t)
		it := newInteractor(t, 42, listener, deleter)

		token := uuid.New()
		deleter.EXPECT().DeleteEntry(ctx, className, int64(1001)).Return(token, nil).Once()
		require.NoError(t, it.DeleteRating(ctx, className, 1001))

		it.Close()

		require.ErrorIs(t, it.DeleteRating(ctx, className, 1001), model.ErrInteractorClosed)
		it.OnResultEvent(event.NewDeleteRatingEvent(42, token, model.NewDeleteRequest(className, 1001), nil))
		listener.AssertNotCalled(t, "OnDeleteSuccess")
	})
}

func TestScreenlets_Open(t *testing.T) {
	ctx := context.Background()

	t.Run("ok: result routed through the hub", func(t *testing.T) {
		hub := registry.NewHub(registry.WithEvictionInterval(0), registry.WithLogger(discard))
		defer hub.Shutdown()

		deleter := mocks.NewEntryDeleter(t)
		screens := service.NewScreenlets(hub, factoryOf(deleter), discard)

		outcomes := service.NewChanListener(4)
		mine, err := screens.Open(42, outcomes)
		require.NoError(t, err)
		defer mine.Close()

		others := service.NewChanListener(4)
		other, err := screens.Open(7, others)
		require.NoError(t, err)
		defer other.Close()

		require.True(t, hub.IsSubscribed(42))

		token := uuid.New()
		deleter.EXPECT().DeleteEntry(ctx, className, int64(1001)).Return(token, nil).Once()
		require.NoError(t, mine.DeleteRating(ctx, className, 1001))

		require.True(t, hub.Broadcast(event.NewDeleteRatingEvent(42, token, model.NewDeleteRequest(className, 1001), nil)))

		select {
		case o := <-outcomes:
			require.NoError(t, o.Err)
		case <-time.After(2 * time.Second):
			t.Fatal("listener was not notified")
		}
		require.Empty(t, others)
		require.Equal(t, 2, screens.Stats().TotalSubscribers)
	})

	t.Run("ok: reopened identity gets the result of the closed one", func(t *testing.T) {
		hub := registry.NewHub(registry.WithEvictionInterval(0), registry.WithLogger(discard))
		defer hub.Shutdown()

		deleter := mocks.NewEntryDeleter(t)
		screens := service.NewScreenlets(hub, factoryOf(deleter), discard)

		gone, err := screens.Open(42, service.NewChanListener(1))
		require.NoError(t, err)

		token := uuid.New()
		deleter.EXPECT().DeleteEntry(ctx, className, int64(1001)).Return(token, nil).Once()
		require.NoError(t, gone.DeleteRating(ctx, className, 1001))
		gone.Close()

		outcomes := service.NewChanListener(1)
		again, err := screens.Open(42, outcomes)
		require.NoError(t, err)
		defer again.Close()

		require.True(t, hub.Broadcast(event.NewDeleteRatingEvent(42, token, model.NewDeleteRequest(className, 1001), nil)))

		select {
		case o := <-outcomes:
			require.NoError(t, o.Err)
		case <-time.After(2 * time.Second):
			t.Fatal("recreated screen was not notified")
		}
	})

	t.Run("ok: identities are allocated when absent", func(t *testing.T) {
		hub := registry.NewHub(registry.WithEvictionInterval(0), registry.WithIdleTimeout(0))
		defer hub.Shutdown()
		screens := service.NewScreenlets(hub, factoryOf(mocks.NewEntryDeleter(t)), discard)

		a, err := screens.Open(model.NoIdentity, service.NewChanListener(1))
		require.NoError(t, err)
		b, err := screens.Open(model.NoIdentity, service.NewChanListener(1))
		require.NoError(t, err)

		require.NotEqual(t, a.GetIdentity(), b.GetIdentity())
		require.True(t, a.GetIdentity().IsValid())

		a.Close()
		b.Close()
		require.False(t, hub.IsSubscribed(a.GetIdentity()))
		require.Zero(t, screens.Stats().TotalCells)
	})
}
