package event_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/webitel/screens-rating/internal/domain/event"
	"github.com/webitel/screens-rating/internal/domain/model"
)

func TestNewDeleteRatingEvent(t *testing.T) {
	req := model.NewDeleteRequest("com.liferay.RatingEntry", 1001)
	token := uuid.New()

	t.Run("ok: success", func(t *testing.T) {
		ev := event.NewDeleteRatingEvent(42, token, req, nil)
		require.Equal(t, model.OperationIdentity(42), ev.GetTarget())
		require.Equal(t, token, ev.GetRequestID())
		require.Equal(t, event.RatingEntryDeleted, ev.GetKind())
		require.Equal(t, event.DeleteRatingTopic, ev.GetRoutingKey())
		require.False(t, ev.IsFailed())
		require.Nil(t, ev.GetError())
		require.NotZero(t, ev.GetOccurredAt())
	})

	t.Run("ok: plain error becomes unknown remote error", func(t *testing.T) {
		ev := event.NewDeleteRatingEvent(42, token, req, json.Unmarshal([]byte("{"), new(any)))
		require.True(t, ev.IsFailed())
		require.Equal(t, model.RemoteUnknown, ev.GetError().Kind)
	})
}

func TestDecodeDeleteRatingEvent(t *testing.T) {
	req := model.NewDeleteRequest("com.liferay.RatingEntry", 1001)

	t.Run("ok: round trip keeps failure payload", func(t *testing.T) {
		src := event.NewDeleteRatingEvent(42, uuid.New(), req, &model.RemoteError{
			Kind: model.RemoteNotFound, Message: "No RatingsEntry exists", Status: 404,
		})
		raw, err := json.Marshal(src)
		require.NoError(t, err)

		got, err := event.DecodeDeleteRatingEvent(raw)
		require.NoError(t, err)
		require.Equal(t, src, got)
	})

	t.Run("error: failed without payload", func(t *testing.T) {
		_, err := event.DecodeDeleteRatingEvent([]byte(`{"id":"` + uuid.NewString() + `","target":42,"failed":true}`))
		require.ErrorIs(t, err, model.ErrMissingFailure)
	})

	t.Run("error: malformed json", func(t *testing.T) {
		_, err := event.DecodeDeleteRatingEvent([]byte(`{`))
		require.Error(t, err)
	})

	t.Run("error: missing target", func(t *testing.T) {
		_, err := event.DecodeDeleteRatingEvent([]byte(`{"id":"` + uuid.NewString() + `"}`))
		require.ErrorIs(t, err, model.ErrInvalidIdentity)
	})

	t.Run("error: missing id", func(t *testing.T) {
		_, err := event.DecodeDeleteRatingEvent([]byte(`{"target":42}`))
		require.Error(t, err)
	})
}
