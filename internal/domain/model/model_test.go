package model_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/webitel/screens-rating/internal/domain/model"
)

func TestParseIdentity(t *testing.T) {
	id, err := model.ParseIdentity("42")
	require.NoError(t, err)
	require.Equal(t, model.OperationIdentity(42), id)
	require.Equal(t, "42", id.String())

	for _, bad := range []string{"", "abc", "0", "-7"} {
		_, err := model.ParseIdentity(bad)
		require.ErrorIs(t, err, model.ErrInvalidIdentity, bad)
	}
}

func TestDeleteRequest_Validate(t *testing.T) {
	require.NoError(t, model.NewDeleteRequest(" com.liferay.RatingEntry ", 1).Validate())
	require.Equal(t, "com.liferay.RatingEntry", model.NewDeleteRequest(" com.liferay.RatingEntry ", 1).ClassName)
	require.ErrorIs(t, model.NewDeleteRequest("", 1).Validate(), model.ErrInvalidRequest)
	require.ErrorIs(t, model.NewDeleteRequest("x", 0).Validate(), model.ErrInvalidRequest)
}

func TestDispatchError(t *testing.T) {
	err := fmt.Errorf("screen 42: %w", model.NewDispatchError("delete-rating", model.ErrNoSession))

	var de *model.DispatchError
	require.ErrorAs(t, err, &de)
	require.Equal(t, "delete-rating", de.Op)
	require.ErrorIs(t, err, model.ErrNoSession)
}

func TestRemoteError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &model.RemoteError{Kind: model.RemoteNotFound, Message: "gone", Status: 404})

	require.ErrorIs(t, err, &model.RemoteError{Kind: model.RemoteNotFound})
	require.ErrorIs(t, err, &model.RemoteError{Kind: model.RemoteNotFound, Message: "gone"})
	require.NotErrorIs(t, err, &model.RemoteError{Kind: model.RemoteServer})
	require.NotErrorIs(t, err, &model.RemoteError{Kind: model.RemoteNotFound, Message: "other"})
	require.NotErrorIs(t, err, model.ErrMissingFailure)
	require.Contains(t, err.Error(), "status 404")

	require.Nil(t, model.AsRemoteError(nil))
	require.Equal(t, model.RemoteNotFound, model.AsRemoteError(err).Kind)
	require.Equal(t, model.RemoteUnknown, model.AsRemoteError(errors.New("x")).Kind)
}
