package lpmarshaller

import (
	"errors"
	"net/http"

	"github.com/webitel/screens-rating/internal/domain/model"
	wsmarshaller "github.com/webitel/screens-rating/internal/handler/marshaller/ws"
)

// DeleteResponse is the body of a completed delete-and-wait request.
type DeleteResponse struct {
	Identity model.OperationIdentity `json:"identity"`
	Deleted  bool                    `json:"deleted"`
	Error    *model.RemoteError      `json:"error,omitempty"`
}

type ErrorResponse struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// StatusOfFailure maps a remote failure onto the HTTP status returned to the screen.
func StatusOfFailure(re *model.RemoteError) int {
	switch re.Kind {
	case model.RemoteNotFound:
		return http.StatusNotFound
	case model.RemotePermissionDenied:
		return http.StatusForbidden
	case model.RemoteNetwork, model.RemoteServer:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// StatusOfDispatch maps a dispatch error onto an HTTP status.
func StatusOfDispatch(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrTooManyInFlight):
		return http.StatusTooManyRequests
	default:
		return http.StatusServiceUnavailable
	}
}

func NewErrorResponse(err error) *ErrorResponse {
	return &ErrorResponse{Reason: wsmarshaller.Reason(err), Message: err.Error()}
}
