package wsmarshaller

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/webitel/screens-rating/internal/domain/model"
)

const (
	EventConnected     = "connected"
	EventDeleteSuccess = "delete_success"
	EventDeleteFailure = "delete_failure"
	EventDispatchError = "dispatch_error"
	EventBadCommand    = "bad_command"

	OpDeleteRating = "delete_rating"
)

// WSEvent is a generic wrapper for WebSocket messages to provide consistent structure
type WSEvent struct {
	Event   string `json:"event"` // e.g., "delete_success", "connected"
	ID      string `json:"id"`
	SentAt  int64  `json:"sent_at"`
	Payload any    `json:"payload,omitempty"`
}

type ConnectedPayload struct {
	Identity model.OperationIdentity `json:"identity"`
}

// ResultPayload ties an outcome to the command that caused it.
// Seq is zero for results of requests sent over an earlier connection.
type ResultPayload struct {
	Seq       int64     `json:"seq,omitempty"`
	RequestID uuid.UUID `json:"request_id"`
}

type FailurePayload struct {
	ResultPayload
	Kind    model.RemoteErrorKind `json:"kind"`
	Message string                `json:"message"`
	Status  int                   `json:"status,omitempty"`
}

type DispatchErrorPayload struct {
	Seq     int64  `json:"seq,omitempty"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// WSCommand is what a screen sends over the socket.
type WSCommand struct {
	Op        string `json:"op"`
	Seq       int64  `json:"seq,omitempty"`
	ClassName string `json:"className"`
	ClassPK   int64  `json:"classPK"`
}

func ParseCommand(data []byte) (*WSCommand, error) {
	cmd := new(WSCommand)
	if err := json.Unmarshal(data, cmd); err != nil {
		return nil, fmt.Errorf("malformed command: %w", err)
	}
	if cmd.Op != OpDeleteRating {
		return nil, fmt.Errorf("unsupported op %q", cmd.Op)
	}
	return cmd, nil
}

func MarshallConnected(identity model.OperationIdentity) ([]byte, error) {
	return marshall(EventConnected, &ConnectedPayload{Identity: identity})
}

func MarshallSuccess(seq int64, requestID uuid.UUID) ([]byte, error) {
	return marshall(EventDeleteSuccess, &ResultPayload{Seq: seq, RequestID: requestID})
}

func MarshallFailure(seq int64, requestID uuid.UUID, err error) ([]byte, error) {
	re := model.AsRemoteError(err)
	if re == nil {
		re = model.NewRemoteError(model.RemoteUnknown, "")
	}
	return marshall(EventDeleteFailure, &FailurePayload{
		ResultPayload: ResultPayload{Seq: seq, RequestID: requestID},
		Kind:          re.Kind,
		Message:       re.Message,
		Status:        re.Status,
	})
}

func MarshallDispatchError(seq int64, err error) ([]byte, error) {
	return marshall(EventDispatchError, &DispatchErrorPayload{Seq: seq, Reason: Reason(err), Message: err.Error()})
}

func MarshallBadCommand(err error) ([]byte, error) {
	return marshall(EventBadCommand, &DispatchErrorPayload{Reason: "bad_command", Message: err.Error()})
}

// Reason maps a dispatch failure onto a stable, client-facing code.
func Reason(err error) string {
	switch {
	case errors.Is(err, model.ErrNoSession):
		return "no_session"
	case errors.Is(err, model.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, model.ErrTooManyInFlight):
		return "too_many_in_flight"
	case errors.Is(err, model.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, model.ErrInteractorClosed):
		return "closed"
	default:
		return "unavailable"
	}
}

func marshall(name string, payload any) ([]byte, error) {
	return json.Marshal(&WSEvent{
		Event:   name,
		ID:      uuid.NewString(),
		SentAt:  time.Now().UnixMilli(),
		Payload: payload,
	})
}
