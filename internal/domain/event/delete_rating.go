package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/webitel/screens-rating/internal/domain/model"
)

// DeleteRatingTopic is the process-wide channel every delete result is published to.
const DeleteRatingTopic = "screens.rating.v1.entry.deleted"

var (
	_ Eventer    = (*DeleteRatingEvent)(nil)
	_ Exportable = (*DeleteRatingEvent)(nil)
)

// DeleteRatingEvent carries the outcome of one dispatched delete request.
//
// Target is the identity of the interactor that issued the request; RequestID
// ties the event to that single dispatch.
type DeleteRatingEvent struct {
	ID         uuid.UUID               `json:"id"`
	RequestID  uuid.UUID               `json:"request_id"`
	Target     model.OperationIdentity `json:"target"`
	Request    model.DeleteRequest     `json:"request"`
	Failed     bool                    `json:"failed"`
	Err        *model.RemoteError      `json:"error,omitempty"`
	OccurredAt int64                   `json:"occurred_at"`
}

// NewDeleteRatingEvent builds the result for a finished call. A nil err means success.
func NewDeleteRatingEvent(target model.OperationIdentity, requestID uuid.UUID, req model.DeleteRequest, err error) *DeleteRatingEvent {
	ev := &DeleteRatingEvent{
		ID:         uuid.New(),
		RequestID:  requestID,
		Target:     target,
		Request:    req,
		OccurredAt: time.Now().UnixMilli(),
	}
	if err != nil {
		ev.Failed = true
		ev.Err = model.AsRemoteError(err)
	}
	return ev
}

func (e *DeleteRatingEvent) GetID() string                      { return e.ID.String() }
func (e *DeleteRatingEvent) GetRequestID() uuid.UUID            { return e.RequestID }
func (e *DeleteRatingEvent) GetKind() EventKind                 { return RatingEntryDeleted }
func (e *DeleteRatingEvent) GetTarget() model.OperationIdentity { return e.Target }
func (e *DeleteRatingEvent) GetOccurredAt() int64               { return e.OccurredAt }
func (e *DeleteRatingEvent) IsFailed() bool                     { return e.Failed }
func (e *DeleteRatingEvent) GetError() *model.RemoteError       { return e.Err }

func (e *DeleteRatingEvent) GetRoutingKey() string {
	return DeleteRatingTopic
}

// DecodeDeleteRatingEvent parses a bus payload and checks the fields routing depends on.
func DecodeDeleteRatingEvent(payload []byte) (*DeleteRatingEvent, error) {
	ev := new(DeleteRatingEvent)
	if err := json.Unmarshal(payload, ev); err != nil {
		return nil, fmt.Errorf("decode delete rating event: %w", err)
	}
	if !ev.Target.IsValid() {
		return nil, fmt.Errorf("decode delete rating event: %w: %d", model.ErrInvalidIdentity, ev.Target)
	}
	if ev.ID == uuid.Nil {
		return nil, fmt.Errorf("decode delete rating event: missing id")
	}
	if ev.Failed && ev.Err == nil {
		return nil, fmt.Errorf("decode delete rating event: %w", model.ErrMissingFailure)
	}
	return ev, nil
}
