package events

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/webitel/screens-rating/internal/adapter/pubsub"
	"github.com/webitel/screens-rating/internal/domain/event"
	"github.com/webitel/screens-rating/internal/domain/model"
)

// ErrMailboxFull asks the retry middleware to try the delivery again later.
var ErrMailboxFull = errors.New("identity mailbox is full")

// Decoder parses a bus payload into the handler's input.
type Decoder[T any] func(payload []byte) (T, error)

// DomainHandler defines the functional signature for business logic.
type DomainHandler[T any] func(ctx context.Context, target model.OperationIdentity, payload T) (event.Eventer, error)

// [INFRASTRUCTURE_BRIDGE]
// Bind connects Watermill to the hub, handling Panic Recovery, Locality and De-duplication.
func Bind[T any](h *ResultHandler, decode Decoder[T], fn DomainHandler[T]) message.NoPublishHandlerFunc {
	return func(msg *message.Message) (err error) {
		// [PANIC_RECOVERY]
		// Safely handle runtime panics to keep the consumer alive.
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("PANIC_RECOVERED",
					"err", r,
					"stack", string(debug.Stack()),
					"msg_id", msg.UUID)
				err = nil
			}
		}()

		// [IDENTIFICATION]
		// The publisher copies the target into metadata so routing needs no decoding.
		target, perr := model.ParseIdentity(msg.Metadata.Get(pubsub.MetadataTarget))
		if perr != nil {
			h.logger.Warn("ROUTING_FAILED: target_missing", "msg_id", msg.UUID, "err", perr)
			return nil // ACK: Invalid routing is a terminal state.
		}

		// [LOCALITY_FILTER]
		// Process only if a screen with this identity lives on THIS node.
		if !h.hub.IsSubscribed(target) {
			h.logger.Debug("RESULT_UNROUTED", "target", target, "msg_id", msg.UUID)
			return nil // ACK: Owner is gone or lives elsewhere.
		}

		// [DECODING]
		payload, derr := decode(msg.Payload)
		if derr != nil {
			h.logger.Error("DECODE_FAILED", "err", derr, "msg_id", msg.UUID)
			return nil // ACK: Poison Pill protection.
		}

		// [EXECUTION]
		ev, ferr := fn(msg.Context(), target, payload)
		if ferr != nil {
			return ferr // NACK: triggers Retry policy.
		}
		if ev == nil {
			return nil
		}

		// [EXACTLY_ONCE]
		// Redelivered results are acknowledged and dropped.
		if h.seen.Contains(ev.GetID()) {
			h.logger.Debug("DUPLICATE_DROPPED", "event_id", ev.GetID(), "target", target)
			return nil
		}

		// [LOCAL_DISPATCH]
		if !h.hub.Broadcast(ev) {
			if h.hub.IsSubscribed(target) {
				return fmt.Errorf("%w: %s", ErrMailboxFull, target)
			}
			return nil
		}
		h.seen.Add(ev.GetID(), struct{}{})
		return nil
	}
}
