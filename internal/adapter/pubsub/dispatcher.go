package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/webitel/screens-rating/internal/domain/event"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	MetadataTarget    = "target"
	MetadataEventID   = "event_id"
	MetadataRequestID = "request_id"
	MetadataTraceID   = "trace_id"
)

type traceIDKey struct{}

// ContextWithTraceID carries a trace id from dispatch into the published message.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(traceIDKey{}).(string)
	return v
}

// EventDispatcher defines the high-level contract for outgoing result events.
// This allows the remote stub to stay agnostic of the transport implementation.
type EventDispatcher interface {
	Publish(ctx context.Context, ev event.Eventer) error
	Publisher() message.Publisher
}

type eventDispatcher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

func NewEventDispatcher(pub message.Publisher, logger *slog.Logger) EventDispatcher {
	return &eventDispatcher{
		publisher: pub,
		logger:    logger,
	}
}

func (d *eventDispatcher) Publish(ctx context.Context, ev event.Eventer) error {
	if ev == nil {
		return fmt.Errorf("event dispatcher: cannot publish nil event")
	}

	topic := event.DeleteRatingTopic
	if exp, ok := ev.(event.Exportable); ok && exp.GetRoutingKey() != "" {
		topic = exp.GetRoutingKey()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("event dispatcher: marshal failure: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataTarget, ev.GetTarget().String())
	msg.Metadata.Set(MetadataEventID, ev.GetID())
	msg.Metadata.Set(MetadataRequestID, ev.GetRequestID().String())
	traceID := TraceIDFromContext(ctx)
	if sc := trace.SpanContextFromContext(ctx); traceID == "" && sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}
	if traceID != "" {
		msg.Metadata.Set(MetadataTraceID, traceID)
	}
	// W3C trace context for the consumer's delivery span.
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(msg.Metadata))
	msg.SetContext(ctx)

	d.logger.Debug("EVENT_PUBLISHING",
		"topic", topic,
		"target", ev.GetTarget(),
		"event_id", ev.GetID(),
		"failed", ev.IsFailed(),
	)
	if err := d.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("event dispatcher: failed to publish to topic %s: %w", topic, err)
	}

	return nil
}

func (d *eventDispatcher) Publisher() message.Publisher {
	return d.publisher
}
