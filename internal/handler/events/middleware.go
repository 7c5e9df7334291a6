package events

import (
	"errors"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	"github.com/webitel/screens-rating/internal/adapter/pubsub"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/webitel/screens-rating/internal/handler/events"

// [CORRELATION_MIDDLEWARE]
// Continues the trace started by the portal call and opens a delivery span.
// Messages without a trace id get one, so every hop logs the same value.
func CorrelationMiddleware(handler string) message.HandlerMiddleware {
	tracer := otel.Tracer(tracerName)

	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			ctx := otel.GetTextMapPropagator().Extract(msg.Context(), propagation.MapCarrier(msg.Metadata))
			ctx, span := tracer.Start(ctx, "deliver."+handler,
				trace.WithSpanKind(trace.SpanKindConsumer),
				trace.WithAttributes(
					attribute.String("target", msg.Metadata.Get(pubsub.MetadataTarget)),
					attribute.String("request_id", msg.Metadata.Get(pubsub.MetadataRequestID)),
				),
			)
			defer span.End()

			traceID := msg.Metadata.Get(pubsub.MetadataTraceID)
			if traceID == "" {
				traceID = uuid.NewString()
				if sc := span.SpanContext(); sc.HasTraceID() {
					traceID = sc.TraceID().String()
				}
				msg.Metadata.Set(pubsub.MetadataTraceID, traceID)
			}
			msg.SetContext(pubsub.ContextWithTraceID(ctx, traceID))

			msgs, err := h(msg)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return msgs, err
		}
	}
}

// [DELIVERY_LOG_MIDDLEWARE]
// One line per delivery attempt. A full mailbox is expected backpressure and
// logs as a warning; anything else that fails is an error.
func DeliveryLogMiddleware(logger *slog.Logger) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			start := time.Now()
			msgs, err := h(msg)

			attrs := []any{
				"msg_id", msg.UUID,
				"target", msg.Metadata.Get(pubsub.MetadataTarget),
				"request_id", msg.Metadata.Get(pubsub.MetadataRequestID),
				"trace_id", msg.Metadata.Get(pubsub.MetadataTraceID),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			switch {
			case err == nil:
				logger.Debug("RESULT_HANDLED", attrs...)
			case errors.Is(err, ErrMailboxFull):
				logger.Warn("RESULT_DEFERRED", append(attrs, "err", err)...)
			default:
				logger.Error("RESULT_HANDLING_FAILED", append(attrs, "err", err)...)
			}
			return msgs, err
		}
	}
}

// [MAILBOX_RETRY]
// A full identity mailbox drains within milliseconds, so retries start short.
func NewMailboxRetry(maxRetries int, logger *slog.Logger) middleware.Retry {
	return middleware.Retry{
		MaxRetries:      maxRetries,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
		OnRetryHook: func(retryNum int, delay time.Duration) {
			logger.Debug("RESULT_RETRY", "attempt", retryNum, "delay_ms", delay.Milliseconds())
		},
	}
}
