package liferay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v3"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"github.com/webitel/screens-rating/config"
	"github.com/webitel/screens-rating/internal/adapter/pubsub"
	"github.com/webitel/screens-rating/internal/domain/event"
	"github.com/webitel/screens-rating/internal/domain/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	tracerName = "github.com/webitel/screens-rating/internal/adapter/liferay"

	publishRetries  = 5
	publishInterval = 100 * time.Millisecond
)

var ErrExecutorClosed = errors.New("liferay executor is closed")

// Call is the remote part of an operation. Its error becomes the failure payload.
type Call func(ctx context.Context) error

// ResultFunc turns the outcome of a call into the event to publish.
type ResultFunc func(requestID uuid.UUID, err error) event.Eventer

// Executor runs portal calls out of band and publishes exactly one result per call.
// It is shared by every stub; stubs only add a session and a target.
type Executor struct {
	client     *Client
	dispatcher pubsub.EventDispatcher
	breaker    *gobreaker.CircuitBreaker
	tracer     trace.Tracer
	logger     *slog.Logger
	timeout    time.Duration

	// [IN_FLIGHT_LIMIT] SetLimit + TryGo: saturation is a dispatch error, never a wait.
	group *errgroup.Group

	mu     sync.RWMutex
	closed bool
}

func NewExecutor(client *Client, dispatcher pubsub.EventDispatcher, breaker *gobreaker.CircuitBreaker, cfg config.LiferayConfig, logger *slog.Logger) *Executor {
	g := new(errgroup.Group)
	g.SetLimit(cfg.MaxInFlight)
	return &Executor{
		client:     client,
		dispatcher: dispatcher,
		breaker:    breaker,
		tracer:     otel.Tracer(tracerName),
		logger:     logger,
		timeout:    cfg.Timeout,
		group:      g,
	}
}

// NewBreaker trips once enough calls failed for reasons that say the portal is unhealthy.
func NewBreaker(cfg config.BreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "liferay",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < cfg.MinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return !IsBreakerFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("BREAKER_STATE_CHANGED", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// Submit starts call in the background and returns its request token.
// Every returned error is a *model.DispatchError and means no result will be published.
func (e *Executor) Submit(ctx context.Context, op string, call Call, result ResultFunc) (uuid.UUID, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return uuid.Nil, model.NewDispatchError(op, ErrExecutorClosed)
	}
	if e.breaker.State() == gobreaker.StateOpen {
		return uuid.Nil, model.NewDispatchError(op, model.ErrCircuitOpen)
	}

	requestID := uuid.New()
	// The call outlives the caller's request; only values such as the trace id are kept.
	bg := context.WithoutCancel(ctx)

	started := e.group.TryGo(func() error {
		e.run(bg, op, requestID, call, result)
		return nil
	})
	if !started {
		return uuid.Nil, model.NewDispatchError(op, model.ErrTooManyInFlight)
	}
	return requestID, nil
}

func (e *Executor) run(ctx context.Context, op string, requestID uuid.UUID, call Call, result ResultFunc) {
	ctx, span := e.tracer.Start(ctx, "liferay."+op, trace.WithAttributes(
		attribute.String("request_id", requestID.String()),
	))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	_, err := e.breaker.Execute(func() (interface{}, error) {
		return nil, call(callCtx)
	})
	cancel()

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		// Tripped between Submit and Execute; the caller already holds a token.
		err = model.NewRemoteError(model.RemoteServer, "portal circuit is open")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	ev := result(requestID, err)
	if pubErr := e.publish(ctx, ev); pubErr != nil {
		e.logger.Error("RESULT_PUBLISH_FAILED",
			"op", op,
			"request_id", requestID,
			"target", ev.GetTarget(),
			"err", pubErr,
		)
		return
	}

	e.logger.Debug("REMOTE_CALL_COMPLETED",
		"op", op,
		"request_id", requestID,
		"target", ev.GetTarget(),
		"failed", err != nil,
	)
}

// publish retries with exponential backoff until ctx ends or publishRetries is spent.
func (e *Executor) publish(ctx context.Context, ev event.Eventer) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = publishInterval
	policy.MaxElapsedTime = 0

	return backoff.RetryNotify(
		func() error { return e.dispatcher.Publish(ctx, ev) },
		backoff.WithContext(backoff.WithMaxRetries(policy, publishRetries), ctx),
		func(err error, next time.Duration) {
			e.logger.Warn("RESULT_PUBLISH_RETRY",
				"request_id", ev.GetRequestID(),
				"target", ev.GetTarget(),
				"retry_in_ms", next.Milliseconds(),
				"err", err,
			)
		},
	)
}

// Close rejects new submissions and waits for in-flight calls to publish their results.
func (e *Executor) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = e.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
