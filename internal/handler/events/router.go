package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/webitel/screens-rating/config"
	"github.com/webitel/screens-rating/internal/adapter/pubsub"
	"github.com/webitel/screens-rating/internal/domain/event"
	"go.uber.org/fx"
)

const (
	// ------------------- HANDLERS ------------------------------
	HandlerRatingEntryDeleted = "ON_RATING_ENTRY_DELETED"

	// ------------------- TOPICS --------------------------------
	PoisonTopic = event.DeleteRatingTopic + ".poison"
)

func NewWatermillRouter(logger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, logger)
	if err != nil {
		return nil, fmt.Errorf("ROUTER_SETUP_FAILED: %w", err)
	}
	return router, nil
}

// PipelineConfig tunes the consumer middleware chain.
type PipelineConfig struct {
	MaxRetries int
	Throttle   int64
	Timeout    time.Duration
}

func PipelineFromConfig(cfg *config.Config) PipelineConfig {
	return PipelineConfig{
		MaxRetries: cfg.PubSub.MaxRetries,
		Throttle:   1000,
		Timeout:    30 * time.Second,
	}
}

// [REGISTRATION_PIPELINE]
func (h *ResultHandler) RegisterHandlers(router *message.Router, sub message.Subscriber, dispatcher pubsub.EventDispatcher, pc PipelineConfig) error {
	poison, err := middleware.PoisonQueue(dispatcher.Publisher(), PoisonTopic)
	if err != nil {
		return fmt.Errorf("POISON_SETUP_FAILED: %w", err)
	}

	configs := []struct {
		name    string
		topic   string
		handler message.NoPublishHandlerFunc
	}{
		{HandlerRatingEntryDeleted, event.DeleteRatingTopic, Bind(h, event.DecodeDeleteRatingEvent, h.OnRatingEntryDeletedV1)},
	}

	for _, c := range configs {
		router.AddConsumerHandler(c.name, c.topic, sub, c.handler).AddMiddleware(
			CorrelationMiddleware(c.name),
			DeliveryLogMiddleware(h.logger),
			poison,
			NewMailboxRetry(pc.MaxRetries, h.logger).Middleware,
			middleware.NewThrottle(pc.Throttle, time.Second).Middleware,
			middleware.Timeout(pc.Timeout),
		)
	}

	h.logger.Info("EVENT_PIPELINE_READY", "topics", len(configs))
	return nil
}

// RunRouter ties the router to the application lifecycle.
func RunRouter(lc fx.Lifecycle, router *message.Router, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				// The router outlives the start context.
				if err := router.Run(context.Background()); err != nil {
					logger.Error("ROUTER_STOPPED", "err", err)
				}
			}()
			select {
			case <-router.Running():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		OnStop: func(ctx context.Context) error {
			return router.Close()
		},
	})
}
