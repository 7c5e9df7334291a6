package events

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/webitel/screens-rating/config"
	"github.com/webitel/screens-rating/internal/adapter/pubsub"
	"github.com/webitel/screens-rating/internal/domain/registry"
	"go.uber.org/fx"
)

var Module = fx.Module("events-handler",
	fx.Provide(
		func(p pubsub.Provider, logger *slog.Logger) pubsub.EventDispatcher {
			return pubsub.NewEventDispatcher(p.Publisher(), logger)
		},
		func(hub registry.Hubber, cfg *config.Config, logger *slog.Logger) (*ResultHandler, error) {
			return NewResultHandler(hub, cfg.PubSub.DedupSize, logger)
		},
		PipelineFromConfig,
		NewWatermillRouter,
	),

	fx.Invoke(
		func(h *ResultHandler, router *message.Router, p pubsub.Provider, d pubsub.EventDispatcher, pc PipelineConfig) error {
			return h.RegisterHandlers(router, p.Subscriber(), d, pc)
		},
		RunRouter,
	),
)
