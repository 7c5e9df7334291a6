package liferay

import (
	"log/slog"

	"github.com/sony/gobreaker"
	"github.com/webitel/screens-rating/config"
	"github.com/webitel/screens-rating/internal/adapter/pubsub"
	"go.uber.org/fx"
)

var Module = fx.Module("liferay",
	fx.Provide(
		func(cfg *config.Config) *Client {
			return NewClient(cfg.Liferay.Timeout)
		},
		func(cfg *config.Config, logger *slog.Logger) *gobreaker.CircuitBreaker {
			return NewBreaker(cfg.Breaker, logger)
		},
		func(client *Client, dispatcher pubsub.EventDispatcher, breaker *gobreaker.CircuitBreaker, cfg *config.Config, logger *slog.Logger) *Executor {
			return NewExecutor(client, dispatcher, breaker, cfg.Liferay, logger)
		},
		NewFactory,
	),
	fx.Invoke(func(lc fx.Lifecycle, e *Executor) {
		// [GRACEFUL_SHUTDOWN] In-flight calls still publish their results.
		lc.Append(fx.Hook{OnStop: e.Close})
	}),
)
