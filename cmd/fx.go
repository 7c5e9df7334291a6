package cmd

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/webitel/screens-rating/config"
	grpcsrv "github.com/webitel/screens-rating/infra/server/grpc"
	httpsrv "github.com/webitel/screens-rating/infra/server/http"
	"github.com/webitel/screens-rating/internal/adapter/liferay"
	"github.com/webitel/screens-rating/internal/adapter/pubsub"
	"github.com/webitel/screens-rating/internal/domain/registry"
	"github.com/webitel/screens-rating/internal/handler/events"
	grpchandler "github.com/webitel/screens-rating/internal/handler/grpc"
	"github.com/webitel/screens-rating/internal/service"
	"github.com/webitel/screens-rating/internal/session"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// CoreModules is everything needed to dispatch deletes and route their results.
func CoreModules(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideLogger,
			ProvideWatermillLogger,
			ProvidePubSub,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			l := &fxevent.SlogLogger{Logger: logger}
			l.UseLogLevel(slog.LevelDebug)
			return l
		}),
		fx.Invoke(SetupTracing, WatchConfig),
		registry.Module,
		session.Module,
		// Hooks stop in reverse: the executor drains its results before the router closes.
		events.Module,
		liferay.Module,
		service.Module,
	)
}

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		CoreModules(cfg),
		httpsrv.Module,
		grpcsrv.Module,
		grpchandler.Module,
	)
}

// ProvideLogger builds the process logger. Its level can change at runtime.
func ProvideLogger(cfg *config.Config) (*slog.Logger, *slog.LevelVar) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(cfg.Log.Level))

	if cfg.Log.OTel {
		// Records go to the global OpenTelemetry logger provider.
		h := newLevelHandler(level, otelslog.NewHandler(cfg.Service.Name))
		logger := slog.New(h)
		slog.SetDefault(logger)
		return logger, level
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(cfg.Log.Format, "text") {
		h = slog.NewTextHandler(os.Stderr, opts)
	} else {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	logger := slog.New(h).With("service", cfg.Service.Name)
	slog.SetDefault(logger)
	return logger, level
}

func ProvideWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logger.With("component", "watermill"))
}

func ProvidePubSub(lc fx.Lifecycle, cfg *config.Config, logger watermill.LoggerAdapter) (pubsub.Provider, error) {
	p, err := pubsub.NewProvider(cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return p.Close()
		},
	})
	return p, nil
}

// SetupTracing installs the global tracer provider used by the portal stub and gRPC.
func SetupTracing(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if !cfg.Tracing.Enabled {
		return
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Tracing.SampleRatio))),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.Service.Name),
			attribute.String("service.namespace", ServiceNamespace),
			attribute.String("service.version", version),
		)),
	)
	otel.SetTracerProvider(tp)
	logger.Info("TRACING_ENABLED", "sample_ratio", cfg.Tracing.SampleRatio)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})
}

// WatchConfig applies log level changes from the config file without a restart.
func WatchConfig(cfg *config.Config, level *slog.LevelVar, logger *slog.Logger) {
	watching := cfg.Watch(func(next *config.Config, err error) {
		if err != nil {
			logger.Warn("CONFIG_RELOAD_REJECTED", "err", err)
			return
		}
		lvl := parseLevel(next.Log.Level)
		if lvl != level.Level() {
			level.Set(lvl)
			logger.Info("LOG_LEVEL_CHANGED", "level", lvl.String())
		}
	})
	if watching {
		logger.Debug("CONFIG_WATCH_STARTED")
	}
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
