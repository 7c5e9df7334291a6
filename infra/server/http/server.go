package httpsrv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/webitel/screens-rating/config"
	"github.com/webitel/screens-rating/internal/handler/lp"
	"github.com/webitel/screens-rating/internal/handler/ws"
	"github.com/webitel/screens-rating/internal/service"
	"go.uber.org/fx"
)

type Server struct {
	*http.Server
	logger *slog.Logger
}

func NewServer(cfg *config.Config, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start binds the listener synchronously so address errors fail the app start.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("http listen %s: %w", s.Addr, err)
	}
	s.logger.Info("HTTP_SERVER_STARTED", "addr", ln.Addr().String())
	go func() {
		if err := s.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP_SERVER_FAILED", "err", err)
		}
	}()
	return nil
}

var Module = fx.Module("http-server",
	fx.Provide(
		func(cfg *config.Config, screens service.Screener, logger *slog.Logger) *lp.LPHandler {
			return lp.NewLPHandler(screens, cfg.HTTP.WaitTimeout, logger)
		},
		ws.NewWSHandler,
		NewRouter,
		NewServer,
	),
	fx.Invoke(func(lc fx.Lifecycle, s *Server) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return s.Start()
			},
			OnStop: func(ctx context.Context) error {
				return s.Shutdown(ctx)
			},
		})
	}),
)
