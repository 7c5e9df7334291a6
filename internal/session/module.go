package session

import (
	"log/slog"

	"github.com/webitel/screens-rating/config"
	"go.uber.org/fx"
)

var Module = fx.Module("session",
	fx.Provide(NewContextFromConfig),
)

// NewContextFromConfig logs in with the configured portal user.
// Without a username the context stays anonymous and every dispatch fails.
func NewContextFromConfig(cfg *config.Config, logger *slog.Logger) (*Context, error) {
	ctx := NewContext()
	if cfg.Liferay.Username == "" {
		logger.Warn("SESSION_ANONYMOUS", "server", cfg.Liferay.Server)
		return ctx, nil
	}
	s, err := New(cfg.Liferay.Server, BasicAuthentication{
		Username: cfg.Liferay.Username,
		Password: cfg.Liferay.Password,
	})
	if err != nil {
		return nil, err
	}
	ctx.Login(s)
	logger.Info("SESSION_READY", "server", s.Server.String(), "user", cfg.Liferay.Username)
	return ctx, nil
}
