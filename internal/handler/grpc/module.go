package grpc

import (
	"log/slog"

	"github.com/webitel/screens-rating/config"
	grpcsrv "github.com/webitel/screens-rating/infra/server/grpc"
	"github.com/webitel/screens-rating/internal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("screenlets-grpc",
	fx.Provide(
		func(logger *slog.Logger, screens service.Screener, cfg *config.Config) *ScreenletsService {
			return NewScreenletsService(logger, screens, cfg.HTTP.WaitTimeout)
		},
	),
	fx.Invoke(RegisterScreenletsService),
)

func RegisterScreenletsService(server *grpcsrv.Server, svc *ScreenletsService) {
	server.RegisterService(&ServiceDesc, svc)
}
