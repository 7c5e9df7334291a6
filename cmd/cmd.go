package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/webitel/screens-rating/config"
	"github.com/webitel/screens-rating/internal/domain/model"
	"github.com/webitel/screens-rating/internal/service"
	"go.uber.org/fx"
)

const (
	ServiceName      = "screens-rating"
	ServiceNamespace = "webitel"
)

var (
	version        = "0.0.0"
	commit         = "hash"
	commitDate     = time.Now().String()
	branch         = "branch"
	buildTimestamp = ""
)

func Run() error {
	app := &cli.App{
		Name:    ServiceName,
		Usage:   "Rating screens gateway: deletes portal rating entries and reports results to screens",
		Version: fmt.Sprintf("%s (%s, %s@%s %s)", version, commit, branch, commitDate, buildTimestamp),
		Commands: []*cli.Command{
			serverCmd(),
			deleteCmd(),
			topCmd(),
		},
	}

	return app.Run(os.Args)
}

const configFileFlag = "config_file"

func newConfigFileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    configFileFlag,
		Aliases: []string{"c"},
		Usage:   "Path to the configuration file",
		EnvVars: []string{config.EnvPrefix + "_CONFIG_FILE"},
	}
}

// loadConfig passes everything after "--" to the config flag set, e.g. -- --log.level=debug.
func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.LoadConfig(c.String(configFileFlag), c.Args().Slice())
}

func serverCmd() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Run the HTTP, WebSocket and gRPC servers",
		Flags:   []cli.Flag{newConfigFileFlag()},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			app := NewApp(cfg)

			if err := app.Start(c.Context); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			slog.Info("Shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return app.Stop(ctx)
		},
	}
}

func deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete one rating entry and wait for the screen outcome",
		ArgsUsage: "[-- config flags]",
		Flags: []cli.Flag{
			newConfigFileFlag(),
			&cli.Int64Flag{Name: "screenlet-id", Usage: "Identity results are routed to; 0 allocates one"},
			&cli.StringFlag{Name: "class-name", Required: true, Usage: "Rated entity class, e.g. com.liferay.blogs.model.BlogsEntry"},
			&cli.Int64Flag{Name: "class-pk", Required: true, Usage: "Rated entity primary key"},
			&cli.DurationFlag{Name: "wait", Value: 30 * time.Second, Usage: "How long to wait for the result"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			var screens service.Screener
			app := fx.New(CoreModules(cfg), fx.Populate(&screens))
			if err := app.Start(c.Context); err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = app.Stop(ctx)
			}()

			return deleteOnce(c.Context, screens,
				model.OperationIdentity(c.Int64("screenlet-id")),
				c.String("class-name"), c.Int64("class-pk"), c.Duration("wait"))
		},
	}
}

var ErrNoOutcome = errors.New("no outcome before timeout")

func deleteOnce(ctx context.Context, screens service.Screener, identity model.OperationIdentity, className string, classPK int64, wait time.Duration) error {
	outcomes := service.NewChanListener(1)
	it, err := screens.Open(identity, outcomes)
	if err != nil {
		return err
	}
	defer it.Close()

	if err := it.DeleteRating(ctx, className, classPK); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return ErrNoOutcome
	case o := <-outcomes:
		if o.Err != nil {
			return fmt.Errorf("screen %s: delete failed: %w", it.GetIdentity(), o.Err)
		}
		fmt.Printf("screen %s: rating entry %s#%d deleted\n", it.GetIdentity(), className, classPK)
		return nil
	}
}
