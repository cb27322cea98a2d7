package command

import (
	"context"
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/taskdeckapp/taskdeck/internal/app"
	"github.com/taskdeckapp/taskdeck/internal/config"
	"github.com/taskdeckapp/taskdeck/internal/devseed"
	"github.com/taskdeckapp/taskdeck/internal/server"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serve the task list web app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			cfg, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			grp, ctx := errgroup.WithContext(cmd.Context())

			// In dev mode, fill an empty database with fake data
			if cfg.DevMode {
				seed := devseed.Seed()
				if err := devseed.Populate(ctx, store, seed); err != nil {
					return err
				}
				logger.InfoContext(ctx,
					"dev mode data seeded",
					slog.Uint64("seed", seed),
					slog.String("password", devseed.Password),
				)
			}

			appServer := app.New(cfg, logger, store)

			serveApp(ctx, grp, cfg, logger, appServer)
			return grp.Wait()
		},
	}
}

func serveApp(
	ctx context.Context,
	grp *errgroup.Group,
	cfg *config.Config,
	logger *slog.Logger,
	srv *echo.Echo,
) {
	addr := cfg.WebAddress
	if addr == "" {
		return
	}

	listener, err := server.Listen(ctx, addr)
	if err != nil {
		grp.Go(func() error { return err })
		return
	}

	logger.InfoContext(ctx,
		"starting app server...",
		slog.String("address", addr),
	)
	server.Serve(ctx, grp, srv.Server, listener, server.ShutdownTimeout)
}
