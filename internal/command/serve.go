package command

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/beregond/contactboard/internal/app"
	"github.com/beregond/contactboard/internal/config"
	"github.com/beregond/contactboard/internal/server"
	"github.com/beregond/contactboard/internal/session"
	"github.com/beregond/contactboard/internal/storage"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serve the contact board web application",
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

			sessions, err := newSessionStore(cmd.Context(), cfg, logger, store)
			if err != nil {
				return err
			}
			defer func() {
				if err := sessions.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			if cfg.DevMode {
				if err := app.Seed(cmd.Context(), cfg, logger, store); err != nil {
					return err
				}
			}

			grp, ctx := errgroup.WithContext(cmd.Context())

			listener, err := server.Listen(ctx, cfg.ListenAddress)
			if err != nil {
				return err
			}

			srv := app.New(cfg, logger, store, sessions)

			logger.InfoContext(ctx,
				"starting app server...",
				slog.String("address", cfg.ListenAddress),
			)
			server.Serve(ctx, grp, srv.Server, listener)
			return grp.Wait()
		},
	}
}

// newSessionStore picks the session backend: Redis when configured, the
// SQLite sessions table otherwise. Either way an unreachable backend fails
// startup.
func newSessionStore(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	store *storage.DB,
) (session.Store, error) {
	if cfg.RedisAddr != "" {
		logger.InfoContext(ctx, "using redis session store", slog.String("address", cfg.RedisAddr))
		return session.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	}
	return session.NewDB(store.Handle()), nil
}
