package main

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"codewars-tracker/internal/config"
	"codewars-tracker/internal/constants"
	fxmodules "codewars-tracker/internal/fx"
	"codewars-tracker/internal/logger"
	"codewars-tracker/internal/server"
	"codewars-tracker/internal/telegram"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(run),
	).Run()
}

func run(
	lc fx.Lifecycle,
	bot *telegram.Bot,
	srv *server.Server,
	cfg *config.Config,
	db *sql.DB,
	log zerolog.Logger,
) {
	logger.SetLevel(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			srv.Start()
			return bot.Start(ctx)
		},
		OnStop: func(context.Context) error {
			log.Info().Msg("shutting down")
			cancel()
			bot.Stop()

			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancelShutdown()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("server shutdown failed")
			}

			if err := db.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing database connection")
			}

			log.Info().Msg("stopped gracefully")
			return nil
		},
	})
}
