package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/biteplans/internal/app/bootstrap"
	"github.com/magabrotheeeer/biteplans/internal/app/reconciler"
	"github.com/magabrotheeeer/biteplans/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := bootstrap.SetupLogger(cfg.Env)

	logger.Info("starting reconciler", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := reconciler.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize reconciler app", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("reconciler app stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("reconciler app stopped gracefully")
}
