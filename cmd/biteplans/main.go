// Package main BitePlans API
//
// @title           BitePlans API
// @version         1.0
// @description     API кредитных подписок: планы, продукты, списание кредитов и история.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the identity provider ID token.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/magabrotheeeer/biteplans/docs"
	"github.com/magabrotheeeer/biteplans/internal/app/biteplans"
	"github.com/magabrotheeeer/biteplans/internal/app/bootstrap"
	"github.com/magabrotheeeer/biteplans/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := bootstrap.SetupLogger(cfg.Env)

	logger.Info("starting biteplans", slog.String("env", cfg.Env))
	logger.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := biteplans.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("biteplans stopped gracefully")
}
