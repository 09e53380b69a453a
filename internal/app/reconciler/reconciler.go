// Package reconciler запускает воркер, который дочитывает очередь досинхронизации
// и повторяет вторичные записи.
package reconciler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/biteplans/internal/app/bootstrap"
	"github.com/magabrotheeeer/biteplans/internal/config"
	"github.com/magabrotheeeer/biteplans/internal/lib/sl"
	"github.com/magabrotheeeer/biteplans/internal/rabbitmq"
	"github.com/magabrotheeeer/biteplans/internal/services/reconcile"
	subservice "github.com/magabrotheeeer/biteplans/internal/services/subscription"
	"github.com/magabrotheeeer/biteplans/internal/storage"
)

type App struct {
	db      storage.Repository
	broker  *bootstrap.Broker
	handler *reconcile.Handler
	logger  *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := bootstrap.OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	broker, err := bootstrap.OpenBroker(ctx, cfg.RabbitMQ)
	if err != nil {
		_ = db.Close(ctx)
		return nil, err
	}

	// Воркер только досохраняет выдачи, процессор и блокировки ему не нужны.
	granter := subservice.NewSubscriptionService(db, nil, nil, reconcile.NewLogPublisher(logger), 0, logger)
	handler := reconcile.NewHandler(db, granter, logger)

	return &App{
		db:      db,
		broker:  broker,
		handler: handler,
		logger:  logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	done, err := rabbitmq.ConsumerMessage(ctx, a.logger, a.broker.Ch, rabbitmq.RepairQueue, a.handler.Handle)
	if err != nil {
		a.logger.Error("failed to start repair queue consumer", sl.Err(err))
		a.close()
		return err
	}
	a.logger.Info("reconciler consuming", slog.String("queue", rabbitmq.RepairQueue))

	<-ctx.Done()
	a.logger.Info("reconciler shutting down gracefully")
	<-done

	a.close()
	return nil
}

func (a *App) close() {
	a.broker.Close(a.logger)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.db.Close(ctx); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
