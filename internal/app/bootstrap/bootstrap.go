// Package bootstrap собирает зависимости, общие для API и воркера досинхронизации.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/biteplans/internal/config"
	"github.com/magabrotheeeer/biteplans/internal/identity"
	"github.com/magabrotheeeer/biteplans/internal/lib/sl"
	"github.com/magabrotheeeer/biteplans/internal/migrations"
	"github.com/magabrotheeeer/biteplans/internal/models"
	"github.com/magabrotheeeer/biteplans/internal/rabbitmq"
	"github.com/magabrotheeeer/biteplans/internal/services/reconcile"
	"github.com/magabrotheeeer/biteplans/internal/storage"
	"github.com/magabrotheeeer/biteplans/internal/storage/mongostore"
	"github.com/magabrotheeeer/biteplans/internal/storage/repository"
)

// SetupLogger возвращает текстовый логгер. В окружении local пишет debug.
func SetupLogger(env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "local" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// OpenStorage подключает хранилище по cfg.StorageDriver и применяет миграции.
func OpenStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Repository, error) {
	const op = "bootstrap.OpenStorage"

	switch cfg.StorageDriver {
	case config.DriverMongo:
		store, err := mongostore.New(ctx, cfg.StorageConnectionString, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Info("storage ready", slog.String("driver", cfg.StorageDriver))
		return store, nil
	default:
		db, err := repository.New(ctx, cfg.StorageConnectionString)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := repository.CheckDatabaseReady(ctx, db); err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Info("storage ready", slog.String("driver", cfg.StorageDriver))
		return db, nil
	}
}

// NewVerifier создаёт проверку токенов по cfg.Provider.
func NewVerifier(ctx context.Context, cfg config.Identity) (identity.Verifier, error) {
	if cfg.Provider == config.IdentityLocal {
		return identity.NewLocalVerifier(cfg.LocalSecret, cfg.LocalTokenTTL, cfg.TimeoutIdentity), nil
	}
	return identity.NewFirebaseVerifier(ctx, cfg.CredentialsFile, cfg.TimeoutIdentity)
}

// Publisher отправляет задачи досинхронизации.
type Publisher interface {
	Publish(ctx context.Context, task *models.RepairTask) error
}

// Broker держит соединение и канал RabbitMQ. Close на nil ничего не делает.
type Broker struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

// OpenBroker подключается к RabbitMQ и объявляет очередь досинхронизации.
func OpenBroker(ctx context.Context, cfg config.RabbitMQ) (*Broker, error) {
	const op = "bootstrap.OpenBroker"

	conn, err := rabbitmq.Connect(ctx, cfg.URL, cfg.MaxRetries, cfg.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.ReconciliationExchange, rabbitmq.GetReconciliationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Broker{Conn: conn, Ch: ch}, nil
}

// Close закрывает канал и соединение.
func (b *Broker) Close(log *slog.Logger) {
	if b == nil {
		return
	}
	if b.Ch != nil {
		if err := b.Ch.Close(); err != nil {
			log.Error("failed to close channel", sl.Err(err))
		}
	}
	if b.Conn != nil {
		if err := b.Conn.Close(); err != nil {
			log.Error("failed to close connection", sl.Err(err))
		}
	}
}

// NewPublisher публикует в брокер, если он настроен и доступен.
// Иначе задачи пишутся в лог, откуда их можно переиграть вручную.
func NewPublisher(ctx context.Context, cfg config.RabbitMQ, log *slog.Logger) (Publisher, *Broker) {
	if cfg.URL == "" {
		log.Warn("rabbitmq url is empty, repair tasks go to log")
		return reconcile.NewLogPublisher(log), nil
	}
	broker, err := OpenBroker(ctx, cfg)
	if err != nil {
		log.Error("rabbitmq unavailable, repair tasks go to log", sl.Err(err))
		return reconcile.NewLogPublisher(log), nil
	}
	return rabbitmq.NewPublisher(broker.Ch), broker
}
