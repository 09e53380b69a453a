// Package mongostore реализует хранилище BitePlans поверх MongoDB.
// Документы аккаунтов обновляются через UpdateOne с фильтром по версии,
// уникальные индексы на subject_uid и order_id создаются в Migrate.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/magabrotheeeer/biteplans/internal/models"
	"github.com/magabrotheeeer/biteplans/internal/storage"
)

// Имена коллекций
const (
	colAccounts     = "accounts"
	colPlans        = "plans"
	colProducts     = "products"
	colUsageEvents  = "usage_events"
	colTransactions = "transactions"
)

var _ storage.Repository = (*Store)(nil)

// Store хранит клиент MongoDB и выбранную базу.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New подключается к MongoDB по uri и проверяет соединение.
func New(ctx context.Context, uri, database string) (*Store, error) {
	const op = "mongostore.New"

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// Migrate создаёт индексы и заполняет пустой каталог начальными планами и продуктами.
func (s *Store) Migrate(ctx context.Context) error {
	const op = "mongostore.Migrate"

	for col, idx := range migrationIndexes() {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("%s: %s indexes: %w", op, col, err)
		}
	}
	if err := s.seedCatalog(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Ping проверяет доступность базы.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close отключает клиента.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colAccounts: {
			{
				Keys:    bson.D{{Key: "subject_uid", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colPlans: {
			{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "price", Value: 1}}},
		},
		colProducts: {
			{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "name", Value: 1}}},
		},
		colUsageEvents: {
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
		colTransactions: {
			{
				Keys:    bson.D{{Key: "order_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func wrapErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, models.ErrPersistence, err)
}
