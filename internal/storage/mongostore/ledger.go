package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/magabrotheeeer/biteplans/internal/models"
)

func (s *Store) CreateUsageEvent(ctx context.Context, e *models.UsageEvent) error {
	const op = "mongostore.CreateUsageEvent"
	m := usageEventModel(*e)
	if _, err := s.db.Collection(colUsageEvents).InsertOne(ctx, &m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, models.ErrUsageEventExists)
		}
		return wrapErr(op, err)
	}
	return nil
}

func (s *Store) ListUsageEvents(ctx context.Context, accountID string) ([]*models.UsageEvent, error) {
	const op = "mongostore.ListUsageEvents"
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cur, err := s.db.Collection(colUsageEvents).Find(ctx, bson.M{"account_id": accountID}, opts)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	var ms []usageEventModel
	if err := cur.All(ctx, &ms); err != nil {
		return nil, wrapErr(op, err)
	}

	result := make([]*models.UsageEvent, len(ms))
	for i := range ms {
		e := models.UsageEvent(ms[i])
		result[i] = &e
	}
	return result, nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	const op = "mongostore.CreateTransaction"
	m := transactionModel(*tx)
	if _, err := s.db.Collection(colTransactions).InsertOne(ctx, &m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, models.ErrTransactionExists)
		}
		return wrapErr(op, err)
	}
	return nil
}

func (s *Store) GetTransactionByOrderID(ctx context.Context, orderID string) (*models.Transaction, error) {
	const op = "mongostore.GetTransactionByOrderID"
	var m transactionModel
	if err := s.db.Collection(colTransactions).FindOne(ctx, bson.M{"order_id": orderID}).Decode(&m); err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrTransactionNotFound)
		}
		return nil, wrapErr(op, err)
	}
	tx := models.Transaction(m)
	return &tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, accountID string) ([]*models.Transaction, error) {
	const op = "mongostore.ListTransactions"
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.db.Collection(colTransactions).Find(ctx, bson.M{"account_id": accountID}, opts)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	var ms []transactionModel
	if err := cur.All(ctx, &ms); err != nil {
		return nil, wrapErr(op, err)
	}

	result := make([]*models.Transaction, len(ms))
	for i := range ms {
		tx := models.Transaction(ms[i])
		result[i] = &tx
	}
	return result, nil
}
