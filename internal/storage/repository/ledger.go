package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/biteplans/internal/models"
)

// CreateUsageEvent добавляет запись об использовании продукта.
// Повтор идентификатора события даёт models.ErrUsageEventExists.
func (s *Storage) CreateUsageEvent(ctx context.Context, e *models.UsageEvent) error {
	const op = "storage.CreateUsageEvent"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO usage_events (id, account_id, product_id, product_name,
			      credits_used, status, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.DB.ExecContext(ctx, query,
		e.ID, e.AccountID, e.ProductID, e.ProductName, e.CreditsUsed, e.Status, e.Timestamp)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, models.ErrUsageEventExists)
		}
		return wrapErr(op, err)
	}
	return nil
}

// ListUsageEvents возвращает события использования аккаунта, новые первыми.
func (s *Storage) ListUsageEvents(ctx context.Context, accountID string) ([]*models.UsageEvent, error) {
	const op = "storage.ListUsageEvents"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, account_id, product_id, product_name, credits_used, status, created_at
			  FROM usage_events
			  WHERE account_id = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.UsageEvent
	for rows.Next() {
		var e models.UsageEvent
		if err = rows.Scan(&e.ID, &e.AccountID, &e.ProductID, &e.ProductName,
			&e.CreditsUsed, &e.Status, &e.Timestamp); err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// CreateTransaction добавляет запись о покупке плана.
// Повтор order_id даёт models.ErrTransactionExists.
func (s *Storage) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	const op = "storage.CreateTransaction"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO transactions (id, account_id, order_id, plan_id, plan_name, credits,
			      amount, status, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.DB.ExecContext(ctx, query,
		tx.ID, tx.AccountID, tx.OrderID, tx.PlanID, tx.PlanName, tx.Credits, tx.Amount, tx.Status, tx.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, models.ErrTransactionExists)
		}
		return wrapErr(op, err)
	}
	return nil
}

// GetTransactionByOrderID возвращает транзакцию по идентификатору заказа процессора.
func (s *Storage) GetTransactionByOrderID(ctx context.Context, orderID string) (*models.Transaction, error) {
	const op = "storage.GetTransactionByOrderID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, account_id, order_id, plan_id, plan_name, credits, amount, status, created_at
			  FROM transactions WHERE order_id = $1`
	var tx models.Transaction
	err := s.DB.QueryRowContext(ctx, query, orderID).Scan(&tx.ID, &tx.AccountID, &tx.OrderID,
		&tx.PlanID, &tx.PlanName, &tx.Credits, &tx.Amount, &tx.Status, &tx.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrTransactionNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return &tx, nil
}

// ListTransactions возвращает транзакции аккаунта, новые первыми.
func (s *Storage) ListTransactions(ctx context.Context, accountID string) ([]*models.Transaction, error) {
	const op = "storage.ListTransactions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, account_id, order_id, plan_id, plan_name, credits, amount, status, created_at
			  FROM transactions
			  WHERE account_id = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err = rows.Scan(&tx.ID, &tx.AccountID, &tx.OrderID, &tx.PlanID, &tx.PlanName,
			&tx.Credits, &tx.Amount, &tx.Status, &tx.CreatedAt); err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, &tx)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}
