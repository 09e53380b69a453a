// Package storage описывает контракт хранилища аккаунтов, каталога и журналов.
// Реализации: repository (PostgreSQL) и mongostore (MongoDB).
package storage

import (
	"context"

	"github.com/magabrotheeeer/biteplans/internal/models"
)

// Accounts: хранилище аккаунтов.
// UpdateAccount выполняет compare-and-swap по полю Version: запись проходит только
// если версия в хранилище совпадает с account.Version, после чего версия увеличивается
// и новое значение записывается в account.Version. При несовпадении возвращается
// models.ErrVersionConflict.
type Accounts interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountBySubject(ctx context.Context, subjectUID string) (*models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error
}

// Catalog: хранилище планов и продуктов.
type Catalog interface {
	ListPlans(ctx context.Context, activeOnly bool) ([]*models.Plan, error)
	GetPlan(ctx context.Context, planID string) (*models.Plan, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]*models.Product, error)
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
}

// Ledger: журналы использования кредитов и транзакций.
// CreateUsageEvent возвращает models.ErrUsageEventExists при повторе ID,
// CreateTransaction возвращает models.ErrTransactionExists при повторе OrderID.
type Ledger interface {
	CreateUsageEvent(ctx context.Context, event *models.UsageEvent) error
	ListUsageEvents(ctx context.Context, accountID string) ([]*models.UsageEvent, error)
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransactionByOrderID(ctx context.Context, orderID string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, accountID string) ([]*models.Transaction, error)
}

// Repository объединяет все хранилища и управление соединением.
type Repository interface {
	Accounts
	Catalog
	Ledger
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
