// Package cas повторяет запись аккаунта при конфликте версий.
package cas

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/biteplans/internal/metrics"
	"github.com/magabrotheeeer/biteplans/internal/models"
)

// DefaultAttempts: число попыток записи по умолчанию.
const DefaultAttempts = 5

// ErrSkip возвращает mutate, когда аккаунт уже в нужном состоянии и писать нечего.
var ErrSkip = errors.New("cas: nothing to update")

// Store: часть хранилища аккаунтов, нужная для compare-and-swap.
type Store interface {
	GetAccountBySubject(ctx context.Context, subjectUID string) (*models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error
}

// Mutate меняет аккаунт на месте. Ошибка, отличная от ErrSkip, прерывает цикл.
type Mutate func(account *models.Account) error

// Update применяет mutate к account и пишет его с проверкой версии.
// При models.ErrVersionConflict аккаунт перечитывается и mutate вызывается заново,
// поэтому проверки внутри mutate всегда видят свежее состояние.
// После attempts неудачных попыток возвращается models.ErrConcurrentUpdate.
func Update(ctx context.Context, store Store, account *models.Account, attempts int, operation string, mutate Mutate) (*models.Account, error) {
	const op = "cas.Update"
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	subjectUID := account.SubjectUID

	for i := 0; i < attempts; i++ {
		if i > 0 {
			fresh, err := store.GetAccountBySubject(ctx, subjectUID)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			account = fresh
		}

		if err := mutate(account); err != nil {
			if errors.Is(err, ErrSkip) {
				return account, nil
			}
			return nil, err
		}

		err := store.UpdateAccount(ctx, account)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, models.ErrVersionConflict) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		metrics.VersionConflicts.WithLabelValues(operation).Inc()
	}
	return nil, fmt.Errorf("%s: %w", op, models.ErrConcurrentUpdate)
}
