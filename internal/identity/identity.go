// Package identity проверяет bearer-токены внешнего провайдера идентификации
// и возвращает стабильный идентификатор субъекта и email.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/biteplans/internal/models"
)

// Identity: проверенный субъект.
type Identity struct {
	UID   string
	Email string
}

// Verifier проверяет токен. Ошибки: models.ErrVerifierFailed, models.ErrVerifierTimeout.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type verifyFunc func(ctx context.Context, token string) (*Identity, error)

// withTimeout ограничивает проверку timeout и приводит ошибки к общим значениям.
func withTimeout(ctx context.Context, timeout time.Duration, token string, fn verifyFunc) (*Identity, error) {
	const op = "identity.Verify"
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	id, err := fn(ctx, token)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w: %w", op, models.ErrVerifierTimeout, err)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrVerifierFailed, err)
	}
	if id.UID == "" {
		return nil, fmt.Errorf("%s: %w: empty subject", op, models.ErrVerifierFailed)
	}
	return id, nil
}
