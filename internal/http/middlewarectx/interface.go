package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/biteplans/internal/identity"
	"github.com/magabrotheeeer/biteplans/internal/models"
)

// Verifier проверяет bearer-токен.
type Verifier interface {
	Verify(ctx context.Context, token string) (*identity.Identity, error)
}

// TrialService снимает истёкший пробный период.
type TrialService interface {
	ExpireTrial(ctx context.Context, subjectUID string) (*models.Account, error)
}
