package identity

import (
	"context"
	"time"

	"github.com/magabrotheeeer/biteplans/internal/lib/jwt"
)

// LocalVerifier проверяет HS256-токены, выпущенные с общим секретом.
// Используется в окружении local и в тестах вместо Firebase.
type LocalVerifier struct {
	maker   jwt.Maker
	timeout time.Duration
}

func NewLocalVerifier(secret string, ttl, timeout time.Duration) *LocalVerifier {
	return &LocalVerifier{maker: jwt.NewJWTMaker(secret, ttl), timeout: timeout}
}

func (v *LocalVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	return withTimeout(ctx, v.timeout, token, func(_ context.Context, token string) (*Identity, error) {
		claims, err := v.maker.ParseToken(token)
		if err != nil {
			return nil, err
		}
		return &Identity{UID: claims.Subject, Email: claims.Email}, nil
	})
}

// IssueToken выпускает токен для subject.
func (v *LocalVerifier) IssueToken(subject, email string) (string, error) {
	return v.maker.GenerateToken(subject, email)
}
