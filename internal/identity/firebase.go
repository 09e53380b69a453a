package identity

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier проверяет ID-токены Firebase через Admin SDK.
type FirebaseVerifier struct {
	client  idTokenVerifier
	timeout time.Duration
}

// NewFirebaseVerifier инициализирует приложение Firebase по файлу сервисного аккаунта.
// Пустой credentialsFile означает Application Default Credentials.
func NewFirebaseVerifier(ctx context.Context, credentialsFile string, timeout time.Duration) (*FirebaseVerifier, error) {
	const op = "identity.NewFirebaseVerifier"

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &FirebaseVerifier{client: client, timeout: timeout}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	return withTimeout(ctx, v.timeout, token, func(ctx context.Context, token string) (*Identity, error) {
		t, err := v.client.VerifyIDToken(ctx, token)
		if err != nil {
			return nil, err
		}
		email, _ := t.Claims["email"].(string)
		return &Identity{UID: t.UID, Email: email}, nil
	})
}
