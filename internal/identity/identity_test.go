package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/biteplans/internal/models"
)

type mockTokenVerifier struct {
	mock.Mock
}

func (m *mockTokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Token), args.Error(1)
}

func TestFirebaseVerifier_Verify(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(m *mockTokenVerifier)
		wantErr   error
		wantUID   string
		wantEmail string
	}{
		{
			name: "valid token",
			setup: func(m *mockTokenVerifier) {
				m.On("VerifyIDToken", mock.Anything, "good").
					Return(&auth.Token{UID: "uid-1", Claims: map[string]interface{}{"email": "a@b.c"}}, nil)
			},
			wantUID:   "uid-1",
			wantEmail: "a@b.c",
		},
		{
			name: "rejected token",
			setup: func(m *mockTokenVerifier) {
				m.On("VerifyIDToken", mock.Anything, "good").Return(nil, errors.New("ID token has expired"))
			},
			wantErr: models.ErrVerifierFailed,
		},
		{
			name: "verifier hangs",
			setup: func(m *mockTokenVerifier) {
				m.On("VerifyIDToken", mock.Anything, "good").
					Run(func(args mock.Arguments) {
						<-args.Get(0).(context.Context).Done()
					}).
					Return(nil, context.DeadlineExceeded)
			},
			wantErr: models.ErrVerifierTimeout,
		},
		{
			name: "empty uid",
			setup: func(m *mockTokenVerifier) {
				m.On("VerifyIDToken", mock.Anything, "good").Return(&auth.Token{}, nil)
			},
			wantErr: models.ErrVerifierFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(mockTokenVerifier)
			tt.setup(m)
			v := &FirebaseVerifier{client: m, timeout: 50 * time.Millisecond}

			id, err := v.Verify(context.Background(), "good")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, id)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUID, id.UID)
			assert.Equal(t, tt.wantEmail, id.Email)
			m.AssertExpectations(t)
		})
	}
}

func TestLocalVerifier(t *testing.T) {
	v := NewLocalVerifier("secret", time.Hour, time.Second)

	token, err := v.IssueToken("local-uid", "dev@example.com")
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "local-uid", id.UID)
	assert.Equal(t, "dev@example.com", id.Email)

	_, err = v.Verify(context.Background(), "broken")
	assert.ErrorIs(t, err, models.ErrVerifierFailed)
}
