package middlewarectx_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/biteplans/internal/http/middlewarectx"
	"github.com/magabrotheeeer/biteplans/internal/identity"
	"github.com/magabrotheeeer/biteplans/internal/models"
)

type VerifierMock struct {
	mock.Mock
}

func (m *VerifierMock) Verify(ctx context.Context, token string) (*identity.Identity, error) {
	args := m.Called(ctx, token)
	id, _ := args.Get(0).(*identity.Identity)
	return id, args.Error(1)
}

type TrialServiceMock struct {
	mock.Mock
}

func (m *TrialServiceMock) ExpireTrial(ctx context.Context, subjectUID string) (*models.Account, error) {
	args := m.Called(ctx, subjectUID)
	a, _ := args.Get(0).(*models.Account)
	return a, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func withSubject(r *http.Request, uid string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middlewarectx.SubjectUID, uid))
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		mockID         *identity.Identity
		mockErr        error
		wantStatusCode int
		wantCode       string
		wantCalled     bool
	}{
		{
			name:           "missing Authorization header",
			wantStatusCode: http.StatusUnauthorized,
			wantCode:       `"code":"UNAUTHORIZED"`,
		},
		{
			name:           "invalid Authorization header prefix",
			authHeader:     "Basic sometoken",
			wantStatusCode: http.StatusUnauthorized,
			wantCode:       `"code":"UNAUTHORIZED"`,
		},
		{
			name:           "rejected token",
			authHeader:     "Bearer token",
			mockErr:        fmt.Errorf("verify: %w", models.ErrVerifierFailed),
			wantStatusCode: http.StatusUnauthorized,
			wantCode:       `"code":"UNAUTHORIZED"`,
		},
		{
			name:           "verifier timeout",
			authHeader:     "Bearer token",
			mockErr:        fmt.Errorf("verify: %w", models.ErrVerifierTimeout),
			wantStatusCode: http.StatusGatewayTimeout,
			wantCode:       `"code":"VERIFIER_TIMEOUT"`,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer token",
			mockID:         &identity.Identity{UID: "uid-1", Email: "a@b.c"},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := new(VerifierMock)
			if tt.mockID != nil || tt.mockErr != nil {
				verifier.On("Verify", mock.Anything, "token").Return(tt.mockID, tt.mockErr).Once()
			}

			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				uid, ok := middlewarectx.Subject(r.Context())
				assert.True(t, ok)
				assert.Equal(t, "uid-1", uid)
				assert.Equal(t, "a@b.c", middlewarectx.SubjectEmail(r.Context()))
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/somepath", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			middlewarectx.Auth(verifier, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			assert.Contains(t, rec.Body.String(), tt.wantCode)
			verifier.AssertExpectations(t)
		})
	}
}

func TestTrialGate(t *testing.T) {
	tests := []struct {
		name           string
		subject        string
		mockErr        error
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "passes through",
			subject:        "uid-1",
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:           "account missing",
			subject:        "uid-1",
			mockErr:        models.ErrAccountNotFound,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "load failure",
			subject:        "uid-1",
			mockErr:        models.ErrPersistence,
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			name:           "no subject",
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(TrialServiceMock)
			if tt.subject != "" {
				var account *models.Account
				if tt.mockErr == nil {
					account = &models.Account{SubjectUID: tt.subject}
				}
				svc.On("ExpireTrial", mock.Anything, tt.subject).Return(account, tt.mockErr).Once()
			}

			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/products/x/use", nil)
			if tt.subject != "" {
				req = withSubject(req, tt.subject)
			}
			rec := httptest.NewRecorder()

			middlewarectx.TrialGate(svc, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			svc.AssertExpectations(t)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := middlewarectx.NewRateLimiter(0.0001, 2)
	h := middlewarectx.RateLimitMiddleware(limiter, newNoopLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(uid string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, withSubject(httptest.NewRequest(http.MethodGet, "/", nil), uid))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("uid-1"))
	assert.Equal(t, http.StatusOK, do("uid-1"))
	assert.Equal(t, http.StatusTooManyRequests, do("uid-1"))
	// у другого субъекта свой лимит
	assert.Equal(t, http.StatusOK, do("uid-2"))
}
