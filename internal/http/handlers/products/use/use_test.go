package use

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/biteplans/internal/http/middlewarectx"
	"github.com/magabrotheeeer/biteplans/internal/models"
	"github.com/magabrotheeeer/biteplans/internal/services/credit"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) UseProduct(ctx context.Context, subjectUID, productID string) (*credit.UseResult, error) {
	args := m.Called(ctx, subjectUID, productID)
	if res := args.Get(0); res != nil {
		return res.(*credit.UseResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestUseHandler(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("services.credit.UseProduct: %w", err) }

	tests := []struct {
		name           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "credits debited",
			setupMock: func(m *MockService) {
				m.On("UseProduct", mock.Anything, "uid-1", "code-review").Return(&credit.UseResult{
					Product:          &models.Product{ProductID: "code-review", Name: "Code Review"},
					RemainingCredits: 95,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"remainingCredits":95`,
		},
		{
			name: "unlimited balance",
			setupMock: func(m *MockService) {
				m.On("UseProduct", mock.Anything, "uid-1", "code-review").Return(&credit.UseResult{
					Product:          &models.Product{ProductID: "code-review", Name: "Code Review"},
					RemainingCredits: models.UnlimitedCredits,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"remainingCredits":-1`,
		},
		{
			name: "not enough credits",
			setupMock: func(m *MockService) {
				m.On("UseProduct", mock.Anything, "uid-1", "code-review").Return(nil, wrap(models.ErrInsufficientCredits))
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"success":false,"code":"INSUFFICIENT_CREDITS","message":"Not enough credits"}`,
		},
		{
			name: "inactive product",
			setupMock: func(m *MockService) {
				m.On("UseProduct", mock.Anything, "uid-1", "code-review").Return(nil, wrap(models.ErrProductInactive))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"message":"Product not available"`,
		},
		{
			name: "unknown user",
			setupMock: func(m *MockService) {
				m.On("UseProduct", mock.Anything, "uid-1", "code-review").Return(nil, wrap(models.ErrAccountNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"message":"User not found"`,
		},
		{
			name: "contention",
			setupMock: func(m *MockService) {
				m.On("UseProduct", mock.Anything, "uid-1", "code-review").Return(nil, wrap(models.ErrConcurrentUpdate))
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"code":"CONFLICT"`,
		},
		{
			name: "store failure",
			setupMock: func(m *MockService) {
				m.On("UseProduct", mock.Anything, "uid-1", "code-review").Return(nil, wrap(models.ErrPersistence))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"code":"PERSISTENCE_FAILURE"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/products/code-review/use", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("productId", "code-review")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middlewarectx.SubjectUID, "uid-1")
			req = req.WithContext(ctx)
			w := httptest.NewRecorder()

			New(newNoopLogger(), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
