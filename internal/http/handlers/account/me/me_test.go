package me

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/biteplans/internal/http/middlewarectx"
	"github.com/magabrotheeeer/biteplans/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Profile(ctx context.Context, subjectUID string) (*models.Account, error) {
	args := m.Called(ctx, subjectUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestMeHandler(t *testing.T) {
	tests := []struct {
		name           string
		subject        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "profile",
			subject: "uid-1",
			setupMock: func(m *MockService) {
				m.On("Profile", mock.Anything, "uid-1").
					Return(&models.Account{SubjectUID: "uid-1", TotalCredits: 70, Version: 3}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"totalCredits":70`,
		},
		{
			name:    "not registered",
			subject: "uid-1",
			setupMock: func(m *MockService) {
				m.On("Profile", mock.Anything, "uid-1").Return(nil, models.ErrAccountNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"code":"NOT_FOUND"`,
		},
		{
			name:           "no subject",
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"code":"UNAUTHORIZED"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.subject != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.SubjectUID, tt.subject))
			}
			w := httptest.NewRecorder()

			New(newNoopLogger(), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			assert.NotContains(t, w.Body.String(), "version")
			svc.AssertExpectations(t)
		})
	}
}
