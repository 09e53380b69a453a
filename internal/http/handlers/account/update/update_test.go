package update

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/biteplans/internal/http/middlewarectx"
	"github.com/magabrotheeeer/biteplans/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) UpdateProfile(ctx context.Context, subjectUID, name, profileImage string) (*models.Account, error) {
	args := m.Called(ctx, subjectUID, name, profileImage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestUpdateHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "name and image",
			body: `{"name":"Jane D","profileImage":"https://cdn.example.com/a.png"}`,
			setupMock: func(m *MockService) {
				m.On("UpdateProfile", mock.Anything, "uid-1", "Jane D", "https://cdn.example.com/a.png").
					Return(&models.Account{SubjectUID: "uid-1", DisplayName: "Jane D"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"displayName":"Jane D"`,
		},
		{
			name: "account missing",
			body: `{"name":"Jane"}`,
			setupMock: func(m *MockService) {
				m.On("UpdateProfile", mock.Anything, "uid-1", "Jane", "").Return(nil, models.ErrAccountNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"message":"User not found"`,
		},
		{
			name: "concurrent writers",
			body: `{"name":"Jane"}`,
			setupMock: func(m *MockService) {
				m.On("UpdateProfile", mock.Anything, "uid-1", "Jane", "").Return(nil, models.ErrConcurrentUpdate)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"code":"CONFLICT"`,
		},
		{
			name:           "name too long",
			body:           `{"name":"` + strings.Repeat("x", 101) + `"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "broken json",
			body:           `{"name":`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"code":"INVALID_INPUT"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPut, "/update", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.SubjectUID, "uid-1"))
			w := httptest.NewRecorder()

			New(newNoopLogger(), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
