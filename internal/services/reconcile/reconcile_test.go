package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/biteplans/internal/models"
)

type LedgerMock struct{ mock.Mock }

func (m *LedgerMock) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *LedgerMock) CreateUsageEvent(ctx context.Context, event *models.UsageEvent) error {
	return m.Called(ctx, event).Error(0)
}

type GranterMock struct{ mock.Mock }

func (m *GranterMock) ApplyGrant(ctx context.Context, req *models.GrantRequest) error {
	return m.Called(ctx, req).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func encode(t *testing.T, task models.RepairTask) []byte {
	t.Helper()
	body, err := json.Marshal(task)
	require.NoError(t, err)
	return body
}

func TestHandler_Handle(t *testing.T) {
	tests := []struct {
		name       string
		body       func(t *testing.T) []byte
		setupMocks func(l *LedgerMock, g *GranterMock)
		wantErr    bool
		wantDead   bool
	}{
		{
			name: "transaction appended",
			body: func(t *testing.T) []byte {
				return encode(t, models.RepairTask{Kind: models.RepairTransaction, Transaction: &models.Transaction{OrderID: "O-1"}})
			},
			setupMocks: func(l *LedgerMock, _ *GranterMock) {
				l.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tx *models.Transaction) bool {
					return tx.OrderID == "O-1"
				})).Return(nil)
			},
		},
		{
			name: "duplicate transaction is done",
			body: func(t *testing.T) []byte {
				return encode(t, models.RepairTask{Kind: models.RepairTransaction, Transaction: &models.Transaction{OrderID: "O-1"}})
			},
			setupMocks: func(l *LedgerMock, _ *GranterMock) {
				l.On("CreateTransaction", mock.Anything, mock.Anything).Return(models.ErrTransactionExists)
			},
		},
		{
			name: "duplicate usage event is done",
			body: func(t *testing.T) []byte {
				return encode(t, models.RepairTask{Kind: models.RepairUsage, Usage: &models.UsageEvent{ID: "e-1"}})
			},
			setupMocks: func(l *LedgerMock, _ *GranterMock) {
				l.On("CreateUsageEvent", mock.Anything, mock.Anything).Return(models.ErrUsageEventExists)
			},
		},
		{
			name: "store failure is retried",
			body: func(t *testing.T) []byte {
				return encode(t, models.RepairTask{Kind: models.RepairUsage, Usage: &models.UsageEvent{ID: "e-1"}})
			},
			setupMocks: func(l *LedgerMock, _ *GranterMock) {
				l.On("CreateUsageEvent", mock.Anything, mock.Anything).Return(models.ErrPersistence)
			},
			wantErr: true,
		},
		{
			name: "grant applied",
			body: func(t *testing.T) []byte {
				return encode(t, models.RepairTask{Kind: models.RepairGrant, Grant: &models.GrantRequest{OrderID: "O-1"}})
			},
			setupMocks: func(_ *LedgerMock, g *GranterMock) {
				g.On("ApplyGrant", mock.Anything, mock.MatchedBy(func(r *models.GrantRequest) bool {
					return r.OrderID == "O-1"
				})).Return(nil)
			},
		},
		{
			name: "grant for missing account is dead-lettered",
			body: func(t *testing.T) []byte {
				return encode(t, models.RepairTask{Kind: models.RepairGrant, Grant: &models.GrantRequest{OrderID: "O-1"}})
			},
			setupMocks: func(_ *LedgerMock, g *GranterMock) {
				g.On("ApplyGrant", mock.Anything, mock.Anything).
					Return(fmt.Errorf("services.subscription.ApplyGrant: %w", models.ErrAccountNotFound)).Once()
			},
			wantErr:  true,
			wantDead: true,
		},
		{
			name: "grant for deleted plan is dead-lettered",
			body: func(t *testing.T) []byte {
				return encode(t, models.RepairTask{Kind: models.RepairGrant, Grant: &models.GrantRequest{OrderID: "O-1"}})
			},
			setupMocks: func(_ *LedgerMock, g *GranterMock) {
				g.On("ApplyGrant", mock.Anything, mock.Anything).Return(models.ErrPlanNotFound).Once()
			},
			wantErr:  true,
			wantDead: true,
		},
		{
			name: "missing payload is dropped",
			body: func(t *testing.T) []byte {
				return encode(t, models.RepairTask{Kind: models.RepairGrant})
			},
			setupMocks: func(*LedgerMock, *GranterMock) {},
		},
		{
			name:       "malformed json is dropped",
			body:       func(*testing.T) []byte { return []byte("{not json") },
			setupMocks: func(*LedgerMock, *GranterMock) {},
		},
		{
			name: "unknown kind is dropped",
			body: func(t *testing.T) []byte {
				return encode(t, models.RepairTask{Kind: "refund"})
			},
			setupMocks: func(*LedgerMock, *GranterMock) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := new(LedgerMock)
			g := new(GranterMock)
			tt.setupMocks(l, g)
			h := NewHandler(l, g, newNoopLogger())

			err := h.Handle(context.Background(), tt.body(t))
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantDead, errors.Is(err, models.ErrUnrecoverable))
			} else {
				assert.NoError(t, err)
			}
			l.AssertExpectations(t)
			g.AssertExpectations(t)
		})
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewTextHandler(&buf, nil)))

	err := p.Publish(context.Background(), &models.RepairTask{Kind: models.RepairUsage, Usage: &models.UsageEvent{ID: "e-9"}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "kind=usage")
	assert.Contains(t, buf.String(), "e-9")
}
