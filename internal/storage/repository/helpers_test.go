package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/biteplans/internal/migrations"
	"github.com/magabrotheeeer/biteplans/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close(ctx) })

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))
	require.NoError(t, CheckDatabaseReady(ctx, storage))

	return storage
}

// newTestAccount возвращает аккаунт в состоянии сразу после регистрации.
func newTestAccount(subject string, credits int64) *models.Account {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.Account{
		ID:             uuid.NewString(),
		SubjectUID:     subject,
		Email:          subject + "@example.com",
		DisplayName:    "Test " + subject,
		TotalCredits:   credits,
		TrialStartDate: now,
		TrialEndDate:   now.Add(7 * 24 * time.Hour),
		IsTrialActive:  true,
		CurrentPlan: models.CurrentPlan{
			PlanID:    models.TrialPlanID,
			Status:    models.PlanStatusActive,
			StartDate: now,
			EndDate:   now.Add(7 * 24 * time.Hour),
		},
		CreatedAt: now,
	}
}

func createTestAccount(t *testing.T, s *Storage, subject string, credits int64) *models.Account {
	t.Helper()
	a := newTestAccount(subject, credits)
	require.NoError(t, s.CreateAccount(context.Background(), a))
	return a
}
