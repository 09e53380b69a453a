package mongostore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/magabrotheeeer/biteplans/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	store, err := New(ctx, uri, "biteplans_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	require.NoError(t, store.Migrate(ctx))
	return store
}

func testAccount(subject string, credits int64) *models.Account {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.Account{
		ID:             uuid.NewString(),
		SubjectUID:     subject,
		Email:          subject + "@example.com",
		DisplayName:    subject,
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

func TestStore_Accounts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	a := testAccount("uid-1", 100)
	require.NoError(t, store.CreateAccount(ctx, a))
	assert.ErrorIs(t, store.CreateAccount(ctx, testAccount("uid-1", 100)), models.ErrAccountExists)

	got, err := store.GetAccountBySubject(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, models.TrialPlanID, got.CurrentPlan.PlanID)

	_, err = store.GetAccountBySubject(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrAccountNotFound)

	stale := *got
	got.Debit(40)
	require.NoError(t, store.UpdateAccount(ctx, got))
	assert.Equal(t, int64(2), got.Version)

	stale.Debit(40)
	assert.ErrorIs(t, store.UpdateAccount(ctx, &stale), models.ErrVersionConflict)

	reloaded, err := store.GetAccountBySubject(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, int64(60), reloaded.TotalCredits)
	assert.Equal(t, int64(40), reloaded.UsedCredits)
}

func TestStore_ConcurrentUpdateOnlyOneWins(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, testAccount("race", 5)))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := store.GetAccountBySubject(ctx, "race")
			if err != nil {
				return
			}
			a.Debit(5)
			if store.UpdateAccount(ctx, a) == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	got, err := store.GetAccountBySubject(ctx, "race")
	require.NoError(t, err)
	assert.Equal(t, int64(5)-int64(succeeded)*5, got.TotalCredits)
	assert.GreaterOrEqual(t, got.TotalCredits, int64(0))
}

func TestStore_CatalogSeed(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// повторный Migrate не дублирует каталог
	require.NoError(t, store.Migrate(ctx))

	plans, err := store.ListPlans(ctx, true)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, "basic", plans[0].PlanID)

	plan, err := store.GetPlan(ctx, "enterprise")
	require.NoError(t, err)
	assert.True(t, plan.Unlimited())

	_, err = store.GetPlan(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrPlanNotFound)

	product, err := store.GetProduct(ctx, "api-tester")
	require.NoError(t, err)
	product.IsActive = false
	require.NoError(t, store.UpsertProduct(ctx, product))

	active, err := store.ListProducts(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	_, err = store.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestStore_Ledger(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	first := &models.UsageEvent{ID: uuid.NewString(), AccountID: "acc", ProductID: "api-tester",
		ProductName: "API Tester", CreditsUsed: 3, Status: models.StatusSuccess, Timestamp: base.Add(-time.Hour)}
	second := &models.UsageEvent{ID: uuid.NewString(), AccountID: "acc", ProductID: "code-review",
		ProductName: "Code Review Assistant", CreditsUsed: 5, Status: models.StatusSuccess, Timestamp: base}
	require.NoError(t, store.CreateUsageEvent(ctx, first))
	require.NoError(t, store.CreateUsageEvent(ctx, second))
	assert.ErrorIs(t, store.CreateUsageEvent(ctx, first), models.ErrUsageEventExists)

	events, err := store.ListUsageEvents(ctx, "acc")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, second.ID, events[0].ID)

	tx := &models.Transaction{ID: uuid.NewString(), AccountID: "acc", OrderID: "ORDER-9",
		PlanID: "basic", PlanName: "Basic", Credits: 500, Amount: 9.99, Status: models.StatusSuccess, CreatedAt: base}
	require.NoError(t, store.CreateTransaction(ctx, tx))
	dup := *tx
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, store.CreateTransaction(ctx, &dup), models.ErrTransactionExists)

	got, err := store.GetTransactionByOrderID(ctx, "ORDER-9")
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, "basic", got.PlanID)

	_, err = store.GetTransactionByOrderID(ctx, "none")
	assert.ErrorIs(t, err, models.ErrTransactionNotFound)

	list, err := store.ListTransactions(ctx, "acc")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
