package biteplans

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/biteplans/internal/http/middlewarectx"
	"github.com/magabrotheeeer/biteplans/internal/identity"
	"github.com/magabrotheeeer/biteplans/internal/models"
	accountservice "github.com/magabrotheeeer/biteplans/internal/services/account"
	catalogservice "github.com/magabrotheeeer/biteplans/internal/services/catalog"
	creditservice "github.com/magabrotheeeer/biteplans/internal/services/credit"
	"github.com/magabrotheeeer/biteplans/internal/services/reconcile"
	subservice "github.com/magabrotheeeer/biteplans/internal/services/subscription"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore: хранилище в памяти с теми же правилами версии, что у настоящих драйверов.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	plans    []*models.Plan
	products map[string]*models.Product
	usage    []*models.UsageEvent
	txs      []*models.Transaction
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]models.Account{},
		plans: []*models.Plan{
			{PlanID: "basic", PlanName: "Basic", Price: 9.99, Period: "month", CreditsPerMonth: 500, IsActive: true},
		},
		products: map[string]*models.Product{
			"writer": {ProductID: "writer", Name: "AI Writer", CreditCost: 30, IsActive: true},
			"legacy": {ProductID: "legacy", Name: "Legacy", CreditCost: 1, IsActive: false},
			"tool.v2": {ProductID: "tool.v2", Name: "Tool v2", CreditCost: 5, IsActive: true},
		},
	}
}

func (s *memStore) CreateAccount(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.SubjectUID]; ok {
		return models.ErrAccountExists
	}
	a.Version = 1
	s.accounts[a.SubjectUID] = *a
	return nil
}

func (s *memStore) GetAccountBySubject(_ context.Context, uid string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[uid]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return &a, nil
}

func (s *memStore) UpdateAccount(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.accounts[a.SubjectUID]
	if !ok {
		return models.ErrAccountNotFound
	}
	if cur.Version != a.Version {
		return models.ErrVersionConflict
	}
	a.Version++
	s.accounts[a.SubjectUID] = *a
	return nil
}

func (s *memStore) ListPlans(_ context.Context, _ bool) ([]*models.Plan, error) {
	return s.plans, nil
}

func (s *memStore) GetPlan(_ context.Context, id string) (*models.Plan, error) {
	for _, p := range s.plans {
		if p.PlanID == id {
			return p, nil
		}
	}
	return nil, models.ErrPlanNotFound
}

func (s *memStore) ListProducts(_ context.Context, activeOnly bool) ([]*models.Product, error) {
	var out []*models.Product
	for _, p := range s.products {
		if !activeOnly || p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) GetProduct(_ context.Context, id string) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	return p, nil
}

func (s *memStore) CreateUsageEvent(_ context.Context, e *models.UsageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = append(s.usage, e)
	return nil
}

func (s *memStore) ListUsageEvents(_ context.Context, accountID string) ([]*models.UsageEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.UsageEvent
	for _, e := range s.usage {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) CreateTransaction(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, tx)
	return nil
}

func (s *memStore) GetTransactionByOrderID(_ context.Context, orderID string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.txs {
		if tx.OrderID == orderID {
			return tx, nil
		}
	}
	return nil, models.ErrTransactionNotFound
}

func (s *memStore) ListTransactions(_ context.Context, accountID string) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Transaction
	for _, tx := range s.txs {
		if tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *memStore) Ping(context.Context) error  { return nil }
func (s *memStore) Close(context.Context) error { return nil }

type testServer struct {
	*httptest.Server
	store  *memStore
	issuer *identity.LocalVerifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := newNoopLogger()
	store := newMemStore()
	verifier := identity.NewLocalVerifier("test-secret", time.Hour, time.Second)
	publisher := reconcile.NewLogPublisher(log)

	router := chi.NewRouter()
	RegisterRoutes(router, log, Services{
		Account:      accountservice.NewAccountService(store, log),
		Catalog:      catalogservice.NewCatalogService(store, nil, time.Minute, log),
		Credit:       creditservice.NewCreditService(store, publisher, log),
		Subscription: subservice.NewSubscriptionService(store, nil, nil, publisher, time.Second, log),
		Verifier:     verifier,
		Health:       store,
		Limiter:      middlewarectx.NewRateLimiter(100, 100),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store, issuer: verifier}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestRoutes_RegisterUseAndHistory(t *testing.T) {
	srv := newTestServer(t)
	token, err := srv.issuer.IssueToken("uid-1", "jane@example.com")
	require.NoError(t, err)

	status, _ := srv.do(t, http.MethodGet, "/api/v1/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := srv.do(t, http.MethodPost, "/api/v1/register", token, `{"name":"Jane"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["success"])

	status, body = srv.do(t, http.MethodPost, "/api/v1/register", token, `{"name":"Jane"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	status, body = srv.do(t, http.MethodPost, "/api/v1/products/writer/use", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(accountservice.TrialCredits-30), body["remainingCredits"])

	status, _ = srv.do(t, http.MethodPost, "/api/v1/products/legacy/use", token, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = srv.do(t, http.MethodGet, "/api/v1/creditusage", token, "")
	require.Equal(t, http.StatusOK, status)
	events, ok := body["data"].([]any)
	require.True(t, ok)
	assert.Len(t, events, 1)

	account, err := srv.store.GetAccountBySubject(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, int64(30), account.UsedCredits)
	assert.Equal(t, "jane@example.com", account.Email)
}

func TestRoutes_PublicCatalog(t *testing.T) {
	srv := newTestServer(t)

	status, _ := srv.do(t, http.MethodGet, "/api/v1/health", "", "")
	assert.Equal(t, http.StatusOK, status)

	status, body := srv.do(t, http.MethodGet, "/api/v1/plans", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	status, _ = srv.do(t, http.MethodGet, "/api/v1/products/writer", "", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = srv.do(t, http.MethodGet, "/api/v1/products/missing", "", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRoutes_DottedProductID(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodGet, "/api/v1/products/tool.v2", "", "")
	require.Equal(t, http.StatusOK, status)
	product, ok := body["product"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "tool.v2", product["productId"])

	token, err := srv.issuer.IssueToken("uid-dot", "")
	require.NoError(t, err)
	status, _ = srv.do(t, http.MethodPost, "/api/v1/register", token, `{"name":"Dot"}`)
	require.Equal(t, http.StatusCreated, status)

	status, body = srv.do(t, http.MethodPost, "/api/v1/products/tool.v2/use", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(accountservice.TrialCredits-5), body["remainingCredits"])
}

func TestRoutes_UseRequiresAccount(t *testing.T) {
	srv := newTestServer(t)
	token, err := srv.issuer.IssueToken("ghost", "")
	require.NoError(t, err)

	status, body := srv.do(t, http.MethodPost, "/api/v1/products/writer/use", token, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
}

func TestRoutes_Metrics(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}
