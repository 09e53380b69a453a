// Package subscription создаёт заказы PayPal и подтверждает оплаченные подписки.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/biteplans/internal/cache"
	"github.com/magabrotheeeer/biteplans/internal/lib/cas"
	"github.com/magabrotheeeer/biteplans/internal/lib/sl"
	"github.com/magabrotheeeer/biteplans/internal/metrics"
	"github.com/magabrotheeeer/biteplans/internal/models"
	"github.com/magabrotheeeer/biteplans/internal/paymentprovider"
)

// EntitlementPeriod: окно действия оплаченного плана. Не зависит от Plan.Period.
const EntitlementPeriod = 30 * 24 * time.Hour

const (
	defaultCurrency = "USD"
	lockPrefix      = "confirm:"
)

// Repository определяет методы хранилища, нужные для подписок.
type Repository interface {
	GetAccountBySubject(ctx context.Context, subjectUID string) (*models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error
	GetPlan(ctx context.Context, planID string) (*models.Plan, error)
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransactionByOrderID(ctx context.Context, orderID string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, accountID string) ([]*models.Transaction, error)
}

// Processor: платёжный процессор.
type Processor interface {
	CreateOrder(ctx context.Context, r paymentprovider.OrderRequest) (*paymentprovider.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*paymentprovider.Capture, error)
}

// Locker: короткие блокировки по ключу. Занятая блокировка: cache.ErrLockHeld.
type Locker interface {
	Lock(ctx context.Context, key, token string, ttl time.Duration) error
	Unlock(ctx context.Context, key, token string) error
}

// Publisher отправляет задачи досинхронизации.
type Publisher interface {
	Publish(ctx context.Context, task *models.RepairTask) error
}

// ConfirmResult: итог подтверждения подписки.
type ConfirmResult struct {
	CurrentPlan   models.CurrentPlan `json:"currentPlan"`
	TransactionID string             `json:"transactionId"`
}

// Service реализует оформление подписок.
type Service struct {
	repo      Repository
	processor Processor
	locker    Locker
	publisher Publisher
	lockTTL   time.Duration
	log       *slog.Logger
	now       func() time.Time
	attempts  int
}

// NewSubscriptionService создает новый экземпляр Service. locker может быть nil.
func NewSubscriptionService(repo Repository, processor Processor, locker Locker, publisher Publisher,
	lockTTL time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		processor: processor,
		locker:    locker,
		publisher: publisher,
		lockTTL:   lockTTL,
		log:       log,
		now:       time.Now,
		attempts:  cas.DefaultAttempts,
	}
}

// CreateOrder создаёт у процессора заказ на покупку плана. Локальное состояние не меняется.
func (s *Service) CreateOrder(ctx context.Context, subjectUID, planID string) (*paymentprovider.Order, error) {
	const op = "services.subscription.CreateOrder"
	log := s.log.With(slog.String("op", op), slog.String("subject", subjectUID), slog.String("plan_id", planID))

	if strings.TrimSpace(planID) == "" {
		return nil, fmt.Errorf("%s: %w: empty plan id", op, models.ErrInvalidInput)
	}
	if _, err := s.repo.GetAccountBySubject(ctx, subjectUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	plan, err := s.activePlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	start := time.Now()
	order, err := s.processor.CreateOrder(ctx, paymentprovider.OrderRequest{
		PlanID:      plan.PlanID,
		PlanName:    plan.PlanName,
		Amount:      plan.Price,
		Currency:    defaultCurrency,
		Description: fmt.Sprintf("BitePlans - %s Plan", plan.PlanName),
	})
	metrics.ProcessorLatency.WithLabelValues("create_order").Observe(time.Since(start).Seconds())
	if err != nil {
		log.Error("failed to create order", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("order created", slog.String("order_id", order.ID))
	return order, nil
}

// ConfirmSubscription захватывает оплату заказа и выдаёт план.
// Идентификатор заказа служит ключом идемпотентности: повторное подтверждение
// возвращает уже выданный план без повторного захвата.
func (s *Service) ConfirmSubscription(ctx context.Context, subjectUID, orderID, planID string) (*ConfirmResult, error) {
	const op = "services.subscription.ConfirmSubscription"
	log := s.log.With(slog.String("op", op), slog.String("subject", subjectUID),
		slog.String("order_id", orderID), slog.String("plan_id", planID))

	result, err := s.confirm(ctx, log, subjectUID, orderID, planID)
	if err != nil {
		metrics.Confirmations.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.Confirmations.WithLabelValues(metrics.ResultSuccess).Inc()
	return result, nil
}

func (s *Service) confirm(ctx context.Context, log *slog.Logger, subjectUID, orderID, planID string) (*ConfirmResult, error) {
	if strings.TrimSpace(orderID) == "" || strings.TrimSpace(planID) == "" {
		return nil, fmt.Errorf("%w: order id and plan id are required", models.ErrInvalidInput)
	}

	account, err := s.repo.GetAccountBySubject(ctx, subjectUID)
	if err != nil {
		return nil, err
	}
	plan, err := s.activePlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.confirmedPlan(ctx, account, orderID, plan.PlanID)
	if err != nil {
		return nil, err
	}
	if confirmed != nil {
		log.Info("order already confirmed")
		return &ConfirmResult{CurrentPlan: *confirmed, TransactionID: orderID}, nil
	}

	unlock, err := s.lock(ctx, log, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// параллельный запрос мог завершиться, пока мы ждали блокировку
	account, err = s.repo.GetAccountBySubject(ctx, subjectUID)
	if err != nil {
		return nil, err
	}
	if confirmed, err = s.confirmedPlan(ctx, account, orderID, plan.PlanID); err != nil {
		return nil, err
	}
	if confirmed != nil {
		return &ConfirmResult{CurrentPlan: *confirmed, TransactionID: orderID}, nil
	}

	start := time.Now()
	capture, err := s.processor.CaptureOrder(ctx, orderID)
	metrics.ProcessorLatency.WithLabelValues("capture_order").Observe(time.Since(start).Seconds())
	if err != nil {
		log.Error("capture failed", sl.Err(err))
		return nil, err
	}
	// заказ мог быть создан под другой план: выдаём только то, за что заплачено
	if !paidFor(capture, plan) {
		log.Error("captured amount does not match plan price",
			slog.Float64("captured", capture.Amount), slog.String("currency", capture.Currency),
			slog.Float64("price", plan.Price))
		return nil, fmt.Errorf("%w: captured %.2f %s, plan price %.2f %s",
			models.ErrCaptureFailed, capture.Amount, capture.Currency, plan.Price, defaultCurrency)
	}

	// оплата захвачена: дальнейшие записи не зависят от отмены запроса
	writeCtx := context.WithoutCancel(ctx)
	grantedAt := s.now().UTC()

	account, err = s.grant(writeCtx, account, plan, orderID, grantedAt)
	if err != nil {
		log.Error("failed to grant plan after capture", sl.Err(err))
		s.repair(writeCtx, log, &models.RepairTask{
			Kind: models.RepairGrant,
			Grant: &models.GrantRequest{
				SubjectUID: subjectUID,
				PlanID:     plan.PlanID,
				OrderID:    orderID,
				GrantedAt:  grantedAt,
			},
			Reason:    err.Error(),
			CreatedAt: grantedAt,
		})
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	tx := newTransaction(account, plan, orderID, grantedAt)
	if err := s.record(writeCtx, tx); err != nil {
		log.Error("failed to append transaction", sl.Err(err))
		s.repair(writeCtx, log, &models.RepairTask{
			Kind:        models.RepairTransaction,
			Transaction: tx,
			Reason:      err.Error(),
			CreatedAt:   grantedAt,
		})
	}

	log.Info("subscription confirmed", slog.Int64("credits", account.TotalCredits))
	return &ConfirmResult{CurrentPlan: account.CurrentPlan, TransactionID: orderID}, nil
}

// ApplyGrant повторно применяет выдачу плана из задачи досинхронизации
// и дописывает транзакцию. Повторный вызов ничего не меняет.
func (s *Service) ApplyGrant(ctx context.Context, req *models.GrantRequest) error {
	const op = "services.subscription.ApplyGrant"
	if req == nil || req.SubjectUID == "" || req.OrderID == "" || req.PlanID == "" {
		return fmt.Errorf("%s: %w: incomplete grant", op, models.ErrInvalidInput)
	}

	account, err := s.repo.GetAccountBySubject(ctx, req.SubjectUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	// план мог быть отключён после оплаты, выдаём всё равно
	plan, err := s.repo.GetPlan(ctx, req.PlanID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	grantedAt := req.GrantedAt
	if grantedAt.IsZero() {
		grantedAt = s.now().UTC()
	}
	account, err = s.grant(ctx, account, plan, req.OrderID, grantedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.record(ctx, newTransaction(account, plan, req.OrderID, grantedAt)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListTransactions возвращает транзакции субъекта, новые первыми.
func (s *Service) ListTransactions(ctx context.Context, subjectUID string) ([]*models.Transaction, error) {
	const op = "services.subscription.ListTransactions"
	account, err := s.repo.GetAccountBySubject(ctx, subjectUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	txs, err := s.repo.ListTransactions(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return txs, nil
}

// GetTransaction возвращает транзакцию по заказу. Чужая транзакция не видна.
func (s *Service) GetTransaction(ctx context.Context, subjectUID, orderID string) (*models.Transaction, error) {
	const op = "services.subscription.GetTransaction"
	account, err := s.repo.GetAccountBySubject(ctx, subjectUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tx, err := s.repo.GetTransactionByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if tx.AccountID != account.ID {
		return nil, fmt.Errorf("%s: %w", op, models.ErrTransactionNotFound)
	}
	return tx, nil
}

func (s *Service) activePlan(ctx context.Context, planID string) (*models.Plan, error) {
	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, models.ErrPlanInactive
	}
	return plan, nil
}

// confirmedPlan возвращает план, выданный по заказу, или nil, если заказ ещё не применён.
// Для заказа, уже вытесненного более новым планом, план восстанавливается из его транзакции.
// Заказ другого аккаунта считается ошибкой ввода.
func (s *Service) confirmedPlan(ctx context.Context, account *models.Account, orderID, planID string) (*models.CurrentPlan, error) {
	if account.CurrentPlan.OrderID == orderID {
		current := account.CurrentPlan
		return &current, nil
	}
	tx, err := s.repo.GetTransactionByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, models.ErrTransactionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if tx.AccountID != account.ID {
		return nil, fmt.Errorf("%w: order belongs to another account", models.ErrInvalidInput)
	}
	// транзакции до появления plan_id не знают план
	if tx.PlanID != "" {
		planID = tx.PlanID
	}
	return &models.CurrentPlan{
		PlanID:    planID,
		Status:    models.PlanStatusActive,
		StartDate: tx.CreatedAt,
		EndDate:   tx.CreatedAt.Add(EntitlementPeriod),
		OrderID:   tx.OrderID,
	}, nil
}

// lock берёт блокировку заказа. Недоступный Redis не останавливает подтверждение.
func (s *Service) lock(ctx context.Context, log *slog.Logger, orderID string) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}
	key := lockPrefix + orderID
	token := uuid.NewString()

	err := s.locker.Lock(ctx, key, token, s.lockTTL)
	switch {
	case err == nil:
		return func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
				log.Warn("failed to release confirm lock", sl.Err(err))
			}
		}, nil
	case errors.Is(err, cache.ErrLockHeld):
		return nil, models.ErrConfirmInProgress
	default:
		log.Warn("confirm lock unavailable, continuing without it", sl.Err(err))
		return noop, nil
	}
}

func (s *Service) grant(ctx context.Context, account *models.Account, plan *models.Plan, orderID string, at time.Time) (*models.Account, error) {
	return cas.Update(ctx, s.repo, account, s.attempts, "grant_plan", func(a *models.Account) error {
		if a.CurrentPlan.OrderID == orderID {
			return cas.ErrSkip
		}
		a.Grant(plan, orderID, at, EntitlementPeriod)
		return nil
	})
}

// record пишет транзакцию. Дубликат заказа означает, что она уже записана.
func (s *Service) record(ctx context.Context, tx *models.Transaction) error {
	err := s.repo.CreateTransaction(ctx, tx)
	if err != nil && !errors.Is(err, models.ErrTransactionExists) {
		return err
	}
	return nil
}

func (s *Service) repair(ctx context.Context, log *slog.Logger, task *models.RepairTask) {
	kind := string(task.Kind)
	if err := s.publisher.Publish(ctx, task); err != nil {
		metrics.RepairTasks.WithLabelValues(kind, "publish_failed").Inc()
		log.Error("failed to publish repair task", slog.String("kind", kind), sl.Err(err))
		return
	}
	metrics.RepairTasks.WithLabelValues(kind, "published").Inc()
}

// paidFor сравнивает захваченную сумму с ценой плана в центах.
func paidFor(capture *paymentprovider.Capture, plan *models.Plan) bool {
	if !strings.EqualFold(capture.Currency, defaultCurrency) {
		return false
	}
	return math.Round(capture.Amount*100) == math.Round(plan.Price*100)
}

func newTransaction(account *models.Account, plan *models.Plan, orderID string, at time.Time) *models.Transaction {
	return &models.Transaction{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		OrderID:   orderID,
		PlanID:    plan.PlanID,
		PlanName:  plan.PlanName,
		Credits:   plan.CreditsPerMonth,
		Amount:    plan.Price,
		Status:    models.StatusSuccess,
		CreatedAt: at,
	}
}
