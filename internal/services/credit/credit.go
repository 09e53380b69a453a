// Package credit списывает кредиты за использование продуктов и ведёт журнал использования.
package credit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/biteplans/internal/lib/cas"
	"github.com/magabrotheeeer/biteplans/internal/lib/sl"
	"github.com/magabrotheeeer/biteplans/internal/metrics"
	"github.com/magabrotheeeer/biteplans/internal/models"
)

// Repository определяет методы хранилища, нужные для списания.
type Repository interface {
	GetAccountBySubject(ctx context.Context, subjectUID string) (*models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	CreateUsageEvent(ctx context.Context, event *models.UsageEvent) error
	ListUsageEvents(ctx context.Context, accountID string) ([]*models.UsageEvent, error)
}

// Publisher отправляет задачи досинхронизации.
type Publisher interface {
	Publish(ctx context.Context, task *models.RepairTask) error
}

// UseResult: итог списания.
type UseResult struct {
	Product          *models.Product
	Event            *models.UsageEvent
	RemainingCredits int64
}

// Service списывает кредиты.
type Service struct {
	repo      Repository
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
	attempts  int
}

// NewCreditService создает новый экземпляр Service.
func NewCreditService(repo Repository, publisher Publisher, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       log,
		now:       time.Now,
		attempts:  cas.DefaultAttempts,
	}
}

// UseProduct списывает стоимость продукта с баланса субъекта и пишет событие использования.
// Баланс никогда не уходит в минус: проверка и запись выполняются в одном цикле
// compare-and-swap. Если событие не удалось записать, списание остаётся в силе,
// а событие уходит в очередь досинхронизации.
func (s *Service) UseProduct(ctx context.Context, subjectUID, productID string) (*UseResult, error) {
	const op = "services.credit.UseProduct"
	log := s.log.With(slog.String("op", op), slog.String("subject", subjectUID), slog.String("product_id", productID))

	result, err := s.debit(ctx, subjectUID, productID)
	if err != nil {
		metrics.ProductUses.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.ProductUses.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.CreditsDebited.WithLabelValues(productID).Add(float64(result.Product.CreditCost))

	// списание уже записано, отмена запроса не должна потерять событие
	writeCtx := context.WithoutCancel(ctx)
	if err := s.repo.CreateUsageEvent(writeCtx, result.Event); err != nil && !errors.Is(err, models.ErrUsageEventExists) {
		log.Error("failed to append usage event", slog.String("event_id", result.Event.ID), sl.Err(err))
		s.repair(writeCtx, log, &models.RepairTask{
			Kind:      models.RepairUsage,
			Usage:     result.Event,
			Reason:    err.Error(),
			CreatedAt: s.now().UTC(),
		})
	}

	log.Info("product used",
		slog.Int64("cost", result.Product.CreditCost),
		slog.Int64("remaining", result.RemainingCredits))
	return result, nil
}

func (s *Service) debit(ctx context.Context, subjectUID, productID string) (*UseResult, error) {
	account, err := s.repo.GetAccountBySubject(ctx, subjectUID)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, models.ErrProductInactive
	}

	account, err = cas.Update(ctx, s.repo, account, s.attempts, "use_product", func(a *models.Account) error {
		if !a.CanAfford(product.CreditCost) {
			return models.ErrInsufficientCredits
		}
		a.Debit(product.CreditCost)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &UseResult{
		Product: product,
		Event: &models.UsageEvent{
			ID:          uuid.NewString(),
			AccountID:   account.ID,
			ProductID:   product.ProductID,
			ProductName: product.Name,
			CreditsUsed: product.CreditCost,
			Status:      models.StatusSuccess,
			Timestamp:   s.now().UTC(),
		},
		RemainingCredits: account.TotalCredits,
	}, nil
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

// ListUsage возвращает события использования субъекта, новые первыми.
func (s *Service) ListUsage(ctx context.Context, subjectUID string) ([]*models.UsageEvent, error) {
	const op = "services.credit.ListUsage"
	account, err := s.repo.GetAccountBySubject(ctx, subjectUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	events, err := s.repo.ListUsageEvents(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}
