// Package reconcile повторяет вторичные записи, которые не удались после основной операции.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/biteplans/internal/lib/sl"
	"github.com/magabrotheeeer/biteplans/internal/metrics"
	"github.com/magabrotheeeer/biteplans/internal/models"
)

// Ledger: журналы, в которые дописываются пропущенные записи.
type Ledger interface {
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	CreateUsageEvent(ctx context.Context, event *models.UsageEvent) error
}

// Granter повторно выдаёт оплаченный план.
type Granter interface {
	ApplyGrant(ctx context.Context, req *models.GrantRequest) error
}

// Handler разбирает RepairTask и применяет её. Повторное применение безопасно.
type Handler struct {
	ledger  Ledger
	granter Granter
	log     *slog.Logger
}

func NewHandler(ledger Ledger, granter Granter, log *slog.Logger) *Handler {
	return &Handler{ledger: ledger, granter: granter, log: log}
}

// Handle обрабатывает тело сообщения из очереди. Возвращённая ошибка означает,
// что сообщение надо вернуть в очередь. Нераспознаваемые сообщения отбрасываются.
// Задача, ссылающаяся на отсутствующий аккаунт или план, возвращается с
// models.ErrUnrecoverable и попадает в очередь мёртвых писем.
func (h *Handler) Handle(ctx context.Context, body []byte) error {
	const op = "services.reconcile.Handle"
	log := h.log.With(slog.String("op", op))

	var task models.RepairTask
	if err := json.Unmarshal(body, &task); err != nil {
		log.Error("dropping malformed repair task", sl.Err(err))
		return nil
	}
	kind := string(task.Kind)
	log = log.With(slog.String("kind", kind))

	err := h.apply(ctx, &task)
	switch {
	case err == nil:
		metrics.RepairTasks.WithLabelValues(kind, "applied").Inc()
		log.Info("repair task applied")
		return nil
	case errors.Is(err, models.ErrInvalidInput):
		metrics.RepairTasks.WithLabelValues(kind, "dropped").Inc()
		log.Error("dropping invalid repair task", sl.Err(err))
		return nil
	case models.IsNotFound(err):
		metrics.RepairTasks.WithLabelValues(kind, "dead_letter").Inc()
		log.Error("repair task references missing entity, dead-lettering", sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, models.ErrUnrecoverable, err)
	default:
		metrics.RepairTasks.WithLabelValues(kind, "retry").Inc()
		log.Warn("repair task failed, will retry", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (h *Handler) apply(ctx context.Context, task *models.RepairTask) error {
	switch task.Kind {
	case models.RepairTransaction:
		if task.Transaction == nil {
			return fmt.Errorf("%w: transaction payload is missing", models.ErrInvalidInput)
		}
		err := h.ledger.CreateTransaction(ctx, task.Transaction)
		if errors.Is(err, models.ErrTransactionExists) {
			return nil
		}
		return err
	case models.RepairUsage:
		if task.Usage == nil {
			return fmt.Errorf("%w: usage payload is missing", models.ErrInvalidInput)
		}
		err := h.ledger.CreateUsageEvent(ctx, task.Usage)
		if errors.Is(err, models.ErrUsageEventExists) {
			return nil
		}
		return err
	case models.RepairGrant:
		if task.Grant == nil {
			return fmt.Errorf("%w: grant payload is missing", models.ErrInvalidInput)
		}
		return h.granter.ApplyGrant(ctx, task.Grant)
	default:
		return fmt.Errorf("%w: unknown kind %q", models.ErrInvalidInput, task.Kind)
	}
}

// LogPublisher пишет задачи в лог, когда брокер не настроен.
type LogPublisher struct {
	log *slog.Logger
}

func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, task *models.RepairTask) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("reconcile.LogPublisher.Publish: %w", err)
	}
	p.log.Error("repair task requires manual reconciliation",
		slog.String("kind", string(task.Kind)),
		slog.String("task", string(body)))
	return nil
}
