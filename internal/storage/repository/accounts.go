package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/biteplans/internal/models"
)

const accountColumns = `id, subject_uid, email, display_name, profile_image,
	total_credits, used_credits, trial_start_date, trial_end_date, is_trial_active,
	plan_id, plan_status, plan_start_date, plan_end_date, plan_order_id,
	version, created_at`

// CreateAccount сохраняет новый аккаунт. Повтор subject_uid даёт models.ErrAccountExists.
func (s *Storage) CreateAccount(ctx context.Context, a *models.Account) error {
	const op = "storage.CreateAccount"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO accounts (` + accountColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	if a.Version == 0 {
		a.Version = 1
	}
	_, err := s.DB.ExecContext(ctx, query,
		a.ID, a.SubjectUID, a.Email, a.DisplayName, a.ProfileImage,
		a.TotalCredits, a.UsedCredits, a.TrialStartDate, a.TrialEndDate, a.IsTrialActive,
		a.CurrentPlan.PlanID, a.CurrentPlan.Status, a.CurrentPlan.StartDate, a.CurrentPlan.EndDate,
		a.CurrentPlan.OrderID, a.Version, a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, models.ErrAccountExists)
		}
		return wrapErr(op, err)
	}
	return nil
}

// GetAccountBySubject возвращает аккаунт по идентификатору субъекта провайдера.
func (s *Storage) GetAccountBySubject(ctx context.Context, subjectUID string) (*models.Account, error) {
	const op = "storage.GetAccountBySubject"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE subject_uid = $1`
	a, err := scanAccount(s.DB.QueryRowContext(ctx, query, subjectUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return a, nil
}

// UpdateAccount записывает изменяемые поля аккаунта, если версия в базе
// совпадает с a.Version. При успехе a.Version увеличивается.
func (s *Storage) UpdateAccount(ctx context.Context, a *models.Account) error {
	const op = "storage.UpdateAccount"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE accounts
			  SET display_name = $1, profile_image = $2,
			      total_credits = $3, used_credits = $4, is_trial_active = $5,
			      plan_id = $6, plan_status = $7, plan_start_date = $8, plan_end_date = $9,
			      plan_order_id = $10, version = version + 1
			  WHERE id = $11 AND version = $12`
	res, err := s.DB.ExecContext(ctx, query,
		a.DisplayName, a.ProfileImage,
		a.TotalCredits, a.UsedCredits, a.IsTrialActive,
		a.CurrentPlan.PlanID, a.CurrentPlan.Status, a.CurrentPlan.StartDate, a.CurrentPlan.EndDate,
		a.CurrentPlan.OrderID, a.ID, a.Version)
	if err != nil {
		return wrapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(op, err)
	}
	if n == 0 {
		var exists bool
		if err := s.DB.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, a.ID).Scan(&exists); err != nil {
			return wrapErr(op, err)
		}
		if !exists {
			return fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
		}
		return fmt.Errorf("%s: %w", op, models.ErrVersionConflict)
	}
	a.Version++
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(&a.ID, &a.SubjectUID, &a.Email, &a.DisplayName, &a.ProfileImage,
		&a.TotalCredits, &a.UsedCredits, &a.TrialStartDate, &a.TrialEndDate, &a.IsTrialActive,
		&a.CurrentPlan.PlanID, &a.CurrentPlan.Status, &a.CurrentPlan.StartDate, &a.CurrentPlan.EndDate,
		&a.CurrentPlan.OrderID, &a.Version, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}
