// Package account реализует регистрацию, профиль и политику истечения пробного периода.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/biteplans/internal/lib/cas"
	"github.com/magabrotheeeer/biteplans/internal/lib/sl"
	"github.com/magabrotheeeer/biteplans/internal/models"
)

const (
	// TrialCredits: баланс нового аккаунта.
	TrialCredits int64 = 100
	// TrialPeriod: длительность пробного периода.
	TrialPeriod = 7 * 24 * time.Hour
)

// Repository определяет методы хранилища аккаунтов.
type Repository interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountBySubject(ctx context.Context, subjectUID string) (*models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error
}

// Service управляет аккаунтами.
type Service struct {
	repo     Repository
	log      *slog.Logger
	now      func() time.Time
	attempts int
}

// NewAccountService создает новый экземпляр Service.
func NewAccountService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		log:      log,
		now:      time.Now,
		attempts: cas.DefaultAttempts,
	}
}

// Register создает аккаунт с пробным периодом. created=false означает, что аккаунт уже был,
// в том числе если его создал параллельный запрос.
func (s *Service) Register(ctx context.Context, subjectUID, email, name string) (bool, error) {
	const op = "services.account.Register"
	log := s.log.With(slog.String("op", op), slog.String("subject", subjectUID))

	if strings.TrimSpace(subjectUID) == "" {
		return false, fmt.Errorf("%s: %w: empty subject", op, models.ErrInvalidInput)
	}

	_, err := s.repo.GetAccountBySubject(ctx, subjectUID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, models.ErrAccountNotFound) {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	trialEnd := now.Add(TrialPeriod)
	account := &models.Account{
		ID:             uuid.NewString(),
		SubjectUID:     subjectUID,
		Email:          email,
		DisplayName:    name,
		TotalCredits:   TrialCredits,
		TrialStartDate: now,
		TrialEndDate:   trialEnd,
		IsTrialActive:  true,
		CurrentPlan: models.CurrentPlan{
			PlanID:    models.TrialPlanID,
			Status:    models.PlanStatusActive,
			StartDate: now,
			EndDate:   trialEnd,
		},
		CreatedAt: now,
	}

	if err := s.repo.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, models.ErrAccountExists) {
			log.Info("account created concurrently")
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("account registered", slog.String("account_id", account.ID))
	return true, nil
}

// Profile возвращает аккаунт субъекта.
func (s *Service) Profile(ctx context.Context, subjectUID string) (*models.Account, error) {
	const op = "services.account.Profile"
	account, err := s.repo.GetAccountBySubject(ctx, subjectUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return account, nil
}

// UpdateProfile меняет имя и ссылку на изображение профиля. Пустые поля не меняются.
func (s *Service) UpdateProfile(ctx context.Context, subjectUID, name, profileImage string) (*models.Account, error) {
	const op = "services.account.UpdateProfile"

	account, err := s.repo.GetAccountBySubject(ctx, subjectUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := cas.Update(ctx, s.repo, account, s.attempts, "update_profile", func(a *models.Account) error {
		if name == "" && profileImage == "" {
			return cas.ErrSkip
		}
		if name != "" {
			a.DisplayName = name
		}
		if profileImage != "" {
			a.ProfileImage = profileImage
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// ExpireTrial снимает флаг пробного периода, если его срок истёк.
// Ошибка записи только логируется: проверка никогда не блокирует запрос,
// а баланс аккаунта не меняется. Ошибка возвращается только при чтении аккаунта.
func (s *Service) ExpireTrial(ctx context.Context, subjectUID string) (*models.Account, error) {
	const op = "services.account.ExpireTrial"
	log := s.log.With(slog.String("op", op), slog.String("subject", subjectUID))

	account, err := s.repo.GetAccountBySubject(ctx, subjectUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	if !account.TrialExpired(now) {
		return account, nil
	}

	snapshot := *account
	updated, err := cas.Update(ctx, s.repo, account, s.attempts, "expire_trial", func(a *models.Account) error {
		if !a.TrialExpired(now) {
			return cas.ErrSkip
		}
		a.IsTrialActive = false
		return nil
	})
	if err != nil {
		log.Warn("failed to expire trial", sl.Err(err))
		return &snapshot, nil
	}
	log.Info("trial expired", slog.Time("trial_end", updated.TrialEndDate))
	return updated, nil
}
