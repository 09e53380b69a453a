// Package catalog отдаёт планы и продукты с кешированием в Redis.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/biteplans/internal/lib/sl"
	"github.com/magabrotheeeer/biteplans/internal/models"
)

// Ключи кеша каталога.
const (
	PlansKey         = "catalog:plans"
	ProductsKey      = "catalog:products"
	productKeyPrefix = "catalog:product:"
)

// ProductKey возвращает ключ кеша продукта.
func ProductKey(productID string) string {
	return productKeyPrefix + productID
}

// Repository определяет методы чтения каталога.
type Repository interface {
	ListPlans(ctx context.Context, activeOnly bool) ([]*models.Plan, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]*models.Product, error)
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// PlanView: план в формате страницы тарифов.
// Credits: число кредитов или строка "Unlimited".
type PlanView struct {
	Name         string   `json:"name"`
	PlanID       string   `json:"planId"`
	Price        float64  `json:"price"`
	Period       string   `json:"period"`
	Credits      any      `json:"credits" swaggertype:"string"`
	Features     []string `json:"features"`
	ButtonText   string   `json:"buttonText"`
	PayPalPlanID string   `json:"paypalPlanId"`
}

// Service реализует чтение каталога через кеш.
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewCatalogService создает новый экземпляр Service.
func NewCatalogService(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

// FormatPlan приводит план к формату страницы тарифов.
func FormatPlan(p *models.Plan) PlanView {
	v := PlanView{
		Name:         p.PlanName,
		PlanID:       p.PlanID,
		Price:        p.Price,
		Period:       p.Period,
		Credits:      p.CreditsPerMonth,
		Features:     p.Features,
		ButtonText:   "Choose " + p.PlanName,
		PayPalPlanID: p.PayPalPlanID,
	}
	if v.Features == nil {
		v.Features = []string{}
	}
	if p.Unlimited() {
		v.Credits = "Unlimited"
		v.ButtonText = "Choose Enterprise"
	}
	return v
}

// ListPlans возвращает активные планы. Пустой список не является ошибкой.
func (s *Service) ListPlans(ctx context.Context) ([]PlanView, error) {
	const op = "services.catalog.ListPlans"

	var plans []*models.Plan
	if !s.fromCache(ctx, op, PlansKey, &plans) {
		var err error
		plans, err = s.repo.ListPlans(ctx, true)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.toCache(ctx, op, PlansKey, plans)
	}

	views := make([]PlanView, 0, len(plans))
	for _, p := range plans {
		views = append(views, FormatPlan(p))
	}
	return views, nil
}

// ListProducts возвращает активные продукты.
func (s *Service) ListProducts(ctx context.Context) ([]*models.Product, error) {
	const op = "services.catalog.ListProducts"

	var products []*models.Product
	if s.fromCache(ctx, op, ProductsKey, &products) {
		return products, nil
	}
	products, err := s.repo.ListProducts(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.toCache(ctx, op, ProductsKey, products)
	return products, nil
}

// GetProduct возвращает продукт по идентификатору, включая неактивные.
func (s *Service) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	const op = "services.catalog.GetProduct"

	var product models.Product
	key := ProductKey(productID)
	if s.fromCache(ctx, op, key, &product) {
		return &product, nil
	}
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.toCache(ctx, op, key, p)
	return p, nil
}

func (s *Service) fromCache(ctx context.Context, op, key string, result any) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, result)
	if err != nil {
		s.log.Warn("cache read failed", slog.String("op", op), slog.String("key", key), sl.Err(err))
		return false
	}
	return found
}

func (s *Service) toCache(ctx context.Context, op, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.log.Warn("cache write failed", slog.String("op", op), slog.String("key", key), sl.Err(err))
	}
}
