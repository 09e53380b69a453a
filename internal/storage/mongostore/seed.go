package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/magabrotheeeer/biteplans/internal/models"
)

// Начальный каталог совпадает с миграцией migrations/2_seed_catalog.up.sql.
func defaultPlans(now time.Time) []*models.Plan {
	return []*models.Plan{
		{
			PlanID: "basic", PlanName: "Basic", Price: 9.99, Period: "monthly", CreditsPerMonth: 500,
			PayPalPlanID: "P-BASIC-MONTHLY", IsActive: true, CreatedAt: now, UpdatedAt: now,
			Features: []string{"500 credits per month", "Access to all tools", "Email support"},
		},
		{
			PlanID: "pro", PlanName: "Pro", Price: 19.99, Period: "monthly", CreditsPerMonth: 2000,
			PayPalPlanID: "P-PRO-MONTHLY", IsActive: true, CreatedAt: now, UpdatedAt: now,
			Features: []string{"2000 credits per month", "Access to all tools", "Priority support"},
		},
		{
			PlanID: "enterprise", PlanName: "Enterprise", Price: 49.99, Period: "monthly",
			CreditsPerMonth: models.UnlimitedCredits, PayPalPlanID: "P-ENTERPRISE-MONTHLY",
			IsActive: true, CreatedAt: now, UpdatedAt: now,
			Features: []string{"Unlimited credits", "Access to all tools", "Dedicated support"},
		},
	}
}

func defaultProducts(now time.Time) []*models.Product {
	return []*models.Product{
		{
			ProductID: "code-review", Name: "Code Review Assistant",
			Description: "Automated review comments for pull requests",
			Features:    []string{"Inline suggestions", "Style checks"},
			Thumbnail:   "/images/code-review.png", About: "Reviews diffs and points out risky changes.",
			Benefits:   []string{"Faster reviews", "Consistent style"},
			CreditCost: 5, IsActive: true, CreatedAt: now, UpdatedAt: now,
		},
		{
			ProductID: "api-tester", Name: "API Tester",
			Description: "Run request collections against any HTTP API",
			Features:    []string{"Collections", "Assertions"},
			Thumbnail:   "/images/api-tester.png", About: "Sends requests and checks responses.",
			Benefits:   []string{"Catch regressions early"},
			CreditCost: 3, IsActive: true, CreatedAt: now, UpdatedAt: now,
		},
		{
			ProductID: "regex-builder", Name: "Regex Builder",
			Description: "Build and test regular expressions",
			Features:    []string{"Live matching", "Cheat sheet"},
			Thumbnail:   "/images/regex-builder.png", About: "Interactive regular expression editor.",
			Benefits:   []string{"Fewer broken patterns"},
			CreditCost: 1, IsActive: true, CreatedAt: now, UpdatedAt: now,
		},
	}
}

// seedCatalog заполняет каталог, только если коллекция планов пуста.
func (s *Store) seedCatalog(ctx context.Context) error {
	n, err := s.db.Collection(colPlans).CountDocuments(ctx, bson.M{})
	if err != nil || n > 0 {
		return err
	}
	now := time.Now().UTC()
	for _, p := range defaultPlans(now) {
		if err := s.UpsertPlan(ctx, p); err != nil {
			return err
		}
	}
	for _, p := range defaultProducts(now) {
		if err := s.UpsertProduct(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
