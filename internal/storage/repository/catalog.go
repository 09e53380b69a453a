package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/biteplans/internal/models"
)

const planColumns = `plan_id, plan_name, price, period, credits_per_month, paypal_plan_id,
	features, is_active, created_at, updated_at`

const productColumns = `product_id, name, description, features, thumbnail, about, benefits,
	credit_cost, is_active, created_at, updated_at`

// ListPlans возвращает планы, упорядоченные по цене.
func (s *Storage) ListPlans(ctx context.Context, activeOnly bool) ([]*models.Plan, error) {
	const op = "storage.ListPlans"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + planColumns + ` FROM plans
			  WHERE ($1 = false OR is_active = true)
			  ORDER BY price ASC, plan_id ASC`
	rows, err := s.DB.QueryContext(ctx, query, activeOnly)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// GetPlan возвращает план по идентификатору, в том числе неактивный.
func (s *Storage) GetPlan(ctx context.Context, planID string) (*models.Plan, error) {
	const op = "storage.GetPlan"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + planColumns + ` FROM plans WHERE plan_id = $1`
	p, err := scanPlan(s.DB.QueryRowContext(ctx, query, planID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrPlanNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// ListProducts возвращает продукты, упорядоченные по имени.
func (s *Storage) ListProducts(ctx context.Context, activeOnly bool) ([]*models.Product, error) {
	const op = "storage.ListProducts"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + productColumns + ` FROM products
			  WHERE ($1 = false OR is_active = true)
			  ORDER BY name ASC`
	rows, err := s.DB.QueryContext(ctx, query, activeOnly)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// GetProduct возвращает продукт по идентификатору, в том числе неактивный.
func (s *Storage) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	const op = "storage.GetProduct"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE product_id = $1`
	p, err := scanProduct(s.DB.QueryRowContext(ctx, query, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrProductNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return p, nil
}

func scanPlan(row rowScanner) (*models.Plan, error) {
	p := &models.Plan{}
	var features []byte
	if err := row.Scan(&p.PlanID, &p.PlanName, &p.Price, &p.Period, &p.CreditsPerMonth,
		&p.PayPalPlanID, &features, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(features, &p.Features); err != nil {
		return nil, err
	}
	return p, nil
}

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	var features, benefits []byte
	if err := row.Scan(&p.ProductID, &p.Name, &p.Description, &features, &p.Thumbnail,
		&p.About, &benefits, &p.CreditCost, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(features, &p.Features); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(benefits, &p.Benefits); err != nil {
		return nil, err
	}
	return p, nil
}
