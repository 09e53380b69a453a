package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/magabrotheeeer/biteplans/internal/models"
)

func activeFilter(activeOnly bool) bson.M {
	if activeOnly {
		return bson.M{"is_active": true}
	}
	return bson.M{}
}

func (s *Store) ListPlans(ctx context.Context, activeOnly bool) ([]*models.Plan, error) {
	const op = "mongostore.ListPlans"
	opts := options.Find().SetSort(bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.db.Collection(colPlans).Find(ctx, activeFilter(activeOnly), opts)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	var ms []planModel
	if err := cur.All(ctx, &ms); err != nil {
		return nil, wrapErr(op, err)
	}

	result := make([]*models.Plan, len(ms))
	for i := range ms {
		result[i] = fromPlanModel(&ms[i])
	}
	return result, nil
}

func (s *Store) GetPlan(ctx context.Context, planID string) (*models.Plan, error) {
	const op = "mongostore.GetPlan"
	var m planModel
	if err := s.db.Collection(colPlans).FindOne(ctx, bson.M{"_id": planID}).Decode(&m); err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrPlanNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return fromPlanModel(&m), nil
}

func (s *Store) ListProducts(ctx context.Context, activeOnly bool) ([]*models.Product, error) {
	const op = "mongostore.ListProducts"
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := s.db.Collection(colProducts).Find(ctx, activeFilter(activeOnly), opts)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	var ms []productModel
	if err := cur.All(ctx, &ms); err != nil {
		return nil, wrapErr(op, err)
	}

	result := make([]*models.Product, len(ms))
	for i := range ms {
		result[i] = fromProductModel(&ms[i])
	}
	return result, nil
}

func (s *Store) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	const op = "mongostore.GetProduct"
	var m productModel
	if err := s.db.Collection(colProducts).FindOne(ctx, bson.M{"_id": productID}).Decode(&m); err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrProductNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return fromProductModel(&m), nil
}

// UpsertPlan записывает план целиком. Используется при заполнении каталога.
func (s *Store) UpsertPlan(ctx context.Context, p *models.Plan) error {
	const op = "mongostore.UpsertPlan"
	_, err := s.db.Collection(colPlans).ReplaceOne(ctx, bson.M{"_id": p.PlanID}, toPlanModel(p),
		options.Replace().SetUpsert(true))
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// UpsertProduct записывает продукт целиком.
func (s *Store) UpsertProduct(ctx context.Context, p *models.Product) error {
	const op = "mongostore.UpsertProduct"
	_, err := s.db.Collection(colProducts).ReplaceOne(ctx, bson.M{"_id": p.ProductID}, toProductModel(p),
		options.Replace().SetUpsert(true))
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}
