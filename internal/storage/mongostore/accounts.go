package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/magabrotheeeer/biteplans/internal/models"
)

func (s *Store) CreateAccount(ctx context.Context, a *models.Account) error {
	const op = "mongostore.CreateAccount"
	if a.Version == 0 {
		a.Version = 1
	}
	_, err := s.db.Collection(colAccounts).InsertOne(ctx, toAccountModel(a))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, models.ErrAccountExists)
		}
		return wrapErr(op, err)
	}
	return nil
}

func (s *Store) GetAccountBySubject(ctx context.Context, subjectUID string) (*models.Account, error) {
	const op = "mongostore.GetAccountBySubject"
	var m accountModel
	err := s.db.Collection(colAccounts).
		FindOne(ctx, bson.M{"subject_uid": subjectUID}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return fromAccountModel(&m), nil
}

// UpdateAccount применяет изменения только к документу с той же версией.
func (s *Store) UpdateAccount(ctx context.Context, a *models.Account) error {
	const op = "mongostore.UpdateAccount"
	m := toAccountModel(a)
	update := bson.M{
		"$set": bson.M{
			"display_name":    m.DisplayName,
			"profile_image":   m.ProfileImage,
			"total_credits":   m.TotalCredits,
			"used_credits":    m.UsedCredits,
			"is_trial_active": m.IsTrialActive,
			"current_plan":    m.CurrentPlan,
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := s.db.Collection(colAccounts).
		UpdateOne(ctx, bson.M{"_id": a.ID, "version": a.Version}, update)
	if err != nil {
		return wrapErr(op, err)
	}
	if res.MatchedCount == 0 {
		n, err := s.db.Collection(colAccounts).CountDocuments(ctx, bson.M{"_id": a.ID})
		if err != nil {
			return wrapErr(op, err)
		}
		if n == 0 {
			return fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
		}
		return fmt.Errorf("%s: %w", op, models.ErrVersionConflict)
	}
	a.Version++
	return nil
}
