package mongostore

import (
	"time"

	"github.com/magabrotheeeer/biteplans/internal/models"
)

type currentPlanModel struct {
	PlanID    string    `bson:"plan_id"`
	Status    string    `bson:"status"`
	StartDate time.Time `bson:"start_date"`
	EndDate   time.Time `bson:"end_date"`
	OrderID   string    `bson:"order_id,omitempty"`
}

type accountModel struct {
	ID             string           `bson:"_id"`
	SubjectUID     string           `bson:"subject_uid"`
	Email          string           `bson:"email"`
	DisplayName    string           `bson:"display_name"`
	ProfileImage   string           `bson:"profile_image,omitempty"`
	TotalCredits   int64            `bson:"total_credits"`
	UsedCredits    int64            `bson:"used_credits"`
	TrialStartDate time.Time        `bson:"trial_start_date"`
	TrialEndDate   time.Time        `bson:"trial_end_date"`
	IsTrialActive  bool             `bson:"is_trial_active"`
	CurrentPlan    currentPlanModel `bson:"current_plan"`
	Version        int64            `bson:"version"`
	CreatedAt      time.Time        `bson:"created_at"`
}

func toAccountModel(a *models.Account) *accountModel {
	return &accountModel{
		ID:             a.ID,
		SubjectUID:     a.SubjectUID,
		Email:          a.Email,
		DisplayName:    a.DisplayName,
		ProfileImage:   a.ProfileImage,
		TotalCredits:   a.TotalCredits,
		UsedCredits:    a.UsedCredits,
		TrialStartDate: a.TrialStartDate,
		TrialEndDate:   a.TrialEndDate,
		IsTrialActive:  a.IsTrialActive,
		CurrentPlan:    currentPlanModel(a.CurrentPlan),
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
	}
}

func fromAccountModel(m *accountModel) *models.Account {
	return &models.Account{
		ID:             m.ID,
		SubjectUID:     m.SubjectUID,
		Email:          m.Email,
		DisplayName:    m.DisplayName,
		ProfileImage:   m.ProfileImage,
		TotalCredits:   m.TotalCredits,
		UsedCredits:    m.UsedCredits,
		TrialStartDate: m.TrialStartDate,
		TrialEndDate:   m.TrialEndDate,
		IsTrialActive:  m.IsTrialActive,
		CurrentPlan:    models.CurrentPlan(m.CurrentPlan),
		Version:        m.Version,
		CreatedAt:      m.CreatedAt,
	}
}

type planModel struct {
	PlanID          string    `bson:"_id"`
	PlanName        string    `bson:"plan_name"`
	Price           float64   `bson:"price"`
	Period          string    `bson:"period"`
	CreditsPerMonth int64     `bson:"credits_per_month"`
	PayPalPlanID    string    `bson:"paypal_plan_id"`
	Features        []string  `bson:"features"`
	IsActive        bool      `bson:"is_active"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

func toPlanModel(p *models.Plan) *planModel {
	return &planModel{
		PlanID:          p.PlanID,
		PlanName:        p.PlanName,
		Price:           p.Price,
		Period:          p.Period,
		CreditsPerMonth: p.CreditsPerMonth,
		PayPalPlanID:    p.PayPalPlanID,
		Features:        p.Features,
		IsActive:        p.IsActive,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func fromPlanModel(m *planModel) *models.Plan {
	return &models.Plan{
		PlanID:          m.PlanID,
		PlanName:        m.PlanName,
		Price:           m.Price,
		Period:          m.Period,
		CreditsPerMonth: m.CreditsPerMonth,
		PayPalPlanID:    m.PayPalPlanID,
		Features:        m.Features,
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

type productModel struct {
	ProductID   string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	Features    []string  `bson:"features"`
	Thumbnail   string    `bson:"thumbnail"`
	About       string    `bson:"about"`
	Benefits    []string  `bson:"benefits"`
	CreditCost  int64     `bson:"credit_cost"`
	IsActive    bool      `bson:"is_active"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toProductModel(p *models.Product) *productModel {
	return &productModel{
		ProductID:   p.ProductID,
		Name:        p.Name,
		Description: p.Description,
		Features:    p.Features,
		Thumbnail:   p.Thumbnail,
		About:       p.About,
		Benefits:    p.Benefits,
		CreditCost:  p.CreditCost,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromProductModel(m *productModel) *models.Product {
	return &models.Product{
		ProductID:   m.ProductID,
		Name:        m.Name,
		Description: m.Description,
		Features:    m.Features,
		Thumbnail:   m.Thumbnail,
		About:       m.About,
		Benefits:    m.Benefits,
		CreditCost:  m.CreditCost,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type usageEventModel struct {
	ID          string    `bson:"_id"`
	AccountID   string    `bson:"account_id"`
	ProductID   string    `bson:"product_id"`
	ProductName string    `bson:"product_name"`
	CreditsUsed int64     `bson:"credits_used"`
	Status      string    `bson:"status"`
	Timestamp   time.Time `bson:"timestamp"`
}

type transactionModel struct {
	ID        string    `bson:"_id"`
	AccountID string    `bson:"account_id"`
	OrderID   string    `bson:"order_id"`
	PlanID    string    `bson:"plan_id,omitempty"`
	PlanName  string    `bson:"plan_name"`
	Credits   int64     `bson:"credits"`
	Amount    float64   `bson:"amount"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"created_at"`
}
