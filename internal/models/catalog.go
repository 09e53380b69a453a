package models

import "time"

// Plan: тариф подписки с месячной квотой кредитов.
// CreditsPerMonth равный UnlimitedCredits означает безлимит.
type Plan struct {
	PlanID          string    `json:"planId"`
	PlanName        string    `json:"planName"`
	Price           float64   `json:"price"`
	Period          string    `json:"period"`
	CreditsPerMonth int64     `json:"creditsPerMonth"`
	PayPalPlanID    string    `json:"paypalPlanId"`
	Features        []string  `json:"features"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Unlimited сообщает, что план выдаёт безлимитный баланс.
func (p *Plan) Unlimited() bool {
	return p.CreditsPerMonth == UnlimitedCredits
}

// Product: сторонний инструмент, доступ к которому стоит CreditCost кредитов.
type Product struct {
	ProductID   string    `json:"productId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Features    []string  `json:"features"`
	Thumbnail   string    `json:"thumbnail"`
	About       string    `json:"about"`
	Benefits    []string  `json:"benefits"`
	CreditCost  int64     `json:"creditCost"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
