// Package models содержит доменные структуры BitePlans: аккаунт пользователя,
// каталог (планы и продукты), журналы транзакций и использования кредитов,
// а также задачи на досинхронизацию (RepairTask).
package models

import "time"

const (
	// UnlimitedCredits: значение баланса, означающее безлимитный аккаунт.
	UnlimitedCredits int64 = -1

	// TrialPlanID: идентификатор плана, выдаваемого при регистрации.
	TrialPlanID = "trial"

	// PlanStatusActive: статус активного плана.
	PlanStatusActive = "active"
)

// CurrentPlan описывает текущий план аккаунта и окно его действия.
// OrderID хранит идентификатор заказа процессора, по которому план был выдан,
// и служит ключом идемпотентности при повторном подтверждении.
type CurrentPlan struct {
	PlanID    string    `json:"planId"`
	Status    string    `json:"status"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	OrderID   string    `json:"orderId,omitempty"`
}

// Account представляет зарегистрированного пользователя, привязанного к внешнему
// провайдеру идентификации.
type Account struct {
	ID             string      `json:"id"`
	SubjectUID     string      `json:"firebaseUid"`
	Email          string      `json:"email"`
	DisplayName    string      `json:"displayName"`
	ProfileImage   string      `json:"profileImage,omitempty"`
	TotalCredits   int64       `json:"totalCredits"`
	UsedCredits    int64       `json:"usedCredits"`
	TrialStartDate time.Time   `json:"trialStartDate"`
	TrialEndDate   time.Time   `json:"trialEndDate"`
	IsTrialActive  bool        `json:"isTrialActive"`
	CurrentPlan    CurrentPlan `json:"currentPlan"`
	Version        int64       `json:"-"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// Unlimited сообщает, что баланс аккаунта не ограничен.
func (a *Account) Unlimited() bool {
	return a.TotalCredits == UnlimitedCredits
}

// CanAfford проверяет, хватает ли кредитов на списание cost.
func (a *Account) CanAfford(cost int64) bool {
	return a.Unlimited() || a.TotalCredits >= cost
}

// Debit списывает cost кредитов. Безлимитный баланс не уменьшается,
// но счётчик использованных кредитов растёт всегда.
func (a *Account) Debit(cost int64) {
	if !a.Unlimited() {
		a.TotalCredits -= cost
	}
	a.UsedCredits += cost
}

// TrialExpired сообщает, что пробный период активен, но уже закончился к моменту now.
func (a *Account) TrialExpired(now time.Time) bool {
	return a.IsTrialActive && now.After(a.TrialEndDate)
}

// Grant выдаёт аккаунту оплаченный план: отключает триал, выставляет баланс
// равным месячной квоте плана и фиксирует окно действия.
func (a *Account) Grant(plan *Plan, orderID string, start time.Time, period time.Duration) {
	a.IsTrialActive = false
	a.TotalCredits = plan.CreditsPerMonth
	a.CurrentPlan = CurrentPlan{
		PlanID:    plan.PlanID,
		Status:    PlanStatusActive,
		StartDate: start,
		EndDate:   start.Add(period),
		OrderID:   orderID,
	}
}
