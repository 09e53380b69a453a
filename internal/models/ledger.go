package models

import "time"

const (
	// StatusSuccess: статус успешной записи журнала.
	StatusSuccess = "success"
	// StatusFailed: статус неуспешной записи журнала.
	StatusFailed = "failed"
)

// Transaction: неизменяемая запись об успешной покупке плана.
// OrderID уникален и используется как ключ идемпотентности подтверждения.
type Transaction struct {
	ID        string    `json:"id"`
	AccountID string    `json:"userId"`
	OrderID   string    `json:"orderId"`
	PlanID    string    `json:"planId,omitempty"`
	PlanName  string    `json:"planName"`
	Credits   int64     `json:"credits"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// UsageEvent: неизменяемая запись об одном использовании продукта.
// ID генерируется до записи, поэтому повторная запись того же события идемпотентна.
type UsageEvent struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"userId"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	CreditsUsed int64     `json:"creditsUsed"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// RepairKind: тип вторичной записи, которую нужно повторить.
type RepairKind string

const (
	// RepairTransaction: не записана транзакция после выдачи плана.
	RepairTransaction RepairKind = "transaction"
	// RepairUsage: не записано событие использования после списания.
	RepairUsage RepairKind = "usage"
	// RepairGrant: платёж захвачен, но план не сохранён в аккаунте.
	RepairGrant RepairKind = "grant"
)

// GrantRequest описывает выдачу плана, которую надо применить повторно.
type GrantRequest struct {
	SubjectUID string    `json:"subjectUid"`
	PlanID     string    `json:"planId"`
	OrderID    string    `json:"orderId"`
	GrantedAt  time.Time `json:"grantedAt"`
}

// RepairTask: сообщение в очередь досинхронизации: первичная запись уже
// применена, а вторичная (журнал или выдача плана) завершилась ошибкой.
type RepairTask struct {
	Kind        RepairKind    `json:"kind"`
	Transaction *Transaction  `json:"transaction,omitempty"`
	Usage       *UsageEvent   `json:"usage,omitempty"`
	Grant       *GrantRequest `json:"grant,omitempty"`
	Reason      string        `json:"reason"`
	CreatedAt   time.Time     `json:"createdAt"`
}
