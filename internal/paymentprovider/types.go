package paymentprovider

// OrderRequest параметры заказа на покупку плана
type OrderRequest struct {
	PlanID      string
	PlanName    string
	Amount      float64
	Currency    string
	Description string
}

// Order созданный в PayPal заказ и ссылка для подтверждения оплаты пользователем
type Order struct {
	ID          string
	Status      string
	ApprovalURL string
}

// Capture результат списания средств по заказу.
// Amount и Currency берутся из первого захвата первой покупки.
type Capture struct {
	OrderID  string
	Status   string
	Amount   float64
	Currency string
}

// Статус успешно списанного заказа
const StatusCompleted = "COMPLETED"

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	Amount      amount `json:"amount"`
	Description string `json:"description,omitempty"`
}

type applicationContext struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

type createOrderRequest struct {
	Intent             string             `json:"intent"`
	PurchaseUnits      []purchaseUnit     `json:"purchase_units"`
	ApplicationContext applicationContext `json:"application_context"`
}

type link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []link `json:"links"`
}

type captureResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
				Amount amount `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}
