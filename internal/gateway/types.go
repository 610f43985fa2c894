package gateway

// Тело запроса POST /api/payments/initialize.
type initializeRequest struct {
	Amount      int    `json:"amount"`
	Description string `json:"description"`
	Phone       string `json:"phone"`
}

// Ответ прокси-бэкенда на создание платёжного интента.
type initializeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Mode    string `json:"mode"`
	Data    struct {
		Reference        string `json:"reference"`
		AuthorizationURL string `json:"authorization_url"`
		CheckoutURL      string `json:"checkout_url"`
		TransactionID    string `json:"transaction_id"`
	} `json:"data"`
}

// PaymentIntent — результат создания платежа: референция для последующей
// верификации и URL hosted-чекаута (одноразовый на попытку).
type PaymentIntent struct {
	Reference     string `json:"reference"`
	CheckoutURL   string `json:"checkout_url"`
	TransactionID string `json:"transaction_id"`
	Mode          string `json:"mode"`
}

// VerifyBody — сырой ответ GET /api/payments/verify/{reference}.
// Классификацией занимается verifier, клиент отдаёт ответ как есть.
type VerifyBody struct {
	Paid    bool   `json:"paid"`
	Pending bool   `json:"pending"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RawVerification — ответ шлюза вместе с HTTP-статусом.
type RawVerification struct {
	StatusCode int
	Body       VerifyBody
}

// GatewayConfig — ответ GET /api/payments/config.
type GatewayConfig struct {
	Config struct {
		Mode string `json:"mode"`
	} `json:"config"`
}
