package models

import "time"

// PremiumCheckResult — результат проверки премиум-статуса.
// Значение не хранится, а каждый раз вычисляется заново; в кеш попадает
// только короткоживущая копия для удешевления фоновых тиков.
type PremiumCheckResult struct {
	IsPremium       bool       `json:"is_premium"`
	Reference       string     `json:"reference,omitempty"`
	LastPaymentDate *time.Time `json:"last_payment_date,omitempty"`
	Erred           bool       `json:"erred,omitempty"`
}

// PremiumActivatedEvent публикуется после записи премиум-флага в профиль.
type PremiumActivatedEvent struct {
	UserID     string    `json:"user_id"`
	Reference  string    `json:"reference"`
	OccurredAt time.Time `json:"occurred_at"`
}
