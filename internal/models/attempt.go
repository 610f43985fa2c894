package models

import "time"

// PaymentStatus — классификация ответа шлюза на проверку платежа.
type PaymentStatus string

const (
	// PaymentPaid — платёж подтверждён шлюзом.
	PaymentPaid PaymentStatus = "paid"
	// PaymentPending — шлюз ещё обрабатывает платёж.
	PaymentPending PaymentStatus = "pending"
	// PaymentFailed — шлюз явно отклонил или отменил платёж.
	PaymentFailed PaymentStatus = "failed"
	// PaymentError — ответ шлюза получить не удалось.
	PaymentError PaymentStatus = "error"
)

// ActivationState — состояние машины активации для одной попытки оплаты.
type ActivationState string

const (
	StateIdle             ActivationState = "idle"
	StateCreating         ActivationState = "creating"
	StateAwaitingCheckout ActivationState = "awaiting_checkout"
	StateVerifying        ActivationState = "verifying"
	StateActivated        ActivationState = "activated"
	StateFailed           ActivationState = "failed"
	StateAbandoned        ActivationState = "abandoned"
)

// Terminal сообщает, является ли состояние конечным для попытки.
// Abandoned конечным не считается: попытку ещё может добить фоновая сверка
// или ручная проверка.
func (s ActivationState) Terminal() bool {
	return s == StateActivated || s == StateFailed
}

// StatusReconcilePending — журнальный статус попытки, по которой шлюз
// подтвердил оплату, но запись премиум-флага в профиль не прошла.
// Попадает в выборку незакрытых референций, чтобы реконсиляция была
// повторена опросом или фоновой сверкой.
const StatusReconcilePending = "reconcile_pending"

// PaymentAttempt — журнальная запись одной платёжной попытки.
// Reference уникальна на попытку и выдаётся шлюзом при создании интента.
type PaymentAttempt struct {
	ID                int       `json:"id"`
	UserID            string    `json:"user_id"`
	Reference         string    `json:"reference"`
	CheckoutURL       string    `json:"checkout_url"`
	Status            string    `json:"status"`
	VerificationCount int       `json:"verification_count"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
