// Package models содержит доменную модель сервиса активации премиума:
// профиль пользователя, платёжную попытку и результат проверки статуса.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// UserProfile представляет durable-запись профиля пользователя.
// Флаг IsPremium монотонный: false -> true, пути отката нет.
type UserProfile struct {
	ID                 string     // Уникальный идентификатор пользователя
	Username           string     // Имя пользователя
	Email              string     // Электронная почта
	IsPremium          bool       // Признак оплаченного премиум-доступа
	PaymentReference   *string    // Последняя референция платёжной попытки
	LastPaymentDate    *time.Time // Дата последнего подтверждённого платежа
	PremiumActivatedAt *time.Time // Дата первой активации премиума
	UpdatedAt          time.Time
	CreatedAt          time.Time
}
