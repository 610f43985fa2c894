package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kamerunnews/premium-activation/internal/models"
)

// ErrProfileNotFound возвращается, когда профиль с таким ID отсутствует.
var ErrProfileNotFound = errors.New("profile not found")

// CreateProfile сохраняет новый профиль и возвращает его ID.
func (s *Storage) CreateProfile(ctx context.Context, profile models.UserProfile) (string, error) {
	const op = "storage.CreateProfile"

	var newID string
	query := `INSERT INTO profiles (id, username, email)
			  VALUES ($1, $2, $3)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		profile.ID, profile.Username, profile.Email).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetProfile возвращает профиль по его ID.
func (s *Storage) GetProfile(ctx context.Context, id string) (*models.UserProfile, error) {
	const op = "storage.GetProfile"

	query := `SELECT id, username, email, is_premium, payment_reference,
			      last_payment_date, premium_activated_at, updated_at, created_at
			  FROM profiles
			  WHERE id = $1`
	p := &models.UserProfile{}
	row := s.DB.QueryRowContext(ctx, query, id)

	var paymentReference sql.NullString
	var lastPaymentDate, premiumActivatedAt sql.NullTime
	if err := row.Scan(&p.ID, &p.Username, &p.Email, &p.IsPremium,
		&paymentReference, &lastPaymentDate, &premiumActivatedAt,
		&p.UpdatedAt, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrProfileNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if paymentReference.Valid {
		p.PaymentReference = &paymentReference.String
	}
	if lastPaymentDate.Valid {
		p.LastPaymentDate = &lastPaymentDate.Time
	}
	if premiumActivatedAt.Valid {
		p.PremiumActivatedAt = &premiumActivatedAt.Time
	}
	return p, nil
}

// MarkPremium безусловно выставляет профилю премиум-флаг и метаданные
// платежа. Запись идемпотентна: повторный вызов с теми же аргументами
// лишь передвигает last_payment_date вперёд (last-write-wins).
// premium_activated_at фиксируется только первой активацией.
func (s *Storage) MarkPremium(ctx context.Context, id, reference string, at time.Time) error {
	const op = "storage.MarkPremium"

	query := `UPDATE profiles
			  SET is_premium = TRUE,
			      payment_reference = $2,
			      last_payment_date = $3,
			      premium_activated_at = COALESCE(premium_activated_at, $3),
			      updated_at = $3
			  WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, query, id, reference, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrProfileNotFound)
	}
	return nil
}
