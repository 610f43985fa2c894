package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kamerunnews/premium-activation/internal/models"
)

// SaveAttempt вставляет запись журнала платёжной попытки и возвращает её ID.
func (s *Storage) SaveAttempt(ctx context.Context, attempt models.PaymentAttempt) (int, error) {
	const op = "storage.SaveAttempt"

	var id int
	query := `INSERT INTO payment_attempts (user_id, reference, checkout_url, status, verification_count)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		attempt.UserID, attempt.Reference, attempt.CheckoutURL,
		attempt.Status, attempt.VerificationCount).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// UpdateAttempt обновляет статус и счётчик проверок по референции.
func (s *Storage) UpdateAttempt(ctx context.Context, reference, status string, verificationCount int) error {
	const op = "storage.UpdateAttempt"

	query := `UPDATE payment_attempts
			  SET status = $2, verification_count = $3, updated_at = NOW()
			  WHERE reference = $1`
	if _, err := s.DB.ExecContext(ctx, query, reference, status, verificationCount); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListAttempts возвращает платёжные попытки пользователя с пагинацией,
// свежие первыми.
func (s *Storage) ListAttempts(ctx context.Context, userID string, limit, offset int) ([]*models.PaymentAttempt, error) {
	const op = "storage.ListAttempts"

	query := `SELECT id, user_id, reference, checkout_url, status, verification_count,
			      created_at, updated_at
			  FROM payment_attempts
			  WHERE user_id = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var attempts []*models.PaymentAttempt
	for rows.Next() {
		a := &models.PaymentAttempt{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.Reference, &a.CheckoutURL,
			&a.Status, &a.VerificationCount, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return attempts, nil
}

// LatestOpenReference возвращает референцию последней незакрытой попытки
// пользователя; пустая строка — попыток нет. Используется фоновой сверкой,
// когда в профиле референция ещё не записана.
func (s *Storage) LatestOpenReference(ctx context.Context, userID string) (string, error) {
	const op = "storage.LatestOpenReference"

	query := `SELECT reference
			  FROM payment_attempts
			  WHERE user_id = $1 AND status NOT IN ('paid', 'failed')
			  ORDER BY created_at DESC
			  LIMIT 1`
	var reference string
	err := s.DB.QueryRowContext(ctx, query, userID).Scan(&reference)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return reference, nil
}
