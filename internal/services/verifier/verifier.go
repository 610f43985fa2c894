// Package verifier классифицирует ответ платёжного шлюза и на подтверждённом
// платеже синхронно запускает реконсиляцию профиля.
package verifier

import (
	"context"
	"log/slog"

	"github.com/kamerunnews/premium-activation/internal/gateway"
	"github.com/kamerunnews/premium-activation/internal/lib/sl"
	"github.com/kamerunnews/premium-activation/internal/models"
)

// Gateway описывает сырой запрос статуса платежа.
type Gateway interface {
	VerifyRaw(ctx context.Context, reference string) (*gateway.RawVerification, error)
}

// Reconciler описывает запись подтверждённого платежа в профиль.
type Reconciler interface {
	MarkPremium(ctx context.Context, userID, reference string) error
}

// Result — классифицированный исход проверки платежа.
// Reconciled выставляется только на paid и сообщает, дошла ли запись
// премиум-флага до профиля: paid без Reconciled означает, что деньги
// подтверждены, но реконсиляцию ещё предстоит повторить.
type Result struct {
	Status     models.PaymentStatus
	Reconciled bool
	Message    string
}

// Service реализует проверку платежа.
type Service struct {
	gateway    Gateway
	reconciler Reconciler
	log        *slog.Logger
}

// New создаёт новый Service.
func New(gw Gateway, rec Reconciler, log *slog.Logger) *Service {
	return &Service{
		gateway:    gw,
		reconciler: rec,
		log:        log,
	}
}

// Verify запрашивает у шлюза статус платежа по референции и классифицирует
// ответ. Правила, в порядке приоритета:
//
//	явные paid/complete/success  -> paid
//	явный pending                -> pending
//	явные failed/cancel(l)ed     -> failed
//	любой другой 2xx-ответ       -> pending (оптимистичный дефолт)
//	не-2xx или ошибка транспорта -> error
//
// На paid реконсиляция выполняется до возврата: вызывающий, увидев paid
// с Reconciled, может считать профиль уже обновлённым. Ошибка записи
// профиля статус не меняет — деньги пользователя уже ушли, и громкий отказ
// здесь хуже отложенного флага — но возвращается paid без Reconciled,
// чтобы вызывающий не закрывал попытку и реконсиляция была повторена.
func (s *Service) Verify(ctx context.Context, userID, reference string) Result {
	const op = "verifier.Verify"
	log := s.log.With(
		slog.String("op", op),
		slog.String("reference", reference),
	)

	raw, err := s.gateway.VerifyRaw(ctx, reference)
	if err != nil {
		log.Error("verification request failed", sl.Err(err))
		return Result{Status: models.PaymentError, Message: err.Error()}
	}

	if raw.StatusCode < 200 || raw.StatusCode >= 300 {
		msg := raw.Body.Message
		if msg == "" {
			msg = "verification failed"
		}
		log.Error("gateway returned non-2xx on verification",
			slog.Int("status_code", raw.StatusCode))
		return Result{Status: models.PaymentError, Message: msg}
	}

	body := raw.Body
	switch {
	case body.Paid || body.Status == "complete" || body.Status == "terminé" || body.Status == "success":
		if err := s.reconciler.MarkPremium(ctx, userID, reference); err != nil {
			log.Error("reconciliation after paid status failed", sl.Err(err))
			return Result{Status: models.PaymentPaid, Message: "payment confirmed, premium activation pending"}
		}
		return Result{Status: models.PaymentPaid, Reconciled: true, Message: "payment confirmed, premium activated"}

	case body.Pending || body.Status == "pending":
		msg := body.Message
		if msg == "" {
			msg = "payment in progress"
		}
		return Result{Status: models.PaymentPending, Message: msg}

	case body.Status == "failed" || body.Status == "canceled" || body.Status == "cancelled":
		msg := body.Message
		if msg == "" {
			msg = "payment failed"
		}
		return Result{Status: models.PaymentFailed, Message: msg}

	default:
		msg := body.Message
		if msg == "" {
			msg = "awaiting confirmation"
		}
		return Result{Status: models.PaymentPending, Message: msg}
	}
}
