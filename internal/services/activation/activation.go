// Package activation реализует машину состояний премиум-активации.
//
// Одна живая попытка на пользователя: Idle -> Creating -> AwaitingCheckout ->
// Verifying -> {Activated, Failed, Abandoned}. Оркестратор сам планирует
// опросы верификации через sched и держит ручные пути восстановления:
// немедленную проверку, сверку статуса и принудительную активацию.
package activation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kamerunnews/premium-activation/internal/checkout"
	"github.com/kamerunnews/premium-activation/internal/gateway"
	"github.com/kamerunnews/premium-activation/internal/lib/sched"
	"github.com/kamerunnews/premium-activation/internal/lib/sl"
	"github.com/kamerunnews/premium-activation/internal/models"
	"github.com/kamerunnews/premium-activation/internal/services/verifier"
)

var (
	// ErrAlreadyInProgress возвращается при повторном запуске оплаты,
	// пока предыдущая попытка ещё не завершена.
	ErrAlreadyInProgress = errors.New("payment already in progress")
	// ErrNoAttempt возвращается, когда у пользователя нет попытки,
	// к которой применимо действие.
	ErrNoAttempt = errors.New("no payment attempt for user")
)

// Gateway описывает создание платёжного интента.
type Gateway interface {
	CreatePayment(ctx context.Context, amount int, description string) (*gateway.PaymentIntent, error)
}

// Verifier описывает классифицированную проверку платежа.
type Verifier interface {
	Verify(ctx context.Context, userID, reference string) verifier.Result
}

// Reconciler описывает прямую запись премиум-флага (принудительная активация).
type Reconciler interface {
	MarkPremium(ctx context.Context, userID, reference string) error
}

// Watch описывает запуск фоновой сверки премиума для пользователя.
type Watch interface {
	Start(userID string)
}

// AttemptJournal описывает журналирование попыток в хранилище.
type AttemptJournal interface {
	SaveAttempt(ctx context.Context, attempt models.PaymentAttempt) (int, error)
	UpdateAttempt(ctx context.Context, reference, status string, verificationCount int) error
}

// Config — тайминги и потолок проверок машины активации.
type Config struct {
	InitialVerifyDelay  time.Duration // пауза между показом чекаута и первым опросом
	PendingRetryDelay   time.Duration // повтор после pending
	ErrorRetryDelay     time.Duration // повтор после ошибки транспорта или шлюза
	CallbackVerifyDelay time.Duration // опрос после redirect-события чекаута
	VerifyCeiling       int           // максимум опросов на одну попытку
}

// Snapshot — наблюдаемое состояние попытки для презентационного слоя.
type Snapshot struct {
	State             models.ActivationState `json:"state"`
	Reference         string                 `json:"reference,omitempty"`
	CheckoutURL       string                 `json:"checkout_url,omitempty"`
	Mode              string                 `json:"mode,omitempty"`
	VerificationCount int                    `json:"verification_count"`
	Message           string                 `json:"message,omitempty"`
	CheckoutOpen      bool                   `json:"checkout_open"`
}

// attempt — внутреннее состояние одной попытки.
type attempt struct {
	state        models.ActivationState
	reference    string
	checkoutURL  string
	mode         string
	count        int
	message      string
	checkoutOpen bool
	task         *sched.Task // ближайший запланированный опрос
}

// Orchestrator управляет попытками активации всех пользователей процесса.
type Orchestrator struct {
	gateway    Gateway
	verifier   Verifier
	reconciler Reconciler
	journal    AttemptJournal
	detector   checkout.OutcomeDetector
	sched      *sched.Scheduler
	watch      Watch
	cfg        Config
	log        *slog.Logger

	mu       sync.Mutex
	attempts map[string]*attempt
}

// New создаёт Orchestrator.
func New(gw Gateway, vf Verifier, rec Reconciler, journal AttemptJournal,
	detector checkout.OutcomeDetector, scheduler *sched.Scheduler,
	cfg Config, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		gateway:    gw,
		verifier:   vf,
		reconciler: rec,
		journal:    journal,
		detector:   detector,
		sched:      scheduler,
		cfg:        cfg,
		log:        log,
		attempts:   make(map[string]*attempt),
	}
}

// SetWatch подключает фоновую сверку к машине активации. Вызывается один
// раз при сборке приложения, до старта HTTP-сервера: сверка создаётся
// после оркестратора и в конструктор не попадает.
func (o *Orchestrator) SetWatch(w Watch) {
	o.watch = w
}

// Begin запускает новую попытку оплаты: создаёт интент, журналирует попытку,
// планирует первый опрос верификации и ставит пользователя на фоновую
// сверку. Повторный вызов при живой попытке возвращает ErrAlreadyInProgress;
// одновременных интентов на пользователя не бывает.
func (o *Orchestrator) Begin(ctx context.Context, userID string, amount int, description string) (*Snapshot, error) {
	const op = "activation.Begin"
	log := o.log.With(slog.String("op", op), slog.String("user_id", userID))

	o.mu.Lock()
	if a, ok := o.attempts[userID]; ok {
		switch a.state {
		case models.StateCreating, models.StateAwaitingCheckout, models.StateVerifying:
			o.mu.Unlock()
			return nil, fmt.Errorf("%s: %w", op, ErrAlreadyInProgress)
		}
	}
	a := &attempt{state: models.StateCreating}
	o.attempts[userID] = a
	o.mu.Unlock()

	intent, err := o.gateway.CreatePayment(ctx, amount, description)

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		a.state = models.StateFailed
		a.message = err.Error()
		log.Error("failed to create payment intent", sl.Err(err))
		metricOutcomes.WithLabelValues("create_failed").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.state = models.StateAwaitingCheckout
	a.reference = intent.Reference
	a.checkoutURL = intent.CheckoutURL
	a.mode = intent.Mode
	a.count = 0
	a.checkoutOpen = true
	metricAttemptsStarted.Inc()
	log.Info("payment intent created",
		slog.String("reference", intent.Reference),
		slog.String("mode", intent.Mode))

	// Отказ журнала не роняет оплату: интент уже создан, деньги могут уйти.
	if _, err := o.journal.SaveAttempt(ctx, models.PaymentAttempt{
		UserID:      userID,
		Reference:   intent.Reference,
		CheckoutURL: intent.CheckoutURL,
		Status:      string(models.StateAwaitingCheckout),
	}); err != nil {
		log.Error("failed to journal payment attempt", sl.Err(err))
	}

	a.task = o.scheduleVerify(userID, o.cfg.InitialVerifyDelay)

	// Сверка страхует и брошенную попытку: даже если клиент больше ни разу
	// не спросит статус, подтверждённый платёж будет дозаписан в профиль.
	if o.watch != nil {
		o.watch.Start(userID)
	}

	return snapshotOf(a), nil
}

func (o *Orchestrator) scheduleVerify(userID string, delay time.Duration) *sched.Task {
	return o.sched.After(delay, func() {
		o.runVerify(context.Background(), userID, false)
	})
}

// runVerify выполняет один опрос верификации. Для запланированных запусков
// (manual=false) сам планирует следующий; ручная проверка следующий опрос
// не планирует и не гасит уже запланированный.
func (o *Orchestrator) runVerify(ctx context.Context, userID string, manual bool) {
	const op = "activation.runVerify"
	log := o.log.With(slog.String("op", op), slog.String("user_id", userID))

	o.mu.Lock()
	a, ok := o.attempts[userID]
	if !ok || a.state.Terminal() || a.reference == "" {
		o.mu.Unlock()
		return
	}
	if a.state == models.StateAbandoned && !manual {
		o.mu.Unlock()
		return
	}
	a.state = models.StateVerifying
	reference := a.reference
	o.mu.Unlock()

	metricVerificationPolls.Inc()
	res := o.verifier.Verify(ctx, userID, reference)

	o.mu.Lock()
	defer o.mu.Unlock()

	// Попытку могли добить параллельно (фоновая сверка, принудительная
	// активация), пока Verify ходил по сети.
	if a.state.Terminal() {
		return
	}

	switch res.Status {
	case models.PaymentPaid:
		if res.Reconciled {
			o.finishLocked(ctx, userID, a, models.StateActivated, res.Message, "paid", "activated")
			return
		}
		// Шлюз подтвердил оплату, но запись профиля не прошла. Закрывать
		// попытку как paid нельзя: журнальная референция должна остаться
		// открытой, иначе реконсиляцию будет не по чему повторить.
		a.count++
		log.Error("payment confirmed but profile reconciliation failed, keeping reference open",
			slog.Int("verification_count", a.count))
		o.journalUpdate(ctx, reference, models.StatusReconcilePending, a.count)

		if a.count >= o.cfg.VerifyCeiling {
			o.abandonLocked(ctx, a, reference)
			return
		}
		if !manual {
			a.task = o.scheduleVerify(userID, o.cfg.ErrorRetryDelay)
		}

	case models.PaymentFailed:
		o.finishLocked(ctx, userID, a, models.StateFailed, res.Message, "failed", "failed")

	case models.PaymentPending, models.PaymentError:
		a.count++
		log.Info("payment not confirmed yet",
			slog.String("status", string(res.Status)),
			slog.Int("verification_count", a.count),
			slog.Int("ceiling", o.cfg.VerifyCeiling))
		o.journalUpdate(ctx, reference, string(models.StateVerifying), a.count)

		if a.count >= o.cfg.VerifyCeiling {
			o.abandonLocked(ctx, a, reference)
			return
		}

		if !manual {
			delay := o.cfg.PendingRetryDelay
			if res.Status == models.PaymentError {
				// Шлюз сказал "ждите" и "не смогли спросить" — разные паузы.
				delay = o.cfg.ErrorRetryDelay
			}
			a.task = o.scheduleVerify(userID, delay)
		}
	}
}

// abandonLocked переводит попытку в Abandoned по достижении потолка опросов
// и закрывает чекаут-страницу. Вызывается под мьютексом. Попытка остаётся
// незакрытой для фоновой сверки: её референция всё ещё в выборке открытых.
func (o *Orchestrator) abandonLocked(ctx context.Context, a *attempt, reference string) {
	a.state = models.StateAbandoned
	a.checkoutOpen = false
	a.message = "payment is taking longer than expected; your account will be upgraded automatically once confirmed"
	metricOutcomes.WithLabelValues("abandoned").Inc()
	o.journalUpdate(ctx, reference, string(models.StateAbandoned), a.count)
}

// finishLocked закрывает попытку в конечном состоянии. Вызывается под
// мьютексом. outcome — метка метрики исхода, ровно одна на попытку.
func (o *Orchestrator) finishLocked(ctx context.Context, userID string, a *attempt,
	state models.ActivationState, message, journalStatus, outcome string) {
	a.state = state
	a.message = message
	a.checkoutOpen = false
	if a.task != nil {
		a.task.Cancel()
		a.task = nil
	}
	metricOutcomes.WithLabelValues(outcome).Inc()
	o.journalUpdate(ctx, a.reference, journalStatus, a.count)
	o.log.Info("payment attempt finished",
		slog.String("user_id", userID),
		slog.String("state", string(state)))
}

func (o *Orchestrator) journalUpdate(ctx context.Context, reference, status string, count int) {
	if err := o.journal.UpdateAttempt(ctx, reference, status, count); err != nil {
		o.log.Error("failed to update attempt journal", sl.Err(err),
			slog.String("reference", reference))
	}
}

// NoteCheckoutNavigation обрабатывает навигационное событие внутри
// чекаут-страницы. Совпадение с паттерном завершения закрывает чекаут и
// форсирует ближайший опрос. Возвращает признак совпадения.
func (o *Orchestrator) NoteCheckoutNavigation(userID, url string) (bool, error) {
	const op = "activation.NoteCheckoutNavigation"

	o.mu.Lock()
	defer o.mu.Unlock()

	a, ok := o.attempts[userID]
	if !ok || a.reference == "" {
		return false, fmt.Errorf("%s: %w", op, ErrNoAttempt)
	}
	if a.state.Terminal() {
		return false, nil
	}
	if !o.detector.Completed(url) {
		return false, nil
	}

	o.log.Info("checkout completion redirect detected",
		slog.String("user_id", userID))
	a.checkoutOpen = false
	if a.task != nil {
		a.task.Cancel()
	}
	a.task = o.scheduleVerify(userID, o.cfg.CallbackVerifyDelay)
	return true, nil
}

// CheckoutClosed отмечает закрытие чекаут-страницы пользователем.
// Попытка не сбрасывается: её продолжают крыть запланированные опросы
// и фоновая сверка.
func (o *Orchestrator) CheckoutClosed(userID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if a, ok := o.attempts[userID]; ok {
		a.checkoutOpen = false
	}
}

// VerifyNow выполняет немедленную проверку платежа в обход бэкоффа.
// Доступна из AwaitingCheckout, Verifying и Abandoned.
func (o *Orchestrator) VerifyNow(ctx context.Context, userID string) (*Snapshot, error) {
	const op = "activation.VerifyNow"

	o.mu.Lock()
	a, ok := o.attempts[userID]
	if !ok || a.reference == "" || a.state.Terminal() || a.state == models.StateCreating {
		o.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", op, ErrNoAttempt)
	}
	o.mu.Unlock()

	o.runVerify(ctx, userID, true)
	return o.Snapshot(userID)
}

// ForceActivate записывает премиум-флаг напрямую, минуя верификацию.
// Явный аварийный люк для восстановления с поддержкой, не штатный путь:
// шлюз повторно не опрашивается (см. реконсилер).
func (o *Orchestrator) ForceActivate(ctx context.Context, userID string) (*Snapshot, error) {
	const op = "activation.ForceActivate"
	log := o.log.With(slog.String("op", op), slog.String("user_id", userID))

	o.mu.Lock()
	a, ok := o.attempts[userID]
	if !ok || a.reference == "" {
		o.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", op, ErrNoAttempt)
	}
	reference := a.reference
	o.mu.Unlock()

	log.Warn("forced premium activation requested, bypassing verification",
		slog.String("reference", reference))

	if err := o.reconciler.MarkPremium(ctx, userID, reference); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	o.mu.Lock()
	if !a.state.Terminal() {
		o.finishLocked(ctx, userID, a, models.StateActivated,
			"premium activated manually", "paid", "forced")
	}
	o.mu.Unlock()

	return o.Snapshot(userID)
}

// NotePremium сообщает оркестратору, что премиум подтверждён извне
// (фоновой сверкой). Живая попытка закрывается как Activated.
// Возвращает true, если при этом была открыта чекаут-страница —
// вызывающий должен её закрыть и уведомить пользователя.
func (o *Orchestrator) NotePremium(userID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, ok := o.attempts[userID]
	if !ok || a.state.Terminal() {
		return false
	}
	wasOpen := a.checkoutOpen
	o.finishLocked(context.Background(), userID, a, models.StateActivated,
		"premium activated in background", "paid", "activated")
	return wasOpen
}

// Snapshot возвращает наблюдаемое состояние попытки пользователя.
func (o *Orchestrator) Snapshot(userID string) (*Snapshot, error) {
	const op = "activation.Snapshot"

	o.mu.Lock()
	defer o.mu.Unlock()

	a, ok := o.attempts[userID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrNoAttempt)
	}
	return snapshotOf(a), nil
}

func snapshotOf(a *attempt) *Snapshot {
	return &Snapshot{
		State:             a.state,
		Reference:         a.reference,
		CheckoutURL:       a.checkoutURL,
		Mode:              a.mode,
		VerificationCount: a.count,
		Message:           a.message,
		CheckoutOpen:      a.checkoutOpen,
	}
}

// Close отменяет все запланированные опросы и дожидается их завершения.
// После Close состояние не мутирует.
func (o *Orchestrator) Close() {
	o.sched.Close()
}
