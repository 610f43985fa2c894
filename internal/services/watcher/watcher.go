// Package watcher реализует фоновую сверку премиум-статуса.
//
// Сверка не зависит от открытой чекаут-сессии и закрывает случай, когда
// пользователь свернул приложение посреди оплаты: пока сессия жива и
// премиум не подтверждён, каждый тик заново выводит статус из профиля
// и, при наличии сохранённой референции, доспрашивает шлюз.
package watcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kamerunnews/premium-activation/internal/cache"
	"github.com/kamerunnews/premium-activation/internal/lib/sched"
	"github.com/kamerunnews/premium-activation/internal/lib/sl"
	"github.com/kamerunnews/premium-activation/internal/models"
	"github.com/kamerunnews/premium-activation/internal/services/verifier"
)

// ProfileStore описывает чтение профиля.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*models.UserProfile, error)
}

// AttemptJournal описывает поиск последней незакрытой референции.
type AttemptJournal interface {
	LatestOpenReference(ctx context.Context, userID string) (string, error)
}

// Verifier описывает классифицированную проверку платежа.
type Verifier interface {
	Verify(ctx context.Context, userID, reference string) verifier.Result
}

// Cache описывает кеш результатов проверки.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
}

// Notifier получает сигнал о подтверждённом извне премиуме. Возвращает
// true, если у пользователя была открыта чекаут-страница.
type Notifier interface {
	NotePremium(userID string) bool
}

// Watcher запускает периодическую сверку на пользователя.
type Watcher struct {
	profiles ProfileStore
	journal  AttemptJournal
	verifier Verifier
	cache    Cache
	notify   Notifier
	sched    *sched.Scheduler
	interval time.Duration
	cacheTTL time.Duration
	log      *slog.Logger

	mu    sync.Mutex
	ticks map[string]*sched.Task
}

// New создаёт Watcher.
func New(profiles ProfileStore, journal AttemptJournal, vf Verifier, c Cache,
	notify Notifier, scheduler *sched.Scheduler, interval, cacheTTL time.Duration,
	log *slog.Logger) *Watcher {
	return &Watcher{
		profiles: profiles,
		journal:  journal,
		verifier: vf,
		cache:    c,
		notify:   notify,
		sched:    scheduler,
		interval: interval,
		cacheTTL: cacheTTL,
		log:      log,
		ticks:    make(map[string]*sched.Task),
	}
}

// CheckAndReconcile заново выводит премиум-статус пользователя.
// Уже премиум — ранний выход (дешёвый путь через кеш). Не премиум, но есть
// сохранённая референция — доспрашиваем шлюз; на paid верификатор уже
// записал профиль, поэтому результат перечитывается из хранилища.
func (w *Watcher) CheckAndReconcile(ctx context.Context, userID, reference string) models.PremiumCheckResult {
	const op = "watcher.CheckAndReconcile"
	log := w.log.With(slog.String("op", op), slog.String("user_id", userID))

	var cached models.PremiumCheckResult
	if found, err := w.cache.Get(cache.PremiumKey(userID), &cached); err == nil && found && cached.IsPremium {
		return cached
	}

	profile, err := w.profiles.GetProfile(ctx, userID)
	if err != nil {
		log.Error("failed to read profile", sl.Err(err))
		return models.PremiumCheckResult{Erred: true}
	}

	if profile.IsPremium {
		result := resultOf(profile)
		w.cacheResult(userID, result)
		return result
	}

	ref := reference
	if ref == "" && profile.PaymentReference != nil {
		ref = *profile.PaymentReference
	}
	if ref == "" {
		if jref, err := w.journal.LatestOpenReference(ctx, userID); err != nil {
			log.Warn("failed to read attempt journal", sl.Err(err))
		} else {
			ref = jref
		}
	}

	if ref != "" {
		res := w.verifier.Verify(ctx, userID, ref)
		if res.Status == models.PaymentPaid && res.Reconciled {
			// Профиль уже обновлён верификатором, перечитываем его же.
			updated, err := w.profiles.GetProfile(ctx, userID)
			if err != nil {
				log.Error("failed to re-read profile after reconcile", sl.Err(err))
				return models.PremiumCheckResult{IsPremium: true, Reference: ref}
			}
			result := resultOf(updated)
			w.cacheResult(userID, result)
			return result
		}
	}

	return resultOf(profile)
}

func (w *Watcher) cacheResult(userID string, result models.PremiumCheckResult) {
	if err := w.cache.Set(cache.PremiumKey(userID), result, w.cacheTTL); err != nil {
		w.log.Warn("failed to cache premium status", sl.Err(err))
	}
}

func resultOf(profile *models.UserProfile) models.PremiumCheckResult {
	result := models.PremiumCheckResult{
		IsPremium:       profile.IsPremium,
		LastPaymentDate: profile.LastPaymentDate,
	}
	if profile.PaymentReference != nil {
		result.Reference = *profile.PaymentReference
	}
	return result
}

// Start запускает периодическую сверку для пользователя. Интервал прошлой
// сессии того же пользователя предварительно отменяется — протухший тик
// не должен пережить смену сессии. Тики не перекрываются: следующий
// планируется только после завершения предыдущего.
func (w *Watcher) Start(userID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if task, ok := w.ticks[userID]; ok {
		task.Cancel()
	}
	w.log.Info("starting premium watch", slog.String("user_id", userID))
	w.ticks[userID] = w.sched.Every(w.interval, func() {
		w.tick(userID)
	})
}

func (w *Watcher) tick(userID string) {
	const op = "watcher.tick"

	result := w.CheckAndReconcile(context.Background(), userID, "")
	if result.Erred || !result.IsPremium {
		return
	}

	log := w.log.With(slog.String("op", op), slog.String("user_id", userID))
	log.Info("premium status detected in background")
	if wasOpen := w.notify.NotePremium(userID); wasOpen {
		log.Info("checkout surface closed after background activation")
	}
	w.Stop(userID)
}

// Stop отменяет сверку пользователя. Уже выполняющийся тик доработает.
func (w *Watcher) Stop(userID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if task, ok := w.ticks[userID]; ok {
		task.Cancel()
		delete(w.ticks, userID)
	}
}

// Close останавливает все сверки и дожидается завершения тиков.
func (w *Watcher) Close() {
	w.mu.Lock()
	for userID, task := range w.ticks {
		task.Cancel()
		delete(w.ticks, userID)
	}
	w.mu.Unlock()
	w.sched.Close()
}
