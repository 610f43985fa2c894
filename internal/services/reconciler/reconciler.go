// Package reconciler записывает подтверждённый исход платежа в durable-профиль.
//
// Запись безусловная: шлюз повторно не опрашивается, корректность гранта
// целиком зависит от классификации verifier-а. Обе записи идемпотентны,
// поэтому конкурентные вызовы для одной референции безопасны без блокировок.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kamerunnews/premium-activation/internal/cache"
	"github.com/kamerunnews/premium-activation/internal/lib/rabbitmq"
	"github.com/kamerunnews/premium-activation/internal/lib/sl"
	"github.com/kamerunnews/premium-activation/internal/models"
)

// ProfileStore описывает запись премиум-флага в хранилище профилей.
type ProfileStore interface {
	MarkPremium(ctx context.Context, id, reference string, at time.Time) error
}

// Cache описывает инвалидацию кеша премиум-статусов.
type Cache interface {
	Invalidate(key string) error
}

// EventPublisher публикует событие активации для downstream-сервисов.
type EventPublisher interface {
	Publish(exchange, routingKey string, message any) error
}

// Service реализует реконсиляцию платёжного исхода в профиль.
type Service struct {
	store  ProfileStore
	cache  Cache
	events EventPublisher // nil — публикация событий отключена
	log    *slog.Logger
	now    func() time.Time
}

// New создаёт новый Service. events может быть nil.
func New(store ProfileStore, cache Cache, events EventPublisher, log *slog.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		events: events,
		log:    log,
		now:    time.Now,
	}
}

// MarkPremium выставляет пользователю премиум-флаг с метаданными платежа,
// инвалидирует кеш статуса и публикует событие активации. Ошибки кеша и
// публикации не фатальны: флаг в профиле уже записан.
func (s *Service) MarkPremium(ctx context.Context, userID, reference string) error {
	const op = "reconciler.MarkPremium"
	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("reference", reference),
	)

	at := s.now()
	if err := s.store.MarkPremium(ctx, userID, reference, at); err != nil {
		log.Error("failed to mark profile premium", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("profile marked premium")

	if err := s.cache.Invalidate(cache.PremiumKey(userID)); err != nil {
		log.Warn("failed to invalidate premium cache", sl.Err(err))
	}

	if s.events != nil {
		event := models.PremiumActivatedEvent{
			UserID:     userID,
			Reference:  reference,
			OccurredAt: at,
		}
		if err := s.events.Publish(rabbitmq.ExchangePremium, rabbitmq.RoutingKeyActivated, event); err != nil {
			log.Error("failed to publish activation event", sl.Err(err))
		}
	}

	return nil
}
