package reconciler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kamerunnews/premium-activation/internal/lib/rabbitmq"
	"github.com/kamerunnews/premium-activation/internal/models"
)

// MockProfileStore реализует интерфейс ProfileStore
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) MarkPremium(ctx context.Context, id, reference string, at time.Time) error {
	args := m.Called(ctx, id, reference, at)
	return args.Error(0)
}

// MockCache реализует интерфейс Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

// MockPublisher реализует интерфейс EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(exchange, routingKey string, message any) error {
	args := m.Called(exchange, routingKey, message)
	return args.Error(0)
}

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_MarkPremium(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store := new(MockProfileStore)
	cacheMock := new(MockCache)
	events := new(MockPublisher)

	store.On("MarkPremium", mock.Anything, "user-1", "ref-1", at).Return(nil)
	cacheMock.On("Invalidate", "premium:user-1").Return(nil)
	events.On("Publish", rabbitmq.ExchangePremium, rabbitmq.RoutingKeyActivated,
		models.PremiumActivatedEvent{UserID: "user-1", Reference: "ref-1", OccurredAt: at}).
		Return(nil)

	service := New(store, cacheMock, events, noopLogger())
	service.now = func() time.Time { return at }

	err := service.MarkPremium(context.Background(), "user-1", "ref-1")
	require.NoError(t, err)

	store.AssertExpectations(t)
	cacheMock.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestService_MarkPremium_StoreFailureIsFatal(t *testing.T) {
	store := new(MockProfileStore)
	cacheMock := new(MockCache)

	store.On("MarkPremium", mock.Anything, "user-1", "ref-1", mock.Anything).
		Return(errors.New("database down"))

	service := New(store, cacheMock, nil, noopLogger())

	err := service.MarkPremium(context.Background(), "user-1", "ref-1")
	require.Error(t, err)
	cacheMock.AssertNotCalled(t, "Invalidate", mock.Anything)
}

func TestService_MarkPremium_CacheFailureNotFatal(t *testing.T) {
	store := new(MockProfileStore)
	cacheMock := new(MockCache)

	store.On("MarkPremium", mock.Anything, "user-1", "ref-1", mock.Anything).Return(nil)
	cacheMock.On("Invalidate", "premium:user-1").Return(errors.New("redis down"))

	service := New(store, cacheMock, nil, noopLogger())

	err := service.MarkPremium(context.Background(), "user-1", "ref-1")
	require.NoError(t, err)
}

func TestService_MarkPremium_PublishFailureNotFatal(t *testing.T) {
	store := new(MockProfileStore)
	cacheMock := new(MockCache)
	events := new(MockPublisher)

	store.On("MarkPremium", mock.Anything, "user-1", "ref-1", mock.Anything).Return(nil)
	cacheMock.On("Invalidate", "premium:user-1").Return(nil)
	events.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("broker down"))

	service := New(store, cacheMock, events, noopLogger())

	err := service.MarkPremium(context.Background(), "user-1", "ref-1")
	require.NoError(t, err)
}

func TestService_MarkPremium_Idempotent(t *testing.T) {
	store := new(MockProfileStore)
	cacheMock := new(MockCache)

	store.On("MarkPremium", mock.Anything, "user-1", "ref-1", mock.Anything).Return(nil).Twice()
	cacheMock.On("Invalidate", "premium:user-1").Return(nil).Twice()

	service := New(store, cacheMock, nil, noopLogger())

	// повторная реконсиляция той же референции безопасна
	assert.NoError(t, service.MarkPremium(context.Background(), "user-1", "ref-1"))
	assert.NoError(t, service.MarkPremium(context.Background(), "user-1", "ref-1"))
	store.AssertExpectations(t)
}
