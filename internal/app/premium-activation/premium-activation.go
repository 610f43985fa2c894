// Package premiumactivation собирает и запускает основное приложение.
package premiumactivation

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/kamerunnews/premium-activation/internal/cache"
	"github.com/kamerunnews/premium-activation/internal/checkout"
	"github.com/kamerunnews/premium-activation/internal/config"
	"github.com/kamerunnews/premium-activation/internal/gateway"
	"github.com/kamerunnews/premium-activation/internal/lib/rabbitmq"
	"github.com/kamerunnews/premium-activation/internal/lib/sched"
	"github.com/kamerunnews/premium-activation/internal/migrations"
	"github.com/kamerunnews/premium-activation/internal/services/activation"
	"github.com/kamerunnews/premium-activation/internal/services/reconciler"
	"github.com/kamerunnews/premium-activation/internal/services/verifier"
	"github.com/kamerunnews/premium-activation/internal/services/watcher"
	"github.com/kamerunnews/premium-activation/internal/session"
	"github.com/kamerunnews/premium-activation/internal/storage"
)

// App держит HTTP-сервер и долгоживущие зависимости приложения.
type App struct {
	server       *http.Server
	logger       *slog.Logger
	db           *storage.Storage
	rabbitConn   *amqp.Connection
	orchestrator *activation.Orchestrator
	watcher      *watcher.Watcher
}

// New инициализирует все зависимости и собирает приложение.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	// Публикация событий активации опциональна: без брокера сервис
	// продолжает работать, downstream просто не получает уведомлений.
	var rabbitConn *amqp.Connection
	var events reconciler.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		rabbitConn, err = rabbitmq.Connect(cfg.RabbitMQ.URL, 5, 3*time.Second)
		if err != nil {
			return nil, err
		}
		ch, err := rabbitmq.SetupChannel(rabbitConn)
		if err != nil {
			return nil, err
		}
		events = rabbitmq.NewPublisher(ch)
	}

	clk := clock.New()

	sessionManager := session.NewManager(cfg.Session.AuthURL,
		cfg.Session.AccessToken, cfg.Session.RefreshToken,
		cfg.Session.ExpiryLeeway, cfg.Session.RefreshTimeout, clk)

	gatewayClient := gateway.NewClient(cfg.Gateway.BackendURL,
		cfg.Gateway.PriceAmount, sessionManager, cfg.Gateway.TimeoutGateway)

	reconcilerService := reconciler.New(db, cacheRedis, events, logger)
	verifierService := verifier.New(gatewayClient, reconcilerService, logger)

	orchestratorService := activation.New(gatewayClient, verifierService,
		reconcilerService, db,
		checkout.NewURLPatternDetector(checkout.DefaultPatterns()...),
		sched.New(clk),
		activation.Config{
			InitialVerifyDelay:  cfg.Activation.InitialVerifyDelay,
			PendingRetryDelay:   cfg.Activation.PendingRetryDelay,
			ErrorRetryDelay:     cfg.Activation.ErrorRetryDelay,
			CallbackVerifyDelay: cfg.Activation.CallbackVerifyDelay,
			VerifyCeiling:       cfg.Activation.VerifyCeiling,
		}, logger)

	watcherService := watcher.New(db, db, verifierService, cacheRedis,
		orchestratorService, sched.New(clk),
		cfg.Activation.WatcherInterval, cfg.Activation.PremiumCacheTTL, logger)
	orchestratorService.SetWatch(watcherService)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, db, orchestratorService, watcherService, gatewayClient)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:       srv,
		logger:       logger,
		db:           db,
		rabbitConn:   rabbitConn,
		orchestrator: orchestratorService,
		watcher:      watcherService,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.watcher.Close()
		a.orchestrator.Close()
		if a.rabbitConn != nil {
			_ = a.rabbitConn.Close()
		}
		_ = a.db.DB.Close()
		return err
	}
}
