// Package premiumactivation предоставляет маршруты для основного приложения.
package premiumactivation

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/kamerunnews/premium-activation/internal/gateway"
	"github.com/kamerunnews/premium-activation/internal/http/handlers/gatewayconfig"
	"github.com/kamerunnews/premium-activation/internal/http/handlers/health"
	"github.com/kamerunnews/premium-activation/internal/http/handlers/premium/activate"
	"github.com/kamerunnews/premium-activation/internal/http/handlers/premium/attempt"
	"github.com/kamerunnews/premium-activation/internal/http/handlers/premium/attempts"
	"github.com/kamerunnews/premium-activation/internal/http/handlers/premium/checkoutevent"
	"github.com/kamerunnews/premium-activation/internal/http/handlers/premium/force"
	"github.com/kamerunnews/premium-activation/internal/http/handlers/premium/status"
	"github.com/kamerunnews/premium-activation/internal/http/handlers/premium/verify"
	"github.com/kamerunnews/premium-activation/internal/http/middlewarectx"
	"github.com/kamerunnews/premium-activation/internal/services/activation"
	"github.com/kamerunnews/premium-activation/internal/services/watcher"
	"github.com/kamerunnews/premium-activation/internal/storage"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, db *storage.Storage,
	orchestrator *activation.Orchestrator, premiumWatcher *watcher.Watcher,
	gatewayClient *gateway.Client) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(10, 30)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger, db).ServeHTTP)
		r.Get("/payments/config", gatewayconfig.New(logger, gatewayClient).ServeHTTP)

		// Группа с сессионной аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.SessionMiddleware(logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))
			r.Post("/premium/activate", activate.New(logger, orchestrator).ServeHTTP)
			r.Post("/premium/checkout/events", checkoutevent.New(logger, orchestrator).ServeHTTP)
			r.Post("/premium/verify", verify.New(logger, orchestrator).ServeHTTP)
			r.Get("/premium/attempt", attempt.New(logger, orchestrator).ServeHTTP)
			r.Get("/premium/attempts", attempts.New(logger, db).ServeHTTP)
			r.Get("/premium/status", status.New(logger, premiumWatcher).ServeHTTP)
			r.Post("/premium/force", force.New(logger, orchestrator).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
