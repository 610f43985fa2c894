// Package status обрабатывает запрос текущего премиум-статуса с немедленной
// сверкой платежа и хранилища.
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/kamerunnews/premium-activation/internal/http/middlewarectx"
	"github.com/kamerunnews/premium-activation/internal/http/response"
	"github.com/kamerunnews/premium-activation/internal/models"
)

// Service определяет интерфейс фонового наблюдателя.
type Service interface {
	CheckAndReconcile(ctx context.Context, userID, reference string) models.PremiumCheckResult
	Start(userID string)
}

// Handler обрабатывает запросы премиум-статуса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Проверить премиум-статус
// @Description Читает профиль, при необходимости сверяет незакрытый платеж со шлюзом и перезапускает фоновое наблюдение
// @Tags Premium
// @Produce  json
// @Param reference query string false "Ссылка платежа для сверки"
// @Success 200 {object} response.Response "Результат проверки"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /premium/status [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.premium.status"
	log := h.log.With(slog.String("op", op))

	userID, ok := r.Context().Value(middlewarectx.UserID).(string)
	if !ok || userID == "" {
		log.Error("user ID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	reference := r.URL.Query().Get("reference")
	result := h.service.CheckAndReconcile(r.Context(), userID, reference)
	if !result.IsPremium && !result.Erred {
		// профиль ещё не премиум, наблюдение продолжит сверку в фоне
		h.service.Start(userID)
	}

	log.Info("premium status checked",
		slog.String("user_id", userID),
		slog.Bool("is_premium", result.IsPremium),
		slog.Bool("erred", result.Erred))
	render.JSON(w, r, response.OKWithData(result))
}
