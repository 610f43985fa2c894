// Package attempts обрабатывает запрос истории платежных попыток пользователя.
package attempts

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/kamerunnews/premium-activation/internal/http/middlewarectx"
	"github.com/kamerunnews/premium-activation/internal/http/response"
	"github.com/kamerunnews/premium-activation/internal/lib/sl"
	"github.com/kamerunnews/premium-activation/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Service определяет интерфейс журнала попыток.
type Service interface {
	ListAttempts(ctx context.Context, userID string, limit, offset int) ([]*models.PaymentAttempt, error)
}

// Handler обрабатывает запросы истории попыток.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить историю платежных попыток
// @Tags Premium
// @Produce  json
// @Param limit query int false "Максимум записей (по умолчанию 20)"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response "Список попыток"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка чтения журнала"
// @Router /premium/attempts [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.premium.attempts"
	log := h.log.With(slog.String("op", op))

	userID, ok := r.Context().Value(middlewarectx.UserID).(string)
	if !ok || userID == "" {
		log.Error("user ID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= maxLimit {
			limit = n
		}
	}
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}

	items, err := h.service.ListAttempts(r.Context(), userID, limit, offset)
	if err != nil {
		log.Error("failed to list attempts", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("attempts listed",
		slog.String("user_id", userID),
		slog.Int("count", len(items)))
	render.JSON(w, r, response.OKWithData(items))
}
