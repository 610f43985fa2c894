// Package attempt обрабатывает запрос снимка текущей попытки активации.
package attempt

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/kamerunnews/premium-activation/internal/http/middlewarectx"
	"github.com/kamerunnews/premium-activation/internal/http/response"
	"github.com/kamerunnews/premium-activation/internal/lib/sl"
	"github.com/kamerunnews/premium-activation/internal/services/activation"
)

// Service определяет интерфейс оркестратора активации.
type Service interface {
	Snapshot(userID string) (*activation.Snapshot, error)
}

// Handler обрабатывает запросы снимка попытки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить снимок текущей попытки активации
// @Tags Premium
// @Produce  json
// @Success 200 {object} response.Response "Снимок попытки"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Попытка не найдена"
// @Router /premium/attempt [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.premium.attempt"
	log := h.log.With(slog.String("op", op))

	userID, ok := r.Context().Value(middlewarectx.UserID).(string)
	if !ok || userID == "" {
		log.Error("user ID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	snapshot, err := h.service.Snapshot(userID)
	if err != nil {
		if errors.Is(err, activation.ErrNoAttempt) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("no activation attempt"))
			return
		}
		log.Error("failed to read attempt snapshot", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.OKWithData(snapshot))
}
