// Package verify обрабатывает ручную проверку статуса платежа.
package verify

import (
	"context"
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
	VerifyNow(ctx context.Context, userID string) (*activation.Snapshot, error)
}

// Handler обрабатывает запросы ручной проверки платежа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Проверить платеж вручную
// @Description Выполняет немедленную проверку статуса платежа для текущей попытки активации
// @Tags Premium
// @Produce  json
// @Success 200 {object} response.Response "Снимок попытки после проверки"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Активная попытка не найдена"
// @Router /premium/verify [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.premium.verify"
	log := h.log.With(slog.String("op", op))

	userID, ok := r.Context().Value(middlewarectx.UserID).(string)
	if !ok || userID == "" {
		log.Error("user ID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	snapshot, err := h.service.VerifyNow(r.Context(), userID)
	if err != nil {
		if errors.Is(err, activation.ErrNoAttempt) {
			log.Warn("no verifiable attempt", slog.String("user_id", userID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("no verifiable activation attempt"))
			return
		}
		log.Error("manual verification failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("manual verification completed",
		slog.String("user_id", userID),
		slog.String("state", string(snapshot.State)))
	render.JSON(w, r, response.OKWithData(snapshot))
}
