// Package force обрабатывает ручную активацию премиум-доступа в обход
// верификации платежа.
package force

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
	ForceActivate(ctx context.Context, userID string) (*activation.Snapshot, error)
}

// Handler обрабатывает запросы принудительной активации.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Принудительно активировать премиум-доступ
// @Description Записывает премиум-флаг по текущей ссылке платежа без повторного обращения к шлюзу
// @Tags Premium
// @Produce  json
// @Success 200 {object} response.Response "Снимок попытки после активации"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Активная попытка не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка записи в хранилище"
// @Router /premium/force [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.premium.force"
	log := h.log.With(slog.String("op", op))

	userID, ok := r.Context().Value(middlewarectx.UserID).(string)
	if !ok || userID == "" {
		log.Error("user ID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	snapshot, err := h.service.ForceActivate(r.Context(), userID)
	if err != nil {
		if errors.Is(err, activation.ErrNoAttempt) {
			log.Warn("no attempt to force-activate", slog.String("user_id", userID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("no active activation attempt"))
			return
		}
		log.Error("force activation failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Warn("premium activated manually", slog.String("user_id", userID))
	render.JSON(w, r, response.OKWithData(snapshot))
}
