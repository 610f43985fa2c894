// Package activate обрабатывает запуск активации премиум-доступа.
package activate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/kamerunnews/premium-activation/internal/gateway"
	"github.com/kamerunnews/premium-activation/internal/http/middlewarectx"
	"github.com/kamerunnews/premium-activation/internal/http/response"
	"github.com/kamerunnews/premium-activation/internal/lib/sl"
	"github.com/kamerunnews/premium-activation/internal/services/activation"
)

// ActivateRequest представляет запрос на запуск активации.
type ActivateRequest struct {
	Amount      int    `json:"amount" validate:"required,numeric"`
	Description string `json:"description"`
}

// Service определяет интерфейс оркестратора активации.
type Service interface {
	Begin(ctx context.Context, userID string, amount int, description string) (*activation.Snapshot, error)
}

// Handler обрабатывает запросы на запуск активации.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Запустить активацию премиум-доступа
// @Description Создает платеж в платежном шлюзе и запускает цикл проверки статуса
// @Tags Premium
// @Accept  json
// @Produce  json
// @Param request body ActivateRequest true "Сумма и описание платежа"
// @Success 200 {object} response.Response "Снимок попытки активации"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Активация уже выполняется"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации или неверная сумма"
// @Failure 502 {object} response.ErrorResponse "Ошибка платежного шлюза"
// @Router /premium/activate [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.premium.activate"
	log := h.log.With(slog.String("op", op))

	var req ActivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userID, ok := r.Context().Value(middlewarectx.UserID).(string)
	if !ok || userID == "" {
		log.Error("user ID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	snapshot, err := h.service.Begin(r.Context(), userID, req.Amount, req.Description)
	switch {
	case errors.Is(err, activation.ErrAlreadyInProgress):
		log.Warn("activation already in progress", slog.String("user_id", userID))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("activation already in progress"))
		return
	case errors.Is(err, gateway.ErrWrongAmount):
		log.Error("wrong payment amount", slog.Int("amount", req.Amount))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("amount does not match the configured price"))
		return
	case err != nil:
		log.Error("failed to begin activation", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	log.Info("activation started",
		slog.String("user_id", userID),
		slog.String("reference", snapshot.Reference))
	render.JSON(w, r, response.OKWithData(snapshot))
}
