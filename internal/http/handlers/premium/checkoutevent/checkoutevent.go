// Package checkoutevent обрабатывает навигационные события встроенной
// страницы оплаты.
package checkoutevent

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/kamerunnews/premium-activation/internal/http/middlewarectx"
	"github.com/kamerunnews/premium-activation/internal/http/response"
	"github.com/kamerunnews/premium-activation/internal/lib/sl"
	"github.com/kamerunnews/premium-activation/internal/services/activation"
)

// CheckoutEventRequest представляет навигационное событие страницы оплаты.
// Event принимает значения "navigation" или "closed".
type CheckoutEventRequest struct {
	Event string `json:"event" validate:"required"`
	URL   string `json:"url"`
}

// CheckoutEventResult сообщает, распознан ли переход как завершение оплаты.
type CheckoutEventResult struct {
	CompletionDetected bool `json:"completion_detected"`
}

// Service определяет интерфейс оркестратора активации.
type Service interface {
	NoteCheckoutNavigation(userID, url string) (bool, error)
	CheckoutClosed(userID string)
}

// Handler обрабатывает навигационные события страницы оплаты.
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
// @Summary Сообщить о навигации на странице оплаты
// @Description Принимает событие перехода или закрытия страницы оплаты и при совпадении URL с шаблоном завершения ускоряет проверку платежа
// @Tags Premium
// @Accept  json
// @Produce  json
// @Param request body CheckoutEventRequest true "Событие и URL перехода"
// @Success 200 {object} response.Response "Результат распознавания"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Активная попытка не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /premium/checkout/events [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.premium.checkoutevent"
	log := h.log.With(slog.String("op", op))

	var req CheckoutEventRequest
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

	if req.Event == "closed" {
		h.service.CheckoutClosed(userID)
		log.Info("checkout closed", slog.String("user_id", userID))
		render.JSON(w, r, response.OKWithData(CheckoutEventResult{}))
		return
	}

	matched, err := h.service.NoteCheckoutNavigation(userID, req.URL)
	if err != nil {
		if errors.Is(err, activation.ErrNoAttempt) {
			log.Warn("no active attempt for checkout event", slog.String("user_id", userID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("no active activation attempt"))
			return
		}
		log.Error("failed to process checkout event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("checkout navigation processed",
		slog.String("user_id", userID),
		slog.Bool("completion_detected", matched))
	render.JSON(w, r, response.OKWithData(CheckoutEventResult{CompletionDetected: matched}))
}
