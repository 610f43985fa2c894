// Package gatewayconfig проксирует публичную конфигурацию платежного шлюза.
package gatewayconfig

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/kamerunnews/premium-activation/internal/gateway"
	"github.com/kamerunnews/premium-activation/internal/http/response"
	"github.com/kamerunnews/premium-activation/internal/lib/sl"
)

// Service определяет интерфейс клиента платежного шлюза.
type Service interface {
	Config(ctx context.Context) (*gateway.GatewayConfig, error)
}

// Handler обрабатывает запросы конфигурации шлюза.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить конфигурацию платежного шлюза
// @Description Возвращает публичный режим работы шлюза (test или live)
// @Tags Payments
// @Produce  json
// @Success 200 {object} gateway.GatewayConfig "Конфигурация шлюза"
// @Failure 502 {object} response.ErrorResponse "Шлюз недоступен"
// @Router /payments/config [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.gatewayconfig"
	log := h.log.With(slog.String("op", op))

	cfg, err := h.service.Config(r.Context())
	if err != nil {
		log.Error("failed to fetch gateway config", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("payment gateway unavailable"))
		return
	}

	render.JSON(w, r, cfg)
}
