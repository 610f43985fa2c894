package activate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kamerunnews/premium-activation/internal/gateway"
	"github.com/kamerunnews/premium-activation/internal/http/middlewarectx"
	"github.com/kamerunnews/premium-activation/internal/models"
	"github.com/kamerunnews/premium-activation/internal/services/activation"
)

// MockService реализует интерфейс activate.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Begin(ctx context.Context, userID string, amount int, description string) (*activation.Snapshot, error) {
	args := m.Called(ctx, userID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*activation.Snapshot), args.Error(1)
}

func TestActivateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		requestBody    interface{}
		userID         string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "некорректный JSON",
			requestBody:    "not a json",
			userID:         "user-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "ошибка валидации - отсутствует сумма",
			requestBody:    ActivateRequest{Description: "Abonnement Premium"},
			userID:         "user-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"field Amount is a required field"}`,
		},
		{
			name:           "нет авторизации",
			requestBody:    ActivateRequest{Amount: 25, Description: "Abonnement Premium"},
			userID:         "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:        "активация уже выполняется",
			requestBody: ActivateRequest{Amount: 25, Description: "Abonnement Premium"},
			userID:      "user-1",
			setupMock: func(m *MockService) {
				m.On("Begin", mock.Anything, "user-1", 25, "Abonnement Premium").
					Return(nil, fmt.Errorf("activation.Begin: %w", activation.ErrAlreadyInProgress))
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"status":"Error","error":"activation already in progress"}`,
		},
		{
			name:        "неверная сумма",
			requestBody: ActivateRequest{Amount: 100, Description: "Abonnement Premium"},
			userID:      "user-1",
			setupMock: func(m *MockService) {
				m.On("Begin", mock.Anything, "user-1", 100, "Abonnement Premium").
					Return(nil, fmt.Errorf("gateway.CreatePayment: %w: got 100, want 25", gateway.ErrWrongAmount))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"amount does not match the configured price"}`,
		},
		{
			name:        "ошибка шлюза",
			requestBody: ActivateRequest{Amount: 25, Description: "Abonnement Premium"},
			userID:      "user-1",
			setupMock: func(m *MockService) {
				m.On("Begin", mock.Anything, "user-1", 25, "Abonnement Premium").
					Return(nil, errors.New("gateway.CreatePayment: Le service de paiement est indisponible"))
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"status":"Error","error":"gateway.CreatePayment: Le service de paiement est indisponible"}`,
		},
		{
			name:        "успешный запуск активации",
			requestBody: ActivateRequest{Amount: 25, Description: "Abonnement Premium"},
			userID:      "user-1",
			setupMock: func(m *MockService) {
				m.On("Begin", mock.Anything, "user-1", 25, "Abonnement Premium").
					Return(&activation.Snapshot{
						State:        models.StateAwaitingCheckout,
						Reference:    "ref-1",
						CheckoutURL:  "https://pay.example.com/checkout/ref-1",
						Mode:         "test",
						CheckoutOpen: true,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{"status":"OK","data":{
				"state":"awaiting_checkout",
				"reference":"ref-1",
				"checkout_url":"https://pay.example.com/checkout/ref-1",
				"mode":"test",
				"verification_count":0,
				"checkout_open":true
			}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockService)
			tt.setupMock(mockSvc)

			handler := New(logger, mockSvc)

			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/premium/activate", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			ctx := context.WithValue(req.Context(), middlewarectx.UserID, tt.userID)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-id")
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockSvc.AssertExpectations(t)
		})
	}
}
