package verifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/kamerunnews/premium-activation/internal/gateway"
	"github.com/kamerunnews/premium-activation/internal/models"
)

// MockGateway реализует интерфейс Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) VerifyRaw(ctx context.Context, reference string) (*gateway.RawVerification, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.RawVerification), args.Error(1)
}

// MockReconciler реализует интерфейс Reconciler
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) MarkPremium(ctx context.Context, userID, reference string) error {
	args := m.Called(ctx, userID, reference)
	return args.Error(0)
}

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_Verify_Classification(t *testing.T) {
	tests := []struct {
		name          string
		raw           *gateway.RawVerification
		rawErr        error
		wantStatus    models.PaymentStatus
		wantReconcile bool
	}{
		{
			name: "paid flag",
			raw: &gateway.RawVerification{
				StatusCode: 200,
				Body:       gateway.VerifyBody{Paid: true},
			},
			wantStatus:    models.PaymentPaid,
			wantReconcile: true,
		},
		{
			name: "status complete",
			raw: &gateway.RawVerification{
				StatusCode: 200,
				Body:       gateway.VerifyBody{Status: "complete"},
			},
			wantStatus:    models.PaymentPaid,
			wantReconcile: true,
		},
		{
			name: "status terminé",
			raw: &gateway.RawVerification{
				StatusCode: 200,
				Body:       gateway.VerifyBody{Status: "terminé"},
			},
			wantStatus:    models.PaymentPaid,
			wantReconcile: true,
		},
		{
			name: "status success",
			raw: &gateway.RawVerification{
				StatusCode: 200,
				Body:       gateway.VerifyBody{Status: "success"},
			},
			wantStatus:    models.PaymentPaid,
			wantReconcile: true,
		},
		{
			name: "pending flag",
			raw: &gateway.RawVerification{
				StatusCode: 200,
				Body:       gateway.VerifyBody{Pending: true},
			},
			wantStatus: models.PaymentPending,
		},
		{
			name: "status pending",
			raw: &gateway.RawVerification{
				StatusCode: 200,
				Body:       gateway.VerifyBody{Status: "pending"},
			},
			wantStatus: models.PaymentPending,
		},
		{
			name: "status failed",
			raw: &gateway.RawVerification{
				StatusCode: 200,
				Body:       gateway.VerifyBody{Status: "failed"},
			},
			wantStatus: models.PaymentFailed,
		},
		{
			name: "status canceled",
			raw: &gateway.RawVerification{
				StatusCode: 200,
				Body:       gateway.VerifyBody{Status: "canceled"},
			},
			wantStatus: models.PaymentFailed,
		},
		{
			name: "status cancelled",
			raw: &gateway.RawVerification{
				StatusCode: 200,
				Body:       gateway.VerifyBody{Status: "cancelled"},
			},
			wantStatus: models.PaymentFailed,
		},
		{
			name: "empty 2xx body defaults to pending",
			raw: &gateway.RawVerification{
				StatusCode: 200,
				Body:       gateway.VerifyBody{},
			},
			wantStatus: models.PaymentPending,
		},
		{
			name: "unknown status defaults to pending",
			raw: &gateway.RawVerification{
				StatusCode: 200,
				Body:       gateway.VerifyBody{Status: "processing"},
			},
			wantStatus: models.PaymentPending,
		},
		{
			name: "non-2xx response",
			raw: &gateway.RawVerification{
				StatusCode: 500,
				Body:       gateway.VerifyBody{Message: "internal"},
			},
			wantStatus: models.PaymentError,
		},
		{
			name:       "transport error",
			rawErr:     errors.New("connection refused"),
			wantStatus: models.PaymentError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockGw := new(MockGateway)
			mockRec := new(MockReconciler)
			mockGw.On("VerifyRaw", mock.Anything, "ref-1").Return(tt.raw, tt.rawErr)
			if tt.wantReconcile {
				mockRec.On("MarkPremium", mock.Anything, "user-1", "ref-1").Return(nil)
			}

			service := New(mockGw, mockRec, noopLogger())
			result := service.Verify(context.Background(), "user-1", "ref-1")

			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantReconcile, result.Reconciled)
			assert.NotEmpty(t, result.Message)
			mockGw.AssertExpectations(t)
			mockRec.AssertExpectations(t)
		})
	}
}

func TestService_Verify_PaidSurvivesReconcileFailure(t *testing.T) {
	mockGw := new(MockGateway)
	mockRec := new(MockReconciler)
	mockGw.On("VerifyRaw", mock.Anything, "ref-1").Return(&gateway.RawVerification{
		StatusCode: 200,
		Body:       gateway.VerifyBody{Paid: true},
	}, nil)
	mockRec.On("MarkPremium", mock.Anything, "user-1", "ref-1").
		Return(errors.New("database down"))

	service := New(mockGw, mockRec, noopLogger())
	result := service.Verify(context.Background(), "user-1", "ref-1")

	// платёж подтверждён: статус остаётся paid, но без Reconciled —
	// вызывающий обязан оставить референцию открытой для повторной сверки
	assert.Equal(t, models.PaymentPaid, result.Status)
	assert.False(t, result.Reconciled)
	mockRec.AssertExpectations(t)
}
