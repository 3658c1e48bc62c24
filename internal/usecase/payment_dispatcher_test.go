package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	customErr "github.com/wekeepgrowing/likes-market/internal/domain/errors"
	"github.com/wekeepgrowing/likes-market/internal/domain/dto"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	"github.com/wekeepgrowing/likes-market/internal/domain/provider"
	"github.com/wekeepgrowing/likes-market/internal/usecase"
)

func pendingOrder() *model.Order {
	couponID := uuid.New()
	code := "SAVE10"
	return &model.Order{
		ID:             uuid.New(),
		Reference:      "V1StGXR8_Z5jdHi6B-myT",
		UserID:         uuid.New(),
		Platform:       "instagram",
		ServiceType:    "likes",
		ServiceID:      "1",
		Quantity:       1000,
		Currency:       "USD",
		BasePrice:      d("15.99"),
		AddOnsTotal:    d("7.99"),
		DiscountAmount: d("2.398"),
		Price:          d("21.58"),
		CouponID:       &couponID,
		CouponCode:     &code,
		Status:         model.OrderStatusPendingPayment,
	}
}

func TestPaymentDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("async gateway records a pending payment", func(t *testing.T) {
		gateway := &MockPaymentGateway{method: model.PaymentMethodHostedCard}
		payments := new(MockPaymentRepository)
		dispatcher := usecase.NewPaymentDispatcher(staticResolver{model.PaymentMethodHostedCard: gateway}, payments, zap.NewNop())
		order := pendingOrder()
		expiresAt := time.Now().Add(30 * time.Minute)

		gateway.On("Initiate", ctx, mock.MatchedBy(func(req *provider.InitiateRequest) bool {
			return req.Order == order && req.Metadata["coupon_code"] == "SAVE10"
		})).Return(&provider.InitiateResult{
			ExternalID:   "cs_test_1",
			CheckoutURL:  "https://checkout.example/cs_test_1",
			ExpiresAt:    &expiresAt,
			ProviderData: map[string]interface{}{"unit_amount": int64(2158)},
		}, nil)
		payments.On("CreatePending", ctx, mock.MatchedBy(func(p *model.Payment) bool {
			return p.OrderID == order.ID &&
				*p.ExternalID == "cs_test_1" &&
				p.Status == model.PaymentStatusPending &&
				p.Amount.Equal(order.Price) &&
				p.Currency == "USD" &&
				p.Metadata["reference"] == order.Reference
		})).Return(nil)

		result, err := dispatcher.Dispatch(ctx, usecase.DispatchRequest{Order: order, Method: model.PaymentMethodHostedCard})

		require.NoError(t, err)
		assert.False(t, result.Settled)
		assert.Equal(t, "https://checkout.example/cs_test_1", result.CheckoutURL)
		assert.Equal(t, &expiresAt, result.Payment.ExpiresAt)
		payments.AssertExpectations(t)
	})

	t.Run("processor failure leaves no payment", func(t *testing.T) {
		gateway := &MockPaymentGateway{method: model.PaymentMethodCrypto}
		payments := new(MockPaymentRepository)
		dispatcher := usecase.NewPaymentDispatcher(staticResolver{model.PaymentMethodCrypto: gateway}, payments, zap.NewNop())

		gateway.On("Initiate", ctx, mock.Anything).Return(nil, &provider.ProviderError{
			Code:    "HTTP_422",
			Message: "Minimum amount is 5 USD",
		})

		_, err := dispatcher.Dispatch(ctx, usecase.DispatchRequest{Order: pendingOrder(), Method: model.PaymentMethodCrypto})

		var gatewayErr *customErr.GatewayError
		require.True(t, errors.As(err, &gatewayErr))
		assert.Equal(t, "crypto", gatewayErr.Gateway)
		assert.Equal(t, "Minimum amount is 5 USD", gatewayErr.Message)
		payments.AssertNotCalled(t, "CreatePending", mock.Anything, mock.Anything)
	})

	t.Run("unconfigured gateway", func(t *testing.T) {
		dispatcher := usecase.NewPaymentDispatcher(staticResolver{}, new(MockPaymentRepository), zap.NewNop())

		_, err := dispatcher.Dispatch(ctx, usecase.DispatchRequest{Order: pendingOrder(), Method: model.PaymentMethodCrypto})

		var gatewayErr *customErr.GatewayError
		require.True(t, errors.As(err, &gatewayErr))
		assert.ErrorIs(t, err, errNotConfigured)
	})

	t.Run("wallet errors pass through", func(t *testing.T) {
		gateway := &MockPaymentGateway{method: model.PaymentMethodWallet}
		dispatcher := usecase.NewPaymentDispatcher(staticResolver{model.PaymentMethodWallet: gateway}, new(MockPaymentRepository), zap.NewNop())
		order := pendingOrder()

		gateway.On("Initiate", ctx, mock.Anything).
			Return(nil, customErr.NewInsufficientFundsError(order.Price, d("5.00")))

		_, err := dispatcher.Dispatch(ctx, usecase.DispatchRequest{Order: order, Method: model.PaymentMethodWallet})

		assert.True(t, customErr.IsInsufficientFunds(err))
	})

	t.Run("wallet settles synchronously", func(t *testing.T) {
		gateway := &MockPaymentGateway{method: model.PaymentMethodWallet}
		payments := new(MockPaymentRepository)
		dispatcher := usecase.NewPaymentDispatcher(staticResolver{model.PaymentMethodWallet: gateway}, payments, zap.NewNop())

		payment := &model.Payment{ID: uuid.New(), Status: model.PaymentStatusSuccess}
		gateway.On("Initiate", ctx, mock.Anything).Return(&provider.InitiateResult{
			SettledSynchronously: true,
			Payment:              payment,
		}, nil)

		result, err := dispatcher.Dispatch(ctx, usecase.DispatchRequest{Order: pendingOrder(), Method: model.PaymentMethodWallet})

		require.NoError(t, err)
		assert.True(t, result.Settled)
		assert.Equal(t, payment, result.Payment)
		payments.AssertNotCalled(t, "CreatePending", mock.Anything, mock.Anything)
	})
}

func TestPaymentDispatcher_ValidateOptions(t *testing.T) {
	dispatcher := usecase.NewPaymentDispatcher(staticResolver{}, new(MockPaymentRepository), zap.NewNop())

	assert.NoError(t, dispatcher.ValidateOptions(model.PaymentMethodWallet, dto.PaymentOptions{}))
	assert.NoError(t, dispatcher.ValidateOptions(model.PaymentMethodEmbeddedCard, dto.PaymentOptions{
		SessionID:  "sess_1",
		PayerName:  "Ada",
		PayerEmail: "ada@example.com",
	}))

	var validationErr *customErr.ValidationError
	err := dispatcher.ValidateOptions(model.PaymentMethodEmbeddedCard, dto.PaymentOptions{PayerName: "Ada", PayerEmail: "ada@example.com"})
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "session_id", validationErr.Field)

	err = dispatcher.ValidateOptions(model.PaymentMethodEmbeddedCard, dto.PaymentOptions{SessionID: "sess_1"})
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "payer_name", validationErr.Field)

	err = dispatcher.ValidateOptions(model.PaymentMethod("paypal"), dto.PaymentOptions{})
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "payment_method", validationErr.Field)
}
