package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	customErr "github.com/wekeepgrowing/likes-market/internal/domain/errors"
	"github.com/wekeepgrowing/likes-market/internal/domain/dto"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	"github.com/wekeepgrowing/likes-market/internal/domain/provider"
	domainRepo "github.com/wekeepgrowing/likes-market/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// GatewayResolver returns the gateway serving a payment method
type GatewayResolver interface {
	GetGateway(method model.PaymentMethod) (provider.PaymentGateway, error)
}

// DispatchRequest asks the dispatcher to start settling an order
type DispatchRequest struct {
	Order      *model.Order
	Method     model.PaymentMethod
	Options    dto.PaymentOptions
	SuccessURL string
	CancelURL  string
	WebhookURL string
}

// DispatchResult is the outcome of a dispatch. Payment is the stored attempt.
type DispatchResult struct {
	Settled     bool
	Payment     *model.Payment
	CheckoutURL string
}

// PaymentDispatcher drives the chosen gateway and records the payment attempt.
// It never retries; every call produces a fresh attempt.
type PaymentDispatcher struct {
	gateways GatewayResolver
	payments domainRepo.PaymentRepository
	logger   *zap.Logger
}

// NewPaymentDispatcher creates a new dispatcher instance
func NewPaymentDispatcher(gateways GatewayResolver, payments domainRepo.PaymentRepository, logger *zap.Logger) *PaymentDispatcher {
	return &PaymentDispatcher{
		gateways: gateways,
		payments: payments,
		logger:   logger,
	}
}

// ValidateOptions checks the gateway-specific inputs before an order is created
func (d *PaymentDispatcher) ValidateOptions(method model.PaymentMethod, opts dto.PaymentOptions) error {
	if !method.IsValid() {
		return customErr.NewValidationError("payment_method", fmt.Sprintf("unsupported payment method %q", method))
	}
	if method != model.PaymentMethodEmbeddedCard {
		return nil
	}
	if strings.TrimSpace(opts.SessionID) == "" {
		return customErr.NewValidationError("session_id", "is required for embedded-card payments")
	}
	if strings.TrimSpace(opts.PayerName) == "" {
		return customErr.NewValidationError("payer_name", "is required for embedded-card payments")
	}
	if strings.TrimSpace(opts.PayerEmail) == "" {
		return customErr.NewValidationError("payer_email", "is required for embedded-card payments")
	}
	return nil
}

// Dispatch starts settlement. Wallet errors (insufficient funds, blocked
// account) are returned as is; processor failures become GatewayError and
// leave no payment behind.
func (d *PaymentDispatcher) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	if err := d.ValidateOptions(req.Method, req.Options); err != nil {
		return nil, err
	}

	gateway, err := d.gateways.GetGateway(req.Method)
	if err != nil {
		d.logger.Error("Payment gateway unavailable",
			zap.String("method", string(req.Method)),
			zap.Error(err))
		return nil, customErr.NewGatewayError(string(req.Method), "payment method is not available", err)
	}

	order := req.Order
	result, err := gateway.Initiate(ctx, &provider.InitiateRequest{
		Order:     order,
		SessionID: req.Options.SessionID,
		Payer: provider.Payer{
			Name:  req.Options.PayerName,
			Email: req.Options.PayerEmail,
		},
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		WebhookURL: req.WebhookURL,
		Metadata:   paymentMetadata(order, nil),
	})
	if err != nil {
		if req.Method == model.PaymentMethodWallet {
			return nil, err
		}
		return nil, toGatewayError(req.Method, err)
	}

	if result.SettledSynchronously {
		d.logger.Info("Payment settled synchronously",
			zap.String("order_id", order.ID.String()),
			zap.String("method", string(req.Method)))
		return &DispatchResult{Settled: true, Payment: result.Payment}, nil
	}

	externalID := result.ExternalID
	payment := &model.Payment{
		ID:         uuid.New(),
		OrderID:    order.ID,
		Gateway:    req.Method,
		ExternalID: &externalID,
		Amount:     order.Price,
		Currency:   order.Currency,
		Status:     model.PaymentStatusPending,
		ExpiresAt:  result.ExpiresAt,
		Metadata:   datatypes.JSONMap(paymentMetadata(order, result.ProviderData)),
	}
	if result.CheckoutURL != "" {
		checkoutURL := result.CheckoutURL
		payment.CheckoutURL = &checkoutURL
	}

	if err := d.payments.CreatePending(ctx, payment); err != nil {
		d.logger.Error("Failed to record pending payment",
			zap.String("order_id", order.ID.String()),
			zap.String("external_id", externalID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	d.logger.Info("Payment initiated",
		zap.String("order_id", order.ID.String()),
		zap.String("method", string(req.Method)),
		zap.String("external_id", externalID))

	return &DispatchResult{
		Payment:     payment,
		CheckoutURL: result.CheckoutURL,
	}, nil
}

func paymentMetadata(order *model.Order, providerData map[string]interface{}) map[string]interface{} {
	metadata := map[string]interface{}{
		"reference": order.Reference,
	}
	if order.HasCoupon() {
		metadata["coupon_code"] = *order.CouponCode
		metadata["discount_amount"] = order.DiscountAmount.String()
	}
	for key, value := range providerData {
		metadata[key] = value
	}
	return metadata
}

func toGatewayError(method model.PaymentMethod, err error) error {
	var providerErr *provider.ProviderError
	if errors.As(err, &providerErr) {
		return customErr.NewGatewayError(string(method), providerErr.Message, err)
	}
	return customErr.NewGatewayError(string(method), err.Error(), err)
}
