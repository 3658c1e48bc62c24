package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	customErr "github.com/wekeepgrowing/likes-market/internal/domain/errors"
	"github.com/wekeepgrowing/likes-market/internal/domain/dto"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/likes-market/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// CheckoutURLs are the public endpoints handed to payment processors
type CheckoutURLs struct {
	// ClientURL is the storefront the buyer returns to
	ClientURL string
	// PublicURL is this service's externally reachable base for webhooks
	PublicURL string
}

// CheckoutService owns the order state machine from checkout up to PROCESSING
type CheckoutService struct {
	orders      domainRepo.OrderRepository
	payments    domainRepo.PaymentRepository
	settlements domainRepo.SettlementRepository
	wallets     domainRepo.WalletRepository
	coupons     domainRepo.CouponRepository
	pricing     *PricingService
	dispatcher  *PaymentDispatcher
	events      *OrderEventPublisher
	urls        CheckoutURLs
	logger      *zap.Logger
}

// NewCheckoutService creates a new checkout service instance
func NewCheckoutService(
	orders domainRepo.OrderRepository,
	payments domainRepo.PaymentRepository,
	settlements domainRepo.SettlementRepository,
	wallets domainRepo.WalletRepository,
	coupons domainRepo.CouponRepository,
	pricing *PricingService,
	dispatcher *PaymentDispatcher,
	events *OrderEventPublisher,
	urls CheckoutURLs,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		orders:      orders,
		payments:    payments,
		settlements: settlements,
		wallets:     wallets,
		coupons:     coupons,
		pricing:     pricing,
		dispatcher:  dispatcher,
		events:      events,
		urls:        urls,
		logger:      logger,
	}
}

// Checkout prices the request, creates the order and starts payment. When
// payment fails the order stays PENDING_PAYMENT and the error is returned.
func (s *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	method := model.PaymentMethod(req.PaymentMethod)
	if err := s.dispatcher.ValidateOptions(method, req.PaymentOptions); err != nil {
		return nil, err
	}

	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	quote, err := s.pricing.Quote(ctx, PriceInput{
		UserID:      user.ID,
		Platform:    req.Platform,
		ServiceType: req.ServiceType,
		Currency:    req.Currency,
		BasePrice:   req.BasePrice,
		Quantity:    req.Quantity,
		AddOnIDs:    req.AddOnIDs,
		CouponCode:  req.CouponCode,
	})
	if err != nil {
		return nil, err
	}

	reference, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate order reference: %w", err)
	}

	email := req.Email
	if email == "" {
		email = user.Email
	}

	order := &model.Order{
		ID:             uuid.New(),
		Reference:      reference,
		UserID:         user.ID,
		Platform:       strings.ToLower(req.Platform),
		ServiceType:    strings.ToLower(req.ServiceType),
		ServiceID:      req.ServiceID,
		Quantity:       req.Quantity,
		Link:           req.Link,
		Email:          email,
		Currency:       strings.ToUpper(req.Currency),
		BasePrice:      quote.BasePrice,
		AddOnsTotal:    quote.AddOnsSubtotal,
		DiscountAmount: quote.DiscountAmount,
		Price:          quote.FinalPrice,
		PaymentMethod:  method,
		Status:         model.OrderStatusPendingPayment,
	}
	if len(quote.AddOns) > 0 {
		order.AddOns = datatypes.JSONSlice[model.AddOnSnapshot](quote.AddOns)
	}
	if quote.Coupon != nil {
		couponID := quote.Coupon.ID
		code := quote.Coupon.Code
		order.CouponID = &couponID
		order.CouponCode = &code
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("reference", order.Reference),
		zap.String("user_id", user.ID.String()),
		zap.String("price", order.Price.String()),
		zap.String("method", string(method)))
	s.events.StatusChanged(ctx, order, "")

	resp, err := s.pay(ctx, order, method, req.PaymentOptions)
	if err != nil {
		return nil, err
	}
	resp.Pricing = quote.ToDTO()
	resp.Coupon = quote.CouponCheck
	return resp, nil
}

// PayOrder starts a new payment attempt for the caller's PENDING_PAYMENT order
func (s *CheckoutService) PayOrder(ctx context.Context, userID, orderID uuid.UUID, req dto.PayOrderRequest) (*dto.CheckoutResponse, error) {
	method := model.PaymentMethod(req.PaymentMethod)
	if err := s.dispatcher.ValidateOptions(method, req.PaymentOptions); err != nil {
		return nil, err
	}

	if _, err := s.activeUser(ctx, userID); err != nil {
		return nil, err
	}

	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusPendingPayment {
		return nil, customErr.ErrInvalidTransition
	}

	return s.pay(ctx, order, method, req.PaymentOptions)
}

// GetOrder returns the caller's order with its payment attempts
func (s *CheckoutService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	payments, err := s.payments.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	resp := &dto.OrderResponse{
		ID:          order.ID,
		Reference:   order.Reference,
		Platform:    order.Platform,
		ServiceType: order.ServiceType,
		Quantity:    order.Quantity,
		Link:        order.Link,
		Currency:    order.Currency,
		Price:       order.Price,
		Status:      string(order.Status),
		Payments:    make([]dto.PaymentDTO, 0, len(payments)),
		CreatedAt:   order.CreatedAt,
	}
	if order.UpstreamStatus != nil {
		resp.UpstreamStatus = *order.UpstreamStatus
	}
	for _, payment := range payments {
		resp.Payments = append(resp.Payments, dto.PaymentDTO{
			Gateway:   string(payment.Gateway),
			Amount:    payment.Amount,
			Currency:  payment.Currency,
			Status:    string(payment.Status),
			CreatedAt: payment.CreatedAt,
		})
	}
	return resp, nil
}

// ConfirmPayment completes an asynchronous payment. Repeated confirmations
// are no-ops; the coupon is redeemed only on the first one.
func (s *CheckoutService) ConfirmPayment(ctx context.Context, externalID string) (*model.Order, error) {
	order, transitioned, err := s.settlements.ConfirmPayment(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if !transitioned {
		s.logger.Info("Payment confirmation ignored, order already settled",
			zap.String("order_id", order.ID.String()),
			zap.String("external_id", externalID),
			zap.String("status", string(order.Status)))
		return order, nil
	}

	s.afterSettlement(ctx, order)
	return order, nil
}

// FailPayment records a failed asynchronous payment. The order stays
// PENDING_PAYMENT so the buyer can pay again.
func (s *CheckoutService) FailPayment(ctx context.Context, externalID string) (*model.Payment, error) {
	payment, err := s.settlements.FailPayment(ctx, externalID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment failed",
		zap.String("order_id", payment.OrderID.String()),
		zap.String("external_id", externalID),
		zap.String("status", string(payment.Status)))
	return payment, nil
}

func (s *CheckoutService) pay(ctx context.Context, order *model.Order, method model.PaymentMethod, opts dto.PaymentOptions) (*dto.CheckoutResponse, error) {
	result, err := s.dispatcher.Dispatch(ctx, DispatchRequest{
		Order:      order,
		Method:     method,
		Options:    opts,
		SuccessURL: s.returnURL(order, "success"),
		CancelURL:  s.returnURL(order, "cancelled"),
		WebhookURL: fmt.Sprintf("%s/webhooks/%s", strings.TrimRight(s.urls.PublicURL, "/"), method),
	})
	if err != nil {
		s.logger.Warn("Payment not started, order left pending",
			zap.String("order_id", order.ID.String()),
			zap.String("method", string(method)),
			zap.Error(err))
		return nil, err
	}

	resp := &dto.CheckoutResponse{
		OrderID:   order.ID,
		Reference: order.Reference,
	}

	if result.Settled {
		s.afterSettlement(ctx, order)
		resp.PaymentStatus = string(model.PaymentStatusSuccess)
		return resp, nil
	}

	resp.CheckoutURL = result.CheckoutURL
	resp.ExpiresAt = result.Payment.ExpiresAt
	resp.PaymentStatus = string(model.PaymentStatusPending)
	return resp, nil
}

// afterSettlement runs once per order, right after PENDING_PAYMENT -> PROCESSING
func (s *CheckoutService) afterSettlement(ctx context.Context, order *model.Order) {
	order.Status = model.OrderStatusProcessing

	if order.HasCoupon() {
		err := s.coupons.RecordRedemption(ctx, &model.CouponRedemption{
			CouponID:       *order.CouponID,
			UserID:         order.UserID,
			OrderID:        order.ID,
			DiscountAmount: order.DiscountAmount,
		})
		switch {
		case errors.Is(err, customErr.ErrAlreadyRedeemed):
			s.logger.Debug("Coupon redemption already recorded",
				zap.String("order_id", order.ID.String()))
		case err != nil:
			s.logger.Error("Failed to record coupon redemption",
				zap.String("order_id", order.ID.String()),
				zap.String("coupon_id", order.CouponID.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("Order paid",
		zap.String("order_id", order.ID.String()),
		zap.String("method", string(order.PaymentMethod)))
	s.events.StatusChanged(ctx, order, model.OrderStatusPendingPayment)
}

func (s *CheckoutService) activeUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.wallets.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Blocked {
		s.logger.Warn("Blocked user attempted payment", zap.String("user_id", userID.String()))
		return nil, customErr.ErrAccountBlocked
	}
	return user, nil
}

func (s *CheckoutService) ownedOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, customErr.ErrOrderNotFound
	}
	return order, nil
}

func (s *CheckoutService) returnURL(order *model.Order, outcome string) string {
	return fmt.Sprintf("%s/orders/%s?status=%s", strings.TrimRight(s.urls.ClientURL, "/"), order.Reference, outcome)
}
