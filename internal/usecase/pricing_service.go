package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	customErr "github.com/wekeepgrowing/likes-market/internal/domain/errors"
	"github.com/wekeepgrowing/likes-market/internal/domain/dto"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/likes-market/internal/domain/repository"
	"go.uber.org/zap"
)

// PriceInput is everything needed to price a checkout
type PriceInput struct {
	UserID      uuid.UUID
	Platform    string
	ServiceType string
	Currency    string
	BasePrice   decimal.Decimal
	Quantity    int
	AddOnIDs    []uuid.UUID
	CouponCode  string
}

// Quote is a priced checkout. Coupon is nil when no code was applied.
type Quote struct {
	BasePrice        decimal.Decimal
	AddOns           []model.AddOnSnapshot
	AddOnsSubtotal   decimal.Decimal
	PreDiscountTotal decimal.Decimal
	DiscountAmount   decimal.Decimal
	FinalPrice       decimal.Decimal
	Coupon           *model.Coupon
	CouponCheck      *dto.CouponCheck
}

// ToDTO converts the quote into its API representation
func (q *Quote) ToDTO() *dto.PriceQuote {
	return &dto.PriceQuote{
		BasePrice:        q.BasePrice,
		AddOnsSubtotal:   q.AddOnsSubtotal,
		PreDiscountTotal: q.PreDiscountTotal,
		DiscountAmount:   q.DiscountAmount,
		FinalPrice:       q.FinalPrice,
	}
}

// couponVerdict is the result of checking a coupon against an order
type couponVerdict struct {
	applied  bool
	discount decimal.Decimal
	message  string
}

// PricingService computes final prices from base price, add-ons and coupons.
// It never writes redemption state.
type PricingService struct {
	upsells domainRepo.UpsellRepository
	coupons domainRepo.CouponRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewPricingService creates a new pricing service instance
func NewPricingService(upsells domainRepo.UpsellRepository, coupons domainRepo.CouponRepository, logger *zap.Logger) *PricingService {
	return &PricingService{
		upsells: upsells,
		coupons: coupons,
		logger:  logger,
		now:     time.Now,
	}
}

// Quote prices a checkout. Unknown, inactive or out-of-scope add-ons are
// dropped. A rejected coupon yields zero discount and a message, never an error.
func (s *PricingService) Quote(ctx context.Context, in PriceInput) (*Quote, error) {
	if !in.BasePrice.IsPositive() {
		return nil, customErr.NewValidationError("base_price", "must be positive")
	}
	if in.Quantity <= 0 {
		return nil, customErr.NewValidationError("quantity", "must be positive")
	}

	quote := &Quote{
		BasePrice:      in.BasePrice,
		AddOnsSubtotal: decimal.Zero,
		DiscountAmount: decimal.Zero,
	}

	addOns, err := s.resolveAddOns(ctx, in)
	if err != nil {
		return nil, err
	}
	for _, addOn := range addOns {
		snapshot := addOn.Snapshot()
		quote.AddOns = append(quote.AddOns, snapshot)
		quote.AddOnsSubtotal = quote.AddOnsSubtotal.Add(snapshot.EffectivePrice)
	}
	quote.PreDiscountTotal = in.BasePrice.Add(quote.AddOnsSubtotal)

	if code := strings.TrimSpace(in.CouponCode); code != "" {
		coupon, err := s.coupons.GetActiveByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to look up coupon: %w", err)
		}

		userID := in.UserID
		verdict, err := s.evaluate(ctx, coupon, &userID, quote.PreDiscountTotal, in.ServiceType, in.Currency)
		if err != nil {
			return nil, err
		}

		quote.CouponCheck = &dto.CouponCheck{
			Code:    code,
			Applied: verdict.applied,
			Message: verdict.message,
		}
		if verdict.applied {
			quote.Coupon = coupon
			quote.DiscountAmount = verdict.discount
		} else {
			s.logger.Info("Coupon not applied",
				zap.String("code", code),
				zap.String("user_id", in.UserID.String()),
				zap.String("reason", verdict.message))
		}
	}

	final := quote.PreDiscountTotal.Sub(quote.DiscountAmount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	quote.FinalPrice = final.Round(2)

	return quote, nil
}

// ValidateCoupon checks a code against an order amount without touching
// redemption state. userID is nil for anonymous callers, which skips the
// per-user cap.
func (s *PricingService) ValidateCoupon(ctx context.Context, req dto.ValidateCouponRequest, userID *uuid.UUID) (*dto.ValidateCouponResponse, error) {
	if req.OrderAmount.IsNegative() {
		return nil, customErr.NewValidationError("order_amount", "must not be negative")
	}

	coupon, err := s.coupons.GetActiveByCode(ctx, strings.TrimSpace(req.Code))
	if err != nil {
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}

	verdict, err := s.evaluate(ctx, coupon, userID, req.OrderAmount, req.ServiceType, "")
	if err != nil {
		return nil, err
	}
	if !verdict.applied {
		return &dto.ValidateCouponResponse{Valid: false, Message: verdict.message}, nil
	}

	return &dto.ValidateCouponResponse{
		Valid:   true,
		Message: verdict.message,
		Coupon: &dto.CouponDTO{
			Code:           coupon.Code,
			Description:    coupon.Description,
			Type:           string(coupon.Type),
			Value:          coupon.Value,
			Currency:       coupon.Currency,
			ExpiresAt:      coupon.ExpiresAt,
			DiscountAmount: verdict.discount,
		},
	}, nil
}

func (s *PricingService) resolveAddOns(ctx context.Context, in PriceInput) ([]*model.Upsell, error) {
	if len(in.AddOnIDs) == 0 {
		return nil, nil
	}

	seen := make(map[uuid.UUID]bool, len(in.AddOnIDs))
	ids := make([]uuid.UUID, 0, len(in.AddOnIDs))
	for _, id := range in.AddOnIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	upsells, err := s.upsells.FindActiveByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load add-ons: %w", err)
	}

	scoped := make([]*model.Upsell, 0, len(upsells))
	for _, upsell := range upsells {
		if !upsell.IsActive {
			continue
		}
		if !strings.EqualFold(upsell.Platform, in.Platform) || !strings.EqualFold(upsell.ServiceType, in.ServiceType) {
			s.logger.Debug("Dropping add-on outside checkout scope",
				zap.String("upsell_id", upsell.ID.String()),
				zap.String("platform", in.Platform),
				zap.String("service_type", in.ServiceType))
			continue
		}
		scoped = append(scoped, upsell)
	}
	return scoped, nil
}

// evaluate applies the coupon rules in order. The first failing rule wins.
func (s *PricingService) evaluate(ctx context.Context, coupon *model.Coupon, userID *uuid.UUID, amount decimal.Decimal, serviceType, currency string) (couponVerdict, error) {
	if coupon == nil {
		return couponVerdict{message: "Coupon not found"}, nil
	}

	now := s.now()
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return couponVerdict{message: "Coupon is not active yet"}, nil
	}
	if coupon.ExpiresAt != nil && !now.Before(*coupon.ExpiresAt) {
		return couponVerdict{message: "Coupon has expired"}, nil
	}
	if coupon.MaxRedemptions != nil && coupon.RedemptionCount >= *coupon.MaxRedemptions {
		return couponVerdict{message: "Coupon usage limit reached"}, nil
	}
	if coupon.MinOrderAmount.Valid && amount.LessThan(coupon.MinOrderAmount.Decimal) {
		return couponVerdict{message: fmt.Sprintf("Minimum order amount is %s", coupon.MinOrderAmount.Decimal.StringFixed(2))}, nil
	}
	if !coupon.AppliesTo(serviceType) {
		return couponVerdict{message: "Coupon does not apply to this service"}, nil
	}
	if coupon.Type == model.DiscountTypeFixed && coupon.Currency != "" && currency != "" &&
		!strings.EqualFold(coupon.Currency, currency) {
		return couponVerdict{message: fmt.Sprintf("Coupon is only valid for %s orders", coupon.Currency)}, nil
	}

	if userID != nil && coupon.MaxRedemptionsPerUser != nil {
		used, err := s.coupons.CountUserRedemptions(ctx, coupon.ID, *userID)
		if err != nil {
			return couponVerdict{}, fmt.Errorf("failed to count coupon redemptions: %w", err)
		}
		if used >= int64(*coupon.MaxRedemptionsPerUser) {
			return couponVerdict{message: "You have already used this coupon"}, nil
		}
	}

	return couponVerdict{
		applied:  true,
		discount: coupon.Type.Apply(amount, coupon.Value),
		message:  "Coupon applied",
	}, nil
}
