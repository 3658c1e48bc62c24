package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValidateCouponRequest is the body of POST /api/v1/coupons/validate
type ValidateCouponRequest struct {
	Code        string          `json:"code" validate:"required,max=64"`
	OrderAmount decimal.Decimal `json:"order_amount"`
	ServiceType string          `json:"service_type,omitempty" validate:"max=50"`
}

// ValidateCouponResponse never mutates redemption state
type ValidateCouponResponse struct {
	Valid   bool       `json:"valid"`
	Coupon  *CouponDTO `json:"coupon,omitempty"`
	Message string     `json:"message"`
}

// CouponDTO is the public view of a coupon
type CouponDTO struct {
	Code           string          `json:"code"`
	Description    string          `json:"description,omitempty"`
	Type           string          `json:"type"`
	Value          decimal.Decimal `json:"value"`
	Currency       string          `json:"currency,omitempty"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// CouponCheck tells the buyer whether the submitted code was applied
type CouponCheck struct {
	Code    string `json:"code"`
	Applied bool   `json:"applied"`
	Message string `json:"message"`
}
