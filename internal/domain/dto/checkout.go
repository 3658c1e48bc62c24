package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutRequest is the body of POST /api/v1/checkout
type CheckoutRequest struct {
	Platform      string          `json:"platform" validate:"required,max=50"`
	ServiceType   string          `json:"service_type" validate:"required,max=50"`
	ServiceID     string          `json:"service_id" validate:"required,max=50"`
	Quantity      int             `json:"quantity" validate:"required,gt=0"`
	BasePrice     decimal.Decimal `json:"base_price"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=wallet crypto hosted-card embedded-card"`
	Currency      string          `json:"currency" validate:"required,len=3"`
	CouponCode    string          `json:"coupon_code,omitempty" validate:"max=64"`
	AddOnIDs      []uuid.UUID     `json:"add_on_ids,omitempty"`
	Link          string          `json:"link,omitempty" validate:"omitempty,url,max=500"`
	Email         string          `json:"email,omitempty" validate:"omitempty,email"`

	PaymentOptions
}

// PaymentOptions carries gateway-specific inputs
type PaymentOptions struct {
	// SessionID is the processor session for embedded-card payments
	SessionID  string `json:"session_id,omitempty"`
	PayerName  string `json:"payer_name,omitempty"`
	PayerEmail string `json:"payer_email,omitempty" validate:"omitempty,email"`
}

// PayOrderRequest is the body of POST /api/v1/orders/:id/pay
type PayOrderRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=wallet crypto hosted-card embedded-card"`
	PaymentOptions
}

// CheckoutResponse is returned by checkout and pay. CheckoutURL is set for
// asynchronous gateways, PaymentStatus for the wallet.
type CheckoutResponse struct {
	OrderID       uuid.UUID    `json:"order_id"`
	Reference     string       `json:"reference"`
	CheckoutURL   string       `json:"checkout_url,omitempty"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	PaymentStatus string       `json:"payment_status,omitempty"`
	Pricing       *PriceQuote  `json:"pricing,omitempty"`
	Coupon        *CouponCheck `json:"coupon,omitempty"`
}

// PriceQuote is the breakdown of a final price
type PriceQuote struct {
	BasePrice        decimal.Decimal `json:"base_price"`
	AddOnsSubtotal   decimal.Decimal `json:"add_ons_subtotal"`
	PreDiscountTotal decimal.Decimal `json:"pre_discount_total"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	FinalPrice       decimal.Decimal `json:"final_price"`
}

// OrderResponse is the owner's view of an order
type OrderResponse struct {
	ID             uuid.UUID       `json:"id"`
	Reference      string          `json:"reference"`
	Platform       string          `json:"platform"`
	ServiceType    string          `json:"service_type"`
	Quantity       int             `json:"quantity"`
	Link           string          `json:"link,omitempty"`
	Currency       string          `json:"currency"`
	Price          decimal.Decimal `json:"price"`
	Status         string          `json:"status"`
	UpstreamStatus string          `json:"upstream_status,omitempty"`
	Payments       []PaymentDTO    `json:"payments"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PaymentDTO is a payment attempt as shown to the owner
type PaymentDTO struct {
	Gateway   string          `json:"gateway"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}
