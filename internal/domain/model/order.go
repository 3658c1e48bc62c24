package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusProcessing     OrderStatus = "PROCESSING"
	OrderStatusCompleted      OrderStatus = "COMPLETED"
	OrderStatusFailed         OrderStatus = "FAILED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
	OrderStatusRefunded       OrderStatus = "REFUNDED"
)

// allowed status transitions
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment: {OrderStatusProcessing},
	OrderStatusProcessing:     {OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled},
	OrderStatusCompleted:      {OrderStatusRefunded},
}

// CanTransition reports whether an order may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no reconciliation can move the order further.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// AddOnSnapshot freezes an add-on's effective price at checkout time.
type AddOnSnapshot struct {
	UpsellID       uuid.UUID       `json:"upsell_id"`
	Name           string          `json:"name"`
	BasePrice      decimal.Decimal `json:"base_price"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
}

// Order is one purchase intent. Price is fixed at creation; only status and
// upstream fields change afterwards.
type Order struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Reference   string    `gorm:"size:21;uniqueIndex;not null" json:"reference"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Platform    string    `gorm:"size:50;not null" json:"platform"`
	ServiceType string    `gorm:"size:50;not null" json:"service_type"`
	ServiceID   string    `gorm:"size:50;not null" json:"service_id"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	Link        string    `gorm:"size:500" json:"link"`
	Email       string    `gorm:"size:255" json:"email,omitempty"`
	Currency    string    `gorm:"size:3;not null" json:"currency"`

	BasePrice      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"base_price"`
	AddOnsTotal    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"add_ons_total"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(15,4);not null" json:"discount_amount"`
	Price          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"price"`
	CouponID       *uuid.UUID      `gorm:"type:uuid" json:"coupon_id,omitempty"`
	CouponCode     *string         `gorm:"size:64" json:"coupon_code,omitempty"`

	AddOns datatypes.JSONSlice[AddOnSnapshot] `gorm:"type:jsonb" json:"add_ons,omitempty"`

	PaymentMethod PaymentMethod `gorm:"size:20;not null" json:"payment_method"`
	Status        OrderStatus   `gorm:"size:20;not null;index:idx_orders_status_created" json:"status"`

	UpstreamOrderID   *string    `gorm:"size:64;index" json:"upstream_order_id,omitempty"`
	UpstreamStatus    *string    `gorm:"size:64" json:"upstream_status,omitempty"`
	UpstreamCheckedAt *time.Time `json:"upstream_checked_at,omitempty"`
	DispatchedAt      *time.Time `json:"dispatched_at,omitempty"`
	DispatchError     *string    `gorm:"size:500" json:"dispatch_error,omitempty"`

	CreatedAt time.Time `gorm:"default:now();index:idx_orders_status_created" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// HasCoupon reports whether a discount code was priced into the order.
func (o *Order) HasCoupon() bool {
	return o.CouponID != nil && o.DiscountAmount.IsPositive()
}
