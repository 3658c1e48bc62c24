package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DiscountType is shared by coupons and add-on items.
type DiscountType string

const (
	DiscountTypePercent DiscountType = "PERCENT"
	DiscountTypeFixed   DiscountType = "FIXED"
)

var hundred = decimal.NewFromInt(100)

// Apply returns the discount that value of this type takes off amount,
// clamped to [0, amount].
func (t DiscountType) Apply(amount, value decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch t {
	case DiscountTypePercent:
		discount = amount.Mul(value).Div(hundred)
	case DiscountTypeFixed:
		discount = value
	default:
		return decimal.Zero
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(amount) {
		return amount
	}
	return discount
}

// CouponStatus controls whether a code may be used at all.
type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "ACTIVE"
	CouponStatusDisabled CouponStatus = "DISABLED"
)

// Coupon is a discount code.
type Coupon struct {
	ID                    uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Code                  string                      `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Description           string                      `gorm:"size:255" json:"description,omitempty"`
	Type                  DiscountType                `gorm:"size:10;not null" json:"type"`
	Value                 decimal.Decimal             `gorm:"type:decimal(15,2);not null" json:"value"`
	Currency              string                      `gorm:"size:3" json:"currency,omitempty"`
	Status                CouponStatus                `gorm:"size:10;not null;default:'ACTIVE'" json:"status"`
	StartsAt              *time.Time                  `json:"starts_at,omitempty"`
	ExpiresAt             *time.Time                  `json:"expires_at,omitempty"`
	MaxRedemptions        *int                        `json:"max_redemptions,omitempty"`
	MaxRedemptionsPerUser *int                        `json:"max_redemptions_per_user,omitempty"`
	RedemptionCount       int                         `gorm:"not null;default:0" json:"redemption_count"`
	MinOrderAmount        decimal.NullDecimal         `gorm:"type:decimal(15,2)" json:"min_order_amount,omitempty"`
	ServiceTypes          datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"service_types,omitempty"`
	CreatedAt             time.Time                   `gorm:"default:now()" json:"created_at"`
	UpdatedAt             time.Time                   `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Coupon) TableName() string {
	return "coupons"
}

// AppliesTo reports whether the coupon's service filter admits serviceType.
// An empty filter admits everything.
func (c *Coupon) AppliesTo(serviceType string) bool {
	if len(c.ServiceTypes) == 0 || serviceType == "" {
		return true
	}
	for _, allowed := range c.ServiceTypes {
		if strings.EqualFold(allowed, serviceType) {
			return true
		}
	}
	return false
}

// CouponRedemption records that a coupon was applied to an order. Never updated.
type CouponRedemption struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CouponID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_coupon_redemptions_coupon_user" json:"coupon_id"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_coupon_redemptions_coupon_user" json:"user_id"`
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"order_id"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(15,4);not null" json:"discount_amount"`
	RedeemedAt     time.Time       `gorm:"default:now()" json:"redeemed_at"`
}

// TableName specifies the table name for GORM
func (CouponRedemption) TableName() string {
	return "coupon_redemptions"
}
