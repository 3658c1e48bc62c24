package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Upsell is an optional add-on item offered at checkout.
type Upsell struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Platform      string          `gorm:"size:50;not null;index:idx_upsells_scope" json:"platform"`
	ServiceType   string          `gorm:"size:50;not null;index:idx_upsells_scope" json:"service_type"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	BasePrice     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"base_price"`
	DiscountType  DiscountType    `gorm:"size:10;not null" json:"discount_type"`
	DiscountValue decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"discount_value"`
	IsActive      bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Upsell) TableName() string {
	return "upsells"
}

// EffectivePrice is the base price less its discount, never below zero,
// rounded to cents.
func (u *Upsell) EffectivePrice() decimal.Decimal {
	discount := u.DiscountType.Apply(u.BasePrice, u.DiscountValue)
	return u.BasePrice.Sub(discount).Round(2)
}

// Snapshot freezes the add-on for storage on an order.
func (u *Upsell) Snapshot() AddOnSnapshot {
	return AddOnSnapshot{
		UpsellID:       u.ID,
		Name:           u.Name,
		BasePrice:      u.BasePrice,
		EffectivePrice: u.EffectivePrice(),
	}
}
