package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentMethod selects the settlement backend.
type PaymentMethod string

const (
	PaymentMethodWallet       PaymentMethod = "wallet"
	PaymentMethodCrypto       PaymentMethod = "crypto"
	PaymentMethodHostedCard   PaymentMethod = "hosted-card"
	PaymentMethodEmbeddedCard PaymentMethod = "embedded-card"
)

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodWallet, PaymentMethodCrypto, PaymentMethodHostedCard, PaymentMethodEmbeddedCard:
		return true
	}
	return false
}

// PaymentStatus is the state of one settlement attempt.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusSuccess  PaymentStatus = "SUCCESS"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// Payment is one settlement attempt for an order. Amount and currency never change.
type Payment struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"order_id"`
	Gateway     PaymentMethod     `gorm:"size:20;not null" json:"gateway"`
	ExternalID  *string           `gorm:"size:255;uniqueIndex" json:"external_id,omitempty"`
	Amount      decimal.Decimal   `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency    string            `gorm:"size:3;not null" json:"currency"`
	Status      PaymentStatus     `gorm:"size:20;not null" json:"status"`
	CheckoutURL *string           `gorm:"size:1000" json:"checkout_url,omitempty"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"default:now()" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Payment) TableName() string {
	return "payments"
}
