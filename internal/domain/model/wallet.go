package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User owns the stored-value balance. Balance only changes together with a
// WalletTransaction row.
type User struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string          `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Balance   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	Blocked   bool            `gorm:"not null;default:false" json:"blocked"`
	CreatedAt time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// WalletTransactionType represents the direction of a ledger entry
type WalletTransactionType string

const (
	WalletTransactionDebit  WalletTransactionType = "DEBIT"
	WalletTransactionCredit WalletTransactionType = "CREDIT"
)

// WalletTransaction is an append-only ledger entry. Amount is always positive;
// Type gives the direction.
type WalletTransaction struct {
	ID           int64                 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uuid.UUID             `gorm:"type:uuid;not null;index:idx_wallet_transactions_user_created" json:"user_id"`
	Type         WalletTransactionType `gorm:"size:10;not null" json:"type"`
	Amount       decimal.Decimal       `gorm:"type:decimal(15,2);not null" json:"amount"`
	BalanceAfter decimal.Decimal       `gorm:"type:decimal(15,2);not null" json:"balance_after"`
	Note         string                `gorm:"size:255;not null" json:"note"`
	OrderID      *uuid.UUID            `gorm:"type:uuid;index" json:"order_id,omitempty"`
	ReferenceID  *string               `gorm:"size:200;uniqueIndex" json:"reference_id,omitempty"`
	CreatedAt    time.Time             `gorm:"default:now();index:idx_wallet_transactions_user_created" json:"created_at"`
}

// TableName specifies the table name for GORM
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

// Signed returns the balance delta of the entry.
func (t *WalletTransaction) Signed() decimal.Decimal {
	if t.Type == WalletTransactionDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}
