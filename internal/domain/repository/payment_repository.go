package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
)

// PaymentRepository defines persistence for payment attempts
type PaymentRepository interface {
	// CreatePending stores a PENDING payment and marks earlier PENDING payments of
	// the same order FAILED in the same transaction.
	CreatePending(ctx context.Context, payment *model.Payment) error

	// GetByExternalID retrieves a payment by processor id; returns ErrPaymentNotFound when missing
	GetByExternalID(ctx context.Context, externalID string) (*model.Payment, error)

	// ListByOrder returns all payment attempts of an order, newest first
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*model.Payment, error)
}

// WalletSettlement is the input of the atomic wallet payment
type WalletSettlement struct {
	Order   *model.Order
	Payment *model.Payment
	Note    string
}

// SettlementRepository performs the multi-entity state transitions of the order
// state machine inside single database transactions.
type SettlementRepository interface {
	// SettleWithWallet locks the user row, re-checks the balance, debits it, writes the
	// DEBIT ledger entry, creates the SUCCESS payment and moves the order to PROCESSING.
	// Nothing persists unless all four succeed.
	SettleWithWallet(ctx context.Context, settlement WalletSettlement) (*model.WalletTransaction, error)

	// ConfirmPayment marks the payment SUCCESS and moves its order to PROCESSING.
	// transitioned is false when the order had already left PENDING_PAYMENT.
	ConfirmPayment(ctx context.Context, externalID string) (order *model.Order, transitioned bool, err error)

	// FailPayment marks a PENDING payment FAILED. The order stays PENDING_PAYMENT.
	FailPayment(ctx context.Context, externalID string) (*model.Payment, error)
}

// WalletRepository defines the stored-value ledger
type WalletRepository interface {
	// GetUser retrieves the account; returns ErrUserNotFound when missing
	GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error)

	// Credit adds funds atomically. A non-empty referenceID makes the call idempotent.
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, note, referenceID string) (*model.User, *model.WalletTransaction, error)

	// History returns ledger entries newest first
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*model.WalletTransaction, int64, error)

	// LedgerSum returns the signed sum of all ledger entries of a user
	LedgerSum(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}
