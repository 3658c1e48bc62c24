package errors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrAccountBlocked is returned when a blocked user attempts checkout or payment
	ErrAccountBlocked = errors.New("account is blocked")
	// ErrOrderNotFound is returned when an order does not exist or belongs to another user
	ErrOrderNotFound = errors.New("order not found")
	// ErrUserNotFound is returned when the authenticated user has no account row
	ErrUserNotFound = errors.New("user not found")
	// ErrPaymentNotFound is returned when no payment matches an external identifier
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrInvalidTransition is returned when an order is not in a state that allows the operation
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrAlreadyRedeemed is returned when a redemption for the order already exists
	ErrAlreadyRedeemed = errors.New("coupon already redeemed for order")
	// ErrDuplicateReference is returned when a wallet credit reuses a reference id
	ErrDuplicateReference = errors.New("duplicate wallet reference")
)

// InsufficientFundsError is returned when a wallet balance cannot cover a debit
type InsufficientFundsError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient wallet balance: requested %s, available %s",
		e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

// NewInsufficientFundsError creates a new InsufficientFundsError
func NewInsufficientFundsError(requested, available decimal.Decimal) *InsufficientFundsError {
	return &InsufficientFundsError{
		Requested: requested,
		Available: available,
	}
}

// GatewayError is returned when an external payment processor is unreachable
// or rejects a request. Message is the processor's own reason when known.
type GatewayError struct {
	Gateway string
	Message string
	Cause   error
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("payment gateway %s unavailable: %s", e.Gateway, e.Message)
	}
	return fmt.Sprintf("payment gateway %s unavailable", e.Gateway)
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// NewGatewayError creates a new GatewayError
func NewGatewayError(gateway, message string, cause error) *GatewayError {
	return &GatewayError{Gateway: gateway, Message: message, Cause: cause}
}

// ValidationError reports a malformed input value
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ReconciliationSkip records that one order could not be reconciled in a run.
// It is logged only and never returned to users.
type ReconciliationSkip struct {
	OrderID uuid.UUID
	Cause   error
}

func (e *ReconciliationSkip) Error() string {
	return fmt.Sprintf("reconciliation skipped for order %s: %v", e.OrderID, e.Cause)
}

func (e *ReconciliationSkip) Unwrap() error {
	return e.Cause
}

// IsInsufficientFunds reports whether err is or wraps an InsufficientFundsError
func IsInsufficientFunds(err error) bool {
	var target *InsufficientFundsError
	return errors.As(err, &target)
}
