package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInsufficientFundsError(t *testing.T) {
	err := NewInsufficientFundsError(decimal.RequireFromString("21.58"), decimal.RequireFromString("10"))
	assert.Equal(t, "insufficient wallet balance: requested 21.58, available 10.00", err.Error())

	wrapped := fmt.Errorf("pay order: %w", err)
	assert.True(t, IsInsufficientFunds(wrapped))
	assert.False(t, IsInsufficientFunds(ErrOrderNotFound))
}

func TestGatewayErrorUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := NewGatewayError("crypto", "", cause)

	assert.Equal(t, "payment gateway crypto unavailable", err.Error())
	assert.ErrorIs(t, err, cause)

	withMessage := NewGatewayError("hosted-card", "card declined", nil)
	assert.Contains(t, withMessage.Error(), "card declined")
}

func TestReconciliationSkip(t *testing.T) {
	id := uuid.New()
	cause := errors.New("provider down")
	err := &ReconciliationSkip{OrderID: id, Cause: cause}

	assert.Contains(t, err.Error(), id.String())
	assert.ErrorIs(t, err, cause)
}
