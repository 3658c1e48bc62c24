package provider

import (
	"context"
	"time"

	"github.com/wekeepgrowing/likes-market/internal/domain/model"
)

// PaymentGateway drives one payment method's settlement protocol
type PaymentGateway interface {
	// Initiate either settles the order synchronously or returns a redirect handle
	Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResult, error)

	// Method returns the payment method this gateway serves
	Method() model.PaymentMethod
}

// Payer identifies the person paying, required by the embedded-card gateway
type Payer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// InitiateRequest represents a gateway-agnostic settlement request
type InitiateRequest struct {
	Order *model.Order
	// SessionID is the processor session obtained out of band (embedded-card only)
	SessionID string
	Payer     Payer
	// SuccessURL and CancelURL are where the processor redirects the buyer
	SuccessURL string
	CancelURL  string
	// WebhookURL is where the processor reports the outcome
	WebhookURL string
	Metadata   map[string]interface{}
}

// InitiateResult represents the outcome of a settlement attempt
type InitiateResult struct {
	SettledSynchronously bool
	// Payment is set when the gateway persisted the payment itself (wallet)
	Payment     *model.Payment
	ExternalID  string
	CheckoutURL string
	ExpiresAt   *time.Time
	// ProviderData is stored as payment metadata
	ProviderData map[string]interface{}
}
