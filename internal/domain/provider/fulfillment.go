package provider

import (
	"context"

	"github.com/shopspring/decimal"
)

// FulfillmentProvider is the upstream engagement-delivery provider
type FulfillmentProvider interface {
	AddOrder(ctx context.Context, req *AddOrderRequest) (*AddOrderResult, error)
	OrderStatus(ctx context.Context, upstreamID string) (*UpstreamOrderStatus, error)
	OrdersStatus(ctx context.Context, upstreamIDs []string) (map[string]*UpstreamOrderStatus, error)
	Refill(ctx context.Context, upstreamIDs []string) ([]*RefillResult, error)
	RefillStatus(ctx context.Context, refillIDs []string) ([]*RefillStatusResult, error)
	Cancel(ctx context.Context, upstreamIDs []string) ([]*CancelResult, error)
	Balance(ctx context.Context) (*AccountBalance, error)
	Services(ctx context.Context) ([]*CatalogService, error)
}

// AddOrderRequest submits a new fulfillment order
type AddOrderRequest struct {
	ServiceID string
	Link      string
	Quantity  int
	// Extra carries type-specific parameters (comments, usernames, runs, interval...)
	Extra map[string]string
}

// AddOrderResult is the provider's acknowledgement of a submission
type AddOrderResult struct {
	UpstreamID string
	Charge     decimal.NullDecimal
	Status     string
}

// UpstreamOrderStatus is the provider's view of one order. Error is set when the
// provider reported a per-id problem inside a batch response.
type UpstreamOrderStatus struct {
	Status     string              `json:"status"`
	Charge     decimal.NullDecimal `json:"charge"`
	StartCount int64               `json:"start_count"`
	Remains    int64               `json:"remains"`
	Currency   string              `json:"currency"`
	Error      string              `json:"error,omitempty"`
}

// RefillResult is the outcome of a refill request for one order
type RefillResult struct {
	UpstreamID string `json:"order"`
	RefillID   string `json:"refill,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RefillStatusResult is the state of one refill
type RefillStatusResult struct {
	RefillID string `json:"refill"`
	Status   string `json:"status,omitempty"`
	Error    string `json:"error,omitempty"`
}

// CancelResult is the outcome of a cancel request for one order
type CancelResult struct {
	UpstreamID string `json:"order"`
	Accepted   bool   `json:"accepted"`
	Error      string `json:"error,omitempty"`
}

// AccountBalance is the provider account balance
type AccountBalance struct {
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// CatalogService is one entry of the provider's service catalog
type CatalogService struct {
	ServiceID string          `json:"service"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Category  string          `json:"category"`
	Rate      decimal.Decimal `json:"rate"`
	Min       int64           `json:"min"`
	Max       int64           `json:"max"`
	Refill    bool            `json:"refill"`
	Cancel    bool            `json:"cancel"`
}
