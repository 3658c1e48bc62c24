package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
)

// ReconcileUpdate is the outcome of one upstream status lookup
type ReconcileUpdate struct {
	OrderID        uuid.UUID
	UpstreamStatus string
	// NewStatus is nil when the upstream status does not change the local state
	NewStatus *model.OrderStatus
	CheckedAt time.Time
}

// OrderRepository defines persistence for orders
type OrderRepository interface {
	// Create stores a new order in PENDING_PAYMENT
	Create(ctx context.Context, order *model.Order) error

	// GetByID retrieves an order; returns ErrOrderNotFound when missing
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// FindForReconciliation returns PROCESSING orders that have an upstream id, oldest check first
	FindForReconciliation(ctx context.Context, limit int) ([]*model.Order, error)

	// FindAwaitingDispatch returns PROCESSING orders never submitted upstream
	FindAwaitingDispatch(ctx context.Context, limit int) ([]*model.Order, error)

	// ApplyReconciliation persists the raw upstream status and, when NewStatus is set,
	// moves the order out of PROCESSING. Returns true when the local status changed.
	ApplyReconciliation(ctx context.Context, update ReconcileUpdate) (bool, error)

	// MarkDispatched records the upstream order id after a successful submission
	MarkDispatched(ctx context.Context, id uuid.UUID, upstreamOrderID string, at time.Time) error

	// MarkDispatchFailed records a failed submission so it is not resubmitted blindly
	MarkDispatchFailed(ctx context.Context, id uuid.UUID, reason string, at time.Time) error
}
