package dto

import (
	"time"

	"github.com/google/uuid"
)

// ReconcileReport summarizes one poller run
type ReconcileReport struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Selected  int           `json:"selected"`
	Updated   int           `json:"updated"`
	Unchanged int           `json:"unchanged"`
	Skipped   []uuid.UUID   `json:"skipped,omitempty"`
}

// DispatchReport summarizes one fulfillment dispatch run
type DispatchReport struct {
	Selected   int         `json:"selected"`
	Dispatched int         `json:"dispatched"`
	Failed     []uuid.UUID `json:"failed,omitempty"`
}

// UpstreamIDsRequest is the body of provider refill/cancel operations
type UpstreamIDsRequest struct {
	OrderIDs []string `json:"order_ids" validate:"required,min=1,max=100,dive,required"`
}
