package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	"github.com/wekeepgrowing/likes-market/pkg/messaging"
	"go.uber.org/zap"
)

// OrderEvent is published whenever an order changes status
type OrderEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	Reference      string    `json:"reference"`
	UserID         uuid.UUID `json:"user_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	PaymentMethod  string    `json:"payment_method,omitempty"`
	UpstreamStatus string    `json:"upstream_status,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// OrderEventPublisher fans order status changes out to subscribers. Publishing
// is best effort; a failed publish never fails the state change.
type OrderEventPublisher struct {
	publisher messaging.Publisher
	channel   string
	logger    *zap.Logger
}

// NewOrderEventPublisher creates a publisher writing to channel
func NewOrderEventPublisher(publisher messaging.Publisher, channel string, logger *zap.Logger) *OrderEventPublisher {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &OrderEventPublisher{
		publisher: publisher,
		channel:   channel,
		logger:    logger,
	}
}

// StatusChanged publishes the order's current status
func (p *OrderEventPublisher) StatusChanged(ctx context.Context, order *model.Order, previous model.OrderStatus) {
	if p == nil {
		return
	}

	event := OrderEvent{
		OrderID:        order.ID,
		Reference:      order.Reference,
		UserID:         order.UserID,
		Status:         string(order.Status),
		PreviousStatus: string(previous),
		PaymentMethod:  string(order.PaymentMethod),
		OccurredAt:     time.Now().UTC(),
	}
	if order.UpstreamStatus != nil {
		event.UpstreamStatus = *order.UpstreamStatus
	}

	if err := p.publisher.Publish(ctx, p.channel, event); err != nil {
		p.logger.Warn("Failed to publish order event",
			zap.String("order_id", order.ID.String()),
			zap.String("status", event.Status),
			zap.Error(err))
	}
}
