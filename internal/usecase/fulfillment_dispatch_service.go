package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/likes-market/internal/domain/dto"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	"github.com/wekeepgrowing/likes-market/internal/domain/provider"
	domainRepo "github.com/wekeepgrowing/likes-market/internal/domain/repository"
	"go.uber.org/zap"
)

// FulfillmentDispatchService submits paid orders to the fulfillment provider.
// Submission is not idempotent upstream, so each order is tried exactly once;
// a failure is recorded on the order for an operator to resolve.
type FulfillmentDispatchService struct {
	orders    domainRepo.OrderRepository
	provider  provider.FulfillmentProvider
	batchSize int
	logger    *zap.Logger
	now       func() time.Time
}

// NewFulfillmentDispatchService creates a new dispatch service instance
func NewFulfillmentDispatchService(
	orders domainRepo.OrderRepository,
	fulfillmentProvider provider.FulfillmentProvider,
	batchSize int,
	logger *zap.Logger,
) *FulfillmentDispatchService {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &FulfillmentDispatchService{
		orders:    orders,
		provider:  fulfillmentProvider,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
	}
}

// Run submits one batch of PROCESSING orders that have no upstream id yet
func (s *FulfillmentDispatchService) Run(ctx context.Context) (*dto.DispatchReport, error) {
	orders, err := s.orders.FindAwaitingDispatch(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("Failed to select orders for dispatch", zap.Error(err))
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}

	report := &dto.DispatchReport{Selected: len(orders)}
	for _, order := range orders {
		if ctx.Err() != nil {
			break
		}
		if err := s.dispatch(ctx, order); err != nil {
			report.Failed = append(report.Failed, order.ID)
			continue
		}
		report.Dispatched++
	}

	if report.Selected > 0 {
		s.logger.Info("Fulfillment dispatch finished",
			zap.Int("selected", report.Selected),
			zap.Int("dispatched", report.Dispatched),
			zap.Int("failed", len(report.Failed)))
	}
	return report, nil
}

func (s *FulfillmentDispatchService) dispatch(ctx context.Context, order *model.Order) error {
	result, err := s.provider.AddOrder(ctx, &provider.AddOrderRequest{
		ServiceID: order.ServiceID,
		Link:      order.Link,
		Quantity:  order.Quantity,
	})
	if err != nil {
		s.logger.Error("Fulfillment submission failed",
			zap.String("order_id", order.ID.String()),
			zap.String("service_id", order.ServiceID),
			zap.Error(err))
		s.markFailed(ctx, order.ID, err.Error())
		return err
	}

	if err := s.orders.MarkDispatched(ctx, order.ID, result.UpstreamID, s.now().UTC()); err != nil {
		// The provider accepted the order; losing its id here needs manual repair.
		s.logger.Error("Failed to record upstream order id",
			zap.String("order_id", order.ID.String()),
			zap.String("upstream_order_id", result.UpstreamID),
			zap.Error(err))
		return err
	}

	s.logger.Info("Order dispatched",
		zap.String("order_id", order.ID.String()),
		zap.String("upstream_order_id", result.UpstreamID))
	return nil
}

func (s *FulfillmentDispatchService) markFailed(ctx context.Context, orderID uuid.UUID, reason string) {
	if err := s.orders.MarkDispatchFailed(ctx, orderID, reason, s.now().UTC()); err != nil {
		s.logger.Error("Failed to record dispatch failure",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
	}
}
