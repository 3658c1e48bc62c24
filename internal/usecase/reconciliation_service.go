package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	customErr "github.com/wekeepgrowing/likes-market/internal/domain/errors"
	"github.com/wekeepgrowing/likes-market/internal/domain/dto"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	"github.com/wekeepgrowing/likes-market/internal/domain/provider"
	domainRepo "github.com/wekeepgrowing/likes-market/internal/domain/repository"
	"github.com/wekeepgrowing/likes-market/internal/infrastructure/fulfillment"
	"go.uber.org/zap"
)

// DefaultBatchSize bounds the orders handled per poller run
const DefaultBatchSize = 100

// MapUpstreamStatus translates a provider status string. It returns nil when
// the local status should not change.
func MapUpstreamStatus(upstream string) *model.OrderStatus {
	var status model.OrderStatus
	switch strings.ToLower(strings.TrimSpace(upstream)) {
	case "completed", "partial":
		status = model.OrderStatusCompleted
	case "canceled", "cancelled":
		status = model.OrderStatusCancelled
	case "failed":
		status = model.OrderStatusFailed
	default:
		// "in progress", "pending", "processing" and unknown values
		return nil
	}
	return &status
}

// RetryPolicy configures retries of idempotent provider reads
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// ReconciliationService moves PROCESSING orders to their final status based
// on the fulfillment provider's view
type ReconciliationService struct {
	orders    domainRepo.OrderRepository
	provider  provider.FulfillmentProvider
	events    *OrderEventPublisher
	batchSize int
	retry     RetryPolicy
	logger    *zap.Logger
	now       func() time.Time
}

// NewReconciliationService creates a new reconciliation service instance
func NewReconciliationService(
	orders domainRepo.OrderRepository,
	fulfillmentProvider provider.FulfillmentProvider,
	events *OrderEventPublisher,
	batchSize int,
	retry RetryPolicy,
	logger *zap.Logger,
) *ReconciliationService {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ReconciliationService{
		orders:    orders,
		provider:  fulfillmentProvider,
		events:    events,
		batchSize: batchSize,
		retry:     retry,
		logger:    logger,
		now:       time.Now,
	}
}

// Run reconciles one batch sequentially. A failing order is skipped and
// logged; only a failed selection aborts the run.
func (s *ReconciliationService) Run(ctx context.Context) (*dto.ReconcileReport, error) {
	report := &dto.ReconcileReport{StartedAt: s.now().UTC()}

	orders, err := s.orders.FindForReconciliation(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("Failed to select orders for reconciliation", zap.Error(err))
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}
	report.Selected = len(orders)

	for _, order := range orders {
		if ctx.Err() != nil {
			s.logger.Warn("Reconciliation interrupted",
				zap.Int("remaining", report.Selected-report.Updated-report.Unchanged-len(report.Skipped)))
			break
		}

		moved, err := s.reconcile(ctx, order)
		var skip *customErr.ReconciliationSkip
		switch {
		case errors.As(err, &skip):
			report.Skipped = append(report.Skipped, order.ID)
			s.logger.Warn("Order skipped during reconciliation",
				zap.String("order_id", order.ID.String()),
				zap.Error(skip.Cause))
		case moved:
			report.Updated++
		default:
			report.Unchanged++
		}
	}

	report.Duration = s.now().Sub(report.StartedAt)
	s.logger.Info("Reconciliation finished",
		zap.Int("selected", report.Selected),
		zap.Int("updated", report.Updated),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("skipped", len(report.Skipped)),
		zap.Duration("duration", report.Duration))

	return report, nil
}

func (s *ReconciliationService) reconcile(ctx context.Context, order *model.Order) (bool, error) {
	if order.UpstreamOrderID == nil {
		return false, &customErr.ReconciliationSkip{OrderID: order.ID, Cause: errors.New("order has no upstream id")}
	}
	upstreamID := *order.UpstreamOrderID

	status, err := fulfillment.Retry(ctx, s.retry.Attempts, s.retry.Delay,
		func(ctx context.Context) (*provider.UpstreamOrderStatus, error) {
			return s.provider.OrderStatus(ctx, upstreamID)
		})
	if err != nil {
		return false, &customErr.ReconciliationSkip{OrderID: order.ID, Cause: err}
	}
	if status.Error != "" {
		return false, &customErr.ReconciliationSkip{
			OrderID: order.ID,
			Cause:   fmt.Errorf("provider rejected order %s: %s", upstreamID, status.Error),
		}
	}

	newStatus := MapUpstreamStatus(status.Status)
	moved, err := s.orders.ApplyReconciliation(ctx, domainRepo.ReconcileUpdate{
		OrderID:        order.ID,
		UpstreamStatus: status.Status,
		NewStatus:      newStatus,
		CheckedAt:      s.now().UTC(),
	})
	if err != nil {
		return false, &customErr.ReconciliationSkip{OrderID: order.ID, Cause: err}
	}

	if moved {
		previous := order.Status
		order.Status = *newStatus
		upstream := status.Status
		order.UpstreamStatus = &upstream

		s.logger.Info("Order reconciled",
			zap.String("order_id", order.ID.String()),
			zap.String("upstream_order_id", upstreamID),
			zap.String("upstream_status", status.Status),
			zap.String("status", string(order.Status)))
		s.events.StatusChanged(ctx, order, previous)
	}

	return moved, nil
}
