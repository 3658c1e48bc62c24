package repository

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	domainErrors "github.com/wekeepgrowing/likes-market/internal/domain/errors"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/likes-market/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// orderRepository implements the OrderRepository interface
type orderRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB, logger *zap.Logger) domainRepo.OrderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new order
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}

	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		r.logger.Error("Failed to create order",
			zap.String("order_id", order.ID.String()),
			zap.String("user_id", order.UserID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// GetByID retrieves an order by id
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

// FindForReconciliation selects in-flight orders, least recently checked first
func (r *orderRepository) FindForReconciliation(ctx context.Context, limit int) ([]*model.Order, error) {
	var orders []*model.Order

	err := r.db.WithContext(ctx).
		Where("status = ? AND upstream_order_id IS NOT NULL", model.OrderStatusProcessing).
		Order("upstream_checked_at ASC NULLS FIRST").
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find orders for reconciliation: %w", err)
	}

	return orders, nil
}

// FindAwaitingDispatch selects paid orders that were never submitted upstream
func (r *orderRepository) FindAwaitingDispatch(ctx context.Context, limit int) ([]*model.Order, error) {
	var orders []*model.Order

	err := r.db.WithContext(ctx).
		Where("status = ? AND upstream_order_id IS NULL AND dispatched_at IS NULL", model.OrderStatusProcessing).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find orders awaiting dispatch: %w", err)
	}

	return orders, nil
}

// ApplyReconciliation stores the upstream status; the local status only moves
// while the order is still PROCESSING.
func (r *orderRepository) ApplyReconciliation(ctx context.Context, update domainRepo.ReconcileUpdate) (bool, error) {
	updates := map[string]interface{}{
		"upstream_status":     update.UpstreamStatus,
		"upstream_checked_at": update.CheckedAt,
	}
	moved := update.NewStatus != nil && *update.NewStatus != model.OrderStatusProcessing
	if moved {
		updates["status"] = *update.NewStatus
	}

	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ?", update.OrderID, model.OrderStatusProcessing).
		Updates(updates)
	if result.Error != nil {
		r.logger.Error("Failed to apply reconciliation",
			zap.String("order_id", update.OrderID.String()),
			zap.String("upstream_status", update.UpstreamStatus),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to update order: %w", result.Error)
	}

	return moved && result.RowsAffected > 0, nil
}

// MarkDispatched records the upstream order id
func (r *orderRepository) MarkDispatched(ctx context.Context, id uuid.UUID, upstreamOrderID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND upstream_order_id IS NULL", id).
		Updates(map[string]interface{}{
			"upstream_order_id": upstreamOrderID,
			"dispatched_at":     at,
			"dispatch_error":    nil,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark order dispatched: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainErrors.ErrInvalidTransition
	}
	return nil
}

// MarkDispatchFailed records a failed submission
func (r *orderRepository) MarkDispatchFailed(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	reason = truncateRunes(reason, 500)

	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND upstream_order_id IS NULL", id).
		Updates(map[string]interface{}{
			"dispatched_at":  at,
			"dispatch_error": reason,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark dispatch failure: %w", err)
	}
	return nil
}

// truncateRunes cuts s to at most n characters without splitting a rune
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
