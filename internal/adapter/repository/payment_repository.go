package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	domainErrors "github.com/wekeepgrowing/likes-market/internal/domain/errors"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/likes-market/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB, logger *zap.Logger) domainRepo.PaymentRepository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

// CreatePending stores a new PENDING attempt, superseding older PENDING ones.
// It fails with ErrInvalidTransition once the order has left PENDING_PAYMENT.
func (r *paymentRepository) CreatePending(ctx context.Context, payment *model.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.Status = model.PaymentStatusPending

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPendingOrder(tx, payment.OrderID); err != nil {
			return err
		}

		superseded := tx.Model(&model.Payment{}).
			Where("order_id = ? AND status = ?", payment.OrderID, model.PaymentStatusPending).
			Update("status", model.PaymentStatusFailed)
		if superseded.Error != nil {
			return fmt.Errorf("failed to supersede pending payments: %w", superseded.Error)
		}
		if superseded.RowsAffected > 0 {
			r.logger.Info("Superseded pending payment attempts",
				zap.String("order_id", payment.OrderID.String()),
				zap.Int64("count", superseded.RowsAffected))
		}

		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		return nil
	})
	if errors.Is(err, domainErrors.ErrInvalidTransition) {
		r.logger.Warn("Order settled before the payment attempt was recorded",
			zap.String("order_id", payment.OrderID.String()),
			zap.String("gateway", string(payment.Gateway)))
		return err
	}
	if err != nil {
		r.logger.Error("Failed to create pending payment",
			zap.String("order_id", payment.OrderID.String()),
			zap.String("gateway", string(payment.Gateway)),
			zap.Error(err))
		return err
	}

	return nil
}

// GetByExternalID retrieves a payment by processor id
func (r *paymentRepository) GetByExternalID(ctx context.Context, externalID string) (*model.Payment, error) {
	var payment model.Payment

	err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &payment, nil
}

// ListByOrder returns payment attempts newest first
func (r *paymentRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*model.Payment, error) {
	var payments []*model.Payment

	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return payments, nil
}
