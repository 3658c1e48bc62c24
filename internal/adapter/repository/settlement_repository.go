package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/wekeepgrowing/likes-market/internal/domain/errors"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/likes-market/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// settlementRepository implements the SettlementRepository interface
type settlementRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSettlementRepository creates a new settlement repository instance
func NewSettlementRepository(db *gorm.DB, logger *zap.Logger) domainRepo.SettlementRepository {
	return &settlementRepository{
		db:     db,
		logger: logger,
	}
}

// SettleWithWallet debits the wallet and settles the order atomically
func (r *settlementRepository) SettleWithWallet(ctx context.Context, settlement domainRepo.WalletSettlement) (*model.WalletTransaction, error) {
	order := settlement.Order
	payment := settlement.Payment
	var ledger *model.WalletTransaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the user's row so concurrent debits serialize on the balance
		var user model.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", order.UserID).
			First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainErrors.ErrUserNotFound
			}
			return fmt.Errorf("failed to lock wallet: %w", err)
		}

		if user.Blocked {
			return domainErrors.ErrAccountBlocked
		}

		// Re-check sufficiency under the lock
		if user.Balance.LessThan(order.Price) {
			return domainErrors.NewInsufficientFundsError(order.Price, user.Balance)
		}

		if _, err := lockPendingOrder(tx, order.ID); err != nil {
			return err
		}

		newBalance := user.Balance.Sub(order.Price)
		if err := tx.Model(&model.User{}).
			Where("id = ?", user.ID).
			Update("balance", newBalance).Error; err != nil {
			return fmt.Errorf("failed to debit wallet: %w", err)
		}

		orderID := order.ID
		ledger = &model.WalletTransaction{
			UserID:       user.ID,
			Type:         model.WalletTransactionDebit,
			Amount:       order.Price,
			BalanceAfter: newBalance,
			Note:         settlement.Note,
			OrderID:      &orderID,
		}
		if err := tx.Create(ledger).Error; err != nil {
			return fmt.Errorf("failed to write ledger entry: %w", err)
		}

		if err := tx.Model(&model.Payment{}).
			Where("order_id = ? AND status = ?", order.ID, model.PaymentStatusPending).
			Update("status", model.PaymentStatusFailed).Error; err != nil {
			return fmt.Errorf("failed to supersede pending payments: %w", err)
		}

		if payment.ID == uuid.Nil {
			payment.ID = uuid.New()
		}
		payment.OrderID = order.ID
		payment.Gateway = model.PaymentMethodWallet
		payment.Amount = order.Price
		payment.Currency = order.Currency
		payment.Status = model.PaymentStatusSuccess
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		result := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", order.ID, model.OrderStatusPendingPayment).
			Updates(map[string]interface{}{
				"status":         model.OrderStatusProcessing,
				"payment_method": model.PaymentMethodWallet,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to transition order: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domainErrors.ErrInvalidTransition
		}

		return nil
	})
	if err != nil {
		if !domainErrors.IsInsufficientFunds(err) {
			r.logger.Error("Wallet settlement rolled back",
				zap.String("order_id", order.ID.String()),
				zap.String("user_id", order.UserID.String()),
				zap.String("amount", order.Price.String()),
				zap.Error(err))
		}
		return nil, err
	}

	order.Status = model.OrderStatusProcessing
	order.PaymentMethod = model.PaymentMethodWallet

	r.logger.Info("Wallet settlement committed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", order.UserID.String()),
		zap.String("amount", order.Price.String()),
		zap.String("balance_after", ledger.BalanceAfter.String()))

	return ledger, nil
}

// ConfirmPayment marks an asynchronous payment successful and advances its order
func (r *settlementRepository) ConfirmPayment(ctx context.Context, externalID string) (*model.Order, bool, error) {
	var order model.Order
	transitioned := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Orders are locked before their payments, matching CreatePending
		var payment model.Payment
		err := tx.Select("order_id").
			Where("external_id = ?", externalID).
			First(&payment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainErrors.ErrPaymentNotFound
			}
			return fmt.Errorf("failed to find payment: %w", err)
		}

		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", payment.OrderID).
			First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainErrors.ErrOrderNotFound
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}

		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("external_id = ?", externalID).
			First(&payment).Error
		if err != nil {
			return fmt.Errorf("failed to lock payment: %w", err)
		}

		if order.Status != model.OrderStatusPendingPayment {
			// Repeated confirmation, or the order was settled by another attempt
			if payment.Status != model.PaymentStatusSuccess {
				r.logger.Warn("Confirmation for an order that is no longer awaiting payment",
					zap.String("order_id", order.ID.String()),
					zap.String("order_status", string(order.Status)),
					zap.String("external_id", externalID),
					zap.String("payment_status", string(payment.Status)))
			}
			return nil
		}

		if err := tx.Model(&model.Payment{}).
			Where("order_id = ? AND status = ? AND id <> ?", order.ID, model.PaymentStatusPending, payment.ID).
			Update("status", model.PaymentStatusFailed).Error; err != nil {
			return fmt.Errorf("failed to supersede pending payments: %w", err)
		}

		if err := tx.Model(&model.Payment{}).
			Where("id = ?", payment.ID).
			Update("status", model.PaymentStatusSuccess).Error; err != nil {
			return fmt.Errorf("failed to mark payment successful: %w", err)
		}

		if err := tx.Model(&model.Order{}).
			Where("id = ?", order.ID).
			Updates(map[string]interface{}{
				"status":         model.OrderStatusProcessing,
				"payment_method": payment.Gateway,
			}).Error; err != nil {
			return fmt.Errorf("failed to transition order: %w", err)
		}

		order.Status = model.OrderStatusProcessing
		order.PaymentMethod = payment.Gateway
		order.UpdatedAt = time.Now()
		transitioned = true
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to confirm payment",
			zap.String("external_id", externalID),
			zap.Error(err))
		return nil, false, err
	}

	return &order, transitioned, nil
}

// FailPayment marks a pending payment failed
func (r *settlementRepository) FailPayment(ctx context.Context, externalID string) (*model.Payment, error) {
	var payment model.Payment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("external_id = ?", externalID).
			First(&payment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainErrors.ErrPaymentNotFound
			}
			return fmt.Errorf("failed to lock payment: %w", err)
		}

		if payment.Status != model.PaymentStatusPending {
			return nil
		}

		if err := tx.Model(&model.Payment{}).
			Where("id = ?", payment.ID).
			Update("status", model.PaymentStatusFailed).Error; err != nil {
			return fmt.Errorf("failed to mark payment failed: %w", err)
		}
		payment.Status = model.PaymentStatusFailed
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// lockPendingOrder takes the order's row lock and requires it to still be
// awaiting payment.
func lockPendingOrder(tx *gorm.DB, orderID uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	if order.Status != model.OrderStatusPendingPayment {
		return nil, domainErrors.ErrInvalidTransition
	}
	return &order, nil
}
