package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	domainErrors "github.com/wekeepgrowing/likes-market/internal/domain/errors"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/likes-market/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// walletRepository implements the WalletRepository interface
type walletRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWalletRepository creates a new wallet repository instance
func NewWalletRepository(db *gorm.DB, logger *zap.Logger) domainRepo.WalletRepository {
	return &walletRepository{
		db:     db,
		logger: logger,
	}
}

// GetUser retrieves the account holding the wallet
func (r *walletRepository) GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	var user model.User

	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// Credit adds funds to a wallet atomically
func (r *walletRepository) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, note, referenceID string) (*model.User, *model.WalletTransaction, error) {
	var user model.User
	var ledger *model.WalletTransaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Check for existing entry with same reference ID (idempotency)
		if referenceID != "" {
			var existing model.WalletTransaction
			err := tx.Where("reference_id = ?", referenceID).First(&existing).Error
			if err == nil {
				if existing.UserID != userID {
					return domainErrors.ErrDuplicateReference
				}
				ledger = &existing
				r.logger.Info("Wallet credit already processed (idempotency)",
					zap.String("reference_id", referenceID),
					zap.String("user_id", userID.String()))
				return tx.Where("id = ?", userID).First(&user).Error
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to check reference: %w", err)
			}
		}

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", userID).
			First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainErrors.ErrUserNotFound
			}
			return fmt.Errorf("failed to lock wallet: %w", err)
		}

		newBalance := user.Balance.Add(amount)
		ledger = &model.WalletTransaction{
			UserID:       userID,
			Type:         model.WalletTransactionCredit,
			Amount:       amount,
			BalanceAfter: newBalance,
			Note:         note,
		}
		if referenceID != "" {
			ledger.ReferenceID = &referenceID
		}
		if err := tx.Create(ledger).Error; err != nil {
			return fmt.Errorf("failed to write ledger entry: %w", err)
		}

		if err := tx.Model(&model.User{}).
			Where("id = ?", userID).
			Update("balance", newBalance).Error; err != nil {
			return fmt.Errorf("failed to credit wallet: %w", err)
		}
		user.Balance = newBalance
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to credit wallet",
			zap.String("user_id", userID.String()),
			zap.String("amount", amount.String()),
			zap.String("reference_id", referenceID),
			zap.Error(err))
		return nil, nil, err
	}

	return &user, ledger, nil
}

// History returns ledger entries newest first, with the total count
func (r *walletRepository) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*model.WalletTransaction, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.WalletTransaction{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	var entries []*model.WalletTransaction
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get ledger history: %w", err)
	}

	return entries, total, nil
}

// LedgerSum returns credits minus debits for a user
func (r *walletRepository) LedgerSum(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal

	err := r.db.WithContext(ctx).
		Model(&model.WalletTransaction{}).
		Select("SUM(CASE WHEN type = ? THEN amount ELSE -amount END)", model.WalletTransactionCredit).
		Where("user_id = ?", userID).
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum ledger: %w", err)
	}

	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
