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

// couponRepository implements the CouponRepository interface
type couponRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCouponRepository creates a new coupon repository instance
func NewCouponRepository(db *gorm.DB, logger *zap.Logger) domainRepo.CouponRepository {
	return &couponRepository{
		db:     db,
		logger: logger,
	}
}

// GetActiveByCode looks up an active coupon by exact code
func (r *couponRepository) GetActiveByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon

	err := r.db.WithContext(ctx).
		Where("code = ? AND status = ?", code, model.CouponStatusActive).
		First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}

	return &coupon, nil
}

// CountUserRedemptions counts a user's redemptions of a coupon
func (r *couponRepository) CountUserRedemptions(ctx context.Context, couponID, userID uuid.UUID) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.CouponRedemption{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count redemptions: %w", err)
	}

	return count, nil
}

// RecordRedemption writes the redemption and bumps the counter without a cap
// check; over-redemption under concurrency is accepted.
func (r *couponRepository) RecordRedemption(ctx context.Context, redemption *model.CouponRedemption) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&model.CouponRedemption{}).
			Where("order_id = ?", redemption.OrderID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check redemption: %w", err)
		}
		if existing > 0 {
			return domainErrors.ErrAlreadyRedeemed
		}

		if err := tx.Create(redemption).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domainErrors.ErrAlreadyRedeemed
			}
			return fmt.Errorf("failed to create redemption: %w", err)
		}

		if err := tx.Model(&model.Coupon{}).
			Where("id = ?", redemption.CouponID).
			UpdateColumn("redemption_count", gorm.Expr("redemption_count + ?", 1)).Error; err != nil {
			return fmt.Errorf("failed to increment redemption count: %w", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, domainErrors.ErrAlreadyRedeemed) {
		r.logger.Error("Failed to record coupon redemption",
			zap.String("coupon_id", redemption.CouponID.String()),
			zap.String("order_id", redemption.OrderID.String()),
			zap.Error(err))
	}
	return err
}
