package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
)

// CouponRepository defines persistence for coupons and redemptions
type CouponRepository interface {
	// GetActiveByCode looks up an ACTIVE coupon by exact, case-sensitive code.
	// Returns nil without error when no such coupon exists.
	GetActiveByCode(ctx context.Context, code string) (*model.Coupon, error)

	// CountUserRedemptions counts a user's redemptions of a coupon
	CountUserRedemptions(ctx context.Context, couponID, userID uuid.UUID) (int64, error)

	// RecordRedemption writes the redemption fact and increments the coupon counter.
	// Returns ErrAlreadyRedeemed when the order already has a redemption.
	RecordRedemption(ctx context.Context, redemption *model.CouponRedemption) error
}

// UpsellRepository reads the add-on catalog
type UpsellRepository interface {
	// FindActiveByIDs returns the active add-ons among ids; unknown ids are skipped
	FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Upsell, error)
}

// SettingRepository reads and writes admin settings
type SettingRepository interface {
	// Get returns nil without error when the key is absent
	Get(ctx context.Context, key string) (*model.Setting, error)
	Upsert(ctx context.Context, setting *model.Setting) error
}
