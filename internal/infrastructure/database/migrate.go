package database

import (
	"fmt"

	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate creates or updates the market schema
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return fmt.Errorf("failed to create extensions: %w", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.WalletTransaction{},
		&model.Order{},
		&model.Payment{},
		&model.Coupon{},
		&model.CouponRedemption{},
		&model.Upsell{},
		&model.Setting{},
	); err != nil {
		logger.Error("Failed to auto-migrate models", zap.Error(err))
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}

	if err := createPartialIndexes(db); err != nil {
		logger.Error("Failed to create partial indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createPartialIndexes adds the indexes the reconciliation and dispatch sweeps scan
func createPartialIndexes(db *gorm.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_orders_reconcilable ON orders (upstream_checked_at NULLS FIRST, created_at)
			WHERE status = 'PROCESSING' AND upstream_order_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_orders_undispatched ON orders (created_at)
			WHERE status = 'PROCESSING' AND upstream_order_id IS NULL AND dispatched_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_payments_pending ON payments (order_id) WHERE status = 'PENDING'`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
