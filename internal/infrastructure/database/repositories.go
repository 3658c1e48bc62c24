package database

import (
	"github.com/wekeepgrowing/likes-market/internal/adapter/repository"
	domainRepo "github.com/wekeepgrowing/likes-market/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Order      domainRepo.OrderRepository
	Payment    domainRepo.PaymentRepository
	Settlement domainRepo.SettlementRepository
	Wallet     domainRepo.WalletRepository
	Coupon     domainRepo.CouponRepository
	Upsell     domainRepo.UpsellRepository
	Setting    domainRepo.SettingRepository
}

// NewRepositories creates repository instances sharing one connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Order:      repository.NewOrderRepository(db, logger),
		Payment:    repository.NewPaymentRepository(db, logger),
		Settlement: repository.NewSettlementRepository(db, logger),
		Wallet:     repository.NewWalletRepository(db, logger),
		Coupon:     repository.NewCouponRepository(db, logger),
		Upsell:     repository.NewUpsellRepository(db),
		Setting:    repository.NewSettingRepository(db),
	}
}
