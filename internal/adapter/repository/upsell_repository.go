package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/likes-market/internal/domain/repository"
	"gorm.io/gorm"
)

type upsellRepository struct {
	db *gorm.DB
}

// NewUpsellRepository creates a new add-on catalog repository
func NewUpsellRepository(db *gorm.DB) domainRepo.UpsellRepository {
	return &upsellRepository{db: db}
}

func (r *upsellRepository) FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Upsell, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var upsells []*model.Upsell
	err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&upsells).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find add-ons: %w", err)
	}

	return upsells, nil
}
