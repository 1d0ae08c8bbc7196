package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/internal/model"
)

type TierRepository struct {
	db *gorm.DB
}

func NewTierRepository(db *gorm.DB) *TierRepository {
	return &TierRepository{db: db}
}

func (r *TierRepository) Create(tier *model.Tier) error {
	return r.db.Create(tier).Error
}

func (r *TierRepository) GetByID(id int64) (*model.Tier, error) {
	var tier model.Tier
	err := r.db.Where("id = ?", id).First(&tier).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

// GetByIDAndCreator 只返回该创作者自己的档位
func (r *TierRepository) GetByIDAndCreator(id, creatorID int64) (*model.Tier, error) {
	var tier model.Tier
	err := r.db.Where("id = ? AND creator_id = ?", id, creatorID).First(&tier).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *TierRepository) Update(tier *model.Tier) error {
	return r.db.Save(tier).Error
}

func (r *TierRepository) ListByCreator(creatorID int64, activeOnly bool) ([]*model.Tier, error) {
	var tiers []*model.Tier
	query := r.db.Where("creator_id = ?", creatorID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("sort_order ASC, price_cents ASC, id ASC").Find(&tiers).Error
	return tiers, err
}
