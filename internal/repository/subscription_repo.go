package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(sub *model.SubscriptionOrder) error {
	return translateError(r.db.Create(sub).Error)
}

func (r *SubscriptionRepository) GetByID(id int64) (*model.SubscriptionOrder, error) {
	var sub model.SubscriptionOrder
	err := r.db.Where("id = ?", id).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) GetByStripeID(stripeSubscriptionID string) (*model.SubscriptionOrder, error) {
	var sub model.SubscriptionOrder
	err := r.db.Where("stripe_subscription_id = ?", stripeSubscriptionID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.SubscriptionOrder{}).Where("id = ?", id).Updates(fields).Error
}

// ExistsLive 粉丝是否已有该档位的有效订阅
func (r *SubscriptionRepository) ExistsLive(fanID, tierID int64) (bool, error) {
	var count int64
	err := r.db.Model(&model.SubscriptionOrder{}).
		Where("fan_id = ? AND tier_id = ? AND status IN ?", fanID, tierID,
			[]string{model.SubscriptionStatusActive, model.SubscriptionStatusTrialing}).
		Count(&count).Error
	return count > 0, err
}

// ListByParticipant 按粉丝或创作者身份查询订阅
func (r *SubscriptionRepository) ListByParticipant(ownerColumn string, userID int64, page, pageSize int) ([]*model.SubscriptionOrder, int64, error) {
	var subs []*model.SubscriptionOrder
	var total int64

	query := r.db.Model(&model.SubscriptionOrder{}).Where(ownerColumn+" = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Tier").Preload("Fan").Preload("Creator").
		Order("created_at DESC, id DESC").
		Offset(pageOffset(page, pageSize)).Limit(pageSize).Find(&subs).Error
	if err != nil {
		return nil, 0, err
	}

	return subs, total, nil
}
