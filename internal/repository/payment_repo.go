package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/internal/model"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create 以 payment_intent_id 去重，重复时返回 ErrDuplicate
func (r *PaymentRepository) Create(payment *model.Payment) error {
	return translateError(r.db.Create(payment).Error)
}

func (r *PaymentRepository) ExistsByIntentID(paymentIntentID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Payment{}).Where("payment_intent_id = ?", paymentIntentID).Count(&count).Error
	return count > 0, err
}

func (r *PaymentRepository) ListByOrder(orderID int64) ([]*model.Payment, error) {
	var payments []*model.Payment
	err := r.db.Where("order_id = ?", orderID).Order("id ASC").Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) ListBySubscription(subscriptionOrderID int64) ([]*model.Payment, error) {
	var payments []*model.Payment
	err := r.db.Where("subscription_order_id = ?", subscriptionOrderID).Order("id ASC").Find(&payments).Error
	return payments, err
}
