package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/internal/model"
)

// 订单归属字段
const (
	OwnerFan     = "fan_id"
	OwnerCreator = "creator_id"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(order *model.Order) error {
	return translateError(r.db.Create(order).Error)
}

func (r *OrderRepository) GetByID(id int64) (*model.Order, error) {
	var order model.Order
	err := r.db.Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) GetByIDWithProfiles(id int64) (*model.Order, error) {
	var order model.Order
	err := r.db.Preload("Fan").Preload("Creator").Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetForParticipant 只返回调用者参与的订单，其它情况视为不存在
func (r *OrderRepository) GetForParticipant(id, userID int64) (*model.Order, error) {
	var order model.Order
	err := r.db.Preload("Fan").Preload("Creator").
		Where("id = ? AND (fan_id = ? OR creator_id = ?)", id, userID, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) GetByPaymentIntentID(paymentIntentID string) (*model.Order, error) {
	var order model.Order
	err := r.db.Where("payment_intent_id = ?", paymentIntentID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return translateError(r.db.Model(&model.Order{}).Where("id = ?", id).Updates(fields).Error)
}

// TransitionStatus 条件更新单行：归属与当前状态都匹配时才写入
// ownerColumn 为空时不校验归属（管理员）
func (r *OrderRepository) TransitionStatus(id int64, ownerColumn string, ownerID int64, fromStatuses []string, fields map[string]interface{}) (int64, error) {
	query := r.db.Model(&model.Order{}).Where("id = ?", id)
	if ownerColumn != "" {
		query = query.Where(ownerColumn+" = ?", ownerID)
	}
	if len(fromStatuses) > 0 {
		query = query.Where("status IN ?", fromStatuses)
	}

	result := query.Updates(fields)
	return result.RowsAffected, result.Error
}

// ListByParticipant 按粉丝或创作者身份查询订单
func (r *OrderRepository) ListByParticipant(ownerColumn string, userID int64, status string, page, pageSize int) ([]*model.Order, int64, error) {
	var orders []*model.Order
	var total int64

	query := r.db.Model(&model.Order{}).Where(ownerColumn+" = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Fan").Preload("Creator").Order("created_at DESC, id DESC").
		Offset(pageOffset(page, pageSize)).Limit(pageSize).Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// ListAll 管理端订单列表
func (r *OrderRepository) ListAll(status string, page, pageSize int) ([]*model.Order, int64, error) {
	var orders []*model.Order
	var total int64

	query := r.db.Model(&model.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Fan").Preload("Creator").Order("created_at DESC, id DESC").
		Offset(pageOffset(page, pageSize)).Limit(pageSize).Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// ListStalePending 创建早于 before 仍未被接单的订单
func (r *OrderRepository) ListStalePending(before time.Time, limit int) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.Where("status = ? AND created_at < ?", model.OrderStatusPending, before).
		Order("id ASC").Limit(limit).Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) CreateStatusLog(log *model.OrderStatusLog) error {
	return r.db.Create(log).Error
}

func (r *OrderRepository) ListStatusLogs(orderID int64) ([]*model.OrderStatusLog, error) {
	var logs []*model.OrderStatusLog
	err := r.db.Where("order_id = ?", orderID).Order("id ASC").Find(&logs).Error
	return logs, err
}
