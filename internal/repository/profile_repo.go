package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/internal/model"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(profile *model.Profile) error {
	return translateError(r.db.Create(profile).Error)
}

func (r *ProfileRepository) GetByID(id int64) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.Where("id = ?", id).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) GetByEmail(email string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.Where("email = ?", email).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) GetByHandle(handle string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.Where("handle = ?", handle).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) GetByGithubID(githubID string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.Where("github_id = ?", githubID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) GetByStripeAccountID(accountID string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.Where("stripe_account_id = ?", accountID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) ExistsByEmail(email string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Profile{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *ProfileRepository) ExistsByUsername(username string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Profile{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *ProfileRepository) ExistsByHandle(handle string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Profile{}).Where("handle = ?", handle).Count(&count).Error
	return count > 0, err
}

func (r *ProfileRepository) Update(profile *model.Profile) error {
	return translateError(r.db.Save(profile).Error)
}

func (r *ProfileRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return translateError(r.db.Model(&model.Profile{}).Where("id = ?", id).Updates(fields).Error)
}

// ListCreators 公开的创作者列表，可按名称搜索
func (r *ProfileRepository) ListCreators(page, pageSize int, search string) ([]*model.Profile, int64, error) {
	var profiles []*model.Profile
	var total int64

	query := r.db.Model(&model.Profile{}).
		Where("role = ? AND is_suspended = ?", model.RoleCreator, false)

	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(display_name) LIKE ? OR LOWER(handle) LIKE ?)", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("subscriber_count DESC, id ASC").
		Offset(pageOffset(page, pageSize)).Limit(pageSize).Find(&profiles).Error
	if err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

// List 管理端列表，role 为空时返回全部
func (r *ProfileRepository) List(role string, page, pageSize int) ([]*model.Profile, int64, error) {
	var profiles []*model.Profile
	var total int64

	query := r.db.Model(&model.Profile{})
	if role != "" {
		query = query.Where("role = ?", role)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id DESC").Offset(pageOffset(page, pageSize)).Limit(pageSize).Find(&profiles).Error
	if err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

// IncrementOrdersReceived 增加收到的订单数
func (r *ProfileRepository) IncrementOrdersReceived(id int64) error {
	return r.db.Model(&model.Profile{}).Where("id = ?", id).
		Update("orders_received", gorm.Expr("orders_received + 1")).Error
}

// RecordCompletedOrder 完成订单后累加完成数与收入
func (r *ProfileRepository) RecordCompletedOrder(id int64, earningsCents int64) error {
	return r.db.Model(&model.Profile{}).Where("id = ?", id).Updates(map[string]interface{}{
		"orders_completed": gorm.Expr("orders_completed + 1"),
		"earnings_cents":   gorm.Expr("earnings_cents + ?", earningsCents),
	}).Error
}

// ReverseCompletedOrder 撤销一次 RecordCompletedOrder，完成数不会低于 0
func (r *ProfileRepository) ReverseCompletedOrder(id int64, earningsCents int64) error {
	return r.db.Model(&model.Profile{}).Where("id = ? AND orders_completed > 0", id).Updates(map[string]interface{}{
		"orders_completed": gorm.Expr("orders_completed - 1"),
		"earnings_cents":   gorm.Expr("earnings_cents - ?", earningsCents),
	}).Error
}

// IncrementSubscriberCount 调整订阅人数，不会低于 0
func (r *ProfileRepository) IncrementSubscriberCount(id int64, delta int) error {
	query := r.db.Model(&model.Profile{}).Where("id = ?", id)
	if delta < 0 {
		query = query.Where("subscriber_count >= ?", -delta)
	}
	return query.Update("subscriber_count", gorm.Expr("subscriber_count + ?", delta)).Error
}

// AddEarnings 订阅收入入账
func (r *ProfileRepository) AddEarnings(id int64, cents int64) error {
	if cents <= 0 {
		return nil
	}
	return r.db.Model(&model.Profile{}).Where("id = ?", id).
		Update("earnings_cents", gorm.Expr("earnings_cents + ?", cents)).Error
}
