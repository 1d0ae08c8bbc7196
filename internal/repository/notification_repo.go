package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/internal/model"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *model.Notification) error {
	return r.db.Create(n).Error
}

// ListSince 游标之后的通知（按时间、ID 升序）
// afterID 为 0 时只比较时间；否则同一时刻 ID 更大的行也算在游标之后
func (r *NotificationRepository) ListSince(userID int64, since time.Time, afterID int64, limit int) ([]*model.Notification, error) {
	var items []*model.Notification
	query := r.db.Where("user_id = ?", userID)
	if afterID > 0 {
		query = query.Where("created_at > ? OR (created_at = ? AND id > ?)", since, since, afterID)
	} else {
		query = query.Where("created_at > ?", since)
	}
	err := query.Order("created_at ASC, id ASC").Limit(limit).Find(&items).Error
	return items, err
}

// ListLatest 最近的通知，结果按时间升序返回
func (r *NotificationRepository) ListLatest(userID int64, limit int) ([]*model.Notification, error) {
	var items []*model.Notification
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Limit(limit).Find(&items).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

func (r *NotificationRepository) CountUnread(userID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).Count(&count).Error
	return count, err
}

// MarkRead 标记单条已读，返回受影响行数（0 表示不存在或不属于该用户）
func (r *NotificationRepository) MarkRead(userID, id int64, readAt time.Time) (int64, error) {
	result := r.db.Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": readAt})
	return result.RowsAffected, result.Error
}

func (r *NotificationRepository) MarkAllRead(userID int64, readAt time.Time) (int64, error) {
	result := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": readAt})
	return result.RowsAffected, result.Error
}
