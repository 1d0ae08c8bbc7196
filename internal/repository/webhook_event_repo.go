package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/internal/model"
)

type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Create 以 provider + event_id 去重，重复时返回 ErrDuplicate
func (r *WebhookEventRepository) Create(event *model.WebhookEvent) error {
	return translateError(r.db.Create(event).Error)
}

func (r *WebhookEventRepository) GetByID(id int64) (*model.WebhookEvent, error) {
	var event model.WebhookEvent
	err := r.db.Where("id = ?", id).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *WebhookEventRepository) GetByEventID(provider, eventID string) (*model.WebhookEvent, error) {
	var event model.WebhookEvent
	err := r.db.Where("provider = ? AND event_id = ?", provider, eventID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *WebhookEventRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.WebhookEvent{}).Where("id = ?", id).Updates(fields).Error
}

func (r *WebhookEventRepository) IncrementAttempts(id int64) error {
	return r.db.Model(&model.WebhookEvent{}).Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}

// ListRetryable 供重放的事件：处理失败的，以及 staleBefore 之前落库却一直停在 received 的
func (r *WebhookEventRepository) ListRetryable(staleBefore time.Time, limit int) ([]*model.WebhookEvent, error) {
	var events []*model.WebhookEvent
	err := r.db.Where("status = ? OR (status = ? AND created_at < ?)",
		model.WebhookStatusFailed, model.WebhookStatusReceived, staleBefore).
		Order("id ASC").Limit(limit).Find(&events).Error
	return events, err
}
