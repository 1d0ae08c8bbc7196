package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/internal/model"
)

type SyncLogRepository struct {
	db *gorm.DB
}

func NewSyncLogRepository(db *gorm.DB) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

func (r *SyncLogRepository) Create(log *model.SyncLog) error {
	return r.db.Create(log).Error
}

func (r *SyncLogRepository) Update(log *model.SyncLog) error {
	return r.db.Save(log).Error
}

// Latest 最近一次同步记录，source 为空时不区分来源
func (r *SyncLogRepository) Latest(source string) (*model.SyncLog, error) {
	var log model.SyncLog
	query := r.db.Model(&model.SyncLog{})
	if source != "" {
		query = query.Where("source = ?", source)
	}
	err := query.Order("id DESC").First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}
