package model

import (
	"time"
)

const (
	SyncSourceStripeSubscriptions = "stripe_subscriptions"

	SyncStatusSuccess = "success"
	SyncStatusPartial = "partial"
	SyncStatusFailed  = "failed"
)

type SyncLog struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	Source       string     `gorm:"size:50;not null;index" json:"source"`
	Status       string     `gorm:"size:20;not null" json:"status"`
	ItemsScanned int        `gorm:"default:0" json:"items_scanned"`
	ItemsUpdated int        `gorm:"default:0" json:"items_updated"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	StartedAt    time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
}

func (SyncLog) TableName() string {
	return "sync_logs"
}
