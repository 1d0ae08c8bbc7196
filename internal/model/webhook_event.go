package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	WebhookStatusReceived  = "received"
	WebhookStatusProcessed = "processed"
	WebhookStatusIgnored   = "ignored"
	WebhookStatusFailed    = "failed"
)

type WebhookEvent struct {
	ID              int64          `gorm:"primaryKey" json:"id"`
	Provider        string         `gorm:"size:20;not null;uniqueIndex:idx_webhook_provider_event,priority:1" json:"provider"`
	EventID         string         `gorm:"size:100;not null;uniqueIndex:idx_webhook_provider_event,priority:2" json:"event_id"`
	Type            string         `gorm:"size:100;not null;index" json:"type"`
	Payload         datatypes.JSON `json:"-"`
	Status          string         `gorm:"size:20;default:received;index" json:"status"`
	Attempts        int            `gorm:"default:0" json:"attempts"`
	ProcessingError string         `gorm:"type:text" json:"processing_error,omitempty"`
	ProcessedAt     *time.Time     `json:"processed_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
