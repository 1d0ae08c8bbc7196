package model

import (
	"time"

	"gorm.io/datatypes"
)

// 通知类型
const (
	NotificationOrderPrefix = "order_"

	NotificationOrderCreated     = "order_created"
	NotificationOrderPaid        = "order_paid"
	NotificationOrderAccepted    = "order_accepted"
	NotificationOrderStarted     = "order_started"
	NotificationOrderCompleted   = "order_completed"
	NotificationOrderDisputed    = "order_disputed"
	NotificationOrderCancelled   = "order_cancelled"
	NotificationOrderResolved    = "order_resolved"
	NotificationPaymentFailed    = "payment_failed"
	NotificationNewSubscriber    = "new_subscriber"
	NotificationSubscriptionEnds = "subscription_ended"
	NotificationPayoutsEnabled   = "payouts_enabled"
)

type Notification struct {
	ID        int64             `gorm:"primaryKey" json:"id"`
	UserID    int64             `gorm:"not null;index:idx_notifications_user_created,priority:1" json:"user_id"`
	Type      string            `gorm:"size:50;not null" json:"type"`
	Title     string            `gorm:"size:200;not null" json:"title"`
	Body      string            `gorm:"type:text" json:"body"`
	Data      datatypes.JSONMap `json:"data,omitempty"`
	IsRead    bool              `gorm:"default:false;index" json:"is_read"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `gorm:"index:idx_notifications_user_created,priority:2" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
