package model

import (
	"time"
)

// 订单状态
const (
	OrderStatusPending    = "pending"
	OrderStatusAccepted   = "accepted"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusDisputed   = "disputed"
	OrderStatusCancelled  = "cancelled"
)

// IsValidOrderStatus 校验订单状态取值
func IsValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusAccepted, OrderStatusInProgress,
		OrderStatusCompleted, OrderStatusDisputed, OrderStatusCancelled:
		return true
	}
	return false
}

// 支付状态
const (
	PaymentStatusUnpaid   = "unpaid"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

type Order struct {
	ID               int64      `gorm:"primaryKey" json:"id"`
	FanID            int64      `gorm:"not null;index" json:"fan_id"`
	CreatorID        int64      `gorm:"not null;index" json:"creator_id"`
	Status           string     `gorm:"size:20;default:pending;index;not null" json:"status"`
	RecipientName    string     `gorm:"size:100" json:"recipient_name"`
	Occasion         string     `gorm:"size:50" json:"occasion"`
	Instructions     string     `gorm:"type:text" json:"instructions"`
	PriceCents       int64      `gorm:"not null" json:"price_cents"`
	PlatformFeeCents int64      `gorm:"default:0" json:"platform_fee_cents"`
	Currency         string     `gorm:"size:3;default:usd" json:"currency"`
	PaymentIntentID  *string    `gorm:"size:100;uniqueIndex" json:"payment_intent_id,omitempty"`
	PaymentStatus    string     `gorm:"size:20;default:unpaid" json:"payment_status"`
	VideoURL         string     `gorm:"size:500" json:"video_url,omitempty"`
	VideoObjectKey   string     `gorm:"size:500" json:"-"`
	DisputeReason    string     `gorm:"type:text" json:"dispute_reason,omitempty"`
	ResolutionNote   string     `gorm:"type:text" json:"resolution_note,omitempty"`
	AcceptedAt       *time.Time `json:"accepted_at,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	DisputedAt       *time.Time `json:"disputed_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// 关联
	Fan     *Profile `gorm:"foreignKey:FanID" json:"fan,omitempty"`
	Creator *Profile `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderStatusLog 订单状态变更记录
type OrderStatusLog struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	OrderID    int64     `gorm:"not null;index" json:"order_id"`
	ActorID    int64     `gorm:"not null" json:"actor_id"`
	FromStatus string    `gorm:"size:20" json:"from_status"`
	ToStatus   string    `gorm:"size:20;not null" json:"to_status"`
	Note       string    `gorm:"type:text" json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (OrderStatusLog) TableName() string {
	return "order_status_logs"
}
