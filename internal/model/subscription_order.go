package model

import (
	"time"
)

// 订阅状态与支付处理方保持一致
const (
	SubscriptionStatusIncomplete        = "incomplete"
	SubscriptionStatusIncompleteExpired = "incomplete_expired"
	SubscriptionStatusTrialing          = "trialing"
	SubscriptionStatusActive            = "active"
	SubscriptionStatusPastDue           = "past_due"
	SubscriptionStatusUnpaid            = "unpaid"
	SubscriptionStatusCanceled          = "canceled"
	SubscriptionStatusPaused            = "paused"
)

type SubscriptionOrder struct {
	ID                   int64      `gorm:"primaryKey" json:"id"`
	FanID                int64      `gorm:"not null;index" json:"fan_id"`
	CreatorID            int64      `gorm:"not null;index" json:"creator_id"`
	TierID               int64      `gorm:"not null;index" json:"tier_id"`
	StripeSubscriptionID string     `gorm:"size:100;uniqueIndex;not null" json:"stripe_subscription_id"`
	StripeCustomerID     string     `gorm:"size:100" json:"-"`
	Status               string     `gorm:"size:30;index;not null" json:"status"`
	CancelAtPeriodEnd    bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CanceledAt           *time.Time `json:"canceled_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	// 关联
	Tier    *Tier    `gorm:"foreignKey:TierID" json:"tier,omitempty"`
	Fan     *Profile `gorm:"foreignKey:FanID" json:"fan,omitempty"`
	Creator *Profile `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
}

func (SubscriptionOrder) TableName() string {
	return "subscription_orders"
}

// IsLiveSubscriptionStatus 订阅是否计入创作者订阅数
func IsLiveSubscriptionStatus(status string) bool {
	return status == SubscriptionStatusActive || status == SubscriptionStatusTrialing
}
