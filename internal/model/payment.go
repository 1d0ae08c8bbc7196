package model

import (
	"time"
)

const (
	PaymentKindOrder        = "order"
	PaymentKindSubscription = "subscription"
)

type Payment struct {
	ID                  int64     `gorm:"primaryKey" json:"id"`
	PaymentIntentID     string    `gorm:"size:100;uniqueIndex;not null" json:"payment_intent_id"`
	Kind                string    `gorm:"size:20;not null" json:"kind"`
	OrderID             *int64    `gorm:"index" json:"order_id,omitempty"`
	SubscriptionOrderID *int64    `gorm:"index" json:"subscription_order_id,omitempty"`
	PayerID             int64     `gorm:"index" json:"payer_id"`
	CreatorID           int64     `gorm:"index" json:"creator_id"`
	AmountCents         int64     `gorm:"not null" json:"amount_cents"`
	FeeCents            int64     `gorm:"default:0" json:"fee_cents"`
	Currency            string    `gorm:"size:3" json:"currency"`
	Status              string    `gorm:"size:20" json:"status"`
	CreatedAt           time.Time `json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}
