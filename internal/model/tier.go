package model

import (
	"time"
)

type Tier struct {
	ID          int64       `gorm:"primaryKey" json:"id"`
	CreatorID   int64       `gorm:"not null;index" json:"creator_id"`
	Name        string      `gorm:"size:100;not null" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	PriceCents  int64       `gorm:"not null" json:"price_cents"`
	Currency    string      `gorm:"size:3;default:usd" json:"currency"`
	Benefits    StringArray `gorm:"type:text" json:"benefits"`
	IsActive    bool        `gorm:"not null;index" json:"is_active"`
	SortOrder   int         `gorm:"default:0" json:"sort_order"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (Tier) TableName() string {
	return "tiers"
}
