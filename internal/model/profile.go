package model

import (
	"time"
)

// 角色
const (
	RoleFan     = "fan"
	RoleCreator = "creator"
	RoleAdmin   = "admin"
)

type Profile struct {
	ID               int64   `gorm:"primaryKey" json:"id"`
	Username         string  `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Handle           string  `gorm:"size:80;uniqueIndex;not null" json:"handle"`
	DisplayName      string  `gorm:"size:100" json:"display_name"`
	Email            *string `gorm:"size:100;uniqueIndex" json:"email,omitempty"`
	PasswordHash     *string `gorm:"size:255" json:"-"`
	GithubID         *string `gorm:"column:github_id;size:50;uniqueIndex" json:"-"`
	Role             string  `gorm:"size:20;default:fan;index;not null" json:"role"`
	AvatarURL        string  `gorm:"size:500" json:"avatar_url"`
	Bio              string  `gorm:"type:text" json:"bio"`
	IsSuspended      bool    `gorm:"default:false" json:"is_suspended"`
	VideoPriceCents  int64   `gorm:"default:0" json:"video_price_cents"`
	AcceptingOrders  bool    `gorm:"default:false" json:"accepting_orders"`
	StripeAccountID  *string `gorm:"size:100;uniqueIndex" json:"-"`
	PayoutsEnabled   bool    `gorm:"default:false" json:"payouts_enabled"`
	StripeCustomerID *string `gorm:"size:100;index" json:"-"`

	// 冗余统计
	OrdersReceived  int   `gorm:"default:0" json:"orders_received"`
	OrdersCompleted int   `gorm:"default:0" json:"orders_completed"`
	SubscriberCount int   `gorm:"default:0" json:"subscriber_count"`
	EarningsCents   int64 `gorm:"default:0" json:"earnings_cents"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) IsCreator() bool {
	return p.Role == RoleCreator
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// IsValidRole 校验角色取值
func IsValidRole(role string) bool {
	switch role {
	case RoleFan, RoleCreator, RoleAdmin:
		return true
	}
	return false
}
