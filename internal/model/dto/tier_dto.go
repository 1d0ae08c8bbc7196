package dto

// CreateTierRequest 创建订阅档位
type CreateTierRequest struct {
	Name        string   `json:"name" binding:"required,max=100"`
	Description string   `json:"description" binding:"omitempty,max=2000"`
	PriceCents  int64    `json:"price_cents" binding:"required,min=100,max=1000000"`
	Benefits    []string `json:"benefits" binding:"omitempty,max=20,dive,max=200"`
	SortOrder   int      `json:"sort_order"`
}

// UpdateTierRequest 修改档位，价格变更只影响新订阅
type UpdateTierRequest struct {
	Name        *string   `json:"name,omitempty" binding:"omitempty,min=1,max=100"`
	Description *string   `json:"description,omitempty" binding:"omitempty,max=2000"`
	PriceCents  *int64    `json:"price_cents,omitempty" binding:"omitempty,min=100,max=1000000"`
	Benefits    *[]string `json:"benefits,omitempty"`
	SortOrder   *int      `json:"sort_order,omitempty"`
	IsActive    *bool     `json:"is_active,omitempty"`
}

// TierItem 档位
type TierItem struct {
	ID          int64    `json:"id"`
	CreatorID   int64    `json:"creator_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PriceCents  int64    `json:"price_cents"`
	Currency    string   `json:"currency"`
	Benefits    []string `json:"benefits"`
	IsActive    bool     `json:"is_active"`
	SortOrder   int      `json:"sort_order"`
}
