package dto

// CreateOrderRequest 粉丝下单
type CreateOrderRequest struct {
	CreatorID     int64  `json:"creator_id" binding:"required,min=1"`
	RecipientName string `json:"recipient_name" binding:"required,max=100"`
	Occasion      string `json:"occasion" binding:"omitempty,max=50"`
	Instructions  string `json:"instructions" binding:"required,max=2000"`
}

// DisputeRequest 发起争议
type DisputeRequest struct {
	Reason string `json:"reason" binding:"required,min=5,max=2000"`
}

// CancelRequest 取消订单
type CancelRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=2000"`
}

// ResolveRequest 管理员处理争议
type ResolveRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=completed cancelled"`
	Note    string `json:"note" binding:"omitempty,max=2000"`
}

// OrderItem 订单
type OrderItem struct {
	ID               int64           `json:"id"`
	Status           string          `json:"status"`
	PaymentStatus    string          `json:"payment_status"`
	RecipientName    string          `json:"recipient_name"`
	Occasion         string          `json:"occasion"`
	Instructions     string          `json:"instructions"`
	PriceCents       int64           `json:"price_cents"`
	PlatformFeeCents int64           `json:"platform_fee_cents"`
	Currency         string          `json:"currency"`
	VideoURL         string          `json:"video_url,omitempty"`
	DisputeReason    string          `json:"dispute_reason,omitempty"`
	ResolutionNote   string          `json:"resolution_note,omitempty"`
	Fan              *ProfileSummary `json:"fan,omitempty"`
	Creator          *ProfileSummary `json:"creator,omitempty"`
	AcceptedAt       string          `json:"accepted_at,omitempty"`
	CompletedAt      string          `json:"completed_at,omitempty"`
	CreatedAt        string          `json:"created_at"`
	UpdatedAt        string          `json:"updated_at"`
}

// OrderDetail 订单详情，包含状态变更记录
type OrderDetail struct {
	*OrderItem
	History []*OrderStatusItem `json:"history"`
}

// OrderStatusItem 状态变更记录
type OrderStatusItem struct {
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	ActorID    int64  `json:"actor_id"`
	Note       string `json:"note,omitempty"`
	CreatedAt  string `json:"created_at"`
}
