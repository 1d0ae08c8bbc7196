package dto

// CheckoutRequest 发起订阅
type CheckoutRequest struct {
	TierID int64 `json:"tier_id" binding:"required,min=1"`
}

// CheckoutResponse 跳转支付页
type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// SubscriptionItem 订阅
type SubscriptionItem struct {
	ID                int64           `json:"id"`
	Status            string          `json:"status"`
	CancelAtPeriodEnd bool            `json:"cancel_at_period_end"`
	CurrentPeriodEnd  string          `json:"current_period_end,omitempty"`
	CanceledAt        string          `json:"canceled_at,omitempty"`
	Tier              *TierItem       `json:"tier,omitempty"`
	Fan               *ProfileSummary `json:"fan,omitempty"`
	Creator           *ProfileSummary `json:"creator,omitempty"`
	CreatedAt         string          `json:"created_at"`
}
