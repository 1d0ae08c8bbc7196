package dto

// ProfileInfo 当前用户或管理员可见的完整资料
type ProfileInfo struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	Handle          string `json:"handle"`
	DisplayName     string `json:"display_name"`
	Email           string `json:"email,omitempty"`
	Role            string `json:"role"`
	AvatarURL       string `json:"avatar_url"`
	Bio             string `json:"bio"`
	IsSuspended     bool   `json:"is_suspended"`
	VideoPriceCents int64  `json:"video_price_cents"`
	AcceptingOrders bool   `json:"accepting_orders"`
	HasPayoutAcct   bool   `json:"has_payout_account"`
	PayoutsEnabled  bool   `json:"payouts_enabled"`
	OrdersReceived  int    `json:"orders_received"`
	OrdersCompleted int    `json:"orders_completed"`
	SubscriberCount int    `json:"subscriber_count"`
	EarningsCents   int64  `json:"earnings_cents"`
	CreatedAt       string `json:"created_at"`
}

// PublicProfile 公开资料
type PublicProfile struct {
	ID              int64       `json:"id"`
	Handle          string      `json:"handle"`
	DisplayName     string      `json:"display_name"`
	Role            string      `json:"role"`
	AvatarURL       string      `json:"avatar_url"`
	Bio             string      `json:"bio"`
	VideoPriceCents int64       `json:"video_price_cents,omitempty"`
	AcceptingOrders bool        `json:"accepting_orders"`
	OrdersCompleted int         `json:"orders_completed"`
	SubscriberCount int         `json:"subscriber_count"`
	Tiers           []*TierItem `json:"tiers,omitempty"`
}

// ProfileSummary 嵌在订单、订阅中的简要信息
type ProfileSummary struct {
	ID          int64  `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// UpdateProfileRequest 更新自己的资料
type UpdateProfileRequest struct {
	DisplayName     *string `json:"display_name,omitempty" binding:"omitempty,min=1,max=100"`
	Bio             *string `json:"bio,omitempty" binding:"omitempty,max=1000"`
	VideoPriceCents *int64  `json:"video_price_cents,omitempty" binding:"omitempty,min=100,max=10000000"`
	AcceptingOrders *bool   `json:"accepting_orders,omitempty"`
}

// AdminUpdateProfileRequest 管理员修改资料
type AdminUpdateProfileRequest struct {
	Role        *string `json:"role,omitempty" binding:"omitempty,oneof=fan creator admin"`
	IsSuspended *bool   `json:"is_suspended,omitempty"`
	DisplayName *string `json:"display_name,omitempty" binding:"omitempty,min=1,max=100"`
	Bio         *string `json:"bio,omitempty" binding:"omitempty,max=1000"`
}

// AvatarResponse 上传头像响应
type AvatarResponse struct {
	AvatarURL string `json:"avatar_url"`
}
