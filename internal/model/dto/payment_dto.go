package dto

// CreateIntentRequest 为订单创建支付
type CreateIntentRequest struct {
	OrderID int64 `json:"order_id" binding:"required,min=1"`
}

// CreateIntentResponse 前端用 client_secret 完成支付
type CreateIntentResponse struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	AmountCents     int64  `json:"amount_cents"`
	FeeCents        int64  `json:"fee_cents"`
	Currency        string `json:"currency"`
}

// ConnectResponse 创作者收款账户入驻
type ConnectResponse struct {
	AccountID     string `json:"account_id"`
	OnboardingURL string `json:"onboarding_url"`
}

// SyncLogInfo 最近一次同步
type SyncLogInfo struct {
	ID           int64  `json:"id"`
	Source       string `json:"source"`
	Status       string `json:"status"`
	ItemsScanned int    `json:"items_scanned"`
	ItemsUpdated int    `json:"items_updated"`
	ErrorMessage string `json:"error_message,omitempty"`
	StartedAt    string `json:"started_at"`
	FinishedAt   string `json:"finished_at,omitempty"`
}
