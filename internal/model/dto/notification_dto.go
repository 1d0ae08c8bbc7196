package dto

// NotificationItem 通知
type NotificationItem struct {
	ID        int64                  `json:"id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt string                 `json:"created_at"`
}

// NotificationPollResponse 轮询结果，next_since 和 next_id 一起作为下一次的游标
type NotificationPollResponse struct {
	Items       []*NotificationItem `json:"items"`
	UnreadCount int64               `json:"unread_count"`
	NextSince   string              `json:"next_since,omitempty"`
	NextID      int64               `json:"next_id,omitempty"`
}

// UnreadCountResponse 未读数
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

// MarkReadResponse 批量已读
type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}
