package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelNotifications = "notifications"
)

// NotificationMessage 推送给在线用户的通知
type NotificationMessage struct {
	Type           string                 `json:"type"`
	UserID         int64                  `json:"user_id"`
	NotificationID int64                  `json:"notification_id"`
	Kind           string                 `json:"kind"`
	Title          string                 `json:"title"`
	Body           string                 `json:"body,omitempty"`
	Data           map[string]interface{} `json:"data,omitempty"`
	CreatedAt      string                 `json:"created_at"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishNotification 发布通知
func (p *Publisher) PublishNotification(ctx context.Context, msg *NotificationMessage) error {
	msg.Type = "notification"

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification message: %w", err)
	}

	return p.client.Publish(ctx, ChannelNotifications, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅通知，阻塞直到 ctx 结束
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*NotificationMessage)) error {
	ps := s.client.Subscribe(ctx, ChannelNotifications)
	defer ps.Close()

	// 等待订阅确认，保证返回前不会丢消息
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := ps.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var n NotificationMessage
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				continue // 忽略解析错误
			}

			handler(&n)
		}
	}
}
