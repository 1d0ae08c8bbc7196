package service

import (
	"context"

	"github.com/qs3c/creatorhub_server/internal/pkg/oauth"
	"github.com/qs3c/creatorhub_server/internal/pkg/payment"
	"github.com/qs3c/creatorhub_server/internal/pkg/pubsub"
	"github.com/qs3c/creatorhub_server/internal/pkg/queue"
)

// PaymentGateway 支付处理方，生产环境为 *payment.Client
type PaymentGateway interface {
	CreatePaymentIntent(in payment.PaymentIntentInput) (*payment.PaymentIntentResult, error)
	CreateConnectAccount(email string, profileID int64) (string, error)
	CreateOnboardingLink(accountID string) (string, error)
	CreateSubscriptionCheckout(in payment.CheckoutInput) (*payment.CheckoutResult, error)
	CancelSubscription(subscriptionID string) error
	ListSubscriptions(fn func(payment.SubscriptionSnapshot) error) error
	ConstructEvent(payload []byte, sigHeader string) (*payment.Event, error)
}

// NotificationPublisher 通知写库后推送给在线连接
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, msg *pubsub.NotificationMessage) error
}

// Mailer 通知邮件
type Mailer interface {
	Enabled() bool
	SendNotification(to, title, body, link string) error
}

// WebhookQueue 异步处理 webhook 的队列
type WebhookQueue interface {
	Push(ctx context.Context, msg *queue.WebhookMessage) error
}

// GithubProvider GitHub 登录
type GithubProvider interface {
	Enabled() bool
	AuthURL(state string) string
	FetchUser(ctx context.Context, code string) (*oauth.GithubUser, error)
}

// OAuthStateStore 一次性 state 存储
type OAuthStateStore interface {
	GenerateState(ctx context.Context, data oauth.StateData) (string, error)
	ConsumeState(ctx context.Context, state string) (*oauth.StateData, error)
}

var (
	_ PaymentGateway        = (*payment.Client)(nil)
	_ NotificationPublisher = (*pubsub.Publisher)(nil)
	_ WebhookQueue          = (*queue.Queue)(nil)
	_ GithubProvider        = (*oauth.GithubOAuth)(nil)
	_ OAuthStateStore       = (*oauth.StateStore)(nil)
)
