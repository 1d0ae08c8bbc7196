package payment

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/account"
	"github.com/stripe/stripe-go/v82/accountlink"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/qs3c/creatorhub_server/config"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// PlatformFee 平台抽成，按整数分向下取整
func PlatformFee(amountCents, percent int64) int64 {
	if amountCents <= 0 || percent <= 0 {
		return 0
	}
	return amountCents * percent / 100
}

type PaymentIntentInput struct {
	AmountCents        int64
	FeeCents           int64
	Currency           string
	DestinationAccount string
	OrderID            int64
	FanID              int64
	CreatorID          int64
}

type PaymentIntentResult struct {
	ID           string
	ClientSecret string
}

type CheckoutInput struct {
	FanID              int64
	CreatorID          int64
	TierID             int64
	TierName           string
	AmountCents        int64
	Currency           string
	FeePercent         int64
	DestinationAccount string
	CustomerEmail      string
}

type CheckoutResult struct {
	SessionID string
	URL       string
}

// SubscriptionSnapshot 远端订阅的当前状态
type SubscriptionSnapshot struct {
	ID                string
	Status            string
	CancelAtPeriodEnd bool
	CanceledAt        *time.Time
}

// Event 已验签的 webhook 事件，Object 为 data.object 原始 JSON
type Event struct {
	ID     string
	Type   string
	Object []byte
}

// Client 基于 stripe-go 的支付网关
type Client struct {
	cfg *config.StripeConfig
}

func NewClient(cfg *config.StripeConfig) *Client {
	stripe.Key = cfg.SecretKey
	return &Client{cfg: cfg}
}

// CreatePaymentIntent 创建带平台抽成和转账目标的支付意图
func (c *Client) CreatePaymentIntent(in PaymentIntentInput) (*PaymentIntentResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:               stripe.Int64(in.AmountCents),
		Currency:             stripe.String(in.Currency),
		ApplicationFeeAmount: stripe.Int64(in.FeeCents),
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(in.DestinationAccount),
		},
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("order_id", strconv.FormatInt(in.OrderID, 10))
	params.AddMetadata("fan_id", strconv.FormatInt(in.FanID, 10))
	params.AddMetadata("creator_id", strconv.FormatInt(in.CreatorID, 10))
	params.SetIdempotencyKey(intentIdempotencyKey(in))

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return &PaymentIntentResult{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// CreateConnectAccount 为创作者创建 Express 收款账户
func (c *Client) CreateConnectAccount(email string, profileID int64) (string, error) {
	params := &stripe.AccountParams{
		Type: stripe.String(string(stripe.AccountTypeExpress)),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	if email != "" {
		params.Email = stripe.String(email)
	}
	params.AddMetadata("profile_id", strconv.FormatInt(profileID, 10))
	params.SetIdempotencyKey(connectAccountIdempotencyKey(profileID))

	acct, err := account.New(params)
	if err != nil {
		return "", fmt.Errorf("create connect account: %w", err)
	}
	return acct.ID, nil
}

// intentIdempotencyKey 同一订单、同样金额和收款方的重复请求拿到同一个支付意图；
// 改价或换收款账户后 key 随之变化
func intentIdempotencyKey(in PaymentIntentInput) string {
	return fmt.Sprintf("order-%d-pi-%d-%d-%s-%s", in.OrderID, in.AmountCents, in.FeeCents, in.Currency, in.DestinationAccount)
}

// connectAccountIdempotencyKey 每个创作者最多建一个收款账户
func connectAccountIdempotencyKey(profileID int64) string {
	return fmt.Sprintf("profile-%d-connect-account", profileID)
}

// CreateOnboardingLink 生成入驻链接
func (c *Client) CreateOnboardingLink(accountID string) (string, error) {
	link, err := accountlink.New(&stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(c.cfg.ConnectRefreshURL),
		ReturnURL:  stripe.String(c.cfg.ConnectReturnURL),
		Type:       stripe.String("account_onboarding"),
	})
	if err != nil {
		return "", fmt.Errorf("create account link: %w", err)
	}
	return link.URL, nil
}

// CreateSubscriptionCheckout 按月订阅的 Checkout 会话
func (c *Client) CreateSubscriptionCheckout(in CheckoutInput) (*CheckoutResult, error) {
	metadata := map[string]string{
		"fan_id":     strconv.FormatInt(in.FanID, 10),
		"creator_id": strconv.FormatInt(in.CreatorID, 10),
		"tier_id":    strconv.FormatInt(in.TierID, 10),
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(in.Currency),
					UnitAmount: stripe.Int64(in.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(in.TierName),
					},
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			ApplicationFeePercent: stripe.Float64(float64(in.FeePercent)),
			TransferData: &stripe.CheckoutSessionSubscriptionDataTransferDataParams{
				Destination: stripe.String(in.DestinationAccount),
			},
			Metadata: metadata,
		},
		SuccessURL:        stripe.String(c.cfg.CheckoutSuccessURL),
		CancelURL:         stripe.String(c.cfg.CheckoutCancelURL),
		ClientReferenceID: stripe.String(strconv.FormatInt(in.FanID, 10)),
		Metadata:          metadata,
	}
	if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutResult{SessionID: s.ID, URL: s.URL}, nil
}

// CancelSubscription 立即取消，不按比例退款
func (c *Client) CancelSubscription(subscriptionID string) error {
	_, err := subscription.Cancel(subscriptionID, &stripe.SubscriptionCancelParams{
		Prorate: stripe.Bool(false),
	})
	if err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}
	return nil
}

// ListSubscriptions 遍历全部订阅，fn 返回错误时停止
func (c *Client) ListSubscriptions(fn func(SubscriptionSnapshot) error) error {
	params := &stripe.SubscriptionListParams{
		Status: stripe.String("all"),
	}
	params.Limit = stripe.Int64(100)

	iter := subscription.List(params)
	for iter.Next() {
		sub := iter.Subscription()
		snap := SubscriptionSnapshot{
			ID:                sub.ID,
			Status:            string(sub.Status),
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
			CanceledAt:        unixTime(sub.CanceledAt),
		}
		if err := fn(snap); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}
	return nil
}

// ConstructEvent 校验签名并解析事件
func (c *Client) ConstructEvent(payload []byte, sigHeader string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, c.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	ev := &Event{ID: event.ID, Type: string(event.Type)}
	if event.Data != nil {
		ev.Object = event.Data.Raw
	}
	return ev, nil
}

func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
