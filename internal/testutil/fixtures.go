package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/internal/model"
)

var seq int64

func nextSeq() int64 {
	return atomic.AddInt64(&seq, 1)
}

// TestProfile 创建测试用户，默认是粉丝
func TestProfile(t *testing.T, db *gorm.DB, opts ...func(*model.Profile)) *model.Profile {
	t.Helper()

	n := nextSeq()
	email := fmt.Sprintf("test_%d@example.com", n)
	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	profile := &model.Profile{
		Username:     fmt.Sprintf("testuser_%d", n),
		Handle:       fmt.Sprintf("testuser-%d", n),
		DisplayName:  fmt.Sprintf("Test User %d", n),
		Email:        &email,
		PasswordHash: &passwordHash,
		Role:         model.RoleFan,
	}

	for _, opt := range opts {
		opt(profile)
	}

	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("Failed to create test profile: %v", err)
	}

	return profile
}

// WithRole 设置角色
func WithRole(role string) func(*model.Profile) {
	return func(p *model.Profile) {
		p.Role = role
	}
}

// AsCreator 可接单的创作者
func AsCreator(priceCents int64) func(*model.Profile) {
	return func(p *model.Profile) {
		p.Role = model.RoleCreator
		p.VideoPriceCents = priceCents
		p.AcceptingOrders = true
	}
}

// WithUsername 设置用户名
func WithUsername(username string) func(*model.Profile) {
	return func(p *model.Profile) {
		p.Username = username
		p.Handle = username
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.Profile) {
	return func(p *model.Profile) {
		p.Email = &email
	}
}

// WithPasswordHash 设置密码哈希
func WithPasswordHash(hash string) func(*model.Profile) {
	return func(p *model.Profile) {
		p.PasswordHash = &hash
	}
}

// WithStripeAccount 绑定收款账户
func WithStripeAccount(accountID string, payoutsEnabled bool) func(*model.Profile) {
	return func(p *model.Profile) {
		p.StripeAccountID = &accountID
		p.PayoutsEnabled = payoutsEnabled
	}
}

// WithSuspended 设置封禁
func WithSuspended() func(*model.Profile) {
	return func(p *model.Profile) {
		p.IsSuspended = true
	}
}

// TestOrder 创建测试订单
func TestOrder(t *testing.T, db *gorm.DB, fanID, creatorID int64, opts ...func(*model.Order)) *model.Order {
	t.Helper()

	order := &model.Order{
		FanID:         fanID,
		CreatorID:     creatorID,
		Status:        model.OrderStatusPending,
		RecipientName: "Sam",
		Occasion:      "birthday",
		Instructions:  "Say happy birthday",
		PriceCents:    5000,
		Currency:      "usd",
		PaymentStatus: model.PaymentStatusUnpaid,
	}

	for _, opt := range opts {
		opt(order)
	}

	if err := db.Create(order).Error; err != nil {
		t.Fatalf("Failed to create test order: %v", err)
	}

	return order
}

// WithOrderStatus 设置订单状态
func WithOrderStatus(status string) func(*model.Order) {
	return func(o *model.Order) {
		o.Status = status
	}
}

// WithPaymentIntent 设置支付意图
func WithPaymentIntent(id string) func(*model.Order) {
	return func(o *model.Order) {
		o.PaymentIntentID = &id
	}
}

// WithOrderCreatedAt 设置创建时间
func WithOrderCreatedAt(at time.Time) func(*model.Order) {
	return func(o *model.Order) {
		o.CreatedAt = at
	}
}

// TestTier 创建测试档位
func TestTier(t *testing.T, db *gorm.DB, creatorID int64, opts ...func(*model.Tier)) *model.Tier {
	t.Helper()

	tier := &model.Tier{
		CreatorID:  creatorID,
		Name:       fmt.Sprintf("Tier %d", nextSeq()),
		PriceCents: 500,
		Currency:   "usd",
		Benefits:   model.StringArray{"early access"},
		IsActive:   true,
	}

	for _, opt := range opts {
		opt(tier)
	}

	if err := db.Create(tier).Error; err != nil {
		t.Fatalf("Failed to create test tier: %v", err)
	}

	return tier
}

// WithTierInactive 下架档位
func WithTierInactive() func(*model.Tier) {
	return func(tier *model.Tier) {
		tier.IsActive = false
	}
}

// TestSubscriptionOrder 创建测试订阅
func TestSubscriptionOrder(t *testing.T, db *gorm.DB, fanID, creatorID, tierID int64, status string) *model.SubscriptionOrder {
	t.Helper()

	sub := &model.SubscriptionOrder{
		FanID:                fanID,
		CreatorID:            creatorID,
		TierID:               tierID,
		StripeSubscriptionID: fmt.Sprintf("sub_test_%d", nextSeq()),
		StripeCustomerID:     "cus_test",
		Status:               status,
	}

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

// TestNotification 创建测试通知
func TestNotification(t *testing.T, db *gorm.DB, userID int64, createdAt time.Time) *model.Notification {
	t.Helper()

	n := &model.Notification{
		UserID:    userID,
		Type:      model.NotificationOrderCreated,
		Title:     fmt.Sprintf("Notification %d", nextSeq()),
		CreatedAt: createdAt.UTC(),
	}

	if err := db.Create(n).Error; err != nil {
		t.Fatalf("Failed to create test notification: %v", err)
	}

	return n
}
