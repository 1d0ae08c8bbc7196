package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qs3c/creatorhub_server/config"
	"github.com/qs3c/creatorhub_server/internal/pkg/payment"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:      "test-secret-key-for-testing",
			ExpireHours: 24,
		},
		Stripe: config.StripeConfig{
			Currency:           "usd",
			PlatformFeePercent: 20,
		},
		Upload: config.UploadConfig{
			MaxVideoSize:      1024,
			MaxAvatarSize:     512,
			AllowedExtensions: []string{".mp4", ".mov"},
		},
	}
}

// fakeGateway 记录调用的支付网关
type fakeGateway struct {
	mu            sync.Mutex
	intents       []payment.PaymentIntentInput
	checkouts     []payment.CheckoutInput
	cancelled     []string
	accounts      int
	subscriptions []payment.SubscriptionSnapshot
	listErr       error
	cancelErr     error
}

func (g *fakeGateway) CreatePaymentIntent(in payment.PaymentIntentInput) (*payment.PaymentIntentResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents = append(g.intents, in)
	id := fmt.Sprintf("pi_test_%d_%d", in.OrderID, len(g.intents))
	return &payment.PaymentIntentResult{ID: id, ClientSecret: id + "_secret"}, nil
}

func (g *fakeGateway) CreateConnectAccount(email string, profileID int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accounts++
	return fmt.Sprintf("acct_test_%d", profileID), nil
}

func (g *fakeGateway) CreateOnboardingLink(accountID string) (string, error) {
	return "https://connect.example.com/" + accountID, nil
}

func (g *fakeGateway) CreateSubscriptionCheckout(in payment.CheckoutInput) (*payment.CheckoutResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checkouts = append(g.checkouts, in)
	return &payment.CheckoutResult{SessionID: "cs_test", URL: "https://checkout.example.com/cs_test"}, nil
}

func (g *fakeGateway) CancelSubscription(subscriptionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelErr != nil {
		return g.cancelErr
	}
	g.cancelled = append(g.cancelled, subscriptionID)
	return nil
}

func (g *fakeGateway) ListSubscriptions(fn func(payment.SubscriptionSnapshot) error) error {
	for _, snap := range g.subscriptions {
		if err := fn(snap); err != nil {
			return err
		}
	}
	return g.listErr
}

// ConstructEvent 只接受签名 "valid"，事件体为普通 JSON
func (g *fakeGateway) ConstructEvent(payload []byte, sigHeader string) (*payment.Event, error) {
	if sigHeader != "valid" {
		return nil, fmt.Errorf("%w: bad header", payment.ErrInvalidSignature)
	}
	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrInvalidSignature, err)
	}
	return &payment.Event{ID: raw.ID, Type: raw.Type, Object: raw.Data.Object}, nil
}

func eventPayload(t *testing.T, id, eventType string, object interface{}) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"id":     id,
		"object": "event",
		"type":   eventType,
		"data":   map[string]interface{}{"object": object},
	})
	require.NoError(t, err)
	return payload
}

type sentNotification struct {
	UserID int64
	Kind   string
	Data   map[string]interface{}
}

// recordingNotifier 记录通知而不写库
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(userID int64, kind, title, body string, data map[string]interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Kind: kind, Data: data})
}

func (n *recordingNotifier) kinds(userID int64) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var kinds []string
	for _, s := range n.sent {
		if s.UserID == userID {
			kinds = append(kinds, s.Kind)
		}
	}
	return kinds
}

// memoryStore 内存对象存储
type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (m *memoryStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = buf.Bytes()
	return "https://cdn.example.com/" + key, nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func itoa(n int64) string {
	return fmt.Sprintf("%d", n)
}
