package payment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/qs3c/creatorhub_server/config"
)

const testWebhookSecret = "whsec_test_secret"

func TestPlatformFee(t *testing.T) {
	tests := []struct {
		amount  int64
		percent int64
		want    int64
	}{
		{5000, 20, 1000},
		{999, 20, 199}, // 向下取整
		{1, 20, 0},
		{5000, 0, 0},
		{0, 20, 0},
		{5000, 100, 5000},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PlatformFee(tt.amount, tt.percent), "amount=%d percent=%d", tt.amount, tt.percent)
	}
}

func TestIntentIdempotencyKey(t *testing.T) {
	in := PaymentIntentInput{
		AmountCents:        5000,
		FeeCents:           1000,
		Currency:           "usd",
		DestinationAccount: "acct_1",
		OrderID:            42,
		FanID:              7,
		CreatorID:          8,
	}

	// 重复请求同一个订单必须落在同一个 key 上
	assert.Equal(t, intentIdempotencyKey(in), intentIdempotencyKey(in))
	assert.Contains(t, intentIdempotencyKey(in), "order-42-")

	other := in
	other.OrderID = 43
	assert.NotEqual(t, intentIdempotencyKey(in), intentIdempotencyKey(other))

	repriced := in
	repriced.AmountCents = 6000
	repriced.FeeCents = 1200
	assert.NotEqual(t, intentIdempotencyKey(in), intentIdempotencyKey(repriced))

	moved := in
	moved.DestinationAccount = "acct_2"
	assert.NotEqual(t, intentIdempotencyKey(in), intentIdempotencyKey(moved))
}

func TestConnectAccountIdempotencyKey(t *testing.T) {
	assert.Equal(t, connectAccountIdempotencyKey(5), connectAccountIdempotencyKey(5))
	assert.NotEqual(t, connectAccountIdempotencyKey(5), connectAccountIdempotencyKey(6))
}

func signedEvent(t *testing.T, id, eventType string, object interface{}) ([]byte, string) {
	t.Helper()

	raw, err := json.Marshal(object)
	require.NoError(t, err)

	payload, err := json.Marshal(map[string]interface{}{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"api_version": "2020-08-27",
		"data":        map[string]json.RawMessage{"object": raw},
	})
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  testWebhookSecret,
	})
	return signed.Payload, signed.Header
}

func TestClient_ConstructEvent(t *testing.T) {
	client := NewClient(&config.StripeConfig{WebhookSecret: testWebhookSecret})

	payload, header := signedEvent(t, "evt_123", "payment_intent.succeeded", map[string]interface{}{
		"id":       "pi_123",
		"amount":   5000,
		"metadata": map[string]string{"order_id": "42"},
	})

	event, err := client.ConstructEvent(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_123", event.ID)
	assert.Equal(t, "payment_intent.succeeded", event.Type)

	var pi PaymentIntentObject
	require.NoError(t, json.Unmarshal(event.Object, &pi))
	assert.Equal(t, "pi_123", pi.ID)
	assert.Equal(t, int64(42), pi.Metadata.Int64("order_id"))
}

func TestClient_ConstructEvent_BadSignature(t *testing.T) {
	client := NewClient(&config.StripeConfig{WebhookSecret: testWebhookSecret})

	payload, _ := signedEvent(t, "evt_123", "payment_intent.succeeded", map[string]string{"id": "pi_1"})

	_, err := client.ConstructEvent(payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	other := NewClient(&config.StripeConfig{WebhookSecret: "whsec_other"})
	_, header := signedEvent(t, "evt_123", "payment_intent.succeeded", map[string]string{"id": "pi_1"})
	_, err = other.ConstructEvent(payload, header)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestExpandableID(t *testing.T) {
	var s struct {
		A ExpandableID `json:"a"`
		B ExpandableID `json:"b"`
		C ExpandableID `json:"c"`
	}
	err := json.Unmarshal([]byte(`{"a":"sub_1","b":{"id":"sub_2","object":"subscription"},"c":null}`), &s)
	require.NoError(t, err)
	assert.Equal(t, ExpandableID("sub_1"), s.A)
	assert.Equal(t, ExpandableID("sub_2"), s.B)
	assert.Equal(t, ExpandableID(""), s.C)
}

func TestInvoiceObject_Keys(t *testing.T) {
	var legacy InvoiceObject
	require.NoError(t, json.Unmarshal([]byte(`{"id":"in_1","subscription":"sub_1","payment_intent":"pi_1"}`), &legacy))
	assert.Equal(t, "sub_1", legacy.SubscriptionID())
	assert.Equal(t, "pi_1", legacy.PaymentKey())

	var current InvoiceObject
	require.NoError(t, json.Unmarshal([]byte(`{"id":"in_2","parent":{"subscription_details":{"subscription":"sub_2"}}}`), &current))
	assert.Equal(t, "sub_2", current.SubscriptionID())
	assert.Equal(t, "in_2", current.PaymentKey())
}

func TestSubscriptionObject_PeriodEnd(t *testing.T) {
	var sub SubscriptionObject
	require.NoError(t, json.Unmarshal([]byte(`{"id":"sub_1","items":{"data":[{"current_period_end":1740830400}]}}`), &sub))
	require.NotNil(t, sub.PeriodEnd())
	assert.Equal(t, int64(1740830400), sub.PeriodEnd().Unix())
	assert.Nil(t, sub.CanceledTime())
}
