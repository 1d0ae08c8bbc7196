package payment

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// ExpandableID 兼容字段为 ID 字符串或展开对象两种形式
type ExpandableID string

func (e *ExpandableID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*e = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = ExpandableID(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*e = ExpandableID(obj.ID)
	return nil
}

// Metadata 读取数字型元数据
type Metadata map[string]string

func (m Metadata) Int64(key string) int64 {
	v, err := strconv.ParseInt(m[key], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

type PaymentIntentObject struct {
	ID                   string   `json:"id"`
	Amount               int64    `json:"amount"`
	AmountReceived       int64    `json:"amount_received"`
	ApplicationFeeAmount int64    `json:"application_fee_amount"`
	Currency             string   `json:"currency"`
	Status               string   `json:"status"`
	Metadata             Metadata `json:"metadata"`
	LastPaymentError     *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

type CheckoutSessionObject struct {
	ID           string       `json:"id"`
	Mode         string       `json:"mode"`
	Subscription ExpandableID `json:"subscription"`
	Customer     ExpandableID `json:"customer"`
	Metadata     Metadata     `json:"metadata"`
}

type SubscriptionObject struct {
	ID                string       `json:"id"`
	Status            string       `json:"status"`
	Customer          ExpandableID `json:"customer"`
	CancelAtPeriodEnd bool         `json:"cancel_at_period_end"`
	CanceledAt        int64        `json:"canceled_at"`
	CurrentPeriodEnd  int64        `json:"current_period_end"`
	Metadata          Metadata     `json:"metadata"`
	Items             struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

// PeriodEnd 新版 API 把周期放在订阅项上
func (s *SubscriptionObject) PeriodEnd() *time.Time {
	if s.CurrentPeriodEnd > 0 {
		return unixTime(s.CurrentPeriodEnd)
	}
	if len(s.Items.Data) > 0 {
		return unixTime(s.Items.Data[0].CurrentPeriodEnd)
	}
	return nil
}

func (s *SubscriptionObject) CanceledTime() *time.Time {
	return unixTime(s.CanceledAt)
}

type InvoiceObject struct {
	ID                   string       `json:"id"`
	AmountPaid           int64        `json:"amount_paid"`
	ApplicationFeeAmount int64        `json:"application_fee_amount"`
	Currency             string       `json:"currency"`
	Subscription         ExpandableID `json:"subscription"`
	PaymentIntent        ExpandableID `json:"payment_intent"`
	Parent               *struct {
		SubscriptionDetails *struct {
			Subscription ExpandableID `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

// SubscriptionID 兼容新旧两种 invoice 结构
func (i *InvoiceObject) SubscriptionID() string {
	if i.Subscription != "" {
		return string(i.Subscription)
	}
	if i.Parent != nil && i.Parent.SubscriptionDetails != nil {
		return string(i.Parent.SubscriptionDetails.Subscription)
	}
	return ""
}

// PaymentKey 支付去重键，没有 payment_intent 时使用 invoice id
func (i *InvoiceObject) PaymentKey() string {
	if i.PaymentIntent != "" {
		return string(i.PaymentIntent)
	}
	return i.ID
}

type AccountObject struct {
	ID             string `json:"id"`
	ChargesEnabled bool   `json:"charges_enabled"`
	PayoutsEnabled bool   `json:"payouts_enabled"`
}
