package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/config"
	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/pkg/payment"
	"github.com/qs3c/creatorhub_server/internal/pkg/queue"
	"github.com/qs3c/creatorhub_server/internal/repository"
)

const ProviderStripe = "stripe"

// 入队后超过这么久仍停在 received 的事件视为丢失，允许重放
const staleReceivedAfter = 5 * time.Minute

// 支持的事件类型
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
	EventCheckoutCompleted      = "checkout.session.completed"
	EventSubscriptionCreated    = "customer.subscription.created"
	EventSubscriptionUpdated    = "customer.subscription.updated"
	EventSubscriptionDeleted    = "customer.subscription.deleted"
	EventInvoicePaid            = "invoice.paid"
	EventInvoicePaymentSucceed  = "invoice.payment_succeeded"
	EventAccountUpdated         = "account.updated"
)

var (
	ErrInvalidSignature = errors.New("webhook 签名无效")
	ErrWebhookNotFound  = errors.New("webhook 事件不存在")

	errEventIgnored = errors.New("event ignored")
)

type WebhookService struct {
	eventRepo   *repository.WebhookEventRepository
	orderRepo   *repository.OrderRepository
	subRepo     *repository.SubscriptionRepository
	paymentRepo *repository.PaymentRepository
	profileRepo *repository.ProfileRepository
	gateway     PaymentGateway
	queue       WebhookQueue
	notifier    Notifier
	mirror      *subscriptionMirror
	cfg         *config.Config
}

func NewWebhookService(
	eventRepo *repository.WebhookEventRepository,
	orderRepo *repository.OrderRepository,
	subRepo *repository.SubscriptionRepository,
	paymentRepo *repository.PaymentRepository,
	profileRepo *repository.ProfileRepository,
	gateway PaymentGateway,
	q WebhookQueue,
	notifier Notifier,
	cfg *config.Config,
) *WebhookService {
	return &WebhookService{
		eventRepo:   eventRepo,
		orderRepo:   orderRepo,
		subRepo:     subRepo,
		paymentRepo: paymentRepo,
		profileRepo: profileRepo,
		gateway:     gateway,
		queue:       q,
		notifier:    notifier,
		mirror:      &subscriptionMirror{subRepo: subRepo, profileRepo: profileRepo, notifier: notifier},
		cfg:         cfg,
	}
}

// Receive 验签并落库；重复事件直接确认，返回 duplicate=true
func (s *WebhookService) Receive(ctx context.Context, payload []byte, signature string) (bool, error) {
	if s.gateway == nil {
		return false, ErrPaymentsUnavailable
	}

	ev, err := s.gateway.ConstructEvent(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return false, ErrInvalidSignature
		}
		return false, err
	}

	row := &model.WebhookEvent{
		Provider: ProviderStripe,
		EventID:  ev.ID,
		Type:     ev.Type,
		Payload:  datatypes.JSON(payload),
		Status:   model.WebhookStatusReceived,
	}
	if err := s.eventRepo.Create(row); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			logrus.WithField("event_id", ev.ID).Info("duplicate webhook event acknowledged")
			s.retryIfStuck(ctx, ev.ID)
			return true, nil
		}
		return false, err
	}

	if s.queue != nil {
		err := s.queue.Push(ctx, &queue.WebhookMessage{
			EventRowID: row.ID,
			Provider:   row.Provider,
			EventID:    row.EventID,
			Type:       row.Type,
		})
		if err == nil {
			return false, nil
		}
		logrus.WithError(err).WithField("event_id", ev.ID).Warn("enqueue webhook failed, processing inline")
	}

	if err := s.Process(ctx, row.ID); err != nil {
		// 事件已落库并标记失败，可由 worker 重试，这里仍然确认接收
		logrus.WithError(err).WithField("event_id", ev.ID).Error("process webhook failed")
	}
	return false, nil
}

// 重发的事件如果上次处理失败或入队后丢失，借机再处理一次
func (s *WebhookService) retryIfStuck(ctx context.Context, eventID string) {
	existing, err := s.eventRepo.GetByEventID(ProviderStripe, eventID)
	if err != nil || !isStuck(existing, time.Now().UTC()) {
		return
	}
	if err := s.Process(ctx, existing.ID); err != nil {
		logrus.WithError(err).WithField("event_id", eventID).Warn("reprocess webhook failed")
	}
}

func isStuck(ev *model.WebhookEvent, now time.Time) bool {
	switch ev.Status {
	case model.WebhookStatusFailed:
		return true
	case model.WebhookStatusReceived:
		return ev.CreatedAt.Before(now.Add(-staleReceivedAfter))
	}
	return false
}

// Process 处理已落库的事件，已处理过的事件不会重复执行
func (s *WebhookService) Process(ctx context.Context, rowID int64) error {
	row, err := s.eventRepo.GetByID(rowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWebhookNotFound
		}
		return err
	}
	if row.Status == model.WebhookStatusProcessed || row.Status == model.WebhookStatusIgnored {
		return nil
	}

	if err := s.eventRepo.IncrementAttempts(row.ID); err != nil {
		return err
	}

	entry := logrus.WithFields(logrus.Fields{
		"event_id": row.EventID,
		"type":     row.Type,
	})

	handleErr := s.dispatch(ctx, row)
	now := time.Now().UTC()
	fields := map[string]interface{}{"processed_at": now, "processing_error": ""}
	switch {
	case handleErr == nil:
		fields["status"] = model.WebhookStatusProcessed
		entry.Info("webhook processed")
	case errors.Is(handleErr, errEventIgnored):
		fields["status"] = model.WebhookStatusIgnored
		entry.WithField("reason", handleErr.Error()).Debug("webhook ignored")
		handleErr = nil
	default:
		fields["status"] = model.WebhookStatusFailed
		fields["processing_error"] = handleErr.Error()
		delete(fields, "processed_at")
	}

	if err := s.eventRepo.UpdateFields(row.ID, fields); err != nil {
		return err
	}
	return handleErr
}

// RetryFailed 重新处理失败的事件，以及入队后长时间没被消费的事件
func (s *WebhookService) RetryFailed(ctx context.Context, limit int) (int, error) {
	events, err := s.eventRepo.ListRetryable(time.Now().UTC().Add(-staleReceivedAfter), limit)
	if err != nil {
		return 0, err
	}
	ok := 0
	for _, ev := range events {
		if err := s.Process(ctx, ev.ID); err != nil {
			logrus.WithError(err).WithField("event_id", ev.EventID).Warn("retry webhook failed")
			continue
		}
		ok++
	}
	return ok, nil
}

func (s *WebhookService) dispatch(ctx context.Context, row *model.WebhookEvent) error {
	var envelope struct {
		Data struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		return fmt.Errorf("decode event payload: %w", err)
	}
	object := []byte(envelope.Data.Object)

	switch row.Type {
	case EventPaymentIntentSucceeded:
		return s.handlePaymentSucceeded(object)
	case EventPaymentIntentFailed:
		return s.handlePaymentFailed(object)
	case EventCheckoutCompleted:
		return s.handleCheckoutCompleted(object)
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		return s.handleSubscriptionChanged(object)
	case EventInvoicePaid, EventInvoicePaymentSucceed:
		return s.handleInvoicePaid(object)
	case EventAccountUpdated:
		return s.handleAccountUpdated(object)
	default:
		return fmt.Errorf("%w: unhandled type %s", errEventIgnored, row.Type)
	}
}

func (s *WebhookService) handlePaymentSucceeded(object []byte) error {
	var pi payment.PaymentIntentObject
	if err := json.Unmarshal(object, &pi); err != nil {
		return err
	}

	order, err := s.findOrderForIntent(&pi)
	if err != nil {
		return err
	}

	amount := pi.AmountReceived
	if amount == 0 {
		amount = pi.Amount
	}
	fee := pi.ApplicationFeeAmount
	if fee == 0 {
		fee = payment.PlatformFee(amount, s.cfg.Stripe.PlatformFeePercent)
	}

	orderID := order.ID
	err = s.paymentRepo.Create(&model.Payment{
		PaymentIntentID: pi.ID,
		Kind:            model.PaymentKindOrder,
		OrderID:         &orderID,
		PayerID:         order.FanID,
		CreatorID:       order.CreatorID,
		AmountCents:     amount,
		FeeCents:        fee,
		Currency:        pi.Currency,
		Status:          pi.Status,
	})
	if err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return err
	}

	if order.PaymentStatus == model.PaymentStatusPaid {
		return nil
	}
	if err := s.orderRepo.UpdateFields(order.ID, map[string]interface{}{
		"payment_status":     model.PaymentStatusPaid,
		"payment_intent_id":  pi.ID,
		"platform_fee_cents": fee,
	}); err != nil {
		return err
	}

	s.notifyOrder(order.CreatorID, model.NotificationOrderPaid, "订单已付款", order.ID)
	return nil
}

func (s *WebhookService) handlePaymentFailed(object []byte) error {
	var pi payment.PaymentIntentObject
	if err := json.Unmarshal(object, &pi); err != nil {
		return err
	}

	order, err := s.findOrderForIntent(&pi)
	if err != nil {
		return err
	}
	if order.PaymentStatus == model.PaymentStatusPaid {
		return fmt.Errorf("%w: order already paid", errEventIgnored)
	}

	if err := s.orderRepo.UpdateFields(order.ID, map[string]interface{}{
		"payment_status": model.PaymentStatusFailed,
	}); err != nil {
		return err
	}

	var reason string
	if pi.LastPaymentError != nil {
		reason = pi.LastPaymentError.Message
	}
	if s.notifier != nil {
		s.notifier.Notify(order.FanID, model.NotificationPaymentFailed, "支付失败", reason,
			map[string]interface{}{"order_id": order.ID})
	}
	return nil
}

func (s *WebhookService) findOrderForIntent(pi *payment.PaymentIntentObject) (*model.Order, error) {
	order, err := s.orderRepo.GetByPaymentIntentID(pi.ID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	orderID := pi.Metadata.Int64("order_id")
	if orderID == 0 {
		return nil, fmt.Errorf("%w: no order for intent %s", errEventIgnored, pi.ID)
	}
	order, err = s.orderRepo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d not found", errEventIgnored, orderID)
		}
		return nil, err
	}
	return order, nil
}

func (s *WebhookService) handleCheckoutCompleted(object []byte) error {
	var session payment.CheckoutSessionObject
	if err := json.Unmarshal(object, &session); err != nil {
		return err
	}
	if session.Mode != "subscription" || session.Subscription == "" {
		return fmt.Errorf("%w: checkout mode %s", errEventIgnored, session.Mode)
	}

	fanID := session.Metadata.Int64("fan_id")
	creatorID := session.Metadata.Int64("creator_id")
	tierID := session.Metadata.Int64("tier_id")
	if fanID == 0 || creatorID == 0 || tierID == 0 {
		return fmt.Errorf("%w: checkout without metadata", errEventIgnored)
	}

	sub := &model.SubscriptionOrder{
		FanID:                fanID,
		CreatorID:            creatorID,
		TierID:               tierID,
		StripeSubscriptionID: string(session.Subscription),
		StripeCustomerID:     string(session.Customer),
		Status:               model.SubscriptionStatusActive,
	}
	if err := s.subRepo.Create(sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return err
	}

	if session.Customer != "" {
		if err := s.profileRepo.UpdateFields(fanID, map[string]interface{}{
			"stripe_customer_id": string(session.Customer),
		}); err != nil {
			logrus.WithError(err).WithField("fan_id", fanID).Warn("save customer id failed")
		}
	}

	s.mirror.adjustCount(sub, "")
	return nil
}

func (s *WebhookService) handleSubscriptionChanged(object []byte) error {
	var obj payment.SubscriptionObject
	if err := json.Unmarshal(object, &obj); err != nil {
		return err
	}

	sub, err := s.subRepo.GetByStripeID(obj.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: unknown subscription %s", errEventIgnored, obj.ID)
		}
		return err
	}

	_, err = s.mirror.apply(sub, subscriptionState{
		Status:            obj.Status,
		CancelAtPeriodEnd: obj.CancelAtPeriodEnd,
		CanceledAt:        obj.CanceledTime(),
		PeriodEnd:         obj.PeriodEnd(),
	})
	return err
}

func (s *WebhookService) handleInvoicePaid(object []byte) error {
	var inv payment.InvoiceObject
	if err := json.Unmarshal(object, &inv); err != nil {
		return err
	}

	subID := inv.SubscriptionID()
	if subID == "" {
		return fmt.Errorf("%w: invoice without subscription", errEventIgnored)
	}
	sub, err := s.subRepo.GetByStripeID(subID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: unknown subscription %s", errEventIgnored, subID)
		}
		return err
	}

	fee := inv.ApplicationFeeAmount
	if fee == 0 {
		fee = payment.PlatformFee(inv.AmountPaid, s.cfg.Stripe.PlatformFeePercent)
	}

	subOrderID := sub.ID
	err = s.paymentRepo.Create(&model.Payment{
		PaymentIntentID:     inv.PaymentKey(),
		Kind:                model.PaymentKindSubscription,
		SubscriptionOrderID: &subOrderID,
		PayerID:             sub.FanID,
		CreatorID:           sub.CreatorID,
		AmountCents:         inv.AmountPaid,
		FeeCents:            fee,
		Currency:            inv.Currency,
		Status:              "succeeded",
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return err
	}

	return s.profileRepo.AddEarnings(sub.CreatorID, inv.AmountPaid-fee)
}

func (s *WebhookService) handleAccountUpdated(object []byte) error {
	var acct payment.AccountObject
	if err := json.Unmarshal(object, &acct); err != nil {
		return err
	}

	profile, err := s.profileRepo.GetByStripeAccountID(acct.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: unknown account %s", errEventIgnored, acct.ID)
		}
		return err
	}
	if profile.PayoutsEnabled == acct.PayoutsEnabled {
		return nil
	}

	if err := s.profileRepo.UpdateFields(profile.ID, map[string]interface{}{
		"payouts_enabled": acct.PayoutsEnabled,
	}); err != nil {
		return err
	}

	if acct.PayoutsEnabled && s.notifier != nil {
		s.notifier.Notify(profile.ID, model.NotificationPayoutsEnabled, "收款账户已开通", "", nil)
	}
	return nil
}

func (s *WebhookService) notifyOrder(userID int64, kind, title string, orderID int64) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(userID, kind, title, "", map[string]interface{}{"order_id": orderID})
}
