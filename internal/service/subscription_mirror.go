package service

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/repository"
)

// subscriptionState 支付处理方给出的订阅状态
type subscriptionState struct {
	Status            string
	CancelAtPeriodEnd bool
	CanceledAt        *time.Time
	PeriodEnd         *time.Time
}

// subscriptionMirror 把远端订阅状态写回本地，并维护创作者订阅数
type subscriptionMirror struct {
	subRepo     *repository.SubscriptionRepository
	profileRepo *repository.ProfileRepository
	notifier    Notifier
}

// apply 返回本地记录是否发生变化
func (m *subscriptionMirror) apply(sub *model.SubscriptionOrder, state subscriptionState) (bool, error) {
	fields := map[string]interface{}{}
	if state.Status != "" && state.Status != sub.Status {
		fields["status"] = state.Status
	}
	if state.CancelAtPeriodEnd != sub.CancelAtPeriodEnd {
		fields["cancel_at_period_end"] = state.CancelAtPeriodEnd
	}
	if state.CanceledAt != nil && (sub.CanceledAt == nil || !sub.CanceledAt.Equal(*state.CanceledAt)) {
		fields["canceled_at"] = *state.CanceledAt
	}
	if state.PeriodEnd != nil && (sub.CurrentPeriodEnd == nil || !sub.CurrentPeriodEnd.Equal(*state.PeriodEnd)) {
		fields["current_period_end"] = *state.PeriodEnd
	}
	if len(fields) == 0 {
		return false, nil
	}

	if err := m.subRepo.UpdateFields(sub.ID, fields); err != nil {
		return false, err
	}

	oldStatus := sub.Status
	if state.Status != "" {
		sub.Status = state.Status
	}
	sub.CancelAtPeriodEnd = state.CancelAtPeriodEnd
	if state.CanceledAt != nil {
		sub.CanceledAt = state.CanceledAt
	}
	if state.PeriodEnd != nil {
		sub.CurrentPeriodEnd = state.PeriodEnd
	}

	m.adjustCount(sub, oldStatus)
	return true, nil
}

func (m *subscriptionMirror) adjustCount(sub *model.SubscriptionOrder, oldStatus string) {
	wasLive := model.IsLiveSubscriptionStatus(oldStatus)
	isLive := model.IsLiveSubscriptionStatus(sub.Status)

	var delta int
	switch {
	case wasLive && !isLive:
		delta = -1
	case !wasLive && isLive:
		delta = 1
	default:
		return
	}

	if err := m.profileRepo.IncrementSubscriberCount(sub.CreatorID, delta); err != nil {
		logrus.WithError(err).WithField("creator_id", sub.CreatorID).Error("adjust subscriber count failed")
	}

	if m.notifier == nil {
		return
	}
	data := map[string]interface{}{"subscription_id": sub.ID}
	if delta > 0 {
		m.notifier.Notify(sub.CreatorID, model.NotificationNewSubscriber, "新的订阅者", "", data)
	} else {
		m.notifier.Notify(sub.CreatorID, model.NotificationSubscriptionEnds, "订阅已结束", "", data)
	}
}
