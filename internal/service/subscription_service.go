package service

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/config"
	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/model/dto"
	"github.com/qs3c/creatorhub_server/internal/pkg/payment"
	"github.com/qs3c/creatorhub_server/internal/repository"
)

var (
	ErrSubscriptionNotFound = errors.New("订阅不存在")
	ErrAlreadySubscribed    = errors.New("已经订阅了该档位")
	ErrSubscriptionInactive = errors.New("订阅已取消")
	ErrCannotSubscribeSelf  = errors.New("不能订阅自己")
	ErrPaymentsUnavailable  = errors.New("支付未配置")
	ErrCreatorNotPayable    = errors.New("创作者尚未开通收款")
)

type SubscriptionService struct {
	subRepo     *repository.SubscriptionRepository
	tierRepo    *repository.TierRepository
	profileRepo *repository.ProfileRepository
	gateway     PaymentGateway
	mirror      *subscriptionMirror
	cfg         *config.Config
}

func NewSubscriptionService(
	subRepo *repository.SubscriptionRepository,
	tierRepo *repository.TierRepository,
	profileRepo *repository.ProfileRepository,
	gateway PaymentGateway,
	notifier Notifier,
	cfg *config.Config,
) *SubscriptionService {
	return &SubscriptionService{
		subRepo:     subRepo,
		tierRepo:    tierRepo,
		profileRepo: profileRepo,
		gateway:     gateway,
		mirror:      &subscriptionMirror{subRepo: subRepo, profileRepo: profileRepo, notifier: notifier},
		cfg:         cfg,
	}
}

// Checkout 为档位创建支付页，订阅记录在支付完成的 webhook 中创建
func (s *SubscriptionService) Checkout(fanID int64, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if s.gateway == nil {
		return nil, ErrPaymentsUnavailable
	}

	tier, err := s.tierRepo.GetByID(req.TierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTierNotFound
		}
		return nil, err
	}
	if !tier.IsActive {
		return nil, ErrTierNotFound
	}
	if tier.CreatorID == fanID {
		return nil, ErrCannotSubscribeSelf
	}

	creator, err := s.profileRepo.GetByID(tier.CreatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCreatorNotFound
		}
		return nil, err
	}
	if creator.IsSuspended {
		return nil, ErrCreatorNotFound
	}
	if creator.StripeAccountID == nil {
		return nil, ErrCreatorNotPayable
	}

	exists, err := s.subRepo.ExistsLive(fanID, tier.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadySubscribed
	}

	fan, err := s.profileRepo.GetByID(fanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	var email string
	if fan.Email != nil {
		email = *fan.Email
	}

	result, err := s.gateway.CreateSubscriptionCheckout(payment.CheckoutInput{
		FanID:              fanID,
		CreatorID:          creator.ID,
		TierID:             tier.ID,
		TierName:           tier.Name,
		AmountCents:        tier.PriceCents,
		Currency:           tier.Currency,
		FeePercent:         s.cfg.Stripe.PlatformFeePercent,
		DestinationAccount: *creator.StripeAccountID,
		CustomerEmail:      email,
	})
	if err != nil {
		return nil, err
	}

	return &dto.CheckoutResponse{SessionID: result.SessionID, URL: result.URL}, nil
}

// List 我的订阅（as=fan）或我的订阅者（as=creator）
func (s *SubscriptionService) List(userID int64, as string, page, pageSize int) ([]*dto.SubscriptionItem, int64, error) {
	page, pageSize = clampPage(page, pageSize)

	column := repository.OwnerFan
	if as == model.RoleCreator {
		column = repository.OwnerCreator
	}

	subs, total, err := s.subRepo.ListByParticipant(column, userID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.SubscriptionItem, 0, len(subs))
	for _, sub := range subs {
		items = append(items, buildSubscriptionItem(sub))
	}
	return items, total, nil
}

// Cancel 粉丝取消自己的订阅，先取消远端再更新本地
func (s *SubscriptionService) Cancel(fanID, id int64) (*dto.SubscriptionItem, error) {
	if s.gateway == nil {
		return nil, ErrPaymentsUnavailable
	}

	sub, err := s.subRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	if sub.FanID != fanID {
		return nil, ErrSubscriptionNotFound
	}
	if sub.Status == model.SubscriptionStatusCanceled || sub.Status == model.SubscriptionStatusIncompleteExpired {
		return nil, ErrSubscriptionInactive
	}

	if err := s.gateway.CancelSubscription(sub.StripeSubscriptionID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if _, err := s.mirror.apply(sub, subscriptionState{
		Status:     model.SubscriptionStatusCanceled,
		CanceledAt: &now,
	}); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"fan_id":          fanID,
		"subscription_id": sub.ID,
	}).Info("subscription cancelled")

	return buildSubscriptionItem(sub), nil
}
