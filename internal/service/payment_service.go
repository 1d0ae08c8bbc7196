package service

import (
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/config"
	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/model/dto"
	"github.com/qs3c/creatorhub_server/internal/pkg/payment"
	"github.com/qs3c/creatorhub_server/internal/repository"
)

var (
	ErrOrderNotPayable = errors.New("订单当前不可支付")
)

type PaymentService struct {
	orderRepo   *repository.OrderRepository
	profileRepo *repository.ProfileRepository
	syncLogRepo *repository.SyncLogRepository
	gateway     PaymentGateway
	cfg         *config.Config
}

func NewPaymentService(
	orderRepo *repository.OrderRepository,
	profileRepo *repository.ProfileRepository,
	syncLogRepo *repository.SyncLogRepository,
	gateway PaymentGateway,
	cfg *config.Config,
) *PaymentService {
	return &PaymentService{
		orderRepo:   orderRepo,
		profileRepo: profileRepo,
		syncLogRepo: syncLogRepo,
		gateway:     gateway,
		cfg:         cfg,
	}
}

// CreateIntent 为订单创建支付，平台抽成随支付一起扣除
func (s *PaymentService) CreateIntent(fanID int64, req *dto.CreateIntentRequest) (*dto.CreateIntentResponse, error) {
	if s.gateway == nil {
		return nil, ErrPaymentsUnavailable
	}

	order, err := s.orderRepo.GetForParticipant(req.OrderID, fanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.FanID != fanID {
		return nil, ErrOrderForbidden
	}
	if order.PaymentStatus == model.PaymentStatusPaid || order.PaymentStatus == model.PaymentStatusRefunded ||
		order.Status == model.OrderStatusCancelled {
		return nil, ErrOrderNotPayable
	}
	if order.Creator == nil || order.Creator.StripeAccountID == nil {
		return nil, ErrCreatorNotPayable
	}

	fee := payment.PlatformFee(order.PriceCents, s.cfg.Stripe.PlatformFeePercent)
	result, err := s.gateway.CreatePaymentIntent(payment.PaymentIntentInput{
		AmountCents:        order.PriceCents,
		FeeCents:           fee,
		Currency:           order.Currency,
		DestinationAccount: *order.Creator.StripeAccountID,
		OrderID:            order.ID,
		FanID:              order.FanID,
		CreatorID:          order.CreatorID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateFields(order.ID, map[string]interface{}{
		"payment_intent_id":  result.ID,
		"platform_fee_cents": fee,
	}); err != nil {
		return nil, err
	}

	return &dto.CreateIntentResponse{
		ClientSecret:    result.ClientSecret,
		PaymentIntentID: result.ID,
		AmountCents:     order.PriceCents,
		FeeCents:        fee,
		Currency:        order.Currency,
	}, nil
}

// Connect 创作者开通收款账户，已有账户时只重新生成入驻链接
func (s *PaymentService) Connect(creatorID int64) (*dto.ConnectResponse, error) {
	if s.gateway == nil {
		return nil, ErrPaymentsUnavailable
	}

	profile, err := s.profileRepo.GetByID(creatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if !profile.IsCreator() {
		return nil, ErrNotCreator
	}

	var accountID string
	if profile.StripeAccountID != nil {
		accountID = *profile.StripeAccountID
	} else {
		var email string
		if profile.Email != nil {
			email = *profile.Email
		}
		accountID, err = s.gateway.CreateConnectAccount(email, profile.ID)
		if err != nil {
			return nil, err
		}
		if err := s.profileRepo.UpdateFields(profile.ID, map[string]interface{}{"stripe_account_id": accountID}); err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{"profile_id": profile.ID, "account_id": accountID}).Info("connect account created")
	}

	link, err := s.gateway.CreateOnboardingLink(accountID)
	if err != nil {
		return nil, err
	}

	return &dto.ConnectResponse{AccountID: accountID, OnboardingURL: link}, nil
}

// LastSync 最近一次对账记录，没有记录时返回 nil
func (s *PaymentService) LastSync(source string) (*dto.SyncLogInfo, error) {
	log, err := s.syncLogRepo.Latest(source)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return buildSyncLogInfo(log), nil
}
