package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/pkg/payment"
	"github.com/qs3c/creatorhub_server/internal/repository"
)

const maxSyncErrors = 10

// SyncService 定时与支付处理方对账订阅状态
type SyncService struct {
	subRepo     *repository.SubscriptionRepository
	syncLogRepo *repository.SyncLogRepository
	gateway     PaymentGateway
	mirror      *subscriptionMirror
}

func NewSyncService(
	subRepo *repository.SubscriptionRepository,
	profileRepo *repository.ProfileRepository,
	syncLogRepo *repository.SyncLogRepository,
	gateway PaymentGateway,
	notifier Notifier,
) *SyncService {
	return &SyncService{
		subRepo:     subRepo,
		syncLogRepo: syncLogRepo,
		gateway:     gateway,
		mirror:      &subscriptionMirror{subRepo: subRepo, profileRepo: profileRepo, notifier: notifier},
	}
}

// Run 执行一次对账，每次运行写一条 sync_logs
func (s *SyncService) Run(ctx context.Context) (*model.SyncLog, error) {
	if s.gateway == nil {
		return nil, ErrPaymentsUnavailable
	}

	log := &model.SyncLog{
		Source:    model.SyncSourceStripeSubscriptions,
		StartedAt: time.Now().UTC(),
	}

	var errs []string
	listErr := s.gateway.ListSubscriptions(func(snap payment.SubscriptionSnapshot) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.ItemsScanned++

		changed, err := s.syncOne(snap)
		if err != nil {
			if len(errs) < maxSyncErrors {
				errs = append(errs, fmt.Sprintf("%s: %v", snap.ID, err))
			}
			return nil
		}
		if changed {
			log.ItemsUpdated++
		}
		return nil
	})

	switch {
	case listErr != nil:
		log.Status = model.SyncStatusFailed
		errs = append([]string{listErr.Error()}, errs...)
	case len(errs) > 0:
		log.Status = model.SyncStatusPartial
	default:
		log.Status = model.SyncStatusSuccess
	}
	log.ErrorMessage = strings.Join(errs, "; ")
	finished := time.Now().UTC()
	log.FinishedAt = &finished

	if err := s.syncLogRepo.Create(log); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"status":  log.Status,
		"scanned": log.ItemsScanned,
		"updated": log.ItemsUpdated,
	}).Info("subscription sync finished")

	return log, listErr
}

func (s *SyncService) syncOne(snap payment.SubscriptionSnapshot) (bool, error) {
	sub, err := s.subRepo.GetByStripeID(snap.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return s.mirror.apply(sub, subscriptionState{
		Status:            snap.Status,
		CancelAtPeriodEnd: snap.CancelAtPeriodEnd,
		CanceledAt:        snap.CanceledAt,
	})
}
