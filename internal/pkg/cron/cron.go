package cron

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qs3c/creatorhub_server/internal/model"
)

const (
	expireInterval     = time.Hour
	retryInterval      = 10 * time.Minute
	webhookRetryBatch  = 50
	defaultSyncMinutes = 60
	defaultPendingTTL  = 168 * time.Hour
)

// SubscriptionSyncer 订阅对账
type SubscriptionSyncer interface {
	Run(ctx context.Context) (*model.SyncLog, error)
}

// OrderExpirer 取消超时未接的订单
type OrderExpirer interface {
	ExpireStale(ttl time.Duration) (int, error)
}

// WebhookRetrier 重试处理失败的 webhook
type WebhookRetrier interface {
	RetryFailed(ctx context.Context, limit int) (int, error)
}

type Service struct {
	syncer       SubscriptionSyncer
	expirer      OrderExpirer
	retrier      WebhookRetrier
	syncInterval time.Duration
	pendingTTL   time.Duration
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

func NewService(syncer SubscriptionSyncer, expirer OrderExpirer, retrier WebhookRetrier, syncMinutes, pendingTTLHours int) *Service {
	if syncMinutes <= 0 {
		syncMinutes = defaultSyncMinutes
	}
	pendingTTL := defaultPendingTTL
	if pendingTTLHours > 0 {
		pendingTTL = time.Duration(pendingTTLHours) * time.Hour
	}

	return &Service{
		syncer:       syncer,
		expirer:      expirer,
		retrier:      retrier,
		syncInterval: time.Duration(syncMinutes) * time.Minute,
		pendingTTL:   pendingTTL,
		stopChan:     make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	if s.syncer != nil {
		s.every(s.syncInterval, s.RunSync)
	}
	if s.expirer != nil {
		s.every(expireInterval, s.RunExpire)
	}
	if s.retrier != nil {
		s.every(retryInterval, s.RunRetry)
	}
	logrus.WithField("sync_interval", s.syncInterval.String()).Info("cron service started")
}

// Stop 停止定时任务并等待正在执行的任务结束
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	logrus.Info("cron service stopped")
}

func (s *Service) every(interval time.Duration, task func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				task()
			}
		}
	}()
}

// RunSync 执行一次订阅对账
func (s *Service) RunSync() {
	ctx, cancel := context.WithTimeout(context.Background(), s.syncInterval)
	defer cancel()

	log, err := s.syncer.Run(ctx)
	if err != nil {
		logrus.WithError(err).Error("subscription sync failed")
		return
	}
	logrus.WithFields(logrus.Fields{
		"status":  log.Status,
		"updated": log.ItemsUpdated,
	}).Debug("subscription sync done")
}

// RunExpire 取消超时订单
func (s *Service) RunExpire() {
	n, err := s.expirer.ExpireStale(s.pendingTTL)
	if err != nil {
		logrus.WithError(err).Error("expire pending orders failed")
		return
	}
	if n > 0 {
		logrus.WithField("count", n).Info("expired pending orders")
	}
}

// RunRetry 重试失败的 webhook
func (s *Service) RunRetry() {
	ctx, cancel := context.WithTimeout(context.Background(), retryInterval)
	defer cancel()

	n, err := s.retrier.RetryFailed(ctx, webhookRetryBatch)
	if err != nil {
		logrus.WithError(err).Error("retry failed webhooks failed")
		return
	}
	if n > 0 {
		logrus.WithField("count", n).Info("retried failed webhooks")
	}
}
