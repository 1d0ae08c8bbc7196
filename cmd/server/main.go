package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/qs3c/creatorhub_server/config"
	"github.com/qs3c/creatorhub_server/internal/api"
	"github.com/qs3c/creatorhub_server/internal/api/handler"
	"github.com/qs3c/creatorhub_server/internal/database"
	"github.com/qs3c/creatorhub_server/internal/pkg/cron"
	"github.com/qs3c/creatorhub_server/internal/pkg/email"
	"github.com/qs3c/creatorhub_server/internal/pkg/logger"
	"github.com/qs3c/creatorhub_server/internal/pkg/oauth"
	"github.com/qs3c/creatorhub_server/internal/pkg/payment"
	"github.com/qs3c/creatorhub_server/internal/pkg/pubsub"
	"github.com/qs3c/creatorhub_server/internal/pkg/queue"
	"github.com/qs3c/creatorhub_server/internal/pkg/storage"
	"github.com/qs3c/creatorhub_server/internal/pkg/ws"
	"github.com/qs3c/creatorhub_server/internal/repository"
	"github.com/qs3c/creatorhub_server/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to connect database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}
	logrus.WithField("driver", cfg.Database.Driver).Info("database connected")

	// Redis 可选，缺失时通知只落库不推送，webhook 同步处理
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb, err = database.NewRedis(&cfg.Redis)
		if err != nil {
			logrus.WithError(err).Warn("redis unavailable, realtime push and webhook queue disabled")
			rdb = nil
		} else {
			logrus.Info("redis connected")
		}
	}

	// 对象存储可选
	var store storage.ObjectStore
	if cfg.Storage.Provider != "" {
		store, err = storage.New(ctx, &cfg.Storage)
		if err != nil {
			logrus.WithError(err).Warn("object storage unavailable, uploads disabled")
			store = nil
		}
	}

	var gateway service.PaymentGateway
	if cfg.Stripe.SecretKey != "" {
		gateway = payment.NewClient(&cfg.Stripe)
	} else {
		logrus.Warn("stripe not configured, payment endpoints return 503")
	}

	hub := ws.NewHub()

	var (
		publisher   service.NotificationPublisher
		states      service.OAuthStateStore
		webhookJobs service.WebhookQueue
	)
	if rdb != nil {
		publisher = pubsub.NewPublisher(rdb)
		states = oauth.NewStateStore(rdb)
		if cfg.Queue.WebhookQueue != "" {
			webhookJobs = queue.NewQueue(rdb, cfg.Queue.WebhookQueue)
		}

		subscriber := pubsub.NewSubscriber(rdb)
		go func() {
			err := subscriber.Subscribe(ctx, func(msg *pubsub.NotificationMessage) {
				if _, err := hub.PushNotification(msg); err != nil {
					logrus.WithError(err).WithField("user_id", msg.UserID).Debug("websocket push failed")
				}
			})
			if err != nil && ctx.Err() == nil {
				logrus.WithError(err).Error("notification subscriber stopped")
			}
		}()
	}

	// 初始化 Repository
	profileRepo := repository.NewProfileRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	tierRepo := repository.NewTierRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	eventRepo := repository.NewWebhookEventRepository(db)
	syncLogRepo := repository.NewSyncLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// 初始化 Service
	notificationService := service.NewNotificationService(notificationRepo, profileRepo, publisher, email.NewService(&cfg.Email), cfg.OAuth.Github.FrontendURL)
	authService := service.NewAuthService(profileRepo, cfg, oauth.NewGithubOAuth(&cfg.OAuth.Github), states)
	profileService := service.NewProfileService(profileRepo, tierRepo, store, cfg)
	orderService := service.NewOrderService(orderRepo, profileRepo, notificationService, store, cfg)
	tierService := service.NewTierService(tierRepo, profileRepo, cfg)
	subscriptionService := service.NewSubscriptionService(subRepo, tierRepo, profileRepo, gateway, notificationService, cfg)
	paymentService := service.NewPaymentService(orderRepo, profileRepo, syncLogRepo, gateway, cfg)
	webhookService := service.NewWebhookService(eventRepo, orderRepo, subRepo, paymentRepo, profileRepo, gateway, webhookJobs, notificationService, cfg)
	syncService := service.NewSyncService(subRepo, profileRepo, syncLogRepo, gateway, notificationService)

	// 定时任务，未配置 Stripe 时不跑对账
	var syncer cron.SubscriptionSyncer
	if gateway != nil {
		syncer = syncService
	}
	scheduler := cron.NewService(syncer, orderService, webhookService, cfg.Cron.SyncIntervalMinutes, cfg.Cron.PendingOrderTTLHours)
	scheduler.Start()
	defer scheduler.Stop()

	router := api.NewRouter(
		handler.NewAuthHandler(authService, cfg),
		handler.NewProfileHandler(profileService),
		handler.NewOrderHandler(orderService),
		handler.NewTierHandler(tierService),
		handler.NewSubscriptionHandler(subscriptionService),
		handler.NewPaymentHandler(paymentService, webhookService, syncService),
		handler.NewNotificationHandler(notificationService),
		handler.NewWebSocketHandler(hub, cfg),
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("addr", srv.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("server shutdown failed")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	logrus.Info("server stopped")
}
