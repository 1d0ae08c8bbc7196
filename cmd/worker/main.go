package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/qs3c/creatorhub_server/config"
	"github.com/qs3c/creatorhub_server/internal/database"
	"github.com/qs3c/creatorhub_server/internal/pkg/email"
	"github.com/qs3c/creatorhub_server/internal/pkg/logger"
	"github.com/qs3c/creatorhub_server/internal/pkg/payment"
	"github.com/qs3c/creatorhub_server/internal/pkg/pubsub"
	"github.com/qs3c/creatorhub_server/internal/pkg/queue"
	"github.com/qs3c/creatorhub_server/internal/repository"
	"github.com/qs3c/creatorhub_server/internal/service"
	"github.com/qs3c/creatorhub_server/internal/worker"
)

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

	if cfg.Queue.WebhookQueue == "" {
		logrus.Fatal("queue.webhook_queue is empty, webhooks are processed inline by the server")
	}

	// 初始化数据库
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to connect database: %v", err)
	}

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		logrus.Fatalf("Failed to connect redis: %v", err)
	}
	defer rdb.Close()

	var gateway service.PaymentGateway
	if cfg.Stripe.SecretKey != "" {
		gateway = payment.NewClient(&cfg.Stripe)
	}

	profileRepo := repository.NewProfileRepository(db)
	notificationService := service.NewNotificationService(
		repository.NewNotificationRepository(db),
		profileRepo,
		pubsub.NewPublisher(rdb),
		email.NewService(&cfg.Email),
		cfg.OAuth.Github.FrontendURL,
	)
	webhookService := service.NewWebhookService(
		repository.NewWebhookEventRepository(db),
		repository.NewOrderRepository(db),
		repository.NewSubscriptionRepository(db),
		repository.NewPaymentRepository(db),
		profileRepo,
		gateway,
		nil,
		notificationService,
		cfg,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := worker.NewConsumer(queue.NewQueue(rdb, cfg.Queue.WebhookQueue), webhookService, cfg.Queue.MaxWorkers)

	logrus.WithFields(logrus.Fields{
		"queue":       cfg.Queue.WebhookQueue,
		"max_workers": cfg.Queue.MaxWorkers,
	}).Info("worker started")

	consumer.Run(ctx)
	logrus.Info("worker shutdown complete")
}
