package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/config"
	"github.com/qs3c/creatorhub_server/internal/database"
	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/pkg/logger"
	"github.com/qs3c/creatorhub_server/internal/pkg/payment"
	"github.com/qs3c/creatorhub_server/internal/repository"
	"github.com/qs3c/creatorhub_server/internal/service"
)

// env 命令共享的配置和数据库连接
type env struct {
	cfg *config.Config
	db  *gorm.DB
}

func setup(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log)

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &env{cfg: cfg, db: db}, nil
}

// notifier 命令行里不推送，只落库
func (e *env) notifier() *service.NotificationService {
	return service.NewNotificationService(
		repository.NewNotificationRepository(e.db),
		repository.NewProfileRepository(e.db),
		nil, nil, e.cfg.OAuth.Github.FrontendURL,
	)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			if err := database.Migrate(e.db); err != nil {
				return err
			}
			fmt.Printf("Migrated %d tables\n", len(database.Models()))
			return nil
		},
	}
}

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile subscriptions with Stripe",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			if e.cfg.Stripe.SecretKey == "" {
				return errors.New("stripe.secret_key is not configured")
			}
			timeout, _ := cmd.Flags().GetDuration("timeout")

			syncService := service.NewSyncService(
				repository.NewSubscriptionRepository(e.db),
				repository.NewProfileRepository(e.db),
				repository.NewSyncLogRepository(e.db),
				payment.NewClient(&e.cfg.Stripe),
				e.notifier(),
			)

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			log, runErr := syncService.Run(ctx)
			if log != nil {
				fmt.Printf("Status:  %s\nScanned: %d\nUpdated: %d\n", log.Status, log.ItemsScanned, log.ItemsUpdated)
				if log.ErrorMessage != "" {
					fmt.Printf("Errors:\n  %s\n", strings.ReplaceAll(log.ErrorMessage, "; ", "\n  "))
				}
			}
			return runErr
		},
	}
	cmd.Flags().Duration("timeout", 30*time.Minute, "Give up after this long")
	return cmd
}

func expireOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expire-orders",
		Short: "Cancel pending orders the creator never accepted",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			hours, _ := cmd.Flags().GetInt("ttl-hours")
			if hours <= 0 {
				hours = e.cfg.Cron.PendingOrderTTLHours
			}

			orderService := service.NewOrderService(
				repository.NewOrderRepository(e.db),
				repository.NewProfileRepository(e.db),
				e.notifier(), nil, e.cfg,
			)
			n, err := orderService.ExpireStale(time.Duration(hours) * time.Hour)
			if err != nil {
				return err
			}
			fmt.Printf("Expired %d orders older than %dh\n", n, hours)
			return nil
		},
	}
	cmd.Flags().Int("ttl-hours", 0, "Override cron.pending_order_ttl_hours")
	return cmd
}

func retryWebhooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retry-webhooks",
		Short: "Reprocess webhook events that failed",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")

			var gateway service.PaymentGateway
			if e.cfg.Stripe.SecretKey != "" {
				gateway = payment.NewClient(&e.cfg.Stripe)
			}
			webhookService := service.NewWebhookService(
				repository.NewWebhookEventRepository(e.db),
				repository.NewOrderRepository(e.db),
				repository.NewSubscriptionRepository(e.db),
				repository.NewPaymentRepository(e.db),
				repository.NewProfileRepository(e.db),
				gateway, nil, e.notifier(), e.cfg,
			)

			n, err := webhookService.RetryFailed(context.Background(), limit)
			if err != nil {
				return err
			}
			fmt.Printf("Recovered %d events\n", n)
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 100, "Maximum events to retry")
	return cmd
}

func setRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <email|handle> <fan|creator|admin>",
		Short: "Change a profile's role",
		Long:  "Change a profile's role. The user must log in again for the new role to apply.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, role := args[0], args[1]
			if !model.IsValidRole(role) {
				return fmt.Errorf("invalid role %q", role)
			}

			e, err := setup(cmd)
			if err != nil {
				return err
			}
			repo := repository.NewProfileRepository(e.db)

			var profile *model.Profile
			if strings.Contains(who, "@") {
				profile, err = repo.GetByEmail(strings.ToLower(who))
			} else {
				profile, err = repo.GetByHandle(who)
			}
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("profile %q not found", who)
			}
			if err != nil {
				return err
			}

			if err := repo.UpdateFields(profile.ID, map[string]interface{}{"role": role}); err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{"profile_id": profile.ID, "from": profile.Role, "to": role}).Info("role changed")
			fmt.Printf("Profile %d (%s): %s -> %s\n", profile.ID, profile.Handle, profile.Role, role)
			return nil
		},
	}
}
