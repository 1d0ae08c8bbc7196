package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/creatorhub_server/config"
	"github.com/qs3c/creatorhub_server/internal/api/handler"
	"github.com/qs3c/creatorhub_server/internal/api/middleware"
	"github.com/qs3c/creatorhub_server/internal/model"
)

type Router struct {
	authHandler         *handler.AuthHandler
	profileHandler      *handler.ProfileHandler
	orderHandler        *handler.OrderHandler
	tierHandler         *handler.TierHandler
	subscriptionHandler *handler.SubscriptionHandler
	paymentHandler      *handler.PaymentHandler
	notificationHandler *handler.NotificationHandler
	websocketHandler    *handler.WebSocketHandler
	cfg                 *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	orderHandler *handler.OrderHandler,
	tierHandler *handler.TierHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	paymentHandler *handler.PaymentHandler,
	notificationHandler *handler.NotificationHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:         authHandler,
		profileHandler:      profileHandler,
		orderHandler:        orderHandler,
		tierHandler:         tierHandler,
		subscriptionHandler: subscriptionHandler,
		paymentHandler:      paymentHandler,
		notificationHandler: notificationHandler,
		websocketHandler:    websocketHandler,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger())
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	secret := r.cfg.JWT.Secret
	cookie := r.cfg.JWT.CookieName
	requireAuth := middleware.Auth(secret, cookie)
	limiter := middleware.NewIPLimiter(r.cfg.RateLimit)

	root := engine.Group("/api")

	// Stripe 回调不限流，也不走登录态
	root.POST("/webhooks/stripe", r.paymentHandler.StripeWebhook)

	api := root.Group("")
	api.Use(middleware.RateLimit(limiter))
	{
		api.GET("/ws", r.websocketHandler.Handle)

		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/logout", r.authHandler.Logout)
			auth.GET("/github", r.authHandler.GithubAuth)
			auth.GET("/github/callback", r.authHandler.GithubCallback)
		}

		// 公开接口
		public := api.Group("")
		public.Use(middleware.OptionalAuth(secret, cookie))
		{
			public.GET("/profiles/creators", r.profileHandler.ListCreators)
			public.GET("/profiles/:handle", r.profileHandler.GetPublic)
			public.GET("/creators/:id/tiers", r.tierHandler.ListByCreator)
		}

		authenticated := api.Group("")
		authenticated.Use(requireAuth)
		{
			profiles := authenticated.Group("/profiles/me")
			{
				profiles.GET("", r.profileHandler.GetMe)
				profiles.PATCH("", r.profileHandler.UpdateMe)
				profiles.POST("/avatar", r.profileHandler.UploadAvatar)
			}

			orders := authenticated.Group("/orders")
			{
				orders.POST("", r.orderHandler.Create)
				orders.GET("", r.orderHandler.List)
				orders.GET("/:id", r.orderHandler.Get)
				orders.POST("/:id/accept", r.orderHandler.Accept)
				orders.POST("/:id/start", r.orderHandler.Start)
				orders.POST("/:id/video", r.orderHandler.UploadVideo)
				orders.POST("/:id/complete", r.orderHandler.Complete)
				orders.POST("/:id/dispute", r.orderHandler.Dispute)
				orders.POST("/:id/cancel", r.orderHandler.Cancel)
			}

			tiers := authenticated.Group("/tiers")
			{
				tiers.POST("", r.tierHandler.Create)
				tiers.PATCH("/:id", r.tierHandler.Update)
				tiers.DELETE("/:id", r.tierHandler.Delete)
			}

			subscriptions := authenticated.Group("/subscriptions")
			{
				subscriptions.POST("/checkout", r.subscriptionHandler.Checkout)
				subscriptions.GET("", r.subscriptionHandler.List)
				subscriptions.POST("/:id/cancel", r.subscriptionHandler.Cancel)
			}

			payments := authenticated.Group("/payments")
			{
				payments.POST("/intents", r.paymentHandler.CreateIntent)
				payments.POST("/connect", r.paymentHandler.Connect)
				payments.GET("/sync/last", r.paymentHandler.LastSync)
			}

			notifications := authenticated.Group("/notifications")
			{
				notifications.GET("", r.notificationHandler.Poll)
				notifications.GET("/unread-count", r.notificationHandler.UnreadCount)
				notifications.POST("/read-all", r.notificationHandler.MarkAllRead)
				notifications.POST("/:id/read", r.notificationHandler.MarkRead)
			}

			admin := authenticated.Group("/admin")
			admin.Use(middleware.RequireRole(model.RoleAdmin))
			{
				admin.GET("/profiles", r.profileHandler.AdminList)
				admin.PATCH("/profiles/:id", r.profileHandler.AdminUpdate)
				admin.GET("/orders", r.orderHandler.AdminList)
				admin.POST("/orders/:id/resolve", r.orderHandler.Resolve)
				admin.POST("/sync", r.paymentHandler.TriggerSync)
			}
		}
	}

	return engine
}
