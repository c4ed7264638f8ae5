package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/culturekart/marketplace-backend/internal/config"
	"github.com/culturekart/marketplace-backend/internal/http/handlers"
	"github.com/culturekart/marketplace-backend/internal/http/middleware"
	"github.com/culturekart/marketplace-backend/internal/metrics"
	"github.com/culturekart/marketplace-backend/internal/models"
	"github.com/culturekart/marketplace-backend/internal/service"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Profile      *handlers.ProfileHandler
	Catalog      *handlers.CatalogHandler
	Review       *handlers.ReviewHandler
	Favorite     *handlers.FavoriteHandler
	Order        *handlers.OrderHandler
	Payment      *handlers.PaymentHandler
	Verification *handlers.VerificationHandler
	Escrow       *handlers.EscrowHandler
	Withdrawal   *handlers.WithdrawalHandler
	Conversation *handlers.ConversationHandler
	Notification *handlers.NotificationHandler
	Stats        *handlers.StatsHandler
	Health       *handlers.HealthHandler
	WS           *handlers.WSHandler
	Seed         *handlers.SeedHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokens *service.TokenManager) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(metrics.Middleware())

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", metrics.Handler())
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	if h.Seed != nil && cfg.Env == "development" {
		api.POST("/seed", h.Seed.Seed)
		api.GET("/seed", h.Seed.Seed)
	}

	auth := api.Group("/auth")
	auth.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", h.Auth.Logout)
	}
	api.GET("/auth/me", middleware.AuthMiddleware(tokens), h.Auth.Me)

	// Public catalog.
	api.GET("/categories", h.Catalog.ListCategories)
	api.GET("/products", h.Catalog.ListProducts)
	api.GET("/products/:id", middleware.UUIDValidator("id"), h.Catalog.GetProduct)
	api.GET("/products/:id/reviews", middleware.UUIDValidator("id"), h.Review.List)
	api.GET("/artisans/:id/profile", middleware.UUIDValidator("id"), h.Profile.Get)

	// Public verification page, anonymous and rate-limited so codes cannot
	// be enumerated.
	verify := api.Group("/verification")
	verify.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		verify.GET("/:code", h.Verification.Verify)
		verify.POST("/:code/confirm-delivery", h.Verification.ConfirmDelivery)
	}

	api.GET("/ws", h.WS.Handle)

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(tokens))
	{
		artisan := authed.Group("")
		artisan.Use(middleware.RequireRole(models.RoleArtisan, models.RoleAdmin))
		{
			artisan.POST("/products", h.Catalog.CreateProduct)
			artisan.PUT("/products/:id", middleware.UUIDValidator("id"), h.Catalog.UpdateProduct)
			artisan.POST("/products/:id/photos", middleware.UUIDValidator("id"), h.Catalog.UploadPhoto)
			artisan.PUT("/profile", h.Profile.Upsert)
			artisan.POST("/orders/:id/ship", middleware.UUIDValidator("id"), h.Order.Ship)
			artisan.GET("/orders/:id/codes", middleware.UUIDValidator("id"), h.Order.ListCodes)
			artisan.GET("/payments/balance", h.Payment.Balance)
			artisan.GET("/payments/transactions", h.Payment.Transactions)
			artisan.POST("/withdrawals", h.Withdrawal.Create)
			artisan.GET("/withdrawals", h.Withdrawal.List)
			artisan.GET("/withdrawals/:id", middleware.UUIDValidator("id"), h.Withdrawal.Get)
			artisan.GET("/dashboard/artisan", h.Stats.ArtisanDashboard)
		}

		authed.POST("/payments/create-intent", h.Payment.CreateIntent)
		authed.POST("/orders", h.Order.Create)
		authed.GET("/orders", h.Order.List)
		authed.GET("/orders/:id", middleware.UUIDValidator("id"), h.Order.Get)
		authed.PATCH("/orders/:id/status", middleware.UUIDValidator("id"), h.Order.UpdateStatus)

		authed.POST("/products/:id/reviews", middleware.UUIDValidator("id"), h.Review.Create)
		authed.GET("/favorites", h.Favorite.List)
		authed.PUT("/favorites/:id", middleware.UUIDValidator("id"), h.Favorite.Add)
		authed.DELETE("/favorites/:id", middleware.UUIDValidator("id"), h.Favorite.Remove)

		authed.POST("/conversations", h.Conversation.Start)
		authed.GET("/conversations", h.Conversation.List)
		authed.POST("/conversations/:id/messages", middleware.UUIDValidator("id"), h.Conversation.Send)
		authed.GET("/conversations/:id/messages", middleware.UUIDValidator("id"), h.Conversation.Messages)

		authed.GET("/notifications", h.Notification.List)
		authed.POST("/notifications/:id/read", middleware.UUIDValidator("id"), h.Notification.MarkRead)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokens), middleware.AdminOnly())
	{
		admin.GET("/escrow", h.Escrow.List)
		admin.GET("/escrow/pending", h.Escrow.ListPending)
		admin.GET("/escrow/released", h.Escrow.ListReleased)
		admin.GET("/escrow/stats", h.Escrow.Stats)
		admin.POST("/escrow/bulk-release", h.Escrow.BulkRelease)
		admin.GET("/escrow/:orderId", middleware.UUIDValidator("orderId"), h.Escrow.GetByOrder)
		admin.POST("/escrow/:orderId/release", middleware.UUIDValidator("orderId"), h.Escrow.Release)

		admin.GET("/withdrawals", h.Withdrawal.ListAll)
		admin.POST("/withdrawals/:id/approve", middleware.UUIDValidator("id"), h.Withdrawal.Approve)
		admin.POST("/withdrawals/:id/reject", middleware.UUIDValidator("id"), h.Withdrawal.Reject)

		admin.GET("/verification/:code/scans", h.Verification.ScanHistory)
		admin.GET("/dashboard", h.Stats.PlatformDashboard)
	}

	return r
}
