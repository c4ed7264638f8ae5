package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/culturekart/marketplace-backend/internal/broker"
	"github.com/culturekart/marketplace-backend/internal/cache"
	"github.com/culturekart/marketplace-backend/internal/config"
	"github.com/culturekart/marketplace-backend/internal/db"
	"github.com/culturekart/marketplace-backend/internal/goroutine"
	httpHandlers "github.com/culturekart/marketplace-backend/internal/http/handlers"
	httpRouter "github.com/culturekart/marketplace-backend/internal/http/router"
	"github.com/culturekart/marketplace-backend/internal/logger"
	"github.com/culturekart/marketplace-backend/internal/payments"
	"github.com/culturekart/marketplace-backend/internal/repository"
	"github.com/culturekart/marketplace-backend/internal/service"
	"github.com/culturekart/marketplace-backend/internal/storage"
	"github.com/culturekart/marketplace-backend/internal/worker"
	"github.com/culturekart/marketplace-backend/internal/ws"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: load config: %v", err)
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: connect database: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: run migrations: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	photoStorage, err := storage.NewPhotoStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: prepare media storage: %v", err)
	}

	// Optional infrastructure; empty config disables each piece.
	var redisCache *cache.Cache
	if cfg.RedisAddr != "" {
		redisCache, err = cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("main: connect redis: %v", err)
		}
		defer redisCache.Close()
	}

	var events service.Events
	if len(cfg.KafkaBrokers) > 0 {
		producer := broker.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		events = producer
	}

	processor := payments.NewClient(cfg.StripeSecretKey)

	// Repositories.
	userRepo := repository.NewUserRepository(dbConn)
	catalogRepo := repository.NewCatalogRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	withdrawalRepo := repository.NewWithdrawalRepository(dbConn)
	verificationRepo := repository.NewVerificationRepository(dbConn)
	conversationRepo := repository.NewConversationRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)
	favoriteRepo := repository.NewFavoriteRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	statsRepo := repository.NewStatsRepository(dbConn)

	// Websocket hub.
	hub := ws.NewHub()
	goroutine.SafeGoWithContext(ctx, hub.Run)

	// Services.
	notificationService := service.NewNotificationService(notificationRepo, hub)
	authService := service.NewAuthService(userRepo, tokenManager)
	profileService := service.NewProfileService(userRepo)
	catalogService := service.NewCatalogService(catalogRepo, reviewRepo, favoriteRepo, orderRepo)
	verificationService := service.NewVerificationService(verificationRepo, catalogRepo, userRepo, notificationService, events, cfg.CommissionRate, cfg.AnchorNetwork)

	var claims service.CheckoutClaims
	if redisCache != nil {
		claims = redisCache
	}
	orderService := service.NewOrderService(orderRepo, catalogRepo, paymentRepo, verificationService, claims, events, processor)
	escrowService := service.NewEscrowService(paymentRepo, notificationService, events)
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, notificationService, cfg.WithdrawalFeeRate, cfg.MinWithdrawal)
	conversationService := service.NewConversationService(conversationRepo, userRepo, hub)
	statsService := service.NewStatsService(statsRepo)

	// Background payout worker.
	payoutWorker := worker.NewPayoutWorker(withdrawalRepo, worker.StubRail{}, notificationService, events, cfg.PayoutInterval)
	goroutine.SafeGoWithContext(ctx, payoutWorker.Run)

	// Handlers.
	h := httpRouter.Handlers{
		Auth:         httpHandlers.NewAuthHandler(authService),
		Profile:      httpHandlers.NewProfileHandler(profileService),
		Catalog:      httpHandlers.NewCatalogHandler(catalogService, photoStorage, catalogRepo),
		Review:       httpHandlers.NewReviewHandler(catalogService),
		Favorite:     httpHandlers.NewFavoriteHandler(catalogService),
		Order:        httpHandlers.NewOrderHandler(orderService, verificationService),
		Payment:      httpHandlers.NewPaymentHandler(processor, escrowService),
		Verification: httpHandlers.NewVerificationHandler(verificationService, redisCache),
		Escrow:       httpHandlers.NewEscrowHandler(escrowService),
		Withdrawal:   httpHandlers.NewWithdrawalHandler(withdrawalService),
		Conversation: httpHandlers.NewConversationHandler(conversationService),
		Notification: httpHandlers.NewNotificationHandler(notificationService),
		Stats:        httpHandlers.NewStatsHandler(statsService),
		Health:       httpHandlers.NewHealthHandler(dbConn),
		WS:           httpHandlers.NewWSHandler(hub, tokenManager),
	}
	if cfg.Env == "development" {
		h.Seed = httpHandlers.NewSeedHandler(service.NewSeedService(dbConn))
	}

	engine := httpRouter.SetupRouter(cfg, h, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: shutdown http server: %v", err)
		}
	}()

	log.Printf("main: HTTP server listening on port %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: server exited: %v", err)
	}
}

func safeClose(dbConn *sqlx.DB) {
	if err := dbConn.Close(); err != nil {
		log.Printf("main: close database: %v", err)
	}
}
