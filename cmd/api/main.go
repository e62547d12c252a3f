package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/OtoHubID/otohub_api/internal/cache"
	"github.com/OtoHubID/otohub_api/internal/checkout"
	"github.com/OtoHubID/otohub_api/internal/config"
	"github.com/OtoHubID/otohub_api/internal/database"
	"github.com/OtoHubID/otohub_api/internal/handler"
	"github.com/OtoHubID/otohub_api/internal/middleware"
	"github.com/OtoHubID/otohub_api/internal/promo"
	"github.com/OtoHubID/otohub_api/internal/repository"
	"github.com/OtoHubID/otohub_api/internal/service"
	"github.com/OtoHubID/otohub_api/internal/utils"
	"github.com/OtoHubID/otohub_api/internal/worker"
	"github.com/OtoHubID/otohub_api/pkg/captcha"
	"github.com/OtoHubID/otohub_api/pkg/contracts"
	"github.com/OtoHubID/otohub_api/pkg/stockfeed"
)

// main is the application entrypoint for the OtoHub storefront API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting otohub api")

	utils.SetJWTSecret(cfg.JWTSecret)

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 3c. Session store and submission gate
	sessionStore := cache.NewSessionStore(redisClient, cfg.Checkout.SessionTTL)
	submitGuard := cache.NewSubmitGuard(redisClient, cfg.Checkout.SessionTTL)

	// 4. Initialize upstream clients
	feedClient := stockfeed.NewClient(stockfeed.Config{
		BaseURL: cfg.StockFeed.BaseURL,
		APIKey:  cfg.StockFeed.APIKey,
		Timeout: cfg.StockFeed.Timeout,
	})
	contractsClient := contracts.NewClient(contracts.Config{
		BaseURL: cfg.Contracts.BaseURL,
		APIKey:  cfg.Contracts.APIKey,
		Timeout: cfg.Contracts.Timeout,
	})
	captchaClient := captcha.NewClient(captcha.Config{
		BaseURL: cfg.Captcha.BaseURL,
		APIKey:  cfg.Captcha.APIKey,
		Timeout: cfg.Captcha.Timeout,
	})

	// 5. Initialize repositories
	catalogRepo := repository.NewCatalogRepository(db)
	dealerRepo := repository.NewDealerRepository(db)
	stockRepo := repository.NewStockRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)

	// 6. Initialize services
	matcher := promo.NewMatcher(cfg.Promo.PriceTolerance, promo.TieBreak(cfg.Promo.TieBreak))
	machine := checkout.NewMachine(cfg.Captcha.RetryCooldown, cfg.Captcha.MaxAttempts)

	catalogSvc := service.NewCatalogService(catalogRepo)
	availabilitySvc := service.NewAvailabilityService(catalogRepo, dealerRepo, feedClient)
	financingSvc := service.NewFinancingService(catalogRepo, matcher)
	checkoutSvc := service.NewCheckoutService(
		sessionStore, submitGuard, captchaClient, contractsClient, machine,
		catalogRepo, dealerRepo, reservationRepo, financingSvc, availabilitySvc,
	)
	adminAuthSvc := service.NewAdminAuthService(adminRepo)

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:       handler.NewHealthHandler(db, redisClient),
		Catalog:      handler.NewCatalogHandler(catalogSvc, dealerRepo),
		Availability: handler.NewAvailabilityHandler(availabilitySvc),
		Financing:    handler.NewFinancingHandler(financingSvc),
		Checkout:     handler.NewCheckoutHandler(checkoutSvc),
		Auth:         handler.NewAuthHandler(adminAuthSvc),
		Admin:        handler.NewAdminHandler(reservationRepo, offerRepo, dealerRepo),
	}

	// 8. Initialize middleware
	authMw := middleware.NewAuthMiddleware(cfg.APIKey)
	jwtMw := middleware.NewJWTMiddleware()

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, authMw, jwtMw)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	go worker.NewStockSyncWorker(stockRepo, dealerRepo, feedClient, cfg.Worker.StockSyncInterval).Start(ctx)
	go worker.NewStatusCheckWorker(
		reservationRepo, contractsClient,
		cfg.Worker.StatusCheckInterval,
		cfg.Worker.StatusCheckStaleAfter,
		cfg.Worker.StatusCheckMaxAge,
	).Start(ctx)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health       *handler.HealthHandler
	Catalog      *handler.CatalogHandler
	Availability *handler.AvailabilityHandler
	Financing    *handler.FinancingHandler
	Checkout     *handler.CheckoutHandler
	Auth         *handler.AuthHandler
	Admin        *handler.AdminHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, authMiddleware *middleware.AuthMiddleware, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.Health)

	// Storefront routes (protected with frontend API key)
	v1 := router.Group("/v1")
	v1.Use(authMiddleware.Handle())
	{
		// Catalog and directories
		v1.GET("/catalog/models", handlers.Catalog.ListModels)
		v1.GET("/catalog/models/:modelId", handlers.Catalog.GetModel)
		v1.GET("/catalog/trims/:trimId", handlers.Catalog.GetTrim)
		v1.GET("/regions", handlers.Catalog.ListRegions)
		v1.GET("/dealers", handlers.Catalog.ListDealers)

		// Availability
		v1.GET("/availability/trims/:trimId/colors", handlers.Availability.GetColorAvailability)
		v1.GET("/availability/trims/:trimId/regions", handlers.Availability.GetRegionAvailability)
		v1.GET("/availability/dealers", handlers.Availability.GetDealerAvailability)

		// Financing
		v1.GET("/financing/trims/:trimId", handlers.Financing.GetFinancing)

		// Checkout sessions
		v1.POST("/checkout/sessions", handlers.Checkout.CreateSession)
		v1.GET("/checkout/sessions/:sessionId", handlers.Checkout.GetSession)
		v1.DELETE("/checkout/sessions/:sessionId", handlers.Checkout.AbandonSession)
		v1.POST("/checkout/sessions/:sessionId/trim", handlers.Checkout.SelectTrim)
		v1.POST("/checkout/sessions/:sessionId/color", handlers.Checkout.SelectColor)
		v1.POST("/checkout/sessions/:sessionId/cash", handlers.Checkout.ChooseCash)
		v1.POST("/checkout/sessions/:sessionId/installment", handlers.Checkout.ChooseInstallment)
		v1.POST("/checkout/sessions/:sessionId/region", handlers.Checkout.SelectRegion)
		v1.POST("/checkout/sessions/:sessionId/dealer", handlers.Checkout.SelectDealer)
		v1.POST("/checkout/sessions/:sessionId/plan", handlers.Checkout.ChoosePlan)
		v1.GET("/checkout/sessions/:sessionId/dealers", handlers.Checkout.GetDealerBreakdown)
		v1.POST("/checkout/sessions/:sessionId/captcha", handlers.Checkout.RequestChallenge)
		v1.POST("/checkout/sessions/:sessionId/submit", handlers.Checkout.Submit)
	}

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", handlers.Auth.Login)
	admin.Use(jwtMiddleware.Handle())
	{
		// Reservation monitoring
		admin.GET("/reservations", handlers.Admin.ListReservations)
		admin.GET("/reservations/:reservationId", handlers.Admin.GetReservation)

		// Offer management
		admin.POST("/offers", handlers.Admin.CreateOffer)
		admin.PUT("/offers/:offerId", handlers.Admin.UpdateOffer)
		admin.DELETE("/offers/:offerId", handlers.Admin.DeleteOffer)

		// Dealer management
		admin.GET("/dealers", handlers.Admin.ListDealers)
		admin.POST("/dealers", handlers.Admin.CreateDealer)
		admin.PUT("/dealers/:dealerId", handlers.Admin.UpdateDealer)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
