package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"forestblock/marketplace/marketplace-backend/internal/auth"
	"forestblock/marketplace/marketplace-backend/internal/checkout"
	"forestblock/marketplace/marketplace-backend/internal/config"
	"forestblock/marketplace/marketplace-backend/internal/content"
	"forestblock/marketplace/marketplace-backend/internal/dashboard"
	"forestblock/marketplace/marketplace-backend/internal/payments"
	"forestblock/marketplace/marketplace-backend/internal/registry"
	"forestblock/marketplace/marketplace-backend/internal/retirements"
	"forestblock/marketplace/marketplace-backend/internal/workflow"
	"forestblock/marketplace/marketplace-backend/pkg/pdf"
	"forestblock/marketplace/marketplace-backend/pkg/storage"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Logging.Level == "debug" || cfg.Auth.Environment != "production" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	// Connect to database
	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if cfg.Database.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxConnections)
	}
	if cfg.Database.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to open gorm connection", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&auth.User{},
		&auth.OTPCode{},
		&retirements.RetirementOrder{},
		&content.DevelopmentProject{},
	); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Redis backs the market cache and the checkout workflow store
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	multiplier, err := decimal.NewFromString(cfg.Checkout.MarkupMultiplier)
	if err != nil {
		logger.Fatal("Invalid markup multiplier", zap.Error(err))
	}
	tolerance, err := decimal.NewFromString(cfg.Checkout.PriceTolerance)
	if err != nil {
		logger.Fatal("Invalid price tolerance", zap.Error(err))
	}

	// Registry
	registryClient := registry.NewClient(cfg.Registry, multiplier, logger)
	marketCache := registry.NewMarketCache(rdb, cfg.Registry.CacheTTL)
	registryService := registry.NewService(registryClient, marketCache, logger)
	registryHandler := registry.NewHandler(registryClient, registryService, logger)

	refresher := registry.NewRefresher(registryService, cfg.Registry.RefreshCron, cfg.Registry.RequestTimeout, logger)
	if err := refresher.Start(); err != nil {
		logger.Fatal("Failed to start market refresher", zap.Error(err))
	}
	defer refresher.Stop()

	// Payments
	paymentClient := payments.NewClient(cfg.Payments, logger)
	monitor := payments.NewMonitor(paymentClient, payments.MonitorConfigFrom(cfg.Payments), logger)
	pushHub := payments.NewPushHub(logger)
	paymentsHandler := payments.NewHandler(paymentClient, pushHub, logger)

	// Certificate storage is optional; retirements proceed without it
	var objectStore storage.ObjectStore
	if cfg.Storage.Bucket != "" {
		s3Store, err := storage.NewS3Store(context.Background(), cfg.Storage.Bucket, cfg.Storage.Region)
		if err != nil {
			logger.Warn("Certificate storage unavailable", zap.Error(err))
		} else {
			objectStore = s3Store
		}
	}

	// Retirements
	retirementService := retirements.NewService(gormDB, pdf.NewGenerator(), objectStore, logger)
	retirementHandler := retirements.NewHandler(retirementService, logger)

	// Checkout
	workflowStore := workflow.NewRedisStore(rdb, cfg.Checkout.WorkflowTTL)
	matcher := checkout.NewMatcher(multiplier, tolerance)
	checkoutService := checkout.NewService(
		registryService, paymentClient, monitor, pushHub,
		workflowStore, retirementService, matcher, logger,
	)
	defer checkoutService.Close()
	checkoutHandler := checkout.NewHandler(checkoutService, workflowStore, logger)

	// Pick up payments that were still pending at the last shutdown
	if err := checkoutService.ResumePending(context.Background()); err != nil {
		logger.Warn("Failed to resume pending checkouts", zap.Error(err))
	}

	// Auth
	var sender auth.EmailSender
	if cfg.Auth.SenderEmail != "" {
		sesSender, err := auth.NewSESSender(context.Background(), cfg.Storage.Region, cfg.Auth.SenderEmail)
		if err != nil {
			logger.Warn("SES unavailable, logging OTP codes instead", zap.Error(err))
			sender = &auth.LogSender{Logger: logger}
		} else {
			sender = sesSender
		}
	} else {
		sender = &auth.LogSender{Logger: logger}
	}
	var captcha auth.CaptchaVerifier
	if cfg.Auth.CaptchaSecret != "" {
		captcha = auth.NewRecaptchaVerifier(cfg.Auth.CaptchaSecret)
	}
	authService := auth.NewService(gormDB, sender, captcha, cfg.Auth, logger)
	authHandler := auth.NewHandler(authService, logger)

	// Dashboard
	dashboardRepo := dashboard.NewPostgresRepository(db)
	dashboardService := dashboard.NewService(dashboardRepo, logger)
	dashboardHandler := dashboard.NewHandler(dashboardService, logger)

	// Content
	contentService := content.NewService(gormDB)
	contentHandler := content.NewHandler(contentService, logger)

	// Setup Router
	if cfg.Auth.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Registry proxy keeps the upstream API key server-side
	proxy := router.Group("/api")
	registryHandler.RegisterProxyRoutes(proxy)

	// Register Routes
	api := router.Group("/api/v1")
	{
		registryHandler.RegisterRoutes(api)
		contentHandler.RegisterRoutes(api)
		paymentsHandler.RegisterRoutes(api)
		auth.RegisterRoutes(api, authHandler, authService)
		dashboardHandler.RegisterRoutes(api)

		session := api.Group("")
		session.Use(auth.Middleware(authService))
		{
			checkoutHandler.RegisterRoutes(session)
			retirementHandler.RegisterRoutes(session)
		}
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.Int("port", cfg.Server.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
