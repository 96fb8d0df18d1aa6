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
	"github.com/joho/godotenv"

	"bridgebot/backend/internal/config"
	"bridgebot/backend/internal/handler"
	"bridgebot/backend/internal/metrics"
	"bridgebot/backend/internal/middleware"
	"bridgebot/backend/internal/repository"
	"bridgebot/backend/internal/service"
	"bridgebot/backend/internal/service/autotrader"
	"bridgebot/backend/internal/service/market"
	"bridgebot/backend/pkg/indodax"
	"bridgebot/backend/pkg/jwt"
	"bridgebot/backend/pkg/logger"
	"bridgebot/backend/pkg/redis"
)

const pairRefreshInterval = time.Hour

func main() {
	// Load .env file (ignore error in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log := logger.GetLogger()

	log.Info("Starting bridge bot...")
	log.Infof("Environment: %s, bridge: %s, paper trading: %v",
		cfg.Server.Env, cfg.Trading.Bridge, cfg.Trading.PaperTrading)

	log.Info("Connecting to Redis...")
	redisClient, err := redis.New(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()
	redis.InitKeys(cfg.Redis.Prefix)
	log.Info("✓ Redis connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Exchange
	indodaxClient := indodax.NewClient(cfg.Indodax.APIURL)
	pairMetadata := market.NewPairMetadataService(redisClient, indodaxClient)
	if err := pairMetadata.Start(ctx); err != nil {
		log.Fatal("Failed to load pair metadata", err)
	}
	go refreshPairs(ctx, pairMetadata)

	var tradeClient service.TradeClient
	if cfg.Trading.PaperTrading {
		balances := repository.NewBalanceRepository(redisClient)
		created, err := balances.Initialize(ctx, cfg.Trading.Bridge, cfg.Trading.PaperInitialBridge)
		if err != nil {
			log.Fatal("Failed to initialize paper account", err)
		}
		if created {
			log.Infof("Paper account funded with %.2f %s", cfg.Trading.PaperInitialBridge, cfg.Trading.Bridge)
		}
		tradeClient = service.NewPaperTradeClient(balances, cfg.Trading.Bridge, cfg.Trading.TransactionFee)
	} else {
		if ok, err := indodaxClient.ValidateAPIKey(ctx, cfg.Indodax.APIKey, cfg.Indodax.APISecret); err != nil || !ok {
			log.Fatal("Indodax API key rejected", err)
		}
		tradeClient = service.NewLiveTradeClient(indodaxClient, cfg.Indodax.APIKey, cfg.Indodax.APISecret)
	}

	exchange := service.NewExchangeManager(indodaxClient, tradeClient, pairMetadata, service.ExchangeOptions{
		RatePerSecond: cfg.Indodax.PrivateRatePerSecond,
		OrderRetries:  cfg.Indodax.OrderRetries,
		RetryBackoff:  time.Second,
	})

	// Engine
	ratioRepo := repository.NewRatioRepository(redisClient, cfg.Trading.Bridge)
	historyRepo := repository.NewHistoryRepository(redisClient, cfg.Trading.ScoutHistoryMaxItems)
	notifications := service.NewNotificationService(redisClient)

	trader := autotrader.New(exchange, ratioRepo, historyRepo, notifications, autotrader.Options{
		Bridge:         cfg.Trading.Bridge,
		TransactionFee: cfg.Trading.TransactionFee,
		Multiplier:     cfg.Trading.ScoutMultiplier,
	}, log.Component("autotrader"))

	scheduler := service.NewScoutScheduler(trader, cfg.Trading.ScoutInterval, cfg.Trading.ValueInterval)
	go scheduler.Start(ctx)

	// Operator API
	jwtManager := jwt.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire)
	authService := service.NewAuthService(jwtManager, cfg.Operator.Username, cfg.Operator.PasswordHash)

	wsHub := service.NewWSHub(redisClient, authService, cfg.CORS.AllowedOrigins)
	go wsHub.Run(ctx)
	go wsHub.StartPubSubListener(ctx)

	authHandler := handler.NewAuthHandler(authService)
	scoutHandler := handler.NewScoutHandler(ratioRepo, historyRepo, scheduler)

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := redisClient.Ping(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "Redis connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"redis":      "connected",
			"bridge":     cfg.Trading.Bridge,
			"paper":      cfg.Trading.PaperTrading,
			"ws_clients": wsHub.ClientCount(),
		})
	})
	router.GET("/metrics", metrics.Handler())

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", middleware.AuthRateLimit(redisClient, cfg.RateLimit.AuthRequestsPerMinute), authHandler.Login)

		// The socket authenticates with its first message
		v1.GET("/ws", wsHub.ServeWS)

		api := v1.Group("")
		api.Use(middleware.AuthMiddleware(authService))
		api.Use(middleware.RateLimit(redisClient, cfg.RateLimit.RequestsPerMinute))
		{
			api.GET("/coins", scoutHandler.ListCoins)
			api.PUT("/coins/:symbol", scoutHandler.SetCoinEnabled)
			api.GET("/ratios", scoutHandler.ListRatios)
			api.GET("/scout-history", scoutHandler.ScoutHistory)
			api.GET("/jumps", scoutHandler.ListJumps)
			api.GET("/jumps/:id", scoutHandler.GetJump)
			api.GET("/values/:coin", scoutHandler.ListValues)
			api.POST("/scout", scoutHandler.TriggerScout)
			api.POST("/thresholds/initialize", scoutHandler.InitializeThresholds)
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Server starting on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", err)
		}
	}()

	log.Info("✓ Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", err)
	}

	log.Info("Server exited")
}

// refreshPairs keeps minimum order sizes current
func refreshPairs(ctx context.Context, pairs *market.PairMetadataService) {
	ticker := time.NewTicker(pairRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = pairs.RefreshMetadata(ctx)
		}
	}
}
