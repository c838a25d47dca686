package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/config"
	httpHandler "github.com/infoshareacademy/jpydzr8-backend-brokers/internal/adapter/http/handler"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/adapter/ratefeed"
	pgStorage "github.com/infoshareacademy/jpydzr8-backend-brokers/internal/adapter/storage/postgres"
	redisStorage "github.com/infoshareacademy/jpydzr8-backend-brokers/internal/adapter/storage/redis"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/ports"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/service"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/pkg/logger"

	"github.com/google/uuid"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Backend Brokers")

	masterAccountID, err := uuid.Parse(cfg.Broker.MasterAccountID)
	if err != nil {
		log.Fatal().Err(err).Msg("broker.master_account_id must be a valid UUID")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	accountRepo := pgStorage.NewAccountRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	quoteRepo := pgStorage.NewQuoteRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	rateCache := redisStorage.NewRateCache(rdb, 24*time.Hour)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	spreadPolicy, err := service.NewSpreadPolicy(cfg.Broker)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid spread configuration")
	}
	rateLookup := service.NewRateLookup(quoteRepo, rateCache, cfg.Broker.ReferenceCurrency, log)
	masterResolver := service.NewMasterResolver(walletRepo, masterAccountID)

	// Initialize business services
	settlementSvc := service.NewSettlementEngine(
		walletRepo,
		txRepo,
		rateLookup,
		masterResolver,
		transactor,
		spreadPolicy,
		cfg.Broker,
		log,
	)
	walletSvc := service.NewWalletService(walletRepo, accountRepo, txRepo, log)
	accountSvc := service.NewAccountService(accountRepo, txRepo, log)

	// Start the rate feed refresher
	feedClient := ratefeed.NewClient(cfg.RateFeed)
	refresher := ratefeed.NewRefresher(feedClient, quoteRepo, rateCache, cfg.RateFeed.RefreshInterval, log)
	go refresher.Run(ctx)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AccountSvc:     accountSvc,
		WalletSvc:      walletSvc,
		SettlementSvc:  settlementSvc,
		RateSvc:        rateLookup,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
