package handler

import (
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/adapter/http/middleware"
	redisStore "github.com/infoshareacademy/jpydzr8-backend-brokers/internal/adapter/storage/redis"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AccountSvc     ports.AccountService
	WalletSvc      ports.WalletService
	SettlementSvc  ports.SettlementService
	RateSvc        ports.RateService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	accountHandler := NewAccountHandler(deps.AccountSvc, deps.TokenSvc)
	rateHandler := NewRateHandler(deps.RateSvc)

	// --- Public routes (no auth) ---
	v1.POST("/accounts", rl("accounts"), accountHandler.Create)
	v1.GET("/rates", rl("rates"), rateHandler.List)

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	walletHandler := NewWalletHandler(deps.WalletSvc, deps.SettlementSvc)
	transferHandler := NewTransferHandler(deps.SettlementSvc, deps.AccountSvc)

	v1.GET("/accounts/me", jwtAuth, rl("accounts"), accountHandler.Me)

	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.POST("", rl("wallets"), walletHandler.Create)
		wallets.GET("", rl("wallets"), walletHandler.List)
		wallets.DELETE("/:number", rl("wallets"), walletHandler.Delete)
		wallets.GET("/:number/transactions", rl("wallets"), walletHandler.History)
		wallets.POST("/:number/deposits", rl("deposits"), walletHandler.Deposit)
	}

	transfers := v1.Group("/transfers", jwtAuth)
	{
		transfers.POST("", rl("transfers"), transferHandler.Transfer)
		transfers.POST("/estimate", rl("transfers"), transferHandler.Estimate)
	}

	return r
}
