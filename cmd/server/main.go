package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	checkoutapp "github.com/koperasi/backend/internal/application/checkout"
	ledgerapp "github.com/koperasi/backend/internal/application/ledger"
	loanapp "github.com/koperasi/backend/internal/application/loan"
	"github.com/koperasi/backend/internal/domain/payment"
	"github.com/koperasi/backend/internal/infrastructure/auth"
	"github.com/koperasi/backend/internal/infrastructure/cache"
	"github.com/koperasi/backend/internal/infrastructure/config"
	"github.com/koperasi/backend/internal/infrastructure/gateway/mockpay"
	"github.com/koperasi/backend/internal/infrastructure/logger"
	"github.com/koperasi/backend/internal/infrastructure/persistence"
	"github.com/koperasi/backend/internal/infrastructure/scheduler"
	"github.com/koperasi/backend/internal/interfaces/http/handler"
	"github.com/koperasi/backend/internal/interfaces/http/middleware"
	"github.com/koperasi/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Koperasi Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	journalRepo := persistence.NewGormJournalRepository(db.DB)
	movementRepo := persistence.NewGormMovementRepository(db.DB)
	savingsRepo := persistence.NewGormSavingsAccountRepository(db.DB)
	stockRepo := persistence.NewGormStockRepository(db.DB)
	saleOrderRepo := persistence.NewGormSaleOrderRepository(db.DB)
	loanRepo := persistence.NewGormLoanRepository(db.DB)
	guard := persistence.NewGormIdempotencyGuard(db.DB, persistence.GuardConfig{
		WaitTimeout:  cfg.Idempotency.WaitTimeout,
		PollInterval: cfg.Idempotency.PollInterval,
	})

	// Callback dedup store: Redis when available, otherwise in-memory.
	// The store is advisory; the operation guard is what prevents double
	// effects, so a single-node fallback is acceptable.
	var deduper payment.CallbackDeduper
	redisStore, err := cache.NewRedisCallbackStore(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, using in-memory callback dedup", zap.Error(err))
		deduper = cache.NewMemoryCallbackStore()
	} else {
		defer func() {
			if err := redisStore.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		deduper = redisStore
		log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))
	}

	// Register payment providers
	providers := payment.NewProviderRegistry(
		mockpay.New(cfg.Payment.CallbackSecret),
	)

	// Initialize application services
	ledgerService := ledgerapp.NewService(accountRepo, journalRepo, log)
	checkoutService := checkoutapp.NewService(
		guard,
		movementRepo,
		journalRepo,
		accountRepo,
		savingsRepo,
		stockRepo,
		saleOrderRepo,
		providers,
		checkoutapp.AccountCodes{
			Cash:         cfg.Ledger.CashAccountCode,
			Savings:      cfg.Ledger.SavingsAccountCode,
			SalesRevenue: cfg.Ledger.SalesRevenueAccountCode,
			COGS:         cfg.Ledger.COGSAccountCode,
			Inventory:    cfg.Ledger.InventoryAccountCode,
		},
		cfg.Payment.Provider,
		cfg.Payment.IntentExpiry,
		log,
	)
	callbackService := checkoutapp.NewCallbackService(
		checkoutService,
		movementRepo,
		providers,
		deduper,
		cfg.Payment.CallbackDedupe,
		log,
	)
	reconciliationService := checkoutapp.NewReconciliationService(
		checkoutService,
		movementRepo,
		providers,
		cfg.Reconcile.StaleAfter,
		cfg.Reconcile.BatchSize,
		log,
	)
	loanService := loanapp.NewService(
		guard,
		loanRepo,
		movementRepo,
		journalRepo,
		accountRepo,
		loanapp.AccountCodes{
			Cash:           cfg.Ledger.CashAccountCode,
			LoanReceivable: cfg.Ledger.LoanReceivableAccountCode,
			InterestIncome: cfg.Ledger.InterestIncomeAccountCode,
		},
		log,
	)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Start the reconciliation sweeper (if enabled)
	if cfg.Reconcile.Enabled {
		sweeper := scheduler.NewReconciliationScheduler(
			reconciliationService,
			cfg.Reconcile.Interval,
			cfg.Reconcile.JobTimeout,
			log,
		)
		sweeper.Start()
		defer sweeper.Stop()
		log.Info("Reconciliation sweeper started",
			zap.Duration("interval", cfg.Reconcile.Interval),
			zap.Duration("stale_after", cfg.Reconcile.StaleAfter),
		)
	}

	// Initialize HTTP handlers
	checkoutHandler := handler.NewCheckoutHandler(checkoutService)
	webhookHandler := handler.NewWebhookHandler(callbackService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	loanHandler := handler.NewLoanHandler(loanService)
	adminHandler := handler.NewAdminHandler(reconciliationService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	router.NewRouter(engine, middleware.JWTAuth(jwtService, log)).
		RegisterPublic(webhookHandler).
		Register(checkoutHandler, ledgerHandler, loanHandler, adminHandler).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
