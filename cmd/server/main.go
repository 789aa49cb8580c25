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

	identityapp "github.com/vendorhub/backend/internal/application/identity"
	subscriptionapp "github.com/vendorhub/backend/internal/application/subscription"
	vendorapp "github.com/vendorhub/backend/internal/application/vendor"
	"github.com/vendorhub/backend/internal/infrastructure/auth"
	"github.com/vendorhub/backend/internal/infrastructure/cache"
	"github.com/vendorhub/backend/internal/infrastructure/config"
	"github.com/vendorhub/backend/internal/infrastructure/logger"
	"github.com/vendorhub/backend/internal/infrastructure/persistence"
	"github.com/vendorhub/backend/internal/infrastructure/persistence/tenant"
	"github.com/vendorhub/backend/internal/infrastructure/telemetry"
	"github.com/vendorhub/backend/internal/infrastructure/worker"
	"github.com/vendorhub/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting VendorHub backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Telemetry
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	isolationMetrics, err := telemetry.NewIsolationMetrics(meterProvider.Meter("vendorhub.tenant"))
	if err != nil {
		log.Fatal("Failed to initialize isolation metrics", zap.Error(err))
	}

	// Database with tenant isolation callbacks
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := tenant.NewCallback(true).WithObserver(isolationMetrics).Register(db.DB); err != nil {
		log.Fatal("Failed to register tenant callbacks", zap.Error(err))
	}
	log.Info("Database connected, tenant isolation active")

	scoped := tenant.NewDB(db.DB)
	platform := tenant.NewOptionalDB(db.DB)

	// Token infrastructure
	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist, err := auth.NewRedisTokenBlacklist(cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := blacklist.Close(); err != nil {
			log.Error("Error closing Redis connection", zap.Error(err))
		}
	}()

	// Import deduplication
	dedupe := cache.NewIdempotencyStore(cfg.Redis, log)
	defer func() {
		if err := dedupe.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Background worker pool
	pool := worker.NewPool(worker.PoolConfig{
		Workers:     cfg.Worker.Workers,
		QueueSize:   cfg.Worker.QueueSize,
		TaskTimeout: cfg.Worker.TaskTimeout,
	}, log)
	if err := pool.Start(ctx); err != nil {
		log.Fatal("Failed to start worker pool", zap.Error(err))
	}

	// Repositories
	tenantRepo := persistence.NewGormTenantRepository(platform)
	userRepo := persistence.NewGormUserRepository(scoped)
	vendorRepo := persistence.NewGormVendorRepository(scoped)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(scoped)

	// Application services
	engine := router.New(router.Dependencies{
		Config:     cfg,
		Logger:     log,
		Database:   db,
		JWTService: jwtService,
		Blacklist:  blacklist,
		Metrics:    isolationMetrics,
		Meter:      meterProvider.Meter("vendorhub.http"),

		AuthService:         identityapp.NewAuthService(tenantRepo, userRepo, jwtService, blacklist, log),
		TenantService:       identityapp.NewTenantService(tenantRepo, userRepo, log),
		UserService:         identityapp.NewUserService(userRepo, log),
		VendorService:       vendorapp.NewService(vendorRepo, scoped, pool, dedupe, isolationMetrics, log),
		SubscriptionService: subscriptionapp.NewService(subscriptionRepo, log),
	})

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Drain in-flight imports before the database goes away
	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Worker.StopTimeout)
	defer stopCancel()
	if err := pool.Stop(stopCtx); err != nil {
		log.Error("Worker pool did not drain cleanly", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
