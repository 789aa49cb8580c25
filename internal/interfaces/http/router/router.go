package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/vendorhub/backend/internal/application/identity"
	subscriptionapp "github.com/vendorhub/backend/internal/application/subscription"
	vendorapp "github.com/vendorhub/backend/internal/application/vendor"
	"github.com/vendorhub/backend/internal/infrastructure/auth"
	"github.com/vendorhub/backend/internal/infrastructure/config"
	"github.com/vendorhub/backend/internal/infrastructure/logger"
	"github.com/vendorhub/backend/internal/infrastructure/persistence"
	"github.com/vendorhub/backend/internal/infrastructure/telemetry"
	"github.com/vendorhub/backend/internal/interfaces/http/handler"
	"github.com/vendorhub/backend/internal/interfaces/http/middleware"
)

// PermissionPlatformAdmin guards tenant lifecycle endpoints
const PermissionPlatformAdmin = "platform:admin"

// PermissionPlatformAudit guards cross-tenant read surfaces
const PermissionPlatformAudit = "platform:audit"

// Dependencies carries everything the HTTP surface needs
type Dependencies struct {
	Config   *config.Config
	Logger   *zap.Logger
	Database *persistence.Database

	JWTService *auth.JWTService
	Blacklist  auth.TokenBlacklist
	Metrics    *telemetry.IsolationMetrics
	Meter      metric.Meter

	AuthService         *identity.AuthService
	TenantService       *identity.TenantService
	UserService         *identity.UserService
	VendorService       *vendorapp.Service
	SubscriptionService *subscriptionapp.Service
}

// New builds the gin engine with the full middleware chain and all routes.
// Middleware order matters: the request ID and logger run before auth so
// rejected requests are still logged, the tenant scope binder runs after
// JWT validation so it can trust the validated claims, and the rate
// limiter runs after the binder so each tenant gets its own budget.
func New(deps Dependencies) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(deps.Logger))
	engine.Use(logger.GinMiddleware(deps.Logger))
	engine.Use(middleware.Secure())
	engine.Use(corsMiddleware(deps.Config))
	if deps.Meter != nil {
		engine.Use(middleware.HTTPMetrics(deps.Meter))
	}

	if deps.Config != nil && deps.Config.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(deps.Config.HTTP.MaxBodySize))
	}

	systemHandler := handler.NewSystemHandler(deps.Database)
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	jwtCfg := middleware.DefaultJWTConfig(deps.JWTService)
	jwtCfg.TokenBlacklist = deps.Blacklist
	jwtCfg.Logger = deps.Logger
	jwtCfg.SkipPaths = append(jwtCfg.SkipPaths, "/api/v1/system/info")
	engine.Use(middleware.JWTAuthWithConfig(jwtCfg))

	engine.Use(middleware.TenantScopeBinder(middleware.ScopeBinderConfig{
		Resolver: deps.JWTService,
		Required: true,
		SkipPaths: []string{
			"/health",
			"/ready",
			"/api/v1/system",
			"/api/v1/auth",
			"/api/v1/tenants",
			"/api/v1/platform",
		},
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	}))

	// The limiter sits after the scope binder so its key carries the resolved
	// tenant; requests the binder skipped fall back to per-IP buckets.
	if deps.Config != nil && deps.Config.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(deps.Config.HTTP.RateLimitRequests, deps.Config.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}

	registerRoutes(engine, deps, systemHandler)
	return engine
}

func registerRoutes(engine *gin.Engine, deps Dependencies, systemHandler *handler.SystemHandler) {
	api := engine.Group("/api/v1")

	system := api.Group("/system")
	{
		system.GET("/info", systemHandler.Info)
	}

	authHandler := handler.NewAuthHandler(deps.AuthService)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	tenantHandler := handler.NewTenantHandler(deps.TenantService)
	tenants := api.Group("/tenants")
	{
		tenants.POST("/register", tenantHandler.Register)

		admin := tenants.Group("", middleware.RequirePermission(PermissionPlatformAdmin))
		{
			admin.GET("", tenantHandler.List)
			admin.GET("/:id", tenantHandler.Get)
			admin.PUT("/:id", tenantHandler.Update)
			admin.PUT("/:id/plan", tenantHandler.SetPlan)
			admin.POST("/:id/suspend", tenantHandler.Suspend)
			admin.POST("/:id/activate", tenantHandler.Activate)
			admin.POST("/:id/deactivate", tenantHandler.Deactivate)
		}
	}

	userHandler := handler.NewUserHandler(deps.UserService)
	users := api.Group("/users")
	{
		users.POST("", userHandler.Create)
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.POST("/:id/activate", userHandler.Activate)
		users.POST("/:id/deactivate", userHandler.Deactivate)
		users.PUT("/:id/password", userHandler.ChangePassword)
		users.POST("/:id/permissions", middleware.RequirePermission("admin"), userHandler.GrantPermission)
		users.DELETE("/:id", middleware.RequirePermission("admin"), userHandler.Delete)
	}

	vendorHandler := handler.NewVendorHandler(deps.VendorService)
	vendors := api.Group("/vendors")
	{
		vendors.POST("", vendorHandler.Create)
		vendors.GET("", vendorHandler.List)
		vendors.POST("/import", vendorHandler.Import)
		vendors.GET("/code/:code", vendorHandler.GetByCode)
		vendors.GET("/:id", vendorHandler.Get)
		vendors.PUT("/:id", vendorHandler.Update)
		vendors.DELETE("/:id", vendorHandler.Delete)
		vendors.POST("/:id/registrations", vendorHandler.AddRegistration)
		vendors.DELETE("/:id/registrations/:registration_id", vendorHandler.RemoveRegistration)
		vendors.POST("/:id/activate", vendorHandler.Activate)
		vendors.POST("/:id/deactivate", vendorHandler.Deactivate)
		vendors.POST("/:id/block", vendorHandler.Block)
	}

	subscriptionHandler := handler.NewSubscriptionHandler(deps.SubscriptionService)
	subscriptions := api.Group("/subscriptions")
	{
		subscriptions.POST("", subscriptionHandler.Subscribe)
		subscriptions.GET("/current", subscriptionHandler.GetCurrent)
		subscriptions.GET("", subscriptionHandler.List)
		subscriptions.POST("/:id/activate", subscriptionHandler.Activate)
		subscriptions.POST("/:id/past-due", subscriptionHandler.MarkPastDue)
		subscriptions.POST("/:id/cancel", subscriptionHandler.Cancel)
		subscriptions.POST("/:id/renew", subscriptionHandler.Renew)
		subscriptions.PUT("/:id/plan", subscriptionHandler.ChangePlan)
	}

	platform := api.Group("/platform", middleware.RequirePermission(PermissionPlatformAudit))
	{
		platform.GET("/vendors", vendorHandler.ListAcrossTenants)
	}
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsCfg.MaxAge = 12 * time.Hour
	if cfg != nil {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
		if len(cfg.HTTP.CORSAllowMethods) > 0 {
			corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
		}
		if len(cfg.HTTP.CORSAllowHeaders) > 0 {
			corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
		}
	}
	return middleware.CORSWithConfig(corsCfg)
}
