package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vendorhub/backend/internal/infrastructure/tenantctx"
	"github.com/vendorhub/backend/internal/infrastructure/telemetry"
)

// TenantResolver resolves a raw bearer token into a tenant identity
type TenantResolver interface {
	ResolveTenant(rawToken string) (tenantctx.Identity, error)
}

// ScopeBinderConfig holds configuration for the tenant scope binder
type ScopeBinderConfig struct {
	// Resolver is consulted when the JWT middleware has not already
	// validated claims for this request.
	Resolver TenantResolver
	// Required aborts requests that carry no resolvable tenant. Platform
	// surfaces (tenant registration, health) run with Required=false.
	Required bool
	// SkipPaths bypass binding entirely
	SkipPaths []string
	Metrics   *telemetry.IsolationMetrics
	Logger    *zap.Logger
}

// TenantScopeBinder binds the tenant identity for the lifetime of one
// request. The identity lives only in the context derived here; once the
// handler chain returns, the pre-binding request is restored, so no tenant
// state survives into connection reuse or a later middleware pass.
//
// Resolution failures never carry a stale identity forward: the request
// proceeds (or aborts) with no identity at all.
func TenantScopeBinder(cfg ScopeBinderConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		identity, ok := resolveIdentity(c, cfg)
		if !ok {
			// A request with no credential at all is not a resolution
			// failure; only a presented credential that resolves to no
			// tenant counts.
			if credentialPresented(c) {
				if cfg.Metrics != nil {
					cfg.Metrics.ResolutionFailed(c.Request.Context())
				}
				if cfg.Logger != nil {
					cfg.Logger.Debug("Tenant resolution failed", zap.String("path", path))
				}
			}
			if cfg.Required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"error":   gin.H{"code": "TENANT_REQUIRED", "message": "Tenant identification required"},
				})
				return
			}
			c.Next()
			return
		}

		original := c.Request
		c.Request = original.WithContext(tenantctx.WithIdentity(original.Context(), identity))
		// breadcrumb for the request logger and metrics; a plain string, not
		// an identity, so nothing downstream can treat it as scope
		c.Set("tenant_id", identity.TenantID.String())

		defer func() {
			c.Request = original
			// The original context must not carry an identity; if it does,
			// an outer layer bound one and restore alone does not shed it.
			if tenantctx.HasIdentity(c.Request.Context()) {
				if cfg.Metrics != nil {
					cfg.Metrics.CleanupFailed(c.Request.Context(), "request")
				}
				c.Request = c.Request.WithContext(tenantctx.ClearIdentity(c.Request.Context()))
			}
			if r := recover(); r != nil {
				panic(r)
			}
		}()

		c.Next()
	}
}

// credentialPresented reports whether the request carried anything a tenant
// could be resolved from
func credentialPresented(c *gin.Context) bool {
	return GetJWTClaims(c) != nil || c.GetHeader(AuthHeaderKey) != ""
}

// resolveIdentity prefers claims validated by the JWT middleware and falls
// back to resolving the Authorization header directly
func resolveIdentity(c *gin.Context, cfg ScopeBinderConfig) (tenantctx.Identity, bool) {
	if claims := GetJWTClaims(c); claims != nil {
		tenantID, err := claims.GetTenantUUID()
		if err != nil {
			return tenantctx.Identity{}, false
		}
		return tenantctx.NewSchemaIdentity(tenantID, claims.TenantSchema), true
	}

	if cfg.Resolver != nil {
		if authHeader := c.GetHeader(AuthHeaderKey); authHeader != "" {
			identity, err := cfg.Resolver.ResolveTenant(authHeader)
			if err != nil {
				return tenantctx.Identity{}, false
			}
			return identity, true
		}
	}

	return tenantctx.Identity{}, false
}

// ActiveTenant returns the tenant identity bound to the request, if any
func ActiveTenant(c *gin.Context) (tenantctx.Identity, bool) {
	identity := tenantctx.IdentityFromContext(c.Request.Context())
	return identity, !identity.IsZero()
}
