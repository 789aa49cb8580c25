package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/vendorhub/backend/internal/infrastructure/auth"
	"github.com/vendorhub/backend/internal/infrastructure/config"
	"github.com/vendorhub/backend/internal/infrastructure/telemetry"
	"github.com/vendorhub/backend/internal/infrastructure/tenantctx"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver struct {
	identity tenantctx.Identity
	err      error
}

func (r *stubResolver) ResolveTenant(string) (tenantctx.Identity, error) {
	return r.identity, r.err
}

func TestTenantScopeBinder_BindsIdentity(t *testing.T) {
	tenantID := uuid.New()
	resolver := &stubResolver{identity: tenantctx.NewSchemaIdentity(tenantID, "tenant_acme")}

	var observed tenantctx.Identity
	router := gin.New()
	router.Use(TenantScopeBinder(ScopeBinderConfig{Resolver: resolver, Required: true}))
	router.GET("/vendors", func(c *gin.Context) {
		observed = tenantctx.IdentityFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/vendors", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenantID, observed.TenantID)
	assert.Equal(t, "tenant_acme", observed.SchemaName)
}

func TestTenantScopeBinder_ResolutionFailure(t *testing.T) {
	resolver := &stubResolver{err: errors.New("bad token")}

	t.Run("required aborts with 401", func(t *testing.T) {
		router := gin.New()
		router.Use(TenantScopeBinder(ScopeBinderConfig{Resolver: resolver, Required: true}))
		router.GET("/vendors", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/vendors", nil)
		req.Header.Set("Authorization", "Bearer bad")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "TENANT_REQUIRED")
	})

	t.Run("optional proceeds without identity", func(t *testing.T) {
		var observed tenantctx.Identity
		router := gin.New()
		router.Use(TenantScopeBinder(ScopeBinderConfig{Resolver: resolver, Required: false}))
		router.GET("/health", func(c *gin.Context) {
			observed = tenantctx.IdentityFromContext(c.Request.Context())
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, observed.IsZero())
	})

	t.Run("stale identity is never carried forward", func(t *testing.T) {
		// first request binds tenant A; second request fails resolution and
		// must not observe A
		ok := &stubResolver{identity: tenantctx.NewIdentity(uuid.New())}
		binder := TenantScopeBinder(ScopeBinderConfig{Resolver: ok, Required: false})

		var second tenantctx.Identity
		router := gin.New()
		router.Use(binder)
		router.GET("/vendors", func(c *gin.Context) {
			second = tenantctx.IdentityFromContext(c.Request.Context())
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/vendors", nil)
		req.Header.Set("Authorization", "Bearer good")
		router.ServeHTTP(httptest.NewRecorder(), req)

		ok.err = errors.New("expired")
		req2 := httptest.NewRequest(http.MethodGet, "/vendors", nil)
		req2.Header.Set("Authorization", "Bearer expired")
		router.ServeHTTP(httptest.NewRecorder(), req2)

		assert.True(t, second.IsZero())
	})
}

func resolutionFailures(t *testing.T, reader *sdkmetric.ManualReader) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "tenant_resolution_failures_total" {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestTenantScopeBinder_ResolutionFailureMetric(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := telemetry.NewIsolationMetrics(provider.Meter("test"))
	require.NoError(t, err)

	resolver := &stubResolver{err: errors.New("bad token")}
	router := gin.New()
	router.Use(TenantScopeBinder(ScopeBinderConfig{Resolver: resolver, Required: true, Metrics: metrics}))
	router.GET("/vendors", func(c *gin.Context) { c.Status(http.StatusOK) })

	// no credential: rejected, but nothing was there to resolve
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vendors", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.EqualValues(t, 0, resolutionFailures(t, reader))

	// a presented credential that resolves to no tenant is counted
	req := httptest.NewRequest(http.MethodGet, "/vendors", nil)
	req.Header.Set("Authorization", "Bearer bad")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.EqualValues(t, 1, resolutionFailures(t, reader))
}

func TestTenantScopeBinder_SkipPaths(t *testing.T) {
	resolver := &stubResolver{err: errors.New("no token")}
	router := gin.New()
	router.Use(TenantScopeBinder(ScopeBinderConfig{
		Resolver:  resolver,
		Required:  true,
		SkipPaths: []string{"/health"},
	}))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/health/live", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/health", "/health/live"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestTenantScopeBinder_CleanupAfterHandler(t *testing.T) {
	resolver := &stubResolver{identity: tenantctx.NewIdentity(uuid.New())}

	var captured *http.Request
	router := gin.New()
	router.Use(TenantScopeBinder(ScopeBinderConfig{Resolver: resolver, Required: true}))
	router.Use(func(c *gin.Context) {
		c.Next()
		captured = c.Request
	})

	t.Run("normal return", func(t *testing.T) {
		router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set("Authorization", "Bearer token")
		router.ServeHTTP(httptest.NewRecorder(), req)

		require.NotNil(t, captured)
		assert.False(t, tenantctx.HasIdentity(captured.Context()))
	})

	t.Run("handler error", func(t *testing.T) {
		router.GET("/fail", func(c *gin.Context) {
			c.AbortWithStatus(http.StatusInternalServerError)
		})
		req := httptest.NewRequest(http.MethodGet, "/fail", nil)
		req.Header.Set("Authorization", "Bearer token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.False(t, tenantctx.HasIdentity(captured.Context()))
	})

	t.Run("handler panic", func(t *testing.T) {
		recovered := gin.New()
		recovered.Use(gin.Recovery())
		recovered.Use(TenantScopeBinder(ScopeBinderConfig{Resolver: resolver, Required: true}))
		recovered.Use(func(c *gin.Context) {
			c.Next()
			captured = c.Request
		})
		recovered.GET("/panic", func(c *gin.Context) { panic("boom") })

		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		req.Header.Set("Authorization", "Bearer token")
		w := httptest.NewRecorder()
		recovered.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestTenantScopeBinder_PrefersValidatedClaims(t *testing.T) {
	jwtSvc := auth.NewJWTService(config.JWTConfig{
		Secret:                 "scope-binder-test-secret",
		AccessTokenExpiration:  time.Minute,
		RefreshTokenExpiration: time.Hour,
	})
	tenantID := uuid.New()
	pair, err := jwtSvc.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID:     tenantID,
		TenantSchema: "tenant_acme",
		UserID:       uuid.New(),
		Username:     "admin",
	})
	require.NoError(t, err)

	var observed tenantctx.Identity
	router := gin.New()
	router.Use(JWTAuth(jwtSvc))
	// no fallback resolver: identity must come from the validated claims
	router.Use(TenantScopeBinder(ScopeBinderConfig{Required: true}))
	router.GET("/vendors", func(c *gin.Context) {
		observed = tenantctx.IdentityFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/vendors", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenantID, observed.TenantID)
	assert.Equal(t, "tenant_acme", observed.SchemaName)
}
