package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	identityapp "github.com/vendorhub/backend/internal/application/identity"
	subscriptionapp "github.com/vendorhub/backend/internal/application/subscription"
	vendorapp "github.com/vendorhub/backend/internal/application/vendor"
	"github.com/vendorhub/backend/internal/infrastructure/auth"
	"github.com/vendorhub/backend/internal/infrastructure/config"
	"github.com/vendorhub/backend/internal/infrastructure/persistence"
	"github.com/vendorhub/backend/internal/infrastructure/persistence/models"
	"github.com/vendorhub/backend/internal/infrastructure/persistence/tenant"
	"github.com/vendorhub/backend/internal/infrastructure/worker"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	return New(newTestDeps(t))
}

func newTestDeps(t *testing.T) Dependencies {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, tenant.NewCallback(true).Register(db))
	require.NoError(t, db.AutoMigrate(
		&models.Tenant{}, &models.User{},
		&models.Vendor{}, &models.GSTINRegistration{},
		&models.Subscription{},
	))

	scoped := tenant.NewDB(db)
	platform := tenant.NewOptionalDB(db)

	tenantRepo := persistence.NewGormTenantRepository(platform)
	userRepo := persistence.NewGormUserRepository(scoped)
	vendorRepo := persistence.NewGormVendorRepository(scoped)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(scoped)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "router-test-secret-32-chars-long!",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "vendorhub-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()

	pool := worker.NewPool(worker.PoolConfig{
		Workers:     2,
		QueueSize:   16,
		TaskTimeout: 5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, pool.Start(context.Background()))
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = pool.Stop(stopCtx)
	})

	log := zap.NewNop()
	return Dependencies{
		Logger:              log,
		JWTService:          jwtService,
		Blacklist:           blacklist,
		AuthService:         identityapp.NewAuthService(tenantRepo, userRepo, jwtService, blacklist, log),
		TenantService:       identityapp.NewTenantService(tenantRepo, userRepo, log),
		UserService:         identityapp.NewUserService(userRepo, log),
		VendorService:       vendorapp.NewService(vendorRepo, scoped, pool, nil, nil, log),
		SubscriptionService: subscriptionapp.NewService(subscriptionRepo, log),
	}
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, engine *gin.Engine, code string) (access, refresh string) {
	t.Helper()

	w := doJSON(t, engine, http.MethodPost, "/api/v1/tenants/register", "", gin.H{
		"code":           code,
		"name":           code + " Pvt Ltd",
		"admin_username": "admin",
		"admin_password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"tenant_code": code,
		"username":    "admin",
		"password":    "correct-horse-battery",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Tokens struct {
				AccessToken  string `json:"access_token"`
				RefreshToken string `json:"refresh_token"`
			} `json:"tokens"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Tokens.AccessToken)
	return resp.Data.Tokens.AccessToken, resp.Data.Tokens.RefreshToken
}

func TestHealthEndpoints(t *testing.T) {
	engine := newTestEngine(t)

	w := doJSON(t, engine, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	engine := newTestEngine(t)

	w := doJSON(t, engine, http.MethodGet, "/api/v1/vendors", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVendorRoundTrip(t *testing.T) {
	engine := newTestEngine(t)
	token, _ := registerAndLogin(t, engine, "ACME")

	w := doJSON(t, engine, http.MethodPost, "/api/v1/vendors", token, gin.H{
		"code":       "SUP001",
		"legal_name": "Sharma Industries Pvt Ltd",
		"pan":        "ABCDE1234F",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/vendors/%s/registrations", created.Data.ID), token, gin.H{
			"gstin": "29ABCDE1234F1ZW",
		})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/vendors/%s/activate", created.Data.ID), token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/vendors", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SUP001")
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestVendorsInvisibleAcrossTenants(t *testing.T) {
	engine := newTestEngine(t)
	acmeToken, _ := registerAndLogin(t, engine, "ACME")
	globexToken, _ := registerAndLogin(t, engine, "GLOBEX")

	w := doJSON(t, engine, http.MethodPost, "/api/v1/vendors", acmeToken, gin.H{
		"code":       "SUP001",
		"legal_name": "Sharma Industries Pvt Ltd",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, engine, http.MethodGet, "/api/v1/vendors", globexToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)
	assert.NotContains(t, w.Body.String(), "SUP001")
}

func TestPlatformSurfaceDeniedToTenantAdmin(t *testing.T) {
	engine := newTestEngine(t)
	token, _ := registerAndLogin(t, engine, "ACME")

	w := doJSON(t, engine, http.MethodGet, "/api/v1/platform/vendors", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/tenants", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubscriptionRoundTrip(t *testing.T) {
	engine := newTestEngine(t)
	token, _ := registerAndLogin(t, engine, "ACME")

	w := doJSON(t, engine, http.MethodPost, "/api/v1/subscriptions", token, gin.H{
		"plan_code": "starter",
		"period":    "monthly",
		"price":     "1499.00",
		"currency":  "INR",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, engine, http.MethodGet, "/api/v1/subscriptions/current", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"starter"`)
}

func TestRateLimitBucketsPerTenant(t *testing.T) {
	deps := newTestDeps(t)
	cfg := &config.Config{}
	cfg.HTTP.RateLimitEnabled = true
	cfg.HTTP.RateLimitRequests = 5
	cfg.HTTP.RateLimitWindow = time.Minute
	deps.Config = cfg
	engine := New(deps)

	acmeToken, _ := registerAndLogin(t, engine, "ACME")
	globexToken, _ := registerAndLogin(t, engine, "GLOBEX")

	// registration and login already consumed four of the anonymous per-IP
	// budget of five; these only pass if authenticated requests draw from
	// ACME's own bucket instead
	for i := 0; i < 5; i++ {
		w := doJSON(t, engine, http.MethodGet, "/api/v1/vendors", acmeToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := doJSON(t, engine, http.MethodGet, "/api/v1/vendors", acmeToken, nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// an exhausted tenant does not starve its neighbour on the same IP
	w = doJSON(t, engine, http.MethodGet, "/api/v1/vendors", globexToken, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestLogoutRevokesToken(t *testing.T) {
	engine := newTestEngine(t)
	token, refresh := registerAndLogin(t, engine, "ACME")

	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/logout", token, gin.H{
		"refresh_token": refresh,
	})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = doJSON(t, engine, http.MethodGet, "/api/v1/vendors", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
