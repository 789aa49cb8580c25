package logger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendorhub/backend/internal/infrastructure/tenantctx"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	t.Run("returns attached logger", func(t *testing.T) {
		log := zap.NewNop()
		ctx := WithContext(context.Background(), log)
		assert.Same(t, log, FromContext(ctx))
	})

	t.Run("returns no-op logger when absent", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})
}

func TestWithRequestID(t *testing.T) {
	ctx, enriched := WithRequestID(context.Background(), zap.NewNop(), "req-123")
	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.NotNil(t, enriched)
}

func TestGetTenantID(t *testing.T) {
	t.Run("empty without identity", func(t *testing.T) {
		assert.Empty(t, GetTenantID(context.Background()))
	})

	t.Run("renders identity from tenantctx", func(t *testing.T) {
		tenantID := uuid.New()
		ctx := tenantctx.WithIdentity(context.Background(), tenantctx.NewIdentity(tenantID))
		assert.Equal(t, tenantID.String(), GetTenantID(ctx))
	})
}

func TestContextLogger_EnrichesTenantField(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)

	tenantID := uuid.New()
	ctx := WithContext(context.Background(), log)
	ctx = tenantctx.WithIdentity(ctx, tenantctx.NewIdentity(tenantID))

	L(ctx).Info("scoped operation")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, tenantID.String(), fields["tenant_id"])
}

func TestContextLogger_OmitsTenantFieldWhenEmpty(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := WithContext(context.Background(), zap.New(core))

	L(ctx).Info("system operation")

	entries := logs.All()
	require.Len(t, entries, 1)
	_, hasTenant := entries[0].ContextMap()["tenant_id"]
	assert.False(t, hasTenant)
}
