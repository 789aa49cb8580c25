package worker

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendorhub/backend/internal/infrastructure/tenantctx"
)

func TestPropagate_CapturesAtWrapTime(t *testing.T) {
	tenantA := tenantctx.NewIdentity(uuid.New())
	tenantB := tenantctx.NewIdentity(uuid.New())

	submitCtx := tenantctx.WithIdentity(context.Background(), tenantA)

	var observed tenantctx.Identity
	task := Propagate(submitCtx, func(ctx context.Context) error {
		observed = tenantctx.IdentityFromContext(ctx)
		return nil
	})

	// Run on a context carrying a different tenant, as a reused worker would.
	runCtx := tenantctx.WithIdentity(context.Background(), tenantB)
	require.NoError(t, task(runCtx))

	assert.Equal(t, tenantA, observed, "task must observe the submission-time identity")
}

func TestPropagate_EmptyIdentityStaysEmpty(t *testing.T) {
	var observed tenantctx.Identity
	task := Propagate(context.Background(), func(ctx context.Context) error {
		observed = tenantctx.IdentityFromContext(ctx)
		return nil
	})

	require.NoError(t, task(context.Background()))
	assert.True(t, observed.IsZero())
}

// An empty capture overrides an identity already on the run context, so
// tenant-free work is tenant-free regardless of how it is composed.
func TestPropagate_EmptyCaptureClearsRunContext(t *testing.T) {
	var observed tenantctx.Identity
	task := Propagate(context.Background(), func(ctx context.Context) error {
		observed = tenantctx.IdentityFromContext(ctx)
		return nil
	})

	runCtx := tenantctx.WithIdentity(context.Background(), tenantctx.NewIdentity(uuid.New()))
	require.NoError(t, task(runCtx))
	assert.True(t, observed.IsZero())
}

func TestPropagate_DoesNotMutateSubmitterContext(t *testing.T) {
	tenantA := tenantctx.NewIdentity(uuid.New())
	submitCtx := tenantctx.WithIdentity(context.Background(), tenantA)

	task := Propagate(submitCtx, func(ctx context.Context) error { return nil })
	require.NoError(t, task(context.Background()))

	assert.Equal(t, tenantA, tenantctx.IdentityFromContext(submitCtx))
}

func TestPropagate_ErrorsPassThrough(t *testing.T) {
	want := assert.AnError
	task := Propagate(context.Background(), func(ctx context.Context) error { return want })
	assert.ErrorIs(t, task(context.Background()), want)
}
