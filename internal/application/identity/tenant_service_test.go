package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vendorhub/backend/internal/domain/identity"
	"github.com/vendorhub/backend/internal/domain/shared"
	"github.com/vendorhub/backend/internal/infrastructure/tenantctx"
)

func TestRegisterTenant(t *testing.T) {
	fix := newIdentityFixture(t)
	ctx := context.Background()

	t.Run("creates tenant with admin user", func(t *testing.T) {
		dto, err := fix.tenantSvc.RegisterTenant(ctx, RegisterTenantInput{
			Code:          "acme",
			Name:          "Acme Pvt Ltd",
			AdminUsername: "founder",
			AdminPassword: "strongpassword1",
		})
		require.NoError(t, err)
		assert.Equal(t, "ACME", dto.Code)
		assert.Equal(t, "tenant_acme", dto.SchemaName)
		assert.Equal(t, string(identity.TenantStatusActive), dto.Status)

		// admin user lives under the new tenant's scope
		tctx := tenantctx.WithIdentity(ctx, tenantctx.NewIdentity(dto.ID))
		page, err := fix.userSvc.ListUsers(tctx, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
		assert.Equal(t, "founder", page.Items[0].Username)
		assert.Contains(t, page.Items[0].Permissions, "admin")
	})

	t.Run("duplicate code rejected", func(t *testing.T) {
		_, err := fix.tenantSvc.RegisterTenant(ctx, RegisterTenantInput{
			Code:          "acme",
			Name:          "Other Acme",
			AdminUsername: "founder",
			AdminPassword: "strongpassword1",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already in use")
	})

	t.Run("trial tenant gets trial window", func(t *testing.T) {
		dto, err := fix.tenantSvc.RegisterTenant(ctx, RegisterTenantInput{
			Code:          "trialco",
			Name:          "Trial Co",
			AdminUsername: "owner",
			AdminPassword: "strongpassword1",
			TrialDays:     14,
		})
		require.NoError(t, err)
		assert.Equal(t, string(identity.TenantStatusTrial), dto.Status)
		require.NotNil(t, dto.TrialEndsAt)
	})
}

type brokenUserRepo struct {
	identity.UserRepository
}

func (brokenUserRepo) Create(context.Context, *identity.User) error {
	return errors.New("insert failed")
}

func TestRegisterTenant_RollsBackOnAdminFailure(t *testing.T) {
	fix := newIdentityFixture(t)
	ctx := context.Background()

	broken := NewTenantService(fix.tenantRepo, brokenUserRepo{fix.userRepo}, zap.NewNop())
	_, err := broken.RegisterTenant(ctx, RegisterTenantInput{
		Code:          "acme",
		Name:          "Acme Pvt Ltd",
		AdminUsername: "founder",
		AdminPassword: "strongpassword1",
	})
	require.Error(t, err)

	// no stranded tenant row without a login
	_, err = fix.tenantRepo.FindByCode(ctx, "acme")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// the code is free again, so registration can be retried
	dto, err := fix.tenantSvc.RegisterTenant(ctx, RegisterTenantInput{
		Code:          "acme",
		Name:          "Acme Pvt Ltd",
		AdminUsername: "founder",
		AdminPassword: "strongpassword1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ACME", dto.Code)
}

func TestTenantLifecycle(t *testing.T) {
	fix := newIdentityFixture(t)
	ctx := context.Background()
	dto := registerTestTenant(t, fix, "acme")

	require.NoError(t, fix.tenantSvc.SuspendTenant(ctx, dto.ID))
	got, err := fix.tenantSvc.GetTenant(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, string(identity.TenantStatusSuspended), got.Status)

	require.NoError(t, fix.tenantSvc.ActivateTenant(ctx, dto.ID))
	got, err = fix.tenantSvc.GetTenant(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, string(identity.TenantStatusActive), got.Status)

	require.NoError(t, fix.tenantSvc.DeactivateTenant(ctx, dto.ID))
	got, err = fix.tenantSvc.GetTenant(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, string(identity.TenantStatusInactive), got.Status)
}

func TestSetTenantPlan(t *testing.T) {
	fix := newIdentityFixture(t)
	ctx := context.Background()

	dto, err := fix.tenantSvc.RegisterTenant(ctx, RegisterTenantInput{
		Code:          "trialco",
		Name:          "Trial Co",
		AdminUsername: "owner",
		AdminPassword: "strongpassword1",
		TrialDays:     14,
	})
	require.NoError(t, err)

	// upgrading a trial tenant activates it and ends the trial
	got, err := fix.tenantSvc.SetTenantPlan(ctx, dto.ID, identity.TenantPlanGrowth)
	require.NoError(t, err)
	assert.Equal(t, string(identity.TenantPlanGrowth), got.Plan)
	assert.Equal(t, string(identity.TenantStatusActive), got.Status)
	assert.Nil(t, got.TrialEndsAt)
}

func TestListTenants(t *testing.T) {
	fix := newIdentityFixture(t)
	ctx := context.Background()
	registerTestTenant(t, fix, "acme")
	registerTestTenant(t, fix, "globex")
	registerTestTenant(t, fix, "initech")

	all, err := fix.tenantSvc.ListTenants(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)
	assert.Len(t, all.Items, 3)

	filter := shared.DefaultFilter()
	filter.Search = "glo"
	matched, err := fix.tenantSvc.ListTenants(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched.Total)
	assert.Equal(t, "GLOBEX", matched.Items[0].Code)
}
