package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendorhub/backend/internal/domain/shared"
	"github.com/vendorhub/backend/internal/domain/vendor"
	"github.com/vendorhub/backend/internal/infrastructure/persistence/models"
	"github.com/vendorhub/backend/internal/infrastructure/persistence/tenant"
	"github.com/vendorhub/backend/internal/infrastructure/tenantctx"
)

const testGSTIN = "29ABCDE1234F1ZW"

func newScopedDB(t *testing.T) *tenant.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, tenant.NewCallback(true).Register(db))
	require.NoError(t, db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Vendor{},
		&models.GSTINRegistration{},
		&models.Subscription{},
	))

	return tenant.NewDB(db)
}

func tenantContext(tenantID uuid.UUID) context.Context {
	return tenantctx.WithIdentity(context.Background(), tenantctx.Identity{TenantID: tenantID})
}

func newTestVendor(t *testing.T, code string) *vendor.Vendor {
	t.Helper()
	v, err := vendor.NewVendor(uuid.Nil, code, "Sharma Traders Pvt Ltd")
	require.NoError(t, err)
	_, err = v.AddRegistration(testGSTIN, "Bengaluru")
	require.NoError(t, err)
	return v
}

func TestGormVendorRepository_CreateStampsTenant(t *testing.T) {
	db := newScopedDB(t)
	repo := NewGormVendorRepository(db)
	tenantA := uuid.New()
	ctx := tenantContext(tenantA)

	v := newTestVendor(t, "VND001")
	require.Equal(t, uuid.Nil, v.TenantID)
	require.NoError(t, repo.Create(ctx, v))

	found, err := repo.FindByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, tenantA, found.TenantID)
	require.Len(t, found.Registrations, 1)
	assert.Equal(t, testGSTIN, found.Registrations[0].GSTIN)

	// registrations are stamped too
	var reg models.GSTINRegistration
	require.NoError(t, db.Unwrap().First(&reg, "vendor_id = ?", v.ID).Error)
	assert.Equal(t, tenantA, reg.TenantID)
}

func TestGormVendorRepository_CrossTenantInvisibility(t *testing.T) {
	db := newScopedDB(t)
	repo := NewGormVendorRepository(db)
	tenantA := uuid.New()
	tenantB := uuid.New()

	v := newTestVendor(t, "VND001")
	require.NoError(t, repo.Create(tenantContext(tenantA), v))

	t.Run("FindByID misses", func(t *testing.T) {
		_, err := repo.FindByID(tenantContext(tenantB), v.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("FindByCode misses", func(t *testing.T) {
		_, err := repo.FindByCode(tenantContext(tenantB), "VND001")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("List is empty", func(t *testing.T) {
		page, err := repo.List(tenantContext(tenantB), shared.DefaultFilter())
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Zero(t, page.Total)
	})

	t.Run("Delete misses", func(t *testing.T) {
		err := repo.Delete(tenantContext(tenantB), v.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.FindByID(tenantContext(tenantA), v.ID)
		assert.NoError(t, err)
	})
}

func TestGormVendorRepository_FindWithoutIdentityFails(t *testing.T) {
	db := newScopedDB(t)
	repo := NewGormVendorRepository(db)

	_, err := repo.FindByCode(context.Background(), "VND001")
	assert.ErrorIs(t, err, tenant.ErrTenantRequired)
}

func TestGormVendorRepository_Update(t *testing.T) {
	db := newScopedDB(t)
	repo := NewGormVendorRepository(db)
	ctx := tenantContext(uuid.New())

	v := newTestVendor(t, "VND001")
	require.NoError(t, repo.Create(ctx, v))

	loaded, err := repo.FindByID(ctx, v.ID)
	require.NoError(t, err)

	require.NoError(t, loaded.Update("Sharma Traders Limited", "Sharma"))
	require.NoError(t, repo.Update(ctx, loaded))

	reloaded, err := repo.FindByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sharma Traders Limited", reloaded.LegalName)
	assert.Equal(t, "Sharma", reloaded.TradeName)
	assert.Equal(t, loaded.Version, reloaded.Version)

	t.Run("stale version conflicts", func(t *testing.T) {
		stale := loaded
		require.NoError(t, stale.Update("Stale Name", ""))
		stale.Version = 1
		assert.ErrorIs(t, repo.Update(ctx, stale), shared.ErrConcurrencyConflict)
	})
}

func TestGormVendorRepository_UpdateReplacesRegistrations(t *testing.T) {
	db := newScopedDB(t)
	repo := NewGormVendorRepository(db)
	ctx := tenantContext(uuid.New())

	v := newTestVendor(t, "VND001")
	require.NoError(t, repo.Create(ctx, v))

	loaded, err := repo.FindByID(ctx, v.ID)
	require.NoError(t, err)
	_, err = loaded.AddRegistration("07ABCDE1234F1Z2", "New Delhi")
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, loaded))

	reloaded, err := repo.FindByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Registrations, 2)
}

func TestGormVendorRepository_CreateBatch(t *testing.T) {
	db := newScopedDB(t)
	repo := NewGormVendorRepository(db)
	tenantA := uuid.New()
	ctx := tenantContext(tenantA)

	batch := []*vendor.Vendor{
		newTestVendor(t, "VND001"),
		newTestVendor(t, "VND002"),
		newTestVendor(t, "VND003"),
	}
	require.NoError(t, repo.CreateBatch(ctx, batch))

	page, err := repo.List(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	for _, v := range page.Items {
		assert.Equal(t, tenantA, v.TenantID)
	}
}

func TestGormVendorRepository_ListPagination(t *testing.T) {
	db := newScopedDB(t)
	repo := NewGormVendorRepository(db)
	ctx := tenantContext(uuid.New())

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, newTestVendor(t, "VND00"+string(rune('1'+i)))))
	}

	page, err := repo.List(ctx, shared.Filter{Page: 2, PageSize: 2, OrderBy: "code", OrderDir: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "VND003", page.Items[0].Code)
}

func TestGormVendorRepository_DeleteRemovesRegistrations(t *testing.T) {
	db := newScopedDB(t)
	repo := NewGormVendorRepository(db)
	ctx := tenantContext(uuid.New())

	v := newTestVendor(t, "VND001")
	require.NoError(t, repo.Create(ctx, v))
	require.NoError(t, repo.Delete(ctx, v.ID))

	var count int64
	require.NoError(t, db.Unwrap().Model(&models.GSTINRegistration{}).
		Where("vendor_id = ?", v.ID).Count(&count).Error)
	assert.Zero(t, count)
}
