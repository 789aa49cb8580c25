package tenant

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendorhub/backend/internal/infrastructure/tenantctx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// scopedRecord is a minimal tenant-owned model for callback tests
type scopedRecord struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;index"`
	Name     string    `gorm:"size:100"`
}

func (scopedRecord) TableName() string {
	return "scoped_records"
}

// plainRecord carries no tenant column and must be left alone by the filter
type plainRecord struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"size:100"`
}

func (plainRecord) TableName() string {
	return "plain_records"
}

type countingObserver struct {
	rejections int
}

func (o *countingObserver) TenantMismatchRejected(_ *gorm.DB) {
	o.rejections++
}

func setupCallbackDB(t *testing.T) (*gorm.DB, *countingObserver) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&scopedRecord{}, &plainRecord{}))

	obs := &countingObserver{}
	require.NoError(t, NewCallback(true).WithObserver(obs).Register(db))
	return db, obs
}

func tenantContext(id uuid.UUID) context.Context {
	return tenantctx.WithIdentity(context.Background(), tenantctx.NewIdentity(id))
}

func TestCallback_ReadFilter(t *testing.T) {
	db, _ := setupCallbackDB(t)

	tenantA := uuid.New()
	tenantB := uuid.New()

	require.NoError(t, db.WithContext(tenantContext(tenantA)).Create(&scopedRecord{ID: uuid.New(), Name: "a1"}).Error)
	require.NoError(t, db.WithContext(tenantContext(tenantA)).Create(&scopedRecord{ID: uuid.New(), Name: "a2"}).Error)
	require.NoError(t, db.WithContext(tenantContext(tenantB)).Create(&scopedRecord{ID: uuid.New(), Name: "b1"}).Error)

	t.Run("each tenant sees only its own rows", func(t *testing.T) {
		var rows []scopedRecord
		require.NoError(t, db.WithContext(tenantContext(tenantA)).Find(&rows).Error)
		assert.Len(t, rows, 2)

		rows = nil
		require.NoError(t, db.WithContext(tenantContext(tenantB)).Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.Equal(t, "b1", rows[0].Name)
	})

	t.Run("count is filtered too", func(t *testing.T) {
		var n int64
		require.NoError(t, db.WithContext(tenantContext(tenantB)).Model(&scopedRecord{}).Count(&n).Error)
		assert.EqualValues(t, 1, n)
	})

	t.Run("query without identity fails closed", func(t *testing.T) {
		var rows []scopedRecord
		err := db.WithContext(context.Background()).Find(&rows).Error
		assert.ErrorIs(t, err, ErrTenantRequired)
	})

	t.Run("models without tenant column are untouched", func(t *testing.T) {
		require.NoError(t, db.WithContext(context.Background()).Create(&plainRecord{ID: uuid.New(), Name: "shared"}).Error)

		var rows []plainRecord
		require.NoError(t, db.WithContext(context.Background()).Find(&rows).Error)
		assert.Len(t, rows, 1)
	})
}

func TestCallback_CreateStamping(t *testing.T) {
	db, _ := setupCallbackDB(t)
	tenantA := uuid.New()
	explicit := uuid.New()

	t.Run("stamps unset tenant at first write", func(t *testing.T) {
		rec := scopedRecord{ID: uuid.New(), Name: "implicit"}
		require.NoError(t, db.WithContext(tenantContext(tenantA)).Create(&rec).Error)
		assert.Equal(t, tenantA, rec.TenantID)

		var stored scopedRecord
		require.NoError(t, db.WithContext(tenantContext(tenantA)).First(&stored, "id = ?", rec.ID).Error)
		assert.Equal(t, tenantA, stored.TenantID)
	})

	t.Run("explicit stamp wins", func(t *testing.T) {
		rec := scopedRecord{ID: uuid.New(), TenantID: explicit, Name: "explicit"}
		require.NoError(t, db.WithContext(tenantContext(tenantA)).Create(&rec).Error)
		assert.Equal(t, explicit, rec.TenantID)
	})

	t.Run("stamps every record of a batch insert", func(t *testing.T) {
		batch := []scopedRecord{
			{ID: uuid.New(), Name: "one"},
			{ID: uuid.New(), Name: "two"},
		}
		require.NoError(t, db.WithContext(tenantContext(tenantA)).Create(&batch).Error)
		for _, rec := range batch {
			assert.Equal(t, tenantA, rec.TenantID)
		}
	})
}

func TestCallback_UpdateFilter(t *testing.T) {
	db, _ := setupCallbackDB(t)
	tenantA := uuid.New()
	tenantB := uuid.New()

	rec := scopedRecord{ID: uuid.New(), Name: "original"}
	require.NoError(t, db.WithContext(tenantContext(tenantA)).Create(&rec).Error)

	t.Run("foreign tenant update touches nothing", func(t *testing.T) {
		res := db.WithContext(tenantContext(tenantB)).Model(&scopedRecord{}).
			Where("id = ?", rec.ID).Update("name", "hijacked")
		require.NoError(t, res.Error)
		assert.EqualValues(t, 0, res.RowsAffected)

		var stored scopedRecord
		require.NoError(t, db.WithContext(tenantContext(tenantA)).First(&stored, "id = ?", rec.ID).Error)
		assert.Equal(t, "original", stored.Name)
	})

	t.Run("owner update succeeds", func(t *testing.T) {
		res := db.WithContext(tenantContext(tenantA)).Model(&scopedRecord{}).
			Where("id = ?", rec.ID).Update("name", "renamed")
		require.NoError(t, res.Error)
		assert.EqualValues(t, 1, res.RowsAffected)
	})
}

func TestCallback_DeleteGuard(t *testing.T) {
	db, obs := setupCallbackDB(t)
	tenantA := uuid.New()
	tenantB := uuid.New()

	t.Run("cross-tenant delete of a loaded record is rejected", func(t *testing.T) {
		rec := scopedRecord{ID: uuid.New(), Name: "guarded"}
		require.NoError(t, db.WithContext(tenantContext(tenantA)).Create(&rec).Error)

		err := db.WithContext(tenantContext(tenantB)).Delete(&rec).Error
		assert.ErrorIs(t, err, ErrTenantMismatch)
		assert.Equal(t, 1, obs.rejections)

		var n int64
		require.NoError(t, db.WithContext(tenantContext(tenantA)).Model(&scopedRecord{}).
			Where("id = ?", rec.ID).Count(&n).Error)
		assert.EqualValues(t, 1, n, "record must survive the rejected delete")
	})

	t.Run("cross-tenant delete by key silently misses", func(t *testing.T) {
		rec := scopedRecord{ID: uuid.New(), Name: "hidden"}
		require.NoError(t, db.WithContext(tenantContext(tenantA)).Create(&rec).Error)

		res := db.WithContext(tenantContext(tenantB)).Delete(&scopedRecord{}, "id = ?", rec.ID)
		require.NoError(t, res.Error)
		assert.EqualValues(t, 0, res.RowsAffected)
	})

	t.Run("owner delete succeeds", func(t *testing.T) {
		rec := scopedRecord{ID: uuid.New(), Name: "mine"}
		require.NoError(t, db.WithContext(tenantContext(tenantA)).Create(&rec).Error)

		require.NoError(t, db.WithContext(tenantContext(tenantA)).Delete(&rec).Error)

		var n int64
		require.NoError(t, db.WithContext(tenantContext(tenantA)).Model(&scopedRecord{}).
			Where("id = ?", rec.ID).Count(&n).Error)
		assert.EqualValues(t, 0, n)
	})

	t.Run("delete with empty identity is rejected", func(t *testing.T) {
		rec := scopedRecord{ID: uuid.New(), Name: "system-guarded"}
		require.NoError(t, db.WithContext(tenantContext(tenantA)).Create(&rec).Error)

		err := db.WithContext(context.Background()).Delete(&rec).Error
		assert.ErrorIs(t, err, ErrTenantRequired)
	})
}
