package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendorhub/backend/internal/domain/shared"
	"github.com/vendorhub/backend/internal/domain/vendor"
	"github.com/vendorhub/backend/internal/infrastructure/persistence/models"
	"github.com/vendorhub/backend/internal/infrastructure/persistence/tenant"
)

// GormVendorRepository implements vendor.Repository using GORM
type GormVendorRepository struct {
	db *tenant.DB
}

// NewGormVendorRepository creates a new GormVendorRepository
func NewGormVendorRepository(db *tenant.DB) *GormVendorRepository {
	return &GormVendorRepository{db: db}
}

// Create persists a new vendor together with its registrations
func (r *GormVendorRepository) Create(ctx context.Context, v *vendor.Vendor) error {
	return r.db.WithContext(ctx).Create(models.VendorFromDomain(v)).Error
}

// CreateBatch persists a batch of vendors in one transaction
func (r *GormVendorRepository) CreateBatch(ctx context.Context, vendors []*vendor.Vendor) error {
	if len(vendors) == 0 {
		return nil
	}

	rows := make([]*models.Vendor, len(vendors))
	for i, v := range vendors {
		rows[i] = models.VendorFromDomain(v)
	}

	return r.db.Transaction(ctx, func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, 100).Error
	})
}

// Update persists changes to an existing vendor with optimistic locking.
// Registrations are replaced wholesale inside the same transaction.
func (r *GormVendorRepository) Update(ctx context.Context, v *vendor.Vendor) error {
	m := models.VendorFromDomain(v)

	return r.db.Transaction(ctx, func(tx *gorm.DB) error {
		result := tx.Model(&models.Vendor{}).
			Where("id = ? AND version = ?", m.ID, m.Version-1).
			Omit("Registrations").
			Updates(m)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if err := tx.Where("vendor_id = ?", m.ID).
			Delete(&models.GSTINRegistration{}).Error; err != nil {
			return err
		}
		if len(m.Registrations) > 0 {
			if err := tx.Create(&m.Registrations).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID finds a vendor by its ID
func (r *GormVendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*vendor.Vendor, error) {
	var m models.Vendor
	if err := r.db.WithContext(ctx).
		Preload("Registrations").
		First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByCode finds a vendor by its code within the active tenant
func (r *GormVendorRepository) FindByCode(ctx context.Context, code string) (*vendor.Vendor, error) {
	var m models.Vendor
	if err := r.db.WithContext(ctx).
		Preload("Registrations").
		First(&m, "code = ?", strings.ToUpper(code)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// List returns a page of vendors for the active tenant
func (r *GormVendorRepository) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[*vendor.Vendor], error) {
	query := r.db.WithContext(ctx).Model(&models.Vendor{})
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("legal_name LIKE ? OR trade_name LIKE ? OR code LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []models.Vendor
	if err := query.
		Preload("Registrations").
		Order(orderClause(filter, VendorSortFields, "created_at")).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]*vendor.Vendor, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}

	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Delete removes a vendor and its registrations. The record is loaded
// first so the write guard can verify ownership before the delete.
func (r *GormVendorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var m models.Vendor
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		return err
	}

	return r.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("vendor_id = ?", m.ID).
			Delete(&models.GSTINRegistration{}).Error; err != nil {
			return err
		}
		return tx.Delete(&m).Error
	})
}

var _ vendor.Repository = (*GormVendorRepository)(nil)
