package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendorhub/backend/internal/domain/identity"
	"github.com/vendorhub/backend/internal/domain/shared"
	"github.com/vendorhub/backend/internal/infrastructure/persistence/models"
	"github.com/vendorhub/backend/internal/infrastructure/persistence/tenant"
)

// GormTenantRepository implements identity.TenantRepository using GORM.
// The tenants table is platform-level, so the repository runs on a DB
// wrapper that does not require a tenant identity.
type GormTenantRepository struct {
	db *tenant.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *tenant.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// Create persists a new tenant
func (r *GormTenantRepository) Create(ctx context.Context, t *identity.Tenant) error {
	return r.db.WithContext(ctx).Create(models.TenantFromDomain(t)).Error
}

// Update persists changes to an existing tenant with optimistic locking
func (r *GormTenantRepository) Update(ctx context.Context, t *identity.Tenant) error {
	m := models.TenantFromDomain(t)
	result := r.db.WithContext(ctx).
		Model(&models.Tenant{}).
		Where("id = ? AND version = ?", m.ID, m.Version-1).
		Updates(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	var m models.Tenant
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByCode finds a tenant by its code
func (r *GormTenantRepository) FindByCode(ctx context.Context, code string) (*identity.Tenant, error) {
	var m models.Tenant
	if err := r.db.WithContext(ctx).
		First(&m, "code = ?", strings.ToUpper(code)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// List returns a page of tenants
func (r *GormTenantRepository) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[*identity.Tenant], error) {
	query := r.db.WithContext(ctx).Model(&models.Tenant{})
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []models.Tenant
	if err := query.
		Order(orderClause(filter, TenantSortFields, "created_at")).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]*identity.Tenant, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}

	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Delete removes a tenant by ID
func (r *GormTenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Tenant{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ identity.TenantRepository = (*GormTenantRepository)(nil)
