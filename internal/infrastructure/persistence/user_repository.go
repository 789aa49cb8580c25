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

// GormUserRepository implements identity.UserRepository using GORM.
// Users are tenant-scoped; the tenant filter narrows every query to the
// tenant carried by ctx.
type GormUserRepository struct {
	db *tenant.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *tenant.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create persists a new user
func (r *GormUserRepository) Create(ctx context.Context, u *identity.User) error {
	return r.db.WithContext(ctx).Create(models.UserFromDomain(u)).Error
}

// Update persists changes to an existing user with optimistic locking
func (r *GormUserRepository) Update(ctx context.Context, u *identity.User) error {
	m := models.UserFromDomain(u)
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
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

// FindByID finds a user by its ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var m models.User
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByUsername finds a user by username within the active tenant
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	var m models.User
	if err := r.db.WithContext(ctx).
		First(&m, "username = ?", strings.ToLower(username)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// List returns a page of users for the active tenant
func (r *GormUserRepository) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[*identity.User], error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("username LIKE ? OR email LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []models.User
	if err := query.
		Order(orderClause(filter, UserSortFields, "created_at")).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]*identity.User, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}

	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Delete removes a user by ID. The record is loaded first so the write
// guard can verify ownership before the delete is issued.
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var m models.User
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		return err
	}
	return r.db.WithContext(ctx).Delete(&m).Error
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
