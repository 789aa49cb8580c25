package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendorhub/backend/internal/domain/shared"
	"github.com/vendorhub/backend/internal/domain/subscription"
	"github.com/vendorhub/backend/internal/infrastructure/persistence/models"
	"github.com/vendorhub/backend/internal/infrastructure/persistence/tenant"
)

// GormSubscriptionRepository implements subscription.Repository using GORM
type GormSubscriptionRepository struct {
	db *tenant.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *tenant.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// Create persists a new subscription
func (r *GormSubscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	return r.db.WithContext(ctx).Create(models.SubscriptionFromDomain(s)).Error
}

// Update persists changes to an existing subscription with optimistic locking
func (r *GormSubscriptionRepository) Update(ctx context.Context, s *subscription.Subscription) error {
	m := models.SubscriptionFromDomain(s)
	result := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
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

// FindByID finds a subscription by its ID
func (r *GormSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	var m models.Subscription
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindCurrent returns the subscription covering the current instant for
// the active tenant, preferring the most recently started one.
func (r *GormSubscriptionRepository) FindCurrent(ctx context.Context) (*subscription.Subscription, error) {
	now := time.Now()
	var m models.Subscription
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []string{string(subscription.StatusActive), string(subscription.StatusTrialing)}).
		Where("period_start <= ? AND period_end > ?", now, now).
		Order("period_start DESC").
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// List returns a page of subscriptions for the active tenant
func (r *GormSubscriptionRepository) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[*subscription.Subscription], error) {
	query := r.db.WithContext(ctx).Model(&models.Subscription{})
	if filter.Search != "" {
		query = query.Where("plan_code LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []models.Subscription
	if err := query.
		Order(orderClause(filter, SubscriptionSortFields, "created_at")).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]*subscription.Subscription, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}

	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Delete removes a subscription by ID. The record is loaded first so the
// write guard can verify ownership before the delete.
func (r *GormSubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var m models.Subscription
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		return err
	}
	return r.db.WithContext(ctx).Delete(&m).Error
}

var _ subscription.Repository = (*GormSubscriptionRepository)(nil)
