package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/vendorhub/backend/internal/domain/shared"
)

// TenantRepository defines persistence operations for tenants.
// Tenants are platform-level records and are not tenant-scoped themselves.
type TenantRepository interface {
	Create(ctx context.Context, tenant *Tenant) error
	Update(ctx context.Context, tenant *Tenant) error
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindByCode(ctx context.Context, code string) (*Tenant, error)
	List(ctx context.Context, filter shared.Filter) (*shared.Paginated[*Tenant], error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository defines persistence operations for users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, filter shared.Filter) (*shared.Paginated[*User], error)
	Delete(ctx context.Context, id uuid.UUID) error
}
