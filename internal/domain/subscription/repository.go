package subscription

import (
	"context"

	"github.com/google/uuid"

	"github.com/vendorhub/backend/internal/domain/shared"
)

// Repository defines persistence operations for subscriptions. All
// operations are scoped to the tenant carried by ctx.
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	Update(ctx context.Context, sub *Subscription) error
	FindByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	FindCurrent(ctx context.Context) (*Subscription, error)
	List(ctx context.Context, filter shared.Filter) (*shared.Paginated[*Subscription], error)
	Delete(ctx context.Context, id uuid.UUID) error
}
