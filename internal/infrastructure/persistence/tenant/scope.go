package tenant

import (
	"context"

	"github.com/google/uuid"
	"github.com/vendorhub/backend/internal/infrastructure/tenantctx"
	"gorm.io/gorm"
)

// bypassKey marks a context as running inside the isolation escape hatch
type bypassKey struct{}

// withBypass derives a context whose queries skip the tenant filter
func withBypass(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey{}, true)
}

// bypassed reports whether ctx is inside RunWithoutIsolation
func bypassed(ctx context.Context) bool {
	b, _ := ctx.Value(bypassKey{}).(bool)
	return b
}

// IsActive reports whether queries issued through ctx are tenant-filtered:
// an identity is installed and the escape hatch is not engaged.
func IsActive(ctx context.Context) bool {
	return tenantctx.HasIdentity(ctx) && !bypassed(ctx)
}

// Scope returns a GORM scope constraining a query to one tenant. Repositories
// normally rely on the automatic callbacks instead; the explicit scope exists
// for queries built outside a request context.
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// DB wraps a *gorm.DB with tenant-aware session helpers. The zero filtering
// behaviour itself lives in the registered callbacks; DB only decides which
// context a session runs under.
type DB struct {
	db       *gorm.DB
	required bool
}

// NewDB wraps db. With required true (the default for request-serving code),
// operations without an active identity fail instead of running unfiltered.
func NewDB(db *gorm.DB) *DB {
	return &DB{db: db, required: true}
}

// NewOptionalDB wraps db without requiring a tenant identity. Used by system
// components (migrations, schedulers) that legitimately run tenant-free.
func NewOptionalDB(db *gorm.DB) *DB {
	return &DB{db: db, required: false}
}

// WithContext returns a session bound to ctx. The tenant filter applies to
// every statement on the session while ctx carries an identity.
func (t *DB) WithContext(ctx context.Context) *gorm.DB {
	if t.required && !tenantctx.HasIdentity(ctx) && !bypassed(ctx) {
		db := t.db.WithContext(ctx)
		_ = db.AddError(ErrTenantRequired)
		return db
	}
	return t.db.WithContext(ctx)
}

// Transaction runs fn inside a database transaction bound to ctx. The tenant
// filter and write interceptor apply to every statement fn issues.
func (t *DB) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if t.required && !tenantctx.HasIdentity(ctx) && !bypassed(ctx) {
		return ErrTenantRequired
	}
	return t.db.WithContext(ctx).Transaction(fn)
}

// RunWithoutIsolation executes fn with the tenant filter and write guard
// disabled. The bypass lives only in the context handed to fn, so the prior
// filter state is restored by construction when fn returns, whether it fails
// or not. Every call site is a privileged cross-tenant operation and should
// be treated as audit-worthy.
func (t *DB) RunWithoutIsolation(ctx context.Context, fn func(ctx context.Context, db *gorm.DB) error) error {
	bctx := withBypass(ctx)
	return fn(bctx, t.db.WithContext(bctx))
}

// Unwrap returns the underlying *gorm.DB without any tenant handling.
// Reserved for migrations and test setup.
func (t *DB) Unwrap() *gorm.DB {
	return t.db
}
