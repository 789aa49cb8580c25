// Package tenantctx carries the active tenant identity through call chains.
//
// The identity is an immutable value threaded via context.Context, never a
// shared global: each request or background task derives its own context and
// therefore its own slot, so concurrently running units can never observe each
// other's tenant. Clearing is a context derivation as well, which makes the
// clear-on-exit guarantee structural rather than a runtime discipline.
package tenantctx

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a private type so nothing outside this package can collide
// with or forge the identity slot.
type contextKey struct{}

var identityKey contextKey

// Identity identifies the tenant a unit of execution acts on behalf of.
// SchemaName is only populated for deployments that isolate tenants by
// database schema instead of row filtering.
type Identity struct {
	TenantID   uuid.UUID
	SchemaName string
}

// NewIdentity builds an identity for the given tenant ID
func NewIdentity(tenantID uuid.UUID) Identity {
	return Identity{TenantID: tenantID}
}

// NewSchemaIdentity builds an identity for schema-separated deployments
func NewSchemaIdentity(tenantID uuid.UUID, schemaName string) Identity {
	return Identity{TenantID: tenantID, SchemaName: schemaName}
}

// IsZero reports whether the identity is absent. An absent identity is the
// unauthenticated/system state, not an error.
func (i Identity) IsZero() bool {
	return i.TenantID == uuid.Nil
}

// String returns the tenant ID for logging. Empty identities render as "".
func (i Identity) String() string {
	if i.IsZero() {
		return ""
	}
	return i.TenantID.String()
}

// WithIdentity installs the identity for the unit of execution owning ctx.
// Installing over an existing identity is allowed but always explicit: the
// caller sees both contexts.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity visible to the calling unit,
// or the zero Identity if none is set.
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey).(Identity); ok {
		return id
	}
	return Identity{}
}

// HasIdentity reports whether a non-empty identity is installed in ctx
func HasIdentity(ctx context.Context) bool {
	return !IdentityFromContext(ctx).IsZero()
}

// ClearIdentity removes the identity from the returned context. Clearing a
// context that has no identity is a no-op. The parent context is untouched.
func ClearIdentity(ctx context.Context) context.Context {
	if _, ok := ctx.Value(identityKey).(Identity); !ok {
		return ctx
	}
	return context.WithValue(ctx, identityKey, Identity{})
}
