// Package tenant enforces tenant isolation at the persistence layer.
//
// It has three cooperating pieces:
//
//   - a read filter that adds WHERE tenant_id = ? to every query issued
//     through a context carrying a tenant identity (scope.go, callback.go)
//   - a write interceptor that stamps new records with the active tenant and
//     rejects deletes whose stored tenant differs from the active one
//   - a scoped escape hatch, RunWithoutIsolation, the only sanctioned way to
//     read or write across tenants
//
// The stamping/guard logic is a pure function over (operation, record tenant,
// active identity) so it can be tested without a database; the GORM callbacks
// only translate statements into calls to it.
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"github.com/vendorhub/backend/internal/infrastructure/tenantctx"
)

var (
	// ErrTenantRequired is returned when an operation needs an active tenant
	// identity and the context carries none. Privileged cross-tenant work must
	// go through RunWithoutIsolation instead of running with an empty identity.
	ErrTenantRequired = errors.New("tenant identity is required but not present in context")

	// ErrTenantMismatch is returned when a write targets a record owned by a
	// different tenant. The message deliberately names no tenant.
	ErrTenantMismatch = errors.New("operation not permitted")
)

// Operation is the kind of persistence write being intercepted
type Operation int

const (
	OpCreate Operation = iota
	OpUpdate
	OpDelete
)

// Decision is the outcome of the stamping/guard core for one record
type Decision struct {
	// Stamp, when StampNeeded, is the tenant ID to write onto the record
	// before it is flushed.
	Stamp       uuid.UUID
	StampNeeded bool
	// Err aborts the enclosing write when non-nil.
	Err error
}

// Decide applies the stamping and guard rules to a single record.
//
// recordTenant is the tenant already stored on the record (uuid.Nil when
// unset), active is the identity carried by the execution context, and bypass
// reports whether the caller is inside the sanctioned escape hatch.
//
// Rules:
//   - create: an unset tenant is stamped from the active identity; an
//     explicitly set tenant always wins.
//   - update: a missing stamp is backfilled from the active identity; a
//     present stamp is never changed.
//   - delete: a record owned by another tenant is rejected. Deleting with an
//     empty identity requires the bypass; an implicitly empty identity is not
//     treated as privileged.
func Decide(op Operation, recordTenant uuid.UUID, active tenantctx.Identity, bypass bool) Decision {
	if bypass {
		return Decision{}
	}

	switch op {
	case OpCreate, OpUpdate:
		if recordTenant == uuid.Nil && !active.IsZero() {
			return Decision{Stamp: active.TenantID, StampNeeded: true}
		}
		return Decision{}

	case OpDelete:
		if recordTenant == uuid.Nil {
			// Nothing stored to compare against; the read filter on the
			// DELETE's WHERE clause is the effective guard.
			return Decision{}
		}
		if active.IsZero() {
			return Decision{Err: ErrTenantRequired}
		}
		if recordTenant != active.TenantID {
			return Decision{Err: ErrTenantMismatch}
		}
		return Decision{}
	}

	return Decision{}
}
