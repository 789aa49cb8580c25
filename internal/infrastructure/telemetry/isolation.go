package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

// IsolationMetrics exposes the failure signals of the tenant-isolation
// subsystem. Cleanup failures are logged and swallowed on the request path,
// so the counter is the only way leaks become visible in production.
type IsolationMetrics struct {
	cleanupFailures    *Counter
	deleteMismatches   *Counter
	resolutionFailures *Counter
	escapeHatchEntered *Counter
}

// NewIsolationMetrics registers the isolation counters on meter.
func NewIsolationMetrics(meter metric.Meter) (*IsolationMetrics, error) {
	im := &IsolationMetrics{}

	var err error
	if im.cleanupFailures, err = NewCounter(meter,
		"tenant_context_cleanup_failures_total",
		"Tenant context or filter teardown failures at request end",
		"{failures}"); err != nil {
		return nil, err
	}
	if im.deleteMismatches, err = NewCounter(meter,
		"tenant_delete_mismatch_total",
		"Deletes rejected because the record belongs to another tenant",
		"{rejections}"); err != nil {
		return nil, err
	}
	if im.resolutionFailures, err = NewCounter(meter,
		"tenant_resolution_failures_total",
		"Credentials from which no tenant could be resolved",
		"{failures}"); err != nil {
		return nil, err
	}
	if im.escapeHatchEntered, err = NewCounter(meter,
		"tenant_isolation_bypass_total",
		"Entries into the cross-tenant escape hatch",
		"{calls}"); err != nil {
		return nil, err
	}
	return im, nil
}

// CleanupFailed records a failed context/filter teardown.
func (im *IsolationMetrics) CleanupFailed(ctx context.Context, stage string) {
	if im == nil {
		return
	}
	im.cleanupFailures.Inc(ctx, attribute.String("stage", stage))
}

// ResolutionFailed records a credential that resolved to no tenant.
func (im *IsolationMetrics) ResolutionFailed(ctx context.Context) {
	if im == nil {
		return
	}
	im.resolutionFailures.Inc(ctx)
}

// EscapeHatchEntered records a sanctioned cross-tenant operation.
func (im *IsolationMetrics) EscapeHatchEntered(ctx context.Context, caller string) {
	if im == nil {
		return
	}
	im.escapeHatchEntered.Inc(ctx, attribute.String("caller", caller))
}

// TenantMismatchRejected implements the persistence layer's mismatch
// observer contract.
func (im *IsolationMetrics) TenantMismatchRejected(db *gorm.DB) {
	if im == nil {
		return
	}
	ctx := context.Background()
	if db != nil && db.Statement != nil && db.Statement.Context != nil {
		ctx = db.Statement.Context
	}
	table := ""
	if db != nil && db.Statement != nil {
		table = db.Statement.Table
	}
	im.deleteMismatches.Inc(ctx, attribute.String("table", table))
}
