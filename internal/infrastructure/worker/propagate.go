// Package worker runs background units of work on a bounded pool while
// preserving the tenant identity of the submitting execution.
//
// Identity is captured when a task is submitted, not when it runs: a task
// queued during tenant A's request observes A inside the worker even if the
// worker most recently ran tenant B's work. Each invocation gets a fresh
// context derived from the pool's base context, so nothing a task installs
// survives into the next task scheduled on the same worker.
package worker

import (
	"context"

	"github.com/vendorhub/backend/internal/infrastructure/tenantctx"
)

// Task is a unit of background work
type Task func(ctx context.Context) error

// Propagate captures the tenant identity active in ctx and returns a task
// that installs it at run time. The captured identity replaces whatever the
// run context carries: an empty capture clears any identity already there,
// so background/system work stays tenant-free no matter which context it
// runs on.
//
// Propagate composes with other wrappers (tracing, deadlines) by ordinary
// function composition; it must be the innermost wrapper that touches tenant
// state so the identity is present for everything the task does.
func Propagate(ctx context.Context, task Task) Task {
	captured := tenantctx.IdentityFromContext(ctx)
	return func(runCtx context.Context) error {
		if captured.IsZero() {
			runCtx = tenantctx.ClearIdentity(runCtx)
		} else {
			runCtx = tenantctx.WithIdentity(runCtx, captured)
		}
		return task(runCtx)
	}
}
