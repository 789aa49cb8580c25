package tenant

import (
	"reflect"
	"strings"

	"github.com/google/uuid"
	"github.com/vendorhub/backend/internal/infrastructure/tenantctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// TenantColumn is the column every tenant-owned table carries
const TenantColumn = "tenant_id"

// MismatchObserver is notified when a write is rejected by the delete guard.
// Wired to a telemetry counter in production; nil disables observation.
type MismatchObserver interface {
	TenantMismatchRejected(db *gorm.DB)
}

// Callback installs the isolation filter and write interceptor as GORM
// callbacks, so every repository gets them without opting in.
type Callback struct {
	required bool
	observer MismatchObserver
}

// NewCallback creates the callback set. With required true, tenant-bearing
// statements issued without an identity (and outside the escape hatch) fail.
func NewCallback(required bool) *Callback {
	return &Callback{required: required}
}

// WithObserver attaches a mismatch observer
func (c *Callback) WithObserver(o MismatchObserver) *Callback {
	c.observer = o
	return c
}

// Register wires the callbacks into db. Must be called once, at startup,
// before the first statement runs.
func (c *Callback) Register(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("tenant:query_filter", c.beforeQuery); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("tenant:row_filter", c.beforeQuery); err != nil {
		return err
	}
	if err := db.Callback().Create().Before("gorm:create").Register("tenant:stamp_create", c.beforeCreate); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("tenant:stamp_update", c.beforeUpdate); err != nil {
		return err
	}
	return db.Callback().Delete().Before("gorm:delete").Register("tenant:guard_delete", c.beforeDelete)
}

// beforeQuery constrains reads to the active tenant's rows
func (c *Callback) beforeQuery(db *gorm.DB) {
	c.addReadFilter(db)
}

// beforeCreate stamps unset tenant columns from the active identity
func (c *Callback) beforeCreate(db *gorm.DB) {
	field := tenantField(db)
	if field == nil {
		return
	}

	ctx := db.Statement.Context
	active := tenantctx.IdentityFromContext(ctx)
	bypass := bypassed(ctx) || db.Statement.Unscoped

	eachRecord(db, func(rv reflect.Value) {
		d := Decide(OpCreate, fieldTenantID(db, field, rv), active, bypass)
		if d.Err != nil {
			_ = db.AddError(d.Err)
			return
		}
		if d.StampNeeded {
			_ = field.Set(ctx, rv, d.Stamp)
		}
	})
}

// beforeUpdate backfills a missing stamp and constrains the UPDATE itself
func (c *Callback) beforeUpdate(db *gorm.DB) {
	if field := tenantField(db); field != nil {
		ctx := db.Statement.Context
		active := tenantctx.IdentityFromContext(ctx)
		bypass := bypassed(ctx) || db.Statement.Unscoped

		eachRecord(db, func(rv reflect.Value) {
			d := Decide(OpUpdate, fieldTenantID(db, field, rv), active, bypass)
			if d.StampNeeded {
				_ = field.Set(ctx, rv, d.Stamp)
			}
		})
	}
	c.addReadFilter(db)
}

// beforeDelete rejects deletes of records owned by another tenant, then
// constrains the DELETE so unguarded rows stay untouched regardless.
func (c *Callback) beforeDelete(db *gorm.DB) {
	field := tenantField(db)
	if field == nil {
		return
	}

	ctx := db.Statement.Context
	active := tenantctx.IdentityFromContext(ctx)
	bypass := bypassed(ctx) || db.Statement.Unscoped

	rejected := false
	eachRecord(db, func(rv reflect.Value) {
		d := Decide(OpDelete, fieldTenantID(db, field, rv), active, bypass)
		if d.Err != nil {
			rejected = true
			_ = db.AddError(d.Err)
			if d.Err == ErrTenantMismatch && c.observer != nil {
				c.observer.TenantMismatchRejected(db)
			}
		}
	})

	if rejected {
		return
	}

	c.addReadFilter(db)
}

// addReadFilter adds the tenant predicate to the current statement
func (c *Callback) addReadFilter(db *gorm.DB) {
	field := tenantField(db)
	if field == nil {
		return
	}

	ctx := db.Statement.Context
	if ctx == nil || db.Statement.Unscoped || bypassed(ctx) {
		return
	}
	if hasTenantCondition(db) {
		return
	}

	active := tenantctx.IdentityFromContext(ctx)
	if active.IsZero() {
		if c.required {
			_ = db.AddError(ErrTenantRequired)
		}
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: clause.CurrentTable, Name: TenantColumn},
				Value:  active.TenantID,
			},
		},
	})
}

// tenantField returns the statement model's tenant column, or nil when the
// model does not carry one (lookup tables, system records).
func tenantField(db *gorm.DB) *schema.Field {
	if db.Statement.Schema == nil {
		return nil
	}
	return db.Statement.Schema.LookUpField(TenantColumn)
}

// eachRecord invokes fn for every record addressed by the statement
func eachRecord(db *gorm.DB, fn func(rv reflect.Value)) {
	rv := db.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			fn(rv.Index(i))
		}
	case reflect.Struct:
		fn(rv)
	}
}

// fieldTenantID reads the tenant ID stored on a record, uuid.Nil when unset
func fieldTenantID(db *gorm.DB, field *schema.Field, rv reflect.Value) uuid.UUID {
	value, isZero := field.ValueOf(db.Statement.Context, rv)
	if isZero {
		return uuid.Nil
	}
	switch v := value.(type) {
	case uuid.UUID:
		return v
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil
		}
		return id
	}
	return uuid.Nil
}

// hasTenantCondition reports whether the statement already constrains the
// tenant column, so explicit repository scopes are not double-applied.
func hasTenantCondition(db *gorm.DB) bool {
	if whereClause, ok := db.Statement.Clauses["WHERE"]; ok {
		if where, ok := whereClause.Expression.(clause.Where); ok {
			for _, expr := range where.Exprs {
				if exprContainsTenant(expr) {
					return true
				}
			}
		}
	}
	if sql := db.Statement.SQL.String(); sql != "" && strings.Contains(sql, TenantColumn) {
		return true
	}
	return false
}

func exprContainsTenant(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Eq:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == TenantColumn
		}
	case clause.IN:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == TenantColumn
		}
	case clause.Expr:
		return strings.Contains(e.SQL, TenantColumn)
	case clause.AndConditions:
		for _, cond := range e.Exprs {
			if exprContainsTenant(cond) {
				return true
			}
		}
	case clause.OrConditions:
		for _, cond := range e.Exprs {
			if exprContainsTenant(cond) {
				return true
			}
		}
	}
	return false
}
