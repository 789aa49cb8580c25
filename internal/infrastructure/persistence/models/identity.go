package models

import (
	"encoding/json"
	"time"

	"github.com/vendorhub/backend/internal/domain/identity"
)

// Tenant row for the tenants table. Tenants are platform-level and
// deliberately not tenant-scoped; they do not embed TenantModel.
type Tenant struct {
	AggregateModel
	Code         string     `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name         string     `gorm:"type:varchar(200);not null"`
	SchemaName   string     `gorm:"type:varchar(63);not null;uniqueIndex"`
	Status       string     `gorm:"type:varchar(20);not null;default:'active'"`
	Plan         string     `gorm:"type:varchar(20);not null;default:'free'"`
	ContactName  string     `gorm:"type:varchar(100)"`
	ContactEmail string     `gorm:"type:varchar(200)"`
	ExpiresAt    *time.Time `gorm:"index"`
	TrialEndsAt  *time.Time
	Notes        string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Tenant) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to the domain aggregate
func (m *Tenant) ToDomain() *identity.Tenant {
	t := &identity.Tenant{
		Code:         m.Code,
		Name:         m.Name,
		SchemaName:   m.SchemaName,
		Status:       identity.TenantStatus(m.Status),
		Plan:         identity.TenantPlan(m.Plan),
		ContactName:  m.ContactName,
		ContactEmail: m.ContactEmail,
		ExpiresAt:    m.ExpiresAt,
		TrialEndsAt:  m.TrialEndsAt,
		Notes:        m.Notes,
	}
	m.PopulateAggregateRoot(&t.BaseAggregateRoot)
	return t
}

// TenantFromDomain converts the domain aggregate to a persistence model
func TenantFromDomain(t *identity.Tenant) *Tenant {
	m := &Tenant{
		Code:         t.Code,
		Name:         t.Name,
		SchemaName:   t.SchemaName,
		Status:       string(t.Status),
		Plan:         string(t.Plan),
		ContactName:  t.ContactName,
		ContactEmail: t.ContactEmail,
		ExpiresAt:    t.ExpiresAt,
		TrialEndsAt:  t.TrialEndsAt,
		Notes:        t.Notes,
	}
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	return m
}

// User row for the users table. Usernames are unique per tenant.
type User struct {
	TenantModel
	Username       string `gorm:"type:varchar(50);not null;index"`
	Email          string `gorm:"type:varchar(200)"`
	PasswordHash   string `gorm:"type:varchar(100);not null"`
	DisplayName    string `gorm:"type:varchar(100)"`
	Status         string `gorm:"type:varchar(20);not null;default:'pending'"`
	Permissions    string `gorm:"type:text"` // JSON array
	LastLoginAt    *time.Time
	FailedAttempts int `gorm:"not null;default:0"`
	LockedUntil    *time.Time
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to the domain aggregate
func (m *User) ToDomain() *identity.User {
	var permissions []string
	if m.Permissions != "" {
		_ = json.Unmarshal([]byte(m.Permissions), &permissions)
	}

	u := &identity.User{
		Username:       m.Username,
		Email:          m.Email,
		PasswordHash:   m.PasswordHash,
		DisplayName:    m.DisplayName,
		Status:         identity.UserStatus(m.Status),
		Permissions:    permissions,
		LastLoginAt:    m.LastLoginAt,
		FailedAttempts: m.FailedAttempts,
		LockedUntil:    m.LockedUntil,
	}
	m.PopulateTenantAggregateRoot(&u.TenantAggregateRoot)
	return u
}

// UserFromDomain converts the domain aggregate to a persistence model
func UserFromDomain(u *identity.User) *User {
	permissions := "[]"
	if len(u.Permissions) > 0 {
		if raw, err := json.Marshal(u.Permissions); err == nil {
			permissions = string(raw)
		}
	}

	m := &User{
		Username:       u.Username,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		DisplayName:    u.DisplayName,
		Status:         string(u.Status),
		Permissions:    permissions,
		LastLoginAt:    u.LastLoginAt,
		FailedAttempts: u.FailedAttempts,
		LockedUntil:    u.LockedUntil,
	}
	m.FromDomainTenantAggregateRoot(u.TenantAggregateRoot)
	return m
}
