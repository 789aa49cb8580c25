package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendorhub/backend/internal/domain/identity"
	"github.com/vendorhub/backend/internal/infrastructure/auth"
)

// LoginInput carries credentials for authentication
type LoginInput struct {
	TenantCode string `json:"tenant_code" binding:"required"`
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// LoginResult is returned on successful authentication
type LoginResult struct {
	Tokens *auth.TokenPair `json:"tokens"`
	User   UserDTO         `json:"user"`
}

// RegisterTenantInput carries data for tenant onboarding
type RegisterTenantInput struct {
	Code          string `json:"code" binding:"required,max=50"`
	Name          string `json:"name" binding:"required,max=200"`
	AdminUsername string `json:"admin_username" binding:"required,min=3,max=50"`
	AdminPassword string `json:"admin_password" binding:"required,min=8,max=72"`
	TrialDays     int    `json:"trial_days" binding:"omitempty,min=1,max=90"`
}

// CreateUserInput carries data for user creation
type CreateUserInput struct {
	Username    string `json:"username" binding:"required,min=3,max=50"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	Email       string `json:"email" binding:"omitempty,email"`
	DisplayName string `json:"display_name" binding:"omitempty,max=100"`
}

// TenantDTO is the outward representation of a tenant
type TenantDTO struct {
	ID           uuid.UUID  `json:"id"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	SchemaName   string     `json:"schema_name"`
	Status       string     `json:"status"`
	Plan         string     `json:"plan"`
	ContactName  string     `json:"contact_name,omitempty"`
	ContactEmail string     `json:"contact_email,omitempty"`
	TrialEndsAt  *time.Time `json:"trial_ends_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// UserDTO is the outward representation of a user
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	Status      string     `json:"status"`
	Permissions []string   `json:"permissions,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToTenantDTO maps a domain tenant to its DTO
func ToTenantDTO(t *identity.Tenant) TenantDTO {
	return TenantDTO{
		ID:           t.ID,
		Code:         t.Code,
		Name:         t.Name,
		SchemaName:   t.SchemaName,
		Status:       string(t.Status),
		Plan:         string(t.Plan),
		ContactName:  t.ContactName,
		ContactEmail: t.ContactEmail,
		TrialEndsAt:  t.TrialEndsAt,
		CreatedAt:    t.CreatedAt,
	}
}

// ToUserDTO maps a domain user to its DTO
func ToUserDTO(u *identity.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Status:      string(u.Status),
		Permissions: u.Permissions,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
