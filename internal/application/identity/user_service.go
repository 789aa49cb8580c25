package identity

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vendorhub/backend/internal/domain/identity"
	"github.com/vendorhub/backend/internal/domain/shared"
	"github.com/vendorhub/backend/internal/infrastructure/tenantctx"
)

// UserService handles user management within the active tenant
type UserService struct {
	userRepo identity.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo identity.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// CreateUser creates a new user in the active tenant
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*UserDTO, error) {
	ident := tenantctx.IdentityFromContext(ctx)
	if ident.IsZero() {
		return nil, shared.NewDomainError("TENANT_REQUIRED", "No active tenant")
	}

	if existing, err := s.userRepo.FindByUsername(ctx, input.Username); err == nil && existing != nil {
		return nil, shared.NewDomainError("USERNAME_EXISTS", "Username is already in use")
	}

	user, err := identity.NewUser(ident.TenantID, input.Username, input.Password)
	if err != nil {
		return nil, err
	}
	user.Email = input.Email
	user.DisplayName = input.DisplayName

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to create user", zap.Error(err), zap.String("username", input.Username))
		return nil, err
	}

	s.logger.Info("User created", zap.String("username", user.Username))
	dto := ToUserDTO(user)
	return &dto, nil
}

// GetUser returns a user by ID within the active tenant
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// ListUsers returns users in the active tenant matching the filter
func (s *UserService) ListUsers(ctx context.Context, filter shared.Filter) (*shared.Paginated[UserDTO], error) {
	page, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	dtos := make([]UserDTO, 0, len(page.Items))
	for _, u := range page.Items {
		dtos = append(dtos, ToUserDTO(u))
	}
	result := shared.NewPaginated(dtos, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// ActivateUser moves a pending user to active
func (s *UserService) ActivateUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := user.Activate(); err != nil {
		return err
	}
	return s.userRepo.Update(ctx, user)
}

// DeactivateUser disables a user account
func (s *UserService) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := user.Deactivate(); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info("User deactivated", zap.String("username", user.Username))
	return nil
}

// ChangePassword updates a user's password
func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !user.CheckPassword(currentPassword) {
		return shared.NewDomainError("INVALID_CREDENTIALS", "Current password is incorrect")
	}
	if err := user.ChangePassword(newPassword); err != nil {
		return err
	}
	return s.userRepo.Update(ctx, user)
}

// GrantPermission adds a permission to a user
func (s *UserService) GrantPermission(ctx context.Context, id uuid.UUID, permission string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	user.GrantPermission(permission)
	return s.userRepo.Update(ctx, user)
}

// DeleteUser removes a user from the active tenant
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.userRepo.Delete(ctx, id)
}
