package identity

import (
	"context"

	"go.uber.org/zap"

	"github.com/vendorhub/backend/internal/domain/identity"
	"github.com/vendorhub/backend/internal/domain/shared"
	"github.com/vendorhub/backend/internal/infrastructure/auth"
	"github.com/vendorhub/backend/internal/infrastructure/tenantctx"
)

// AuthService handles authentication operations
type AuthService struct {
	tenantRepo identity.TenantRepository
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	tenantRepo identity.TenantRepository,
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		tenantRepo: tenantRepo,
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
	}
}

// Login authenticates a user within a tenant and returns a token pair.
// The user lookup runs under the tenant's identity so credentials from
// one tenant can never match an account in another.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	tenant, err := s.tenantRepo.FindByCode(ctx, input.TenantCode)
	if err != nil {
		s.logger.Warn("Login attempt for unknown tenant", zap.String("tenant_code", input.TenantCode))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid credentials")
	}
	if !tenant.IsOperational() {
		s.logger.Warn("Login attempt for non-operational tenant",
			zap.String("tenant_code", tenant.Code),
			zap.String("status", string(tenant.Status)))
		return nil, shared.NewDomainError("TENANT_INACTIVE", "Tenant is not active")
	}

	tctx := tenantctx.WithIdentity(ctx, tenantctx.Identity{
		TenantID:   tenant.ID,
		SchemaName: tenant.SchemaName,
	})

	user, err := s.userRepo.FindByUsername(tctx, input.Username)
	if err != nil {
		s.logger.Warn("User not found during login", zap.String("username", input.Username))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid credentials")
	}

	if user.IsLocked() {
		s.logger.Warn("Login attempt for locked account", zap.String("username", input.Username))
		return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked, try again later")
	}
	if user.Status == identity.UserStatusDeactivated {
		return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	}

	if !user.CheckPassword(input.Password) {
		user.RecordFailedLogin()
		if err := s.userRepo.Update(tctx, user); err != nil {
			s.logger.Error("Failed to record login failure", zap.Error(err))
		}
		s.logger.Warn("Invalid password attempt",
			zap.String("username", input.Username),
			zap.Int("failed_attempts", user.FailedAttempts))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid credentials")
	}

	user.RecordLogin()
	if err := s.userRepo.Update(tctx, user); err != nil {
		s.logger.Error("Failed to record login", zap.Error(err))
	}

	tokens, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID:     tenant.ID,
		TenantSchema: tenant.SchemaName,
		UserID:       user.ID,
		Username:     user.Username,
		Permissions:  user.Permissions,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in",
		zap.String("tenant_code", tenant.Code),
		zap.String("username", user.Username))

	return &LoginResult{
		Tokens: tokens,
		User:   ToUserDTO(user),
	}, nil
}

// Refresh exchanges a refresh token for a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			s.logger.Error("Token blacklist check failed", zap.Error(err))
			return nil, err
		}
		if !revoked {
			revoked, err = s.blacklist.IsUserRevoked(ctx, claims.UserID, claims.GetIssuedAtTime())
			if err != nil {
				s.logger.Error("Token blacklist check failed", zap.Error(err))
				return nil, err
			}
		}
		if revoked {
			return nil, auth.ErrTokenBlacklisted
		}
	}

	return s.jwtService.RefreshTokenPair(refreshToken, claims.Permissions)
}

// Logout revokes both tokens of a session
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if s.blacklist == nil {
		return nil
	}

	if claims, err := s.jwtService.ValidateAccessToken(accessToken); err == nil {
		if err := s.blacklist.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
			return err
		}
	}
	if claims, err := s.jwtService.ValidateRefreshToken(refreshToken); err == nil {
		if err := s.blacklist.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
			return err
		}
	}
	return nil
}
