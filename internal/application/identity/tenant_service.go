package identity

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vendorhub/backend/internal/domain/identity"
	"github.com/vendorhub/backend/internal/domain/shared"
	"github.com/vendorhub/backend/internal/infrastructure/tenantctx"
)

// TenantService handles tenant lifecycle operations. It operates at the
// platform level, outside any single tenant's scope.
type TenantService struct {
	tenantRepo identity.TenantRepository
	userRepo   identity.UserRepository
	logger     *zap.Logger
}

// NewTenantService creates a new tenant service
func NewTenantService(
	tenantRepo identity.TenantRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *TenantService {
	return &TenantService{
		tenantRepo: tenantRepo,
		userRepo:   userRepo,
		logger:     logger,
	}
}

// RegisterTenant onboards a new tenant together with its admin user.
// The admin user is created under the freshly registered tenant's
// identity so it lands in the correct scope.
func (s *TenantService) RegisterTenant(ctx context.Context, input RegisterTenantInput) (*TenantDTO, error) {
	if existing, err := s.tenantRepo.FindByCode(ctx, input.Code); err == nil && existing != nil {
		return nil, shared.NewDomainError("TENANT_CODE_EXISTS", "Tenant code is already in use")
	}

	var tenant *identity.Tenant
	var err error
	if input.TrialDays > 0 {
		tenant, err = identity.NewTrialTenant(input.Code, input.Name, input.TrialDays)
	} else {
		tenant, err = identity.NewTenant(input.Code, input.Name)
	}
	if err != nil {
		return nil, err
	}

	admin, err := identity.NewUser(tenant.ID, input.AdminUsername, input.AdminPassword)
	if err != nil {
		return nil, err
	}
	if err := admin.Activate(); err != nil {
		return nil, err
	}
	admin.GrantPermission("admin")

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		s.logger.Error("Failed to create tenant", zap.Error(err), zap.String("code", input.Code))
		return nil, err
	}

	tctx := tenantctx.WithIdentity(ctx, tenantctx.Identity{
		TenantID:   tenant.ID,
		SchemaName: tenant.SchemaName,
	})
	if err := s.userRepo.Create(tctx, admin); err != nil {
		s.logger.Error("Failed to create admin user", zap.Error(err), zap.String("tenant_code", tenant.Code))
		// A tenant without its admin cannot be logged into and its code is
		// taken; remove the row so registration can be retried.
		if delErr := s.tenantRepo.Delete(ctx, tenant.ID); delErr != nil {
			s.logger.Error("Failed to roll back tenant registration",
				zap.Error(delErr), zap.String("tenant_code", tenant.Code))
		}
		return nil, err
	}

	s.logger.Info("Tenant registered",
		zap.String("tenant_code", tenant.Code),
		zap.String("schema", tenant.SchemaName),
		zap.String("plan", string(tenant.Plan)))

	dto := ToTenantDTO(tenant)
	return &dto, nil
}

// GetTenant returns a tenant by ID
func (s *TenantService) GetTenant(ctx context.Context, id uuid.UUID) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToTenantDTO(tenant)
	return &dto, nil
}

// GetTenantByCode returns a tenant by its code
func (s *TenantService) GetTenantByCode(ctx context.Context, code string) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	dto := ToTenantDTO(tenant)
	return &dto, nil
}

// ListTenants returns tenants matching the filter
func (s *TenantService) ListTenants(ctx context.Context, filter shared.Filter) (*shared.Paginated[TenantDTO], error) {
	page, err := s.tenantRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	dtos := make([]TenantDTO, 0, len(page.Items))
	for _, t := range page.Items {
		dtos = append(dtos, ToTenantDTO(t))
	}
	result := shared.NewPaginated(dtos, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// UpdateTenant renames a tenant
func (s *TenantService) UpdateTenant(ctx context.Context, id uuid.UUID, name string) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tenant.Update(name); err != nil {
		return nil, err
	}
	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, err
	}
	dto := ToTenantDTO(tenant)
	return &dto, nil
}

// SetTenantPlan changes a tenant's subscription plan
func (s *TenantService) SetTenantPlan(ctx context.Context, id uuid.UUID, plan identity.TenantPlan) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tenant.SetPlan(plan); err != nil {
		return nil, err
	}
	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, err
	}
	s.logger.Info("Tenant plan changed",
		zap.String("tenant_code", tenant.Code),
		zap.String("plan", string(plan)))
	dto := ToTenantDTO(tenant)
	return &dto, nil
}

// SuspendTenant blocks all access for a tenant
func (s *TenantService) SuspendTenant(ctx context.Context, id uuid.UUID) error {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := tenant.Suspend(); err != nil {
		return err
	}
	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return err
	}
	s.logger.Warn("Tenant suspended", zap.String("tenant_code", tenant.Code))
	return nil
}

// ActivateTenant restores access for a suspended or inactive tenant
func (s *TenantService) ActivateTenant(ctx context.Context, id uuid.UUID) error {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := tenant.Activate(); err != nil {
		return err
	}
	return s.tenantRepo.Update(ctx, tenant)
}

// DeactivateTenant retires a tenant
func (s *TenantService) DeactivateTenant(ctx context.Context, id uuid.UUID) error {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := tenant.Deactivate(); err != nil {
		return err
	}
	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return err
	}
	s.logger.Info("Tenant deactivated", zap.String("tenant_code", tenant.Code))
	return nil
}
