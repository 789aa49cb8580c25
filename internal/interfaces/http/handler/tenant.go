package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	identityapp "github.com/vendorhub/backend/internal/application/identity"
	"github.com/vendorhub/backend/internal/domain/identity"
	"github.com/vendorhub/backend/internal/interfaces/http/dto"
)

// TenantHandler handles tenant management endpoints. These are platform
// administration surfaces, not tenant-scoped ones.
type TenantHandler struct {
	BaseHandler
	tenantService *identityapp.TenantService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenantService *identityapp.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// UpdateTenantRequest carries a tenant rename
type UpdateTenantRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

// SetPlanRequest carries a plan change
type SetPlanRequest struct {
	Plan string `json:"plan" binding:"required,oneof=free starter growth enterprise"`
}

// Register onboards a new tenant with its admin user
func (h *TenantHandler) Register(c *gin.Context) {
	var req identityapp.RegisterTenantInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenant, err := h.tenantService.RegisterTenant(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, tenant)
}

// Get returns a tenant by ID
func (h *TenantHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	tenant, err := h.tenantService.GetTenant(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tenant)
}

// List returns tenants matching the filter
func (h *TenantHandler) List(c *gin.Context) {
	filter, ok := bindListFilter(c, &h.BaseHandler)
	if !ok {
		return
	}

	page, err := h.tenantService.ListTenants(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update renames a tenant
func (h *TenantHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenant, err := h.tenantService.UpdateTenant(c.Request.Context(), id, req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tenant)
}

// SetPlan changes a tenant's subscription plan
func (h *TenantHandler) SetPlan(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req SetPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenant, err := h.tenantService.SetTenantPlan(c.Request.Context(), id, identity.TenantPlan(req.Plan))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tenant)
}

// Suspend blocks all access for a tenant
func (h *TenantHandler) Suspend(c *gin.Context) {
	h.lifecycle(c, h.tenantService.SuspendTenant)
}

// Activate restores access for a tenant
func (h *TenantHandler) Activate(c *gin.Context) {
	h.lifecycle(c, h.tenantService.ActivateTenant)
}

// Deactivate retires a tenant
func (h *TenantHandler) Deactivate(c *gin.Context) {
	h.lifecycle(c, h.tenantService.DeactivateTenant)
}

func (h *TenantHandler) lifecycle(c *gin.Context, op func(ctx context.Context, id uuid.UUID) error) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := op(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *TenantHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return uuid.Nil, false
	}
	return id, true
}
