package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	vendorapp "github.com/vendorhub/backend/internal/application/vendor"
	"github.com/vendorhub/backend/internal/interfaces/http/dto"
)

// VendorHandler handles vendor management endpoints
type VendorHandler struct {
	BaseHandler
	vendorService *vendorapp.Service
}

// NewVendorHandler creates a new VendorHandler
func NewVendorHandler(vendorService *vendorapp.Service) *VendorHandler {
	return &VendorHandler{vendorService: vendorService}
}

// Create creates a new vendor in draft state
func (h *VendorHandler) Create(c *gin.Context) {
	var req vendorapp.CreateVendorInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	v, err := h.vendorService.CreateVendor(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, v)
}

// Get returns a vendor by ID
func (h *VendorHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	v, err := h.vendorService.GetVendor(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, v)
}

// GetByCode returns a vendor by its code
func (h *VendorHandler) GetByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		h.BadRequest(c, "Vendor code is required")
		return
	}

	v, err := h.vendorService.GetVendorByCode(c.Request.Context(), code)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, v)
}

// List returns vendors matching the filter
func (h *VendorHandler) List(c *gin.Context) {
	filter, ok := bindListFilter(c, &h.BaseHandler)
	if !ok {
		return
	}

	page, err := h.vendorService.ListVendors(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update changes a vendor's names
func (h *VendorHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req vendorapp.UpdateVendorInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	v, err := h.vendorService.UpdateVendor(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, v)
}

// AddRegistration attaches a GST registration to a vendor
func (h *VendorHandler) AddRegistration(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req vendorapp.AddRegistrationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	v, err := h.vendorService.AddRegistration(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, v)
}

// RemoveRegistration detaches a GST registration from a vendor
func (h *VendorHandler) RemoveRegistration(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	registrationID, err := uuid.Parse(c.Param("registration_id"))
	if err != nil {
		h.BadRequest(c, "Invalid registration ID")
		return
	}

	v, err := h.vendorService.RemoveRegistration(c.Request.Context(), id, registrationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, v)
}

// Activate moves a vendor to active
func (h *VendorHandler) Activate(c *gin.Context) {
	h.lifecycle(c, h.vendorService.ActivateVendor)
}

// Deactivate retires a vendor
func (h *VendorHandler) Deactivate(c *gin.Context) {
	h.lifecycle(c, h.vendorService.DeactivateVendor)
}

// Block blocks a vendor
func (h *VendorHandler) Block(c *gin.Context) {
	h.lifecycle(c, h.vendorService.BlockVendor)
}

// Delete removes a vendor
func (h *VendorHandler) Delete(c *gin.Context) {
	h.lifecycle(c, h.vendorService.DeleteVendor)
}

// Import accepts a batch of vendors for background processing. The batch
// is validated synchronously and persisted by the worker pool, so a 202
// means accepted, not written.
func (h *VendorHandler) Import(c *gin.Context) {
	var req vendorapp.ImportVendorsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.IdempotencyKey = c.GetHeader("X-Idempotency-Key")

	accepted, err := h.vendorService.ImportVendors(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(gin.H{"accepted": accepted}))
}

// ListAcrossTenants returns vendors from all tenants for platform audits
func (h *VendorHandler) ListAcrossTenants(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			h.BadRequest(c, "Invalid limit")
			return
		}
		limit = parsed
	}

	rows, err := h.vendorService.ListAcrossTenants(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, rows)
}

func (h *VendorHandler) lifecycle(c *gin.Context, op func(ctx context.Context, id uuid.UUID) error) {
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

func (h *VendorHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID")
		return uuid.Nil, false
	}
	return id, true
}
