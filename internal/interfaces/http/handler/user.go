package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	identityapp "github.com/vendorhub/backend/internal/application/identity"
	"github.com/vendorhub/backend/internal/interfaces/http/dto"
)

// UserHandler handles user management endpoints within the active tenant
type UserHandler struct {
	BaseHandler
	userService *identityapp.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *identityapp.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ChangePasswordRequest carries a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

// GrantPermissionRequest carries a permission grant
type GrantPermissionRequest struct {
	Permission string `json:"permission" binding:"required,max=100"`
}

// Create creates a new user in the active tenant
func (h *UserHandler) Create(c *gin.Context) {
	var req identityapp.CreateUserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, user)
}

// Get returns a user by ID
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// List returns users in the active tenant
func (h *UserHandler) List(c *gin.Context) {
	filter, ok := bindListFilter(c, &h.BaseHandler)
	if !ok {
		return
	}

	page, err := h.userService.ListUsers(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Activate moves a pending user to active
func (h *UserHandler) Activate(c *gin.Context) {
	h.lifecycle(c, h.userService.ActivateUser)
}

// Deactivate disables a user account
func (h *UserHandler) Deactivate(c *gin.Context) {
	h.lifecycle(c, h.userService.DeactivateUser)
}

// Delete removes a user
func (h *UserHandler) Delete(c *gin.Context) {
	h.lifecycle(c, h.userService.DeleteUser)
}

// ChangePassword updates a user's password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// GrantPermission adds a permission to a user
func (h *UserHandler) GrantPermission(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req GrantPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.userService.GrantPermission(c.Request.Context(), id, req.Permission); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *UserHandler) lifecycle(c *gin.Context, op func(ctx context.Context, id uuid.UUID) error) {
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

func (h *UserHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid user ID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return uuid.Nil, false
	}
	return id, true
}
