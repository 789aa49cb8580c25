package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	subscriptionapp "github.com/vendorhub/backend/internal/application/subscription"
	"github.com/vendorhub/backend/internal/interfaces/http/dto"
)

// SubscriptionHandler handles subscription endpoints for the active tenant
type SubscriptionHandler struct {
	BaseHandler
	subscriptionService *subscriptionapp.Service
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscriptionService *subscriptionapp.Service) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// Subscribe creates a subscription for the active tenant
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req subscriptionapp.SubscribeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sub, err := h.subscriptionService.Subscribe(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, sub)
}

// GetCurrent returns the tenant's current subscription
func (h *SubscriptionHandler) GetCurrent(c *gin.Context) {
	sub, err := h.subscriptionService.GetCurrent(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sub)
}

// List returns the tenant's subscription history
func (h *SubscriptionHandler) List(c *gin.Context) {
	filter, ok := bindListFilter(c, &h.BaseHandler)
	if !ok {
		return
	}

	page, err := h.subscriptionService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Activate moves a subscription to active
func (h *SubscriptionHandler) Activate(c *gin.Context) {
	h.transition(c, h.subscriptionService.Activate)
}

// MarkPastDue flags a subscription after a failed charge
func (h *SubscriptionHandler) MarkPastDue(c *gin.Context) {
	h.transition(c, h.subscriptionService.MarkPastDue)
}

// Cancel cancels a subscription
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	h.transition(c, h.subscriptionService.Cancel)
}

// Renew rolls the subscription into its next billing period
func (h *SubscriptionHandler) Renew(c *gin.Context) {
	h.transition(c, h.subscriptionService.Renew)
}

// ChangePlan moves a subscription to a different plan
func (h *SubscriptionHandler) ChangePlan(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req subscriptionapp.ChangePlanInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sub, err := h.subscriptionService.ChangePlan(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sub)
}

func (h *SubscriptionHandler) transition(c *gin.Context, op func(ctx context.Context, id uuid.UUID) (*subscriptionapp.SubscriptionDTO, error)) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	sub, err := op(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sub)
}

func (h *SubscriptionHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid subscription ID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID")
		return uuid.Nil, false
	}
	return id, true
}
