package subscription

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendorhub/backend/internal/domain/subscription"
)

// SubscribeInput carries data for starting a subscription
type SubscribeInput struct {
	PlanCode  string          `json:"plan_code" binding:"required,max=50"`
	Period    string          `json:"period" binding:"required,oneof=monthly yearly"`
	Price     decimal.Decimal `json:"price" binding:"required"`
	Currency  string          `json:"currency" binding:"required,len=3"`
	TrialDays int             `json:"trial_days" binding:"omitempty,min=1,max=90"`
}

// ChangePlanInput carries data for switching plans mid-cycle
type ChangePlanInput struct {
	PlanCode string          `json:"plan_code" binding:"required,max=50"`
	Price    decimal.Decimal `json:"price" binding:"required"`
}

// SubscriptionDTO is the outward representation of a subscription
type SubscriptionDTO struct {
	ID           uuid.UUID       `json:"id"`
	TenantID     uuid.UUID       `json:"tenant_id"`
	PlanCode     string          `json:"plan_code"`
	Status       string          `json:"status"`
	Period       string          `json:"period"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	PeriodStart  time.Time       `json:"period_start"`
	PeriodEnd    time.Time       `json:"period_end"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
	TrialEndsAt  *time.Time      `json:"trial_ends_at,omitempty"`
	GracePeriods int             `json:"grace_periods"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ToSubscriptionDTO maps a domain subscription to its DTO
func ToSubscriptionDTO(s *subscription.Subscription) SubscriptionDTO {
	return SubscriptionDTO{
		ID:           s.ID,
		TenantID:     s.TenantID,
		PlanCode:     s.PlanCode,
		Status:       string(s.Status),
		Period:       string(s.Period),
		Price:        s.Price,
		Currency:     s.Currency,
		PeriodStart:  s.PeriodStart,
		PeriodEnd:    s.PeriodEnd,
		CancelledAt:  s.CancelledAt,
		TrialEndsAt:  s.TrialEndsAt,
		GracePeriods: s.GracePeriods,
		CreatedAt:    s.CreatedAt,
	}
}
