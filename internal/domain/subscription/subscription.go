package subscription

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendorhub/backend/internal/domain/shared"
)

// Status represents the lifecycle status of a subscription
type Status string

const (
	StatusTrialing  Status = "trialing"
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// BillingPeriod represents how often a subscription renews
type BillingPeriod string

const (
	PeriodMonthly BillingPeriod = "monthly"
	PeriodYearly  BillingPeriod = "yearly"
)

// Subscription represents a tenant's paid plan enrollment.
// It is tenant-scoped: the owning tenant is stamped at first write when
// not set explicitly.
type Subscription struct {
	shared.TenantAggregateRoot
	PlanCode     string
	Status       Status
	Period       BillingPeriod
	Price        decimal.Decimal
	Currency     string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	CancelledAt  *time.Time
	TrialEndsAt  *time.Time
	GracePeriods int
}

// New creates an active subscription starting now
func New(tenantID uuid.UUID, planCode string, period BillingPeriod, price decimal.Decimal, currency string) (*Subscription, error) {
	if planCode == "" {
		return nil, shared.NewDomainError("INVALID_PLAN_CODE", "Plan code cannot be empty")
	}
	if err := validatePeriod(period); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter code")
	}

	now := time.Now()
	return &Subscription{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PlanCode:            planCode,
		Status:              StatusActive,
		Period:              period,
		Price:               price,
		Currency:            currency,
		PeriodStart:         now,
		PeriodEnd:           periodEnd(now, period),
	}, nil
}

// NewTrial creates a trialing subscription with a zero price until the
// trial ends.
func NewTrial(tenantID uuid.UUID, planCode string, period BillingPeriod, price decimal.Decimal, currency string, trialDays int) (*Subscription, error) {
	if trialDays <= 0 {
		return nil, shared.NewDomainError("INVALID_TRIAL_DAYS", "Trial days must be positive")
	}

	sub, err := New(tenantID, planCode, period, price, currency)
	if err != nil {
		return nil, err
	}

	sub.Status = StatusTrialing
	trialEnds := time.Now().AddDate(0, 0, trialDays)
	sub.TrialEndsAt = &trialEnds

	return sub, nil
}

// Activate converts a trialing or past-due subscription to active
func (s *Subscription) Activate() error {
	switch s.Status {
	case StatusTrialing, StatusPastDue:
	case StatusActive:
		return shared.NewDomainError("ALREADY_ACTIVE", "Subscription is already active")
	default:
		return shared.ErrInvalidState
	}

	s.Status = StatusActive
	s.TrialEndsAt = nil
	s.GracePeriods = 0
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// MarkPastDue flags a payment failure. After three consecutive failures
// the subscription expires.
func (s *Subscription) MarkPastDue() error {
	if s.Status != StatusActive && s.Status != StatusPastDue {
		return shared.ErrInvalidState
	}

	s.GracePeriods++
	if s.GracePeriods >= 3 {
		s.Status = StatusExpired
	} else {
		s.Status = StatusPastDue
	}
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// Cancel cancels the subscription at the end of the current period
func (s *Subscription) Cancel() error {
	switch s.Status {
	case StatusCancelled:
		return shared.NewDomainError("ALREADY_CANCELLED", "Subscription is already cancelled")
	case StatusExpired:
		return shared.ErrInvalidState
	}

	now := time.Now()
	s.Status = StatusCancelled
	s.CancelledAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()

	return nil
}

// Renew rolls the billing window forward by one period
func (s *Subscription) Renew() error {
	if s.Status != StatusActive {
		return shared.ErrInvalidState
	}

	s.PeriodStart = s.PeriodEnd
	s.PeriodEnd = periodEnd(s.PeriodStart, s.Period)
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// ChangePlan switches the subscription to a new plan and price, taking
// effect immediately.
func (s *Subscription) ChangePlan(planCode string, price decimal.Decimal) error {
	if s.Status != StatusActive && s.Status != StatusTrialing {
		return shared.ErrInvalidState
	}
	if planCode == "" {
		return shared.NewDomainError("INVALID_PLAN_CODE", "Plan code cannot be empty")
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	s.PlanCode = planCode
	s.Price = price
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// IsCurrent reports whether the subscription covers the given instant
func (s *Subscription) IsCurrent(at time.Time) bool {
	if s.Status != StatusActive && s.Status != StatusTrialing {
		return false
	}
	return !at.Before(s.PeriodStart) && at.Before(s.PeriodEnd)
}

func periodEnd(start time.Time, period BillingPeriod) time.Time {
	if period == PeriodYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

func validatePeriod(period BillingPeriod) error {
	switch period {
	case PeriodMonthly, PeriodYearly:
		return nil
	default:
		return shared.NewDomainError("INVALID_PERIOD", "Billing period must be monthly or yearly")
	}
}
