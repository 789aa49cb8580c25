package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vendorhub/backend/internal/domain/subscription"
)

// Subscription row for the subscriptions table
type Subscription struct {
	TenantModel
	PlanCode     string          `gorm:"type:varchar(50);not null;index"`
	Status       string          `gorm:"type:varchar(20);not null;default:'active';index"`
	Period       string          `gorm:"type:varchar(10);not null"`
	Price        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency     string          `gorm:"type:varchar(3);not null"`
	PeriodStart  time.Time       `gorm:"not null"`
	PeriodEnd    time.Time       `gorm:"not null;index"`
	CancelledAt  *time.Time
	TrialEndsAt  *time.Time
	GracePeriods int `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}

// ToDomain converts the persistence model to the domain aggregate
func (m *Subscription) ToDomain() *subscription.Subscription {
	s := &subscription.Subscription{
		PlanCode:     m.PlanCode,
		Status:       subscription.Status(m.Status),
		Period:       subscription.BillingPeriod(m.Period),
		Price:        m.Price,
		Currency:     m.Currency,
		PeriodStart:  m.PeriodStart,
		PeriodEnd:    m.PeriodEnd,
		CancelledAt:  m.CancelledAt,
		TrialEndsAt:  m.TrialEndsAt,
		GracePeriods: m.GracePeriods,
	}
	m.PopulateTenantAggregateRoot(&s.TenantAggregateRoot)
	return s
}

// SubscriptionFromDomain converts the domain aggregate to a persistence model
func SubscriptionFromDomain(s *subscription.Subscription) *Subscription {
	m := &Subscription{
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
	}
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	return m
}
