package subscription

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vendorhub/backend/internal/domain/shared"
	"github.com/vendorhub/backend/internal/domain/subscription"
)

// Service handles subscription lifecycle for the active tenant
type Service struct {
	repo   subscription.Repository
	logger *zap.Logger
}

// NewService creates a new subscription service
func NewService(repo subscription.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Subscribe starts a subscription for the active tenant. A tenant can hold
// only one current subscription at a time.
func (s *Service) Subscribe(ctx context.Context, input SubscribeInput) (*SubscriptionDTO, error) {
	current, err := s.repo.FindCurrent(ctx)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if current != nil {
		return nil, shared.NewDomainError("SUBSCRIPTION_EXISTS", "Tenant already has a current subscription")
	}

	var sub *subscription.Subscription
	if input.TrialDays > 0 {
		sub, err = subscription.NewTrial(uuid.Nil, input.PlanCode,
			subscription.BillingPeriod(input.Period), input.Price, input.Currency, input.TrialDays)
	} else {
		sub, err = subscription.New(uuid.Nil, input.PlanCode,
			subscription.BillingPeriod(input.Period), input.Price, input.Currency)
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		s.logger.Error("Failed to create subscription", zap.Error(err), zap.String("plan", input.PlanCode))
		return nil, err
	}

	s.logger.Info("Subscription started",
		zap.String("plan", sub.PlanCode),
		zap.String("status", string(sub.Status)))
	dto := ToSubscriptionDTO(sub)
	return &dto, nil
}

// GetCurrent returns the active tenant's current subscription
func (s *Service) GetCurrent(ctx context.Context) (*SubscriptionDTO, error) {
	sub, err := s.repo.FindCurrent(ctx)
	if err != nil {
		return nil, err
	}
	dto := ToSubscriptionDTO(sub)
	return &dto, nil
}

// List returns the tenant's subscription history
func (s *Service) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[SubscriptionDTO], error) {
	page, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	dtos := make([]SubscriptionDTO, 0, len(page.Items))
	for _, sub := range page.Items {
		dtos = append(dtos, ToSubscriptionDTO(sub))
	}
	result := shared.NewPaginated(dtos, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// Activate converts a trialing or past-due subscription to active
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (*SubscriptionDTO, error) {
	return s.transition(ctx, id, (*subscription.Subscription).Activate)
}

// MarkPastDue records a missed payment
func (s *Service) MarkPastDue(ctx context.Context, id uuid.UUID) (*SubscriptionDTO, error) {
	return s.transition(ctx, id, (*subscription.Subscription).MarkPastDue)
}

// Cancel cancels a subscription at the end of the current period
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*SubscriptionDTO, error) {
	dto, err := s.transition(ctx, id, (*subscription.Subscription).Cancel)
	if err == nil {
		s.logger.Info("Subscription cancelled", zap.String("plan", dto.PlanCode))
	}
	return dto, err
}

// Renew rolls an active subscription into its next billing period
func (s *Service) Renew(ctx context.Context, id uuid.UUID) (*SubscriptionDTO, error) {
	return s.transition(ctx, id, (*subscription.Subscription).Renew)
}

// ChangePlan switches the subscription to another plan mid-cycle
func (s *Service) ChangePlan(ctx context.Context, id uuid.UUID, input ChangePlanInput) (*SubscriptionDTO, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sub.ChangePlan(input.PlanCode, input.Price); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}
	dto := ToSubscriptionDTO(sub)
	return &dto, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, op func(*subscription.Subscription) error) (*SubscriptionDTO, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := op(sub); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}
	dto := ToSubscriptionDTO(sub)
	return &dto, nil
}
