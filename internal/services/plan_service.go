package services

import (
	"context"

	"paygate_backend/internal/models"
	"paygate_backend/internal/repositories"
)

// PlanSource is what the plan service reads from: the gorm repository, or
// the redis cache wrapped around it.
type PlanSource interface {
	GetPlan(ctx context.Context, planID string) (*models.SubscriptionPlan, error)
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
}

type PlanService struct {
	source PlanSource
}

func NewPlanService(source PlanSource) *PlanService {
	return &PlanService{source: source}
}

func (s *PlanService) GetPlan(ctx context.Context, planID string) (*models.SubscriptionPlan, error) {
	return s.source.GetPlan(ctx, planID)
}

func (s *PlanService) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	return s.source.ListPlans(ctx)
}

var _ repositories.PlanCatalog = (*PlanService)(nil)
