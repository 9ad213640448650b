package service

import (
	"context"
	"log/slog"

	"github.com/macromates/nutribuddy/internal/apperror"
	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/repository"
)

// PlanService manages the nutrition plans and progress reports that hang off
// a client. Either one makes the client archive instead of delete.
type PlanService struct {
	clients repository.ClientRepository
	plans   repository.PlanRepository
	logger  *slog.Logger
}

func NewPlanService(clients repository.ClientRepository, plans repository.PlanRepository, logger *slog.Logger) *PlanService {
	return &PlanService{clients: clients, plans: plans, logger: logger}
}

func (s *PlanService) requireClient(ctx context.Context, clientID int64) error {
	if err := requireID("id", clientID); err != nil {
		return err
	}
	_, err := s.clients.GetClient(ctx, clientID)
	return err
}

func (s *PlanService) ListPlans(ctx context.Context, clientID int64) ([]model.NutritionPlan, error) {
	if err := s.requireClient(ctx, clientID); err != nil {
		return nil, err
	}
	return s.plans.ListNutritionPlans(ctx, clientID)
}

func (s *PlanService) CreatePlan(ctx context.Context, plan model.NutritionPlan) (*model.NutritionPlan, error) {
	if !trimmedPtr(&plan.Title) {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if plan.DailyCalories <= 0 {
		return nil, apperror.ValidationFailed("daily_calories", "daily_calories must be positive")
	}
	if plan.StartDate.IsZero() {
		return nil, apperror.ValidationFailed("start_date", "start_date is required")
	}
	if err := checkRange(&plan.StartDate, plan.EndDate, "start_date"); err != nil {
		return nil, err
	}
	if err := s.requireClient(ctx, plan.ClientID); err != nil {
		return nil, err
	}

	if err := s.plans.CreateNutritionPlan(ctx, &plan); err != nil {
		return nil, err
	}
	s.logger.Info("nutrition plan created", slog.Int64("id", plan.ID), slog.Int64("clientID", plan.ClientID))
	return &plan, nil
}

func (s *PlanService) ListProgressReports(ctx context.Context, clientID int64) ([]model.ProgressReport, error) {
	if err := s.requireClient(ctx, clientID); err != nil {
		return nil, err
	}
	return s.plans.ListProgressReports(ctx, clientID)
}

func (s *PlanService) CreateProgressReport(ctx context.Context, report model.ProgressReport) (*model.ProgressReport, error) {
	if report.ReportDate.IsZero() {
		return nil, apperror.ValidationFailed("date", "date is required")
	}
	if report.WeightKg <= 0 {
		return nil, apperror.ValidationFailed("weight", "weight must be positive")
	}
	if bf := report.BodyFatPct; bf != nil && (*bf < 0 || *bf > 100) {
		return nil, apperror.ValidationFailed("body_fat_percentage", "body_fat_percentage must be between 0 and 100")
	}
	if err := s.requireClient(ctx, report.ClientID); err != nil {
		return nil, err
	}

	if err := s.plans.CreateProgressReport(ctx, &report); err != nil {
		return nil, err
	}
	s.logger.Info("progress report created", slog.Int64("id", report.ID), slog.Int64("clientID", report.ClientID))
	return &report, nil
}
