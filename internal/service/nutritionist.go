package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/macromates/nutribuddy/internal/apperror"
	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/nutrition"
	"github.com/macromates/nutribuddy/internal/repository"
)

const (
	DashboardRecentClients = 5
	RecentMealsShown       = 7
	TrendDays              = 30
)

// NutritionistService builds the nutritionist's views of clients, their
// meals and their progress against nutrient targets.
type NutritionistService struct {
	clients repository.ClientRepository
	meals   repository.MealLogRepository
	plans   repository.PlanRepository
	reports repository.NutritionistRepository
	logger  *slog.Logger
}

func NewNutritionistService(
	clients repository.ClientRepository,
	meals repository.MealLogRepository,
	plans repository.PlanRepository,
	reports repository.NutritionistRepository,
	logger *slog.Logger,
) *NutritionistService {
	return &NutritionistService{clients: clients, meals: meals, plans: plans, reports: reports, logger: logger}
}

func (s *NutritionistService) Dashboard(ctx context.Context) (*model.NutritionistDashboard, error) {
	total, err := s.clients.CountClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting clients: %w", err)
	}
	recent, err := s.reports.RecentClientActivity(ctx, DashboardRecentClients)
	if err != nil {
		return nil, err
	}
	return &model.NutritionistDashboard{TotalClients: total, RecentActivities: recent}, nil
}

// Clients lists every client with meal count and average calories per meal.
func (s *NutritionistService) Clients(ctx context.Context) ([]model.ClientOverview, error) {
	overviews, err := s.reports.ClientOverviews(ctx, nutrition.CalorieNames())
	if err != nil {
		return nil, err
	}
	for i := range overviews {
		overviews[i].AvgCalories = nutrition.Round2(overviews[i].AvgCalories)
	}
	return overviews, nil
}

// clientMeals loads the client (404 when missing) and all of its meals,
// newest first.
func (s *NutritionistService) clientMeals(ctx context.Context, clientID int64) (*model.Client, []model.MealLog, error) {
	if err := requireID("id", clientID); err != nil {
		return nil, nil, err
	}
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return nil, nil, err
	}
	meals, err := s.meals.ListMealLogs(ctx, repository.MealLogFilter{ClientID: clientID})
	if err != nil {
		return nil, nil, err
	}
	return client, meals, nil
}

// ClientDetail is the client with its latest meals and the macro totals of
// its most recent logged days.
func (s *NutritionistService) ClientDetail(ctx context.Context, clientID int64) (*model.ClientDetail, error) {
	client, meals, err := s.clientMeals(ctx, clientID)
	if err != nil {
		return nil, err
	}

	trends := nutrition.DailyTotals(meals, TrendDays)
	for i := range trends {
		trends[i].Calories = nutrition.Round2(trends[i].Calories)
		trends[i].Protein = nutrition.Round2(trends[i].Protein)
		trends[i].Carbs = nutrition.Round2(trends[i].Carbs)
		trends[i].Fats = nutrition.Round2(trends[i].Fats)
	}

	return &model.ClientDetail{
		Client:            *client,
		RecentMeals:       firstMeals(meals, RecentMealsShown),
		NutritionalTrends: trends,
	}, nil
}

// ClientProgress returns body measurements, newest first, and the nutrient
// targets the client's average daily intake falls short of.
func (s *NutritionistService) ClientProgress(ctx context.Context, clientID int64) (*model.ClientProgress, error) {
	_, meals, err := s.clientMeals(ctx, clientID)
	if err != nil {
		return nil, err
	}

	measurements, err := s.plans.ListProgressReports(ctx, clientID)
	if err != nil {
		return nil, err
	}
	targets, err := s.plans.ListNutrientTargets(ctx)
	if err != nil {
		return nil, err
	}

	return &model.ClientProgress{
		Measurements: measurements,
		Deficiencies: nutrition.Deficiencies(targets, meals),
	}, nil
}

// ClientNutrition is the macro overview of a client's meals in an optional
// inclusive day range.
func (s *NutritionistService) ClientNutrition(ctx context.Context, clientID int64, from, to *model.Date) (*model.ClientNutrition, error) {
	if err := checkRange(from, to, "date_from"); err != nil {
		return nil, err
	}
	if err := requireID("id", clientID); err != nil {
		return nil, err
	}
	if _, err := s.clients.GetClient(ctx, clientID); err != nil {
		return nil, err
	}

	meals, err := s.meals.ListMealLogs(ctx, repository.MealLogFilter{ClientID: clientID, From: from, To: to})
	if err != nil {
		return nil, err
	}

	return &model.ClientNutrition{
		Macronutrients: nutrition.MacroTotals(meals),
		Calories:       nutrition.DailyCalories(meals),
		RecentMeals:    firstMeals(meals, RecentMealsShown),
	}, nil
}

func (s *NutritionistService) Targets(ctx context.Context) ([]model.NutrientTarget, error) {
	return s.plans.ListNutrientTargets(ctx)
}

// SetTarget creates or replaces the daily reference intake of a nutrient.
func (s *NutritionistService) SetTarget(ctx context.Context, target model.NutrientTarget) (*model.NutrientTarget, error) {
	if !trimmedPtr(&target.Name) {
		return nil, apperror.ValidationFailed("nutrient_name", "nutrient_name is required")
	}
	if !trimmedPtr(&target.Unit) {
		return nil, apperror.ValidationFailed("unit", "unit is required")
	}
	if target.RecommendedAmount <= 0 {
		return nil, apperror.ValidationFailed("recommended_amount", "recommended_amount must be positive")
	}
	target.Name = strings.ToLower(target.Name)

	if err := s.plans.UpsertNutrientTarget(ctx, target); err != nil {
		return nil, err
	}
	s.logger.Info("nutrient target set",
		slog.String("nutrient", target.Name),
		slog.Float64("amount", target.RecommendedAmount),
	)
	return &target, nil
}

func firstMeals(meals []model.MealLog, n int) []model.MealLog {
	if len(meals) > n {
		return meals[:n]
	}
	return meals
}
