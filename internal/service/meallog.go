package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/macromates/nutribuddy/internal/apperror"
	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/nutrition"
	"github.com/macromates/nutribuddy/internal/repository"
)

// NutrientInput is one nutrient as submitted. Quantity is a pointer so a
// missing quantity can be told apart from zero.
type NutrientInput struct {
	Name     string
	Category string
	Quantity *float64
	Unit     string
}

type MealLogInput struct {
	ClientID  int64
	Notes     *string
	LoggedAt  *model.DateTime // defaults to now
	Nutrients []NutrientInput
}

// MealLogUpdate is a partial meal log update. When ReplaceNutrients is set
// the stored nutrients are replaced by Nutrients, which may be empty.
type MealLogUpdate struct {
	LoggedAt         *model.DateTime
	Notes            *string
	ClientID         *int64
	Nutrients        []NutrientInput
	ReplaceNutrients bool
}

type MealLogService struct {
	meals  repository.MealLogRepository
	logger *slog.Logger
	clock  clock
}

func NewMealLogService(meals repository.MealLogRepository, logger *slog.Logger) *MealLogService {
	return &MealLogService{meals: meals, logger: logger}
}

// List returns one client's meal logs, newest first, within an optional
// inclusive day range.
func (s *MealLogService) List(ctx context.Context, filter repository.MealLogFilter) ([]model.MealLog, error) {
	if filter.ClientID == 0 {
		return nil, apperror.ValidationFailed("client_id", "client_id parameter is required")
	}
	if err := requireID("client_id", filter.ClientID); err != nil {
		return nil, err
	}
	if err := checkRange(filter.From, filter.To, "date_from"); err != nil {
		return nil, err
	}
	return s.meals.ListMealLogs(ctx, filter)
}

func (s *MealLogService) Get(ctx context.Context, id int64) (*model.MealLog, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	return s.meals.GetMealLog(ctx, id)
}

// Create stores a meal log with its nutrients in one write. The client must
// exist.
func (s *MealLogService) Create(ctx context.Context, in MealLogInput) (*model.MealLog, error) {
	if in.ClientID == 0 || in.Notes == nil {
		return nil, apperror.ValidationFailed("client_id", "client_id and notes are required fields")
	}
	if err := requireID("client_id", in.ClientID); err != nil {
		return nil, err
	}

	nutrients, err := validateNutrients(in.Nutrients)
	if err != nil {
		return nil, err
	}

	loggedAt := model.NewDateTime(s.clock.now())
	if in.LoggedAt != nil {
		loggedAt = model.NewDateTime(in.LoggedAt.Time)
	}

	meal := &model.MealLog{
		LoggedAt:  loggedAt,
		Notes:     *in.Notes,
		ClientID:  in.ClientID,
		Nutrients: nutrients,
	}
	if err := s.meals.CreateMealLog(ctx, meal); err != nil {
		return nil, err
	}

	s.logger.Info("meal log created",
		slog.Int64("id", meal.ID),
		slog.Int64("clientID", meal.ClientID),
		slog.Int("nutrients", len(meal.Nutrients)),
	)
	return meal, nil
}

// Update applies a partial update; a nutrients list replaces the whole set.
// Nothing is written when any nutrient is invalid.
func (s *MealLogService) Update(ctx context.Context, id int64, in MealLogUpdate) (UpdateResult, error) {
	if err := requireID("id", id); err != nil {
		return UpdateResult{}, err
	}

	patch := repository.MealLogPatch{
		Notes:            in.Notes,
		ClientID:         in.ClientID,
		ReplaceNutrients: in.ReplaceNutrients,
	}
	if in.LoggedAt != nil {
		dt := model.NewDateTime(in.LoggedAt.Time)
		patch.LoggedAt = &dt
	}
	if in.ClientID != nil {
		if err := requireID("client_id", *in.ClientID); err != nil {
			return UpdateResult{}, err
		}
	}
	if in.ReplaceNutrients {
		nutrients, err := validateNutrients(in.Nutrients)
		if err != nil {
			return UpdateResult{}, err
		}
		patch.Nutrients = nutrients
	}

	if patch.Empty() {
		if _, err := s.meals.GetMealLog(ctx, id); err != nil {
			return UpdateResult{}, err
		}
		return noFieldsResult(), nil
	}

	if err := s.meals.UpdateMealLog(ctx, id, patch); err != nil {
		return UpdateResult{}, err
	}

	s.logger.Info("meal log updated",
		slog.Int64("id", id),
		slog.Bool("nutrientsReplaced", in.ReplaceNutrients),
	)
	return updatedResult(true, "Meal log"), nil
}

func (s *MealLogService) Delete(ctx context.Context, id int64) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	if err := s.meals.DeleteMealLog(ctx, id); err != nil {
		return err
	}
	s.logger.Info("meal log deleted", slog.Int64("id", id))
	return nil
}

// DailySummary totals a client's nutrients for one day, grouped by category.
func (s *MealLogService) DailySummary(ctx context.Context, clientID int64, day model.Date) (*model.DailySummary, error) {
	if err := requireID("client_id", clientID); err != nil {
		return nil, err
	}

	meals, totals, err := s.meals.DailyNutrientTotals(ctx, clientID, day)
	if err != nil {
		return nil, err
	}

	summary := &model.DailySummary{
		ClientID:         clientID,
		Date:             day,
		MealsCount:       meals,
		NutrientsSummary: nutrition.GroupByCategory(totals),
	}
	if meals == 0 {
		summary.Message = "No meals recorded for this day"
	}
	return summary, nil
}

// validateNutrients requires every field of every nutrient and rejects
// negative quantities. The returned slice is never nil.
func validateNutrients(in []NutrientInput) ([]model.Nutrient, error) {
	out := make([]model.Nutrient, 0, len(in))
	for i, n := range in {
		field := fmt.Sprintf("nutrients[%d]", i)
		if !trimmedPtr(&n.Name) || !trimmedPtr(&n.Category) || !trimmedPtr(&n.Unit) || n.Quantity == nil {
			return nil, apperror.ValidationFailed(field,
				fmt.Sprintf("%s: name, category, quantity and unit are required", field))
		}
		if *n.Quantity < 0 {
			return nil, apperror.ValidationFailed(field, fmt.Sprintf("%s: quantity must not be negative", field))
		}
		out = append(out, model.Nutrient{
			Name:     n.Name,
			Category: n.Category,
			Quantity: *n.Quantity,
			Unit:     n.Unit,
		})
	}
	return out, nil
}
