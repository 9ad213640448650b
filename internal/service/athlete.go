package service

import (
	"context"
	"log/slog"

	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/nutrition"
	"github.com/macromates/nutribuddy/internal/repository"
)

// AthleteService computes the student athlete dashboard figures.
type AthleteService struct {
	athletes repository.AthleteRepository
	logger   *slog.Logger
}

func NewAthleteService(athletes repository.AthleteRepository, logger *slog.Logger) *AthleteService {
	return &AthleteService{athletes: athletes, logger: logger}
}

func (s *AthleteService) BMI(ctx context.Context) ([]model.AthleteBMI, error) {
	athletes, err := s.athletes.ListAthletes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.AthleteBMI, len(athletes))
	for i, a := range athletes {
		out[i] = model.AthleteBMI{
			AthleteID:     a.ID,
			Name:          a.Name,
			CalculatedBMI: nutrition.BMI(a.WeightKg, a.HeightCm),
		}
	}
	return out, nil
}

func (s *AthleteService) MaintenanceCalories(ctx context.Context) ([]model.AthleteMaintenance, error) {
	athletes, err := s.athletes.ListAthletes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.AthleteMaintenance, len(athletes))
	for i, a := range athletes {
		out[i] = model.AthleteMaintenance{
			AthleteID:           a.ID,
			Name:                a.Name,
			MaintenanceCalories: nutrition.MaintenanceCalories(a.Age, a.WeightKg, a.HeightCm, a.ActivityLevel),
		}
	}
	return out, nil
}

// WeightChange estimates the weight change over each workout plan from the
// meals logged inside its window. Plans without any logged meal are left
// out, since there is nothing to estimate from.
func (s *AthleteService) WeightChange(ctx context.Context) ([]model.WeightChangeEstimate, error) {
	totals, err := s.athletes.PlanIntakeTotals(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.WeightChangeEstimate, 0, len(totals))
	for _, t := range totals {
		if t.LoggedDays == 0 {
			continue
		}
		out = append(out, model.WeightChangeEstimate{
			AthleteID:         t.AthleteID,
			Name:              t.Name,
			Goal:              t.Goal,
			DurationDays:      nutrition.PlanDurationDays(t.StartDate, t.EndDate),
			EstimatedKgChange: nutrition.EstimatedWeightChange(t.TotalCalories, t.LoggedDays),
		})
	}
	return out, nil
}

// DailyMacroBreakdown returns per-day macro sums, newest day first.
func (s *AthleteService) DailyMacroBreakdown(ctx context.Context, athleteID int64) ([]model.DailyMacros, error) {
	if err := requireID("athlete_id", athleteID); err != nil {
		return nil, err
	}
	return s.athletes.DailyMacros(ctx, athleteID)
}

// PlanIntake lists the meals eaten during workout plans, for one athlete or
// for all when athleteID is nil.
func (s *AthleteService) PlanIntake(ctx context.Context, athleteID *int64) ([]model.PlanIntake, error) {
	if athleteID != nil {
		if err := requireID("athlete_id", *athleteID); err != nil {
			return nil, err
		}
	}
	return s.athletes.PlanIntake(ctx, athleteID)
}

// Reminders lists an athlete's reminders by time of day with a 12-hour
// clock time. A reminder whose stored time cannot be parsed keeps the raw
// value and is logged.
func (s *AthleteService) Reminders(ctx context.Context, athleteID int64) ([]model.Reminder, error) {
	if err := requireID("athlete_id", athleteID); err != nil {
		return nil, err
	}

	reminders, err := s.athletes.Reminders(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	for i := range reminders {
		formatted, err := nutrition.FormatReminderTime(reminders[i].RemindAt)
		if err != nil {
			s.logger.Warn("reminder has an unreadable time",
				slog.Int64("athleteID", athleteID),
				slog.String("remindAt", reminders[i].RemindAt),
			)
			formatted = reminders[i].RemindAt
		}
		reminders[i].ReminderTime = formatted
	}
	return reminders, nil
}
