package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/repository"
)

// compile-time check that *DB implements repository.AthleteRepository
var _ repository.AthleteRepository = (*DB)(nil)

func (db *DB) ListAthletes(ctx context.Context) ([]model.Athlete, error) {
	rows, err := queryBuilder(ctx, db.conn, db.sb.
		Select("id", "name", "age", "weight_kg", "height_cm", "activity_level").
		From("athletes").
		OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing athletes: %w", err)
	}
	defer rows.Close()

	athletes := make([]model.Athlete, 0)
	for rows.Next() {
		var a model.Athlete
		if err := rows.Scan(&a.ID, &a.Name, &a.Age, &a.WeightKg, &a.HeightCm, &a.ActivityLevel); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning athlete: %w", err)
		}
		athletes = append(athletes, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating athletes: %w", err)
	}
	return athletes, nil
}

// PlanIntakeTotals returns, per workout plan, how many distinct days the
// athlete logged meals inside the plan window and the calories logged.
func (db *DB) PlanIntakeTotals(ctx context.Context) ([]model.PlanIntakeTotals, error) {
	rows, err := queryBuilder(ctx, db.conn, db.sb.
		Select("a.id", "a.name", "w.goal", "w.start_date", "w.end_date",
			"COUNT(DISTINCT l.log_date)", "COALESCE(SUM(l.calories), 0)").
		From("workout_plans w").
		Join("athletes a ON a.id = w.athlete_id").
		LeftJoin("athlete_meal_logs l ON l.athlete_id = w.athlete_id AND l.log_date >= w.start_date AND l.log_date <= w.end_date").
		GroupBy("w.id", "a.id", "a.name", "w.goal", "w.start_date", "w.end_date").
		OrderBy("a.id", "w.id"))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: summing plan intake: %w", err)
	}
	defer rows.Close()

	totals := make([]model.PlanIntakeTotals, 0)
	for rows.Next() {
		var (
			t          model.PlanIntakeTotals
			start, end nullTime
		)
		if err := rows.Scan(&t.AthleteID, &t.Name, &t.Goal, &start, &end, &t.LoggedDays, &t.TotalCalories); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning plan intake: %w", err)
		}
		t.StartDate = start.date()
		t.EndDate = end.date()
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating plan intake: %w", err)
	}
	return totals, nil
}

// DailyMacros sums the athlete's logged macros per day, newest day first.
func (db *DB) DailyMacros(ctx context.Context, athleteID int64) ([]model.DailyMacros, error) {
	rows, err := queryBuilder(ctx, db.conn, db.sb.
		Select("athlete_id", "log_date", "day_of_week",
			"SUM(calories)", "SUM(protein_g)", "SUM(carbs_g)", "SUM(fats_g)").
		From("athlete_meal_logs").
		Where(sq.Eq{"athlete_id": athleteID}).
		GroupBy("athlete_id", "log_date", "day_of_week").
		OrderBy("log_date DESC"))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: summing daily macros: %w", err)
	}
	defer rows.Close()

	days := make([]model.DailyMacros, 0)
	for rows.Next() {
		var (
			d   model.DailyMacros
			day nullTime
		)
		if err := rows.Scan(&d.AthleteID, &day, &d.DayOfWeek, &d.TotalCalories, &d.TotalProtein, &d.TotalCarbs, &d.TotalFats); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning daily macros: %w", err)
		}
		d.LogDate = day.date()
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating daily macros: %w", err)
	}
	return days, nil
}

// PlanIntake lists every meal logged inside a workout plan window, for one
// athlete or for all of them when athleteID is nil.
func (db *DB) PlanIntake(ctx context.Context, athleteID *int64) ([]model.PlanIntake, error) {
	b := db.sb.
		Select("a.name", "w.goal", "w.start_date", "w.end_date", "l.log_date", "l.meal_type", "l.calories").
		From("workout_plans w").
		Join("athletes a ON a.id = w.athlete_id").
		Join("athlete_meal_logs l ON l.athlete_id = w.athlete_id AND l.log_date >= w.start_date AND l.log_date <= w.end_date").
		OrderBy("a.id", "l.log_date", "l.id")
	if athleteID != nil {
		b = b.Where(sq.Eq{"w.athlete_id": *athleteID})
	}

	rows, err := queryBuilder(ctx, db.conn, b)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing plan intake: %w", err)
	}
	defer rows.Close()

	intake := make([]model.PlanIntake, 0)
	for rows.Next() {
		var (
			p               model.PlanIntake
			start, end, day nullTime
		)
		if err := rows.Scan(&p.Name, &p.Goal, &start, &end, &day, &p.MealType, &p.Calories); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning plan intake: %w", err)
		}
		p.StartDate = start.date()
		p.EndDate = end.date()
		p.LogDate = day.date()
		intake = append(intake, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating plan intake: %w", err)
	}
	return intake, nil
}

// Reminders returns the athlete's reminders ordered by time of day. The
// stored "HH:MM" form sorts correctly as text.
func (db *DB) Reminders(ctx context.Context, athleteID int64) ([]model.Reminder, error) {
	rows, err := queryBuilder(ctx, db.conn, db.sb.
		Select("athlete_id", "reminder_type", "remind_at", "message").
		From("reminders").
		Where(sq.Eq{"athlete_id": athleteID}).
		OrderBy("remind_at", "id"))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing reminders: %w", err)
	}
	defer rows.Close()

	reminders := make([]model.Reminder, 0)
	for rows.Next() {
		var r model.Reminder
		if err := rows.Scan(&r.AthleteID, &r.ReminderType, &r.RemindAt, &r.Message); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating reminders: %w", err)
	}
	return reminders, nil
}
