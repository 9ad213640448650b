package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/macromates/nutribuddy/internal/apperror"
	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/repository"
)

// compile-time check that *DB implements repository.PlanRepository
var _ repository.PlanRepository = (*DB)(nil)

// CreateNutritionPlan inserts a plan for an existing client.
func (db *DB) CreateNutritionPlan(ctx context.Context, plan *model.NutritionPlan) error {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := db.getClient(ctx, tx, plan.ClientID); err != nil {
			return err
		}
		id, err := insertReturningID(ctx, tx, db.sb.Insert("nutrition_plans").
			Columns("client_id", "title", "daily_calories", "start_date", "end_date").
			Values(plan.ClientID, plan.Title, plan.DailyCalories, dbDate(plan.StartDate), dbDatePtr(plan.EndDate)))
		if err != nil {
			return err
		}
		plan.ID = id
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("sqlstore: creating nutrition plan: %w", err)
	}
	return nil
}

// ListNutritionPlans returns the client's plans, latest start first.
func (db *DB) ListNutritionPlans(ctx context.Context, clientID int64) ([]model.NutritionPlan, error) {
	rows, err := queryBuilder(ctx, db.conn, db.sb.
		Select("id", "client_id", "title", "daily_calories", "start_date", "end_date").
		From("nutrition_plans").
		Where(sq.Eq{"client_id": clientID}).
		OrderBy("start_date DESC", "id DESC"))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing nutrition plans: %w", err)
	}
	defer rows.Close()

	plans := make([]model.NutritionPlan, 0)
	for rows.Next() {
		var (
			p          model.NutritionPlan
			start, end nullTime
		)
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Title, &p.DailyCalories, &start, &end); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning nutrition plan: %w", err)
		}
		p.StartDate = start.date()
		p.EndDate = end.datePtr()
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating nutrition plans: %w", err)
	}
	return plans, nil
}

// CreateProgressReport inserts a measurement for an existing client.
func (db *DB) CreateProgressReport(ctx context.Context, report *model.ProgressReport) error {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := db.getClient(ctx, tx, report.ClientID); err != nil {
			return err
		}
		id, err := insertReturningID(ctx, tx, db.sb.Insert("progress_reports").
			Columns("client_id", "report_date", "weight_kg", "body_fat_pct", "notes").
			Values(report.ClientID, dbDate(report.ReportDate), report.WeightKg, nullableFloat(report.BodyFatPct), report.Notes))
		if err != nil {
			return err
		}
		report.ID = id
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("sqlstore: creating progress report: %w", err)
	}
	return nil
}

func (db *DB) ListProgressReports(ctx context.Context, clientID int64) ([]model.ProgressReport, error) {
	rows, err := queryBuilder(ctx, db.conn, db.sb.
		Select("id", "client_id", "report_date", "weight_kg", "body_fat_pct", "notes").
		From("progress_reports").
		Where(sq.Eq{"client_id": clientID}).
		OrderBy("report_date DESC", "id DESC"))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing progress reports: %w", err)
	}
	defer rows.Close()

	reports := make([]model.ProgressReport, 0)
	for rows.Next() {
		var (
			r       model.ProgressReport
			day     nullTime
			bodyFat sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.ClientID, &day, &r.WeightKg, &bodyFat, &r.Notes); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning progress report: %w", err)
		}
		r.ReportDate = day.date()
		if bodyFat.Valid {
			r.BodyFatPct = &bodyFat.Float64
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating progress reports: %w", err)
	}
	return reports, nil
}

// UpsertNutrientTarget creates or replaces the recommended daily amount of a
// nutrient. Both backends support ON CONFLICT ... DO UPDATE.
func (db *DB) UpsertNutrientTarget(ctx context.Context, target model.NutrientTarget) error {
	_, err := execBuilder(ctx, db.conn, db.sb.Insert("nutrient_targets").
		Columns("name", "recommended_amount", "unit").
		Values(target.Name, target.RecommendedAmount, target.Unit).
		Suffix("ON CONFLICT (name) DO UPDATE SET recommended_amount = excluded.recommended_amount, unit = excluded.unit"))
	if err != nil {
		return fmt.Errorf("sqlstore: saving nutrient target %q: %w", target.Name, err)
	}
	return nil
}

func (db *DB) ListNutrientTargets(ctx context.Context) ([]model.NutrientTarget, error) {
	rows, err := queryBuilder(ctx, db.conn, db.sb.
		Select("name", "recommended_amount", "unit").
		From("nutrient_targets").
		OrderBy("name"))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing nutrient targets: %w", err)
	}
	defer rows.Close()

	targets := make([]model.NutrientTarget, 0)
	for rows.Next() {
		var t model.NutrientTarget
		if err := rows.Scan(&t.Name, &t.RecommendedAmount, &t.Unit); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning nutrient target: %w", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating nutrient targets: %w", err)
	}
	return targets, nil
}
