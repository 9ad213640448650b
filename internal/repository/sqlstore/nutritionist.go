package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/repository"
)

// compile-time check that *DB implements repository.NutritionistRepository
var _ repository.NutritionistRepository = (*DB)(nil)

// RecentClientActivity ranks clients by their latest meal. Clients that
// never logged a meal sort after everyone else; (x IS NULL) gives the same
// NULLS LAST ordering on both backends.
func (db *DB) RecentClientActivity(ctx context.Context, limit int) ([]model.ClientActivity, error) {
	b := db.sb.
		Select("c.id", "c.name", "c.email", "COUNT(m.id)", "MAX(m.logged_at)").
		From("clients c").
		LeftJoin("meal_logs m ON m.client_id = c.id").
		GroupBy("c.id", "c.name", "c.email").
		OrderBy("(MAX(m.logged_at) IS NULL)", "MAX(m.logged_at) DESC", "c.id")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	rows, err := queryBuilder(ctx, db.conn, b)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing client activity: %w", err)
	}
	defer rows.Close()

	activity := make([]model.ClientActivity, 0)
	for rows.Next() {
		var (
			a    model.ClientActivity
			last nullTime
		)
		if err := rows.Scan(&a.ClientID, &a.Name, &a.Email, &a.TotalMeals, &last); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning client activity: %w", err)
		}
		a.LastMealDate = last.dateTimePtr()
		activity = append(activity, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating client activity: %w", err)
	}
	return activity, nil
}

// ClientOverviews returns every client with its meal count and the average
// calories per meal. Calories are the nutrients whose lower-cased name is in
// calorieNames.
func (db *DB) ClientOverviews(ctx context.Context, calorieNames []string) ([]model.ClientOverview, error) {
	names := lo.Map(calorieNames, func(n string, _ int) any { return strings.ToLower(n) })
	if len(names) == 0 {
		names = []any{"calories"}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")

	rows, err := queryBuilder(ctx, db.conn, db.sb.
		Select("c.id", "c.name", "c.email", "c.archived", "COUNT(DISTINCT m.id)", "COALESCE(SUM(n.quantity), 0)").
		From("clients c").
		LeftJoin("meal_logs m ON m.client_id = c.id").
		LeftJoin("nutrients n ON n.meal_log_id = m.id AND LOWER(n.name) IN ("+placeholders+")", names...).
		GroupBy("c.id", "c.name", "c.email", "c.archived").
		OrderBy("c.id"))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing client overviews: %w", err)
	}
	defer rows.Close()

	overviews := make([]model.ClientOverview, 0)
	for rows.Next() {
		var (
			o        model.ClientOverview
			calories float64
		)
		if err := rows.Scan(&o.ClientID, &o.Name, &o.Email, &o.Archived, &o.TotalMeals, &calories); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning client overview: %w", err)
		}
		if o.TotalMeals > 0 {
			o.AvgCalories = calories / float64(o.TotalMeals)
		}
		overviews = append(overviews, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating client overviews: %w", err)
	}
	return overviews, nil
}
