package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/samber/lo"

	"github.com/macromates/nutribuddy/internal/apperror"
	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/repository"
)

// compile-time check that *DB implements repository.MealLogRepository
var _ repository.MealLogRepository = (*DB)(nil)

func mealLogNotFound(id int64) error {
	return apperror.NotFound("meal log", strconv.FormatInt(id, 10))
}

// CreateMealLog inserts the meal and all of its nutrients atomically. The
// owning client must exist.
func (db *DB) CreateMealLog(ctx context.Context, meal *model.MealLog) error {
	meal.LoggedAt = model.NewDateTime(meal.LoggedAt.Time)

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := db.getClient(ctx, tx, meal.ClientID); err != nil {
			return err
		}

		id, err := insertReturningID(ctx, tx, db.sb.Insert("meal_logs").
			Columns("client_id", "logged_at", "notes").
			Values(meal.ClientID, meal.LoggedAt.Time, meal.Notes))
		if err != nil {
			return err
		}
		meal.ID = id

		return db.insertNutrients(ctx, tx, id, meal.Nutrients)
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("sqlstore: creating meal log: %w", err)
	}
	if meal.Nutrients == nil {
		meal.Nutrients = []model.Nutrient{}
	}
	return nil
}

// insertNutrients writes nutrients for mealID and sets their IDs in place.
func (db *DB) insertNutrients(ctx context.Context, q queryer, mealID int64, nutrients []model.Nutrient) error {
	for i := range nutrients {
		n := &nutrients[i]
		id, err := insertReturningID(ctx, q, db.sb.Insert("nutrients").
			Columns("meal_log_id", "name", "category", "quantity", "unit").
			Values(mealID, n.Name, n.Category, n.Quantity, n.Unit))
		if err != nil {
			return fmt.Errorf("inserting nutrient %q: %w", n.Name, err)
		}
		n.ID = id
		n.MealLogID = mealID
	}
	return nil
}

func (db *DB) GetMealLog(ctx context.Context, id int64) (*model.MealLog, error) {
	meals, err := db.selectMealLogs(ctx, db.conn, db.mealLogSelect().Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: getting meal log %d: %w", id, err)
	}
	if len(meals) == 0 {
		return nil, mealLogNotFound(id)
	}
	return &meals[0], nil
}

// ListMealLogs returns the client's meal logs newest first. From and To are
// inclusive calendar days.
func (db *DB) ListMealLogs(ctx context.Context, filter repository.MealLogFilter) ([]model.MealLog, error) {
	b := db.mealLogSelect().Where(sq.Eq{"client_id": filter.ClientID})
	if filter.From != nil {
		b = b.Where(sq.GtOrEq{"logged_at": dbDate(*filter.From)})
	}
	if filter.To != nil {
		b = b.Where(sq.Lt{"logged_at": dbDate(filter.To.AddDays(1))})
	}
	b = b.OrderBy("logged_at DESC", "id DESC")

	meals, err := db.selectMealLogs(ctx, db.conn, b)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing meal logs: %w", err)
	}
	return meals, nil
}

func (db *DB) mealLogSelect() sq.SelectBuilder {
	return db.sb.Select("id", "logged_at", "notes", "client_id").From("meal_logs")
}

// selectMealLogs runs b, then loads the nutrients of every returned meal
// with a single IN query. The meal rows are fully read and closed before the
// second query runs, so this is safe on a single-connection pool.
func (db *DB) selectMealLogs(ctx context.Context, q queryer, b sq.SelectBuilder) ([]model.MealLog, error) {
	rows, err := queryBuilder(ctx, q, b)
	if err != nil {
		return nil, err
	}

	meals := make([]model.MealLog, 0)
	for rows.Next() {
		var (
			m        model.MealLog
			loggedAt nullTime
		)
		if err := rows.Scan(&m.ID, &loggedAt, &m.Notes, &m.ClientID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning meal log: %w", err)
		}
		m.LoggedAt = loggedAt.dateTime()
		m.Nutrients = []model.Nutrient{}
		meals = append(meals, m)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterating meal logs: %w", err)
	}
	if len(meals) == 0 {
		return meals, nil
	}

	ids := lo.Map(meals, func(m model.MealLog, _ int) int64 { return m.ID })
	nutrients, err := db.selectNutrients(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	byMeal := lo.GroupBy(nutrients, func(n model.Nutrient) int64 { return n.MealLogID })
	for i := range meals {
		if ns, ok := byMeal[meals[i].ID]; ok {
			meals[i].Nutrients = ns
		}
	}
	return meals, nil
}

func (db *DB) selectNutrients(ctx context.Context, q queryer, mealIDs []int64) ([]model.Nutrient, error) {
	rows, err := queryBuilder(ctx, q, db.sb.
		Select("id", "meal_log_id", "name", "category", "quantity", "unit").
		From("nutrients").
		Where(sq.Eq{"meal_log_id": mealIDs}).
		OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("querying nutrients: %w", err)
	}
	defer rows.Close()

	var nutrients []model.Nutrient
	for rows.Next() {
		var n model.Nutrient
		if err := rows.Scan(&n.ID, &n.MealLogID, &n.Name, &n.Category, &n.Quantity, &n.Unit); err != nil {
			return nil, fmt.Errorf("scanning nutrient: %w", err)
		}
		nutrients = append(nutrients, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nutrients: %w", err)
	}
	return nutrients, nil
}

// UpdateMealLog applies patch in one transaction. When the patch replaces
// nutrients, every existing nutrient is deleted first.
func (db *DB) UpdateMealLog(ctx context.Context, id int64, patch repository.MealLogPatch) error {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var exists int64
		if err := scanOne(ctx, tx, db.sb.Select("COUNT(*)").From("meal_logs").Where(sq.Eq{"id": id}), &exists); err != nil {
			return err
		}
		if exists == 0 {
			return mealLogNotFound(id)
		}

		set := map[string]any{}
		if patch.LoggedAt != nil {
			set["logged_at"] = dbTime(patch.LoggedAt.Time)
		}
		if patch.Notes != nil {
			set["notes"] = *patch.Notes
		}
		if patch.ClientID != nil {
			if _, err := db.getClient(ctx, tx, *patch.ClientID); err != nil {
				return err
			}
			set["client_id"] = *patch.ClientID
		}
		if len(set) > 0 {
			if _, err := execBuilder(ctx, tx, db.sb.Update("meal_logs").SetMap(set).Where(sq.Eq{"id": id})); err != nil {
				return err
			}
		}

		if patch.ReplaceNutrients {
			if _, err := execBuilder(ctx, tx, db.sb.Delete("nutrients").Where(sq.Eq{"meal_log_id": id})); err != nil {
				return err
			}
			return db.insertNutrients(ctx, tx, id, patch.Nutrients)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("sqlstore: updating meal log %d: %w", id, err)
	}
	return nil
}

// DeleteMealLog removes the meal and, through the cascade, its nutrients.
// The nutrients are also deleted explicitly so a Postgres database created
// without the cascade behaves the same.
func (db *DB) DeleteMealLog(ctx context.Context, id int64) error {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := execBuilder(ctx, tx, db.sb.Delete("nutrients").Where(sq.Eq{"meal_log_id": id})); err != nil {
			return err
		}
		res, err := execBuilder(ctx, tx, db.sb.Delete("meal_logs").Where(sq.Eq{"id": id}))
		if err != nil {
			return err
		}
		return rowsAffectedOrNotFound(res, mealLogNotFound(id))
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("sqlstore: deleting meal log %d: %w", id, err)
	}
	return nil
}

// DailyNutrientTotals counts the client's meals on day and sums their
// nutrients per (category, name, unit), ordered by category then name.
func (db *DB) DailyNutrientTotals(ctx context.Context, clientID int64, day model.Date) (int, []model.NutrientTotal, error) {
	dayRange := sq.And{
		sq.Eq{"m.client_id": clientID},
		sq.GtOrEq{"m.logged_at": dbDate(day)},
		sq.Lt{"m.logged_at": dbDate(day.AddDays(1))},
	}

	var meals int
	if err := scanOne(ctx, db.conn, db.sb.Select("COUNT(*)").From("meal_logs m").Where(dayRange), &meals); err != nil {
		return 0, nil, fmt.Errorf("sqlstore: counting meals: %w", err)
	}

	rows, err := queryBuilder(ctx, db.conn, db.sb.
		Select("n.category", "n.name", "n.unit", "SUM(n.quantity)").
		From("nutrients n").
		Join("meal_logs m ON m.id = n.meal_log_id").
		Where(dayRange).
		GroupBy("n.category", "n.name", "n.unit"))
	if err != nil {
		return 0, nil, fmt.Errorf("sqlstore: summing nutrients: %w", err)
	}
	defer rows.Close()

	totals := make([]model.NutrientTotal, 0)
	for rows.Next() {
		var t model.NutrientTotal
		if err := rows.Scan(&t.Category, &t.Name, &t.Unit, &t.Total); err != nil {
			return 0, nil, fmt.Errorf("sqlstore: scanning nutrient total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("sqlstore: iterating nutrient totals: %w", err)
	}

	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].Category != totals[j].Category {
			return totals[i].Category < totals[j].Category
		}
		return totals[i].Name < totals[j].Name
	})
	return meals, totals, nil
}
