package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/repository"
)

// compile-time check that *DB implements repository.PerformanceRepository
var _ repository.PerformanceRepository = (*DB)(nil)

// RecordPerformance appends a sample. A zero RecordedAt is stamped with the
// current time.
func (db *DB) RecordPerformance(ctx context.Context, sample *model.PerformanceSample) error {
	if sample.RecordedAt.IsZero() {
		sample.RecordedAt = model.NewDateTime(time.Now())
	}
	sample.RecordedAt = model.NewDateTime(sample.RecordedAt.Time)

	id, err := insertReturningID(ctx, db.conn, db.sb.Insert("system_performance").
		Columns("metric", "status", "existing_clients", "new_clients", "recorded_at").
		Values(sample.Metric, sample.Status, sample.ExistingClients, sample.NewClients, sample.RecordedAt.Time))
	if err != nil {
		return fmt.Errorf("sqlstore: recording performance sample: %w", err)
	}
	sample.ID = id
	return nil
}

func (db *DB) performanceSelect() sq.SelectBuilder {
	return db.sb.
		Select("id", "metric", "status", "existing_clients", "new_clients", "recorded_at").
		From("system_performance")
}

func scanPerformance(row interface{ Scan(...any) error }) (model.PerformanceSample, error) {
	var (
		s  model.PerformanceSample
		at nullTime
	)
	if err := row.Scan(&s.ID, &s.Metric, &s.Status, &s.ExistingClients, &s.NewClients, &at); err != nil {
		return model.PerformanceSample{}, err
	}
	s.RecordedAt = at.dateTime()
	return s, nil
}

// ListPerformance returns samples recorded between from and to (inclusive
// days), oldest first.
func (db *DB) ListPerformance(ctx context.Context, from, to *model.Date) ([]model.PerformanceSample, error) {
	b := db.performanceSelect().OrderBy("recorded_at", "id")
	if from != nil {
		b = b.Where(sq.GtOrEq{"recorded_at": dbDate(*from)})
	}
	if to != nil {
		b = b.Where(sq.Lt{"recorded_at": dbDate(to.AddDays(1))})
	}

	rows, err := queryBuilder(ctx, db.conn, b)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing performance samples: %w", err)
	}
	defer rows.Close()

	samples := make([]model.PerformanceSample, 0)
	for rows.Next() {
		s, err := scanPerformance(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning performance sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating performance samples: %w", err)
	}
	return samples, nil
}

// LatestPerformance returns the most recent sample, or nil when none exist.
func (db *DB) LatestPerformance(ctx context.Context) (*model.PerformanceSample, error) {
	query, args, err := db.performanceSelect().OrderBy("recorded_at DESC", "id DESC").Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: building latest performance query: %w", err)
	}
	s, err := scanPerformance(db.conn.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlstore: getting latest performance sample: %w", err)
	}
	return &s, nil
}
