package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	sq "github.com/Masterminds/squirrel"

	"github.com/macromates/nutribuddy/internal/apperror"
	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/repository"
)

// compile-time check that *DB implements repository.DatasetRepository
var _ repository.DatasetRepository = (*DB)(nil)

func datasetNotFound(id int64) error {
	return apperror.NotFound("dataset", strconv.FormatInt(id, 10))
}

func (db *DB) CreateDataset(ctx context.Context, dataset *model.Dataset) error {
	id, err := insertReturningID(ctx, db.conn, db.sb.Insert("datasets").
		Columns("name", "description", "status").
		Values(dataset.Name, dataset.Description, dataset.Status))
	if err != nil {
		return fmt.Errorf("sqlstore: creating dataset: %w", err)
	}
	dataset.ID = id
	return nil
}

func (db *DB) GetDataset(ctx context.Context, id int64) (*model.Dataset, error) {
	return db.getDataset(ctx, db.conn, id)
}

func (db *DB) getDataset(ctx context.Context, q queryer, id int64) (*model.Dataset, error) {
	var d model.Dataset
	err := scanOne(ctx, q, db.sb.
		Select("id", "name", "description", "status").
		From("datasets").
		Where(sq.Eq{"id": id}),
		&d.ID, &d.Name, &d.Description, &d.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, datasetNotFound(id)
		}
		return nil, fmt.Errorf("sqlstore: getting dataset %d: %w", id, err)
	}
	return &d, nil
}

func (db *DB) ListDatasets(ctx context.Context) ([]model.Dataset, error) {
	rows, err := queryBuilder(ctx, db.conn, db.sb.
		Select("id", "name", "description", "status").
		From("datasets").
		OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing datasets: %w", err)
	}
	defer rows.Close()

	datasets := make([]model.Dataset, 0)
	for rows.Next() {
		var d model.Dataset
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.Status); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning dataset: %w", err)
		}
		datasets = append(datasets, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating datasets: %w", err)
	}
	return datasets, nil
}

// UpdateDataset writes the supplied fields that differ from the stored row
// and reports whether anything changed.
func (db *DB) UpdateDataset(ctx context.Context, id int64, patch repository.DatasetPatch) (bool, error) {
	changed := false

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		current, err := db.getDataset(ctx, tx, id)
		if err != nil {
			return err
		}

		set := map[string]any{}
		if patch.Name != nil && *patch.Name != current.Name {
			set["name"] = *patch.Name
		}
		if patch.Description != nil && *patch.Description != current.Description {
			set["description"] = *patch.Description
		}
		if patch.Status != nil && *patch.Status != current.Status {
			set["status"] = *patch.Status
		}
		if len(set) == 0 {
			return nil
		}

		if _, err := execBuilder(ctx, tx, db.sb.Update("datasets").SetMap(set).Where(sq.Eq{"id": id})); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("sqlstore: updating dataset %d: %w", id, err)
	}
	return changed, nil
}

func (db *DB) DeleteDataset(ctx context.Context, id int64) error {
	res, err := execBuilder(ctx, db.conn, db.sb.Delete("datasets").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("sqlstore: deleting dataset %d: %w", id, err)
	}
	return rowsAffectedOrNotFound(res, datasetNotFound(id))
}
