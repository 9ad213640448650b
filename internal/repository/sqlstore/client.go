package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/macromates/nutribuddy/internal/apperror"
	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/repository"
)

// compile-time check that *DB implements repository.ClientRepository
var _ repository.ClientRepository = (*DB)(nil)

var clientColumns = []string{"id", "name", "dob", "email", "archived", "created_at"}

// clientDependents are the tables whose rows keep a client from being hard
// deleted.
var clientDependents = []string{"meal_logs", "nutrition_plans", "progress_reports"}

func scanClient(row interface{ Scan(...any) error }) (model.Client, error) {
	var (
		c       model.Client
		dob     nullTime
		created nullTime
	)
	if err := row.Scan(&c.ID, &c.Name, &dob, &c.Email, &c.Archived, &created); err != nil {
		return model.Client{}, err
	}
	c.DOB = dob.datePtr()
	c.CreatedAt = created.Time
	return c, nil
}

func clientNotFound(id int64) error {
	return apperror.NotFound("client", strconv.FormatInt(id, 10))
}

func emailTaken() error {
	return apperror.Conflict("email", "Email already exists")
}

// CreateClient inserts a client and sets its ID and CreatedAt.
//
// The email check and the insert share a transaction; the UNIQUE index on
// email is the final arbiter if two requests race past the check.
func (db *DB) CreateClient(ctx context.Context, client *model.Client) error {
	client.CreatedAt = dbTime(time.Now())

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		taken, err := db.emailExists(ctx, tx, client.Email, 0)
		if err != nil {
			return err
		}
		if taken {
			return emailTaken()
		}

		id, err := insertReturningID(ctx, tx, db.sb.Insert("clients").
			Columns("name", "dob", "email", "archived", "created_at").
			Values(client.Name, dbDatePtr(client.DOB), client.Email, client.Archived, client.CreatedAt))
		if err != nil {
			return err
		}
		client.ID = id
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return emailTaken()
		}
		if errors.Is(err, apperror.ErrConflict) {
			return err
		}
		return fmt.Errorf("sqlstore: creating client: %w", err)
	}
	return nil
}

// emailExists reports whether another client (id != exceptID) uses email,
// ignoring case.
func (db *DB) emailExists(ctx context.Context, q queryer, email string, exceptID int64) (bool, error) {
	b := db.sb.Select("COUNT(*)").From("clients").Where(sq.Expr("LOWER(email) = ?", strings.ToLower(email)))
	if exceptID != 0 {
		b = b.Where(sq.NotEq{"id": exceptID})
	}
	var n int64
	if err := scanOne(ctx, q, b, &n); err != nil {
		return false, fmt.Errorf("checking email: %w", err)
	}
	return n > 0, nil
}

func (db *DB) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	return db.getClient(ctx, db.conn, id)
}

func (db *DB) getClient(ctx context.Context, q queryer, id int64) (*model.Client, error) {
	query, args, err := db.sb.Select(clientColumns...).From("clients").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: building client query: %w", err)
	}
	c, err := scanClient(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, clientNotFound(id)
		}
		return nil, fmt.Errorf("sqlstore: getting client %d: %w", id, err)
	}
	return &c, nil
}

// ListClients returns the clients matching filter, ordered by id.
func (db *DB) ListClients(ctx context.Context, filter repository.ClientFilter) ([]model.Client, error) {
	b := db.sb.Select(clientColumns...).From("clients").OrderBy("id")

	if filter.Name != "" {
		b = b.Where(likeContains("name", filter.Name))
	}
	if filter.Email != "" {
		b = b.Where(likeContains("email", filter.Email))
	}
	if filter.Archived != nil {
		b = b.Where(sq.Eq{"archived": *filter.Archived})
	}
	if filter.BornOnOrBefore != nil {
		b = b.Where(sq.LtOrEq{"dob": dbDate(*filter.BornOnOrBefore)})
	}
	if filter.BornAfter != nil {
		b = b.Where(sq.Gt{"dob": dbDate(*filter.BornAfter)})
	}

	rows, err := queryBuilder(ctx, db.conn, b)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing clients: %w", err)
	}
	defer rows.Close()

	clients := make([]model.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating clients: %w", err)
	}
	return clients, nil
}

// UpdateClient applies patch to client id. Values equal to the stored ones
// are dropped before building the UPDATE; when nothing is left it reports
// false without writing.
func (db *DB) UpdateClient(ctx context.Context, id int64, patch repository.ClientPatch) (bool, error) {
	changed := false

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		current, err := db.getClient(ctx, tx, id)
		if err != nil {
			return err
		}

		set := map[string]any{}
		if patch.Name != nil && *patch.Name != current.Name {
			set["name"] = *patch.Name
		}
		if patch.Email != nil && *patch.Email != current.Email {
			taken, err := db.emailExists(ctx, tx, *patch.Email, id)
			if err != nil {
				return err
			}
			if taken {
				return emailTaken()
			}
			set["email"] = *patch.Email
		}
		if patch.SetDOB && !sameDate(patch.DOB, current.DOB) {
			set["dob"] = dbDatePtr(patch.DOB)
		}
		if len(set) == 0 {
			return nil
		}

		if _, err := execBuilder(ctx, tx, db.sb.Update("clients").SetMap(set).Where(sq.Eq{"id": id})); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return false, emailTaken()
		}
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrConflict) {
			return false, err
		}
		return false, fmt.Errorf("sqlstore: updating client %d: %w", id, err)
	}
	return changed, nil
}

func sameDate(a, b *model.Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b.Time)
}

// DeleteClient removes client id, or archives it when meal logs, plans or
// progress reports still reference it.
func (db *DB) DeleteClient(ctx context.Context, id int64) (bool, error) {
	archived := false

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := db.getClient(ctx, tx, id); err != nil {
			return err
		}

		hasDependents, err := db.clientHasDependents(ctx, tx, id)
		if err != nil {
			return err
		}

		if hasDependents {
			_, err = execBuilder(ctx, tx, db.sb.Update("clients").Set("archived", true).Where(sq.Eq{"id": id}))
			archived = err == nil
			return err
		}
		_, err = execBuilder(ctx, tx, db.sb.Delete("clients").Where(sq.Eq{"id": id}))
		return err
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("sqlstore: deleting client %d: %w", id, err)
	}
	return archived, nil
}

func (db *DB) clientHasDependents(ctx context.Context, q queryer, id int64) (bool, error) {
	for _, table := range clientDependents {
		var n int64
		b := db.sb.Select("COUNT(*)").From(table).Where(sq.Eq{"client_id": id})
		if err := scanOne(ctx, q, b, &n); err != nil {
			return false, fmt.Errorf("counting %s: %w", table, err)
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}

// RestoreClient clears the archived flag of client id.
func (db *DB) RestoreClient(ctx context.Context, id int64) error {
	res, err := execBuilder(ctx, db.conn, db.sb.Update("clients").Set("archived", false).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("sqlstore: restoring client %d: %w", id, err)
	}
	return rowsAffectedOrNotFound(res, clientNotFound(id))
}

// CountClients counts every client, archived ones included.
func (db *DB) CountClients(ctx context.Context) (int64, error) {
	var n int64
	if err := scanOne(ctx, db.conn, db.sb.Select("COUNT(*)").From("clients"), &n); err != nil {
		return 0, fmt.Errorf("sqlstore: counting clients: %w", err)
	}
	return n, nil
}

// CountClientsCreatedSince counts clients created at or after since.
func (db *DB) CountClientsCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	b := db.sb.Select("COUNT(*)").From("clients").Where(sq.GtOrEq{"created_at": dbTime(since)})
	if err := scanOne(ctx, db.conn, b, &n); err != nil {
		return 0, fmt.Errorf("sqlstore: counting new clients: %w", err)
	}
	return n, nil
}
