// Package sqlstore implements the repository interfaces on top of
// database/sql. Two dialects are supported:
//
//   - sqlite   (modernc.org/sqlite, pure Go, the default; ":memory:" in tests)
//   - postgres (pgx through its database/sql adapter)
//
// QUERY BUILDING:
// Statements are assembled with squirrel so that optional filters and
// partial updates never need string concatenation. The builder carries the
// dialect's placeholder format (? for SQLite, $1.. for Postgres), so the same
// code path serves both databases.
//
// PORTABILITY RULES:
// No SQL date functions are used. Day filters become half-open ranges
// (>= day, < next day) and grouping by calendar day happens in Go.
// Every timestamp is written as UTC truncated to whole seconds.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	// Both drivers register themselves with database/sql at init time:
	// "sqlite" from modernc, "pgx" from the pgx stdlib adapter.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL backend a DB talks to.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB wraps a sql.DB connection pool and implements every repository in
// internal/repository.
type DB struct {
	conn    *sql.DB
	dialect Dialect
	sb      sq.StatementBuilderType
}

// queryer is satisfied by both *sql.DB and *sql.Tx, so helpers run the same
// way inside and outside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens a SQLite database and runs migrations.
//
// dbPath examples:
//   - "data/nutribuddy.db" → file-based database
//   - ":memory:"           → in-memory database, used by the tests
func New(dbPath string) (*DB, error) {
	return Open(context.Background(), DialectSQLite, dbPath)
}

// Open connects to the given dialect, verifies the connection and migrates
// the schema.
func Open(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	var (
		conn *sql.DB
		err  error
		sb   sq.StatementBuilderType
	)

	switch dialect {
	case DialectSQLite, "":
		dialect = DialectSQLite
		conn, err = sql.Open("sqlite", sqliteDSN(dsn))
		if err == nil && isMemoryDSN(dsn) {
			// Every new connection to ":memory:" is a brand new empty
			// database, so the pool must never open a second one.
			conn.SetMaxOpenConns(1)
		}
		sb = sq.StatementBuilder.PlaceholderFormat(sq.Question)
	case DialectPostgres:
		conn, err = sql.Open("pgx", dsn)
		sb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: opening %s database: %w", dialect, err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: pinging %s database: %w", dialect, err)
	}

	db := &DB{conn: conn, dialect: dialect, sb: sb}

	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: running migrations: %w", err)
	}

	return db, nil
}

// sqliteDSN appends the connection options every SQLite connection needs.
// modernc applies _pragma entries to each new connection in the pool, which
// matters for foreign_keys: it is a per-connection setting.
func sqliteDSN(path string) string {
	opts := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	if !isMemoryDSN(path) {
		opts = "_pragma=journal_mode(WAL)&" + opts
	}
	if strings.Contains(path, "?") {
		return path + "&" + opts
	}
	return path + "?" + opts
}

func isMemoryDSN(path string) bool {
	return strings.HasPrefix(path, ":memory:")
}

// Dialect reports which backend the DB is connected to.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Ping verifies the database is still reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// withTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise, including when fn panics.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: committing transaction: %w", err)
	}
	committed = true
	return nil
}

func execBuilder(ctx context.Context, q queryer, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building statement: %w", err)
	}
	return q.ExecContext(ctx, query, args...)
}

func queryBuilder(ctx context.Context, q queryer, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	return q.QueryContext(ctx, query, args...)
}

// scanOne runs b and scans its single row into dest. It returns
// sql.ErrNoRows unchanged so callers can map it to a not-found error.
func scanOne(ctx context.Context, q queryer, b sq.Sqlizer, dest ...any) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	return q.QueryRowContext(ctx, query, args...).Scan(dest...)
}

// insertReturningID runs an INSERT ... RETURNING id, which both SQLite
// (3.35+) and Postgres understand.
func insertReturningID(ctx context.Context, q queryer, b sq.InsertBuilder) (int64, error) {
	var id int64
	if err := scanOne(ctx, q, b.Suffix("RETURNING id"), &id); err != nil {
		return 0, err
	}
	return id, nil
}

// rowsAffectedOrNotFound maps an UPDATE/DELETE that touched nothing to a
// not-found error for the given resource.
func rowsAffectedOrNotFound(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// likeContains builds a case-insensitive "contains" pattern for LIKE with
// the wildcard characters of the needle escaped.
func likeContains(column, needle string) sq.Sqlizer {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(needle))
	return sq.Expr("LOWER("+column+") LIKE ? ESCAPE '\\'", "%"+escaped+"%")
}
