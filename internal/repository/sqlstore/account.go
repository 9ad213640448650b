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
	"github.com/rs/xid"

	"github.com/macromates/nutribuddy/internal/apperror"
	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/repository"
)

// compile-time check that *DB implements repository.AccountRepository
var _ repository.AccountRepository = (*DB)(nil)

var accountColumns = []string{"id", "email", "display_name", "role", "password_hash", "github_id", "client_id", "created_at"}

// CreateAccount inserts an account with a fresh xid. Emails are stored
// lower-cased so sign-in is case-insensitive.
func (db *DB) CreateAccount(ctx context.Context, account *model.Account) error {
	account.ID = xid.New().String()
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	account.CreatedAt = dbTime(time.Now())

	_, err := execBuilder(ctx, db.conn, db.sb.Insert("accounts").
		Columns(accountColumns...).
		Values(account.ID, account.Email, account.DisplayName, string(account.Role), account.PasswordHash,
			nullableInt(account.GitHubID), nullableInt(account.ClientID), account.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("email", "An account with this email already exists")
		}
		return fmt.Errorf("sqlstore: creating account: %w", err)
	}
	return nil
}

func scanAccount(row interface{ Scan(...any) error }) (model.Account, error) {
	var (
		a        model.Account
		role     string
		githubID sql.NullInt64
		clientID sql.NullInt64
		created  nullTime
	)
	if err := row.Scan(&a.ID, &a.Email, &a.DisplayName, &role, &a.PasswordHash, &githubID, &clientID, &created); err != nil {
		return model.Account{}, err
	}
	a.Role = model.Role(role)
	if githubID.Valid {
		a.GitHubID = &githubID.Int64
	}
	if clientID.Valid {
		a.ClientID = &clientID.Int64
	}
	a.CreatedAt = created.Time
	return a, nil
}

func (db *DB) getAccount(ctx context.Context, where sq.Eq, what string) (*model.Account, error) {
	query, args, err := db.sb.Select(accountColumns...).From("accounts").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: building account query: %w", err)
	}
	a, err := scanAccount(db.conn.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("account", what)
		}
		return nil, fmt.Errorf("sqlstore: getting account %s: %w", what, err)
	}
	return &a, nil
}

func (db *DB) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	return db.getAccount(ctx, sq.Eq{"id": id}, id)
}

func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return db.getAccount(ctx, sq.Eq{"email": email}, email)
}

func (db *DB) GetAccountByGitHubID(ctx context.Context, githubID int64) (*model.Account, error) {
	return db.getAccount(ctx, sq.Eq{"github_id": githubID}, "github:"+strconv.FormatInt(githubID, 10))
}

// LinkGitHub records the GitHub user id on an existing account so later
// sign-ins match it directly.
func (db *DB) LinkGitHub(ctx context.Context, accountID string, githubID int64) error {
	res, err := execBuilder(ctx, db.conn, db.sb.Update("accounts").
		Set("github_id", githubID).
		Where(sq.Eq{"id": accountID}))
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("github_id", "This GitHub account is linked to another login")
		}
		return fmt.Errorf("sqlstore: linking github account: %w", err)
	}
	return rowsAffectedOrNotFound(res, apperror.NotFound("account", accountID))
}

func (db *DB) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := queryBuilder(ctx, db.conn, db.sb.Select(accountColumns...).From("accounts").OrderBy("created_at", "id"))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]model.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating accounts: %w", err)
	}
	return accounts, nil
}
