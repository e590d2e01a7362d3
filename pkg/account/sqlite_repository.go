package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// SQLiteSchema creates the accounts table. Timestamps are RFC 3339 text in UTC.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	email             TEXT NOT NULL UNIQUE,
	password_hash     TEXT NOT NULL,
	phone             TEXT,
	is_admin          INTEGER NOT NULL DEFAULT 0,
	is_business       INTEGER NOT NULL DEFAULT 0,
	is_user           INTEGER NOT NULL DEFAULT 1,
	temp_admin_expiry TEXT,
	created_at        TEXT NOT NULL,
	last_login        TEXT,
	is_online         INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS accounts_created_at_idx ON accounts (created_at);
`

// SQLiteRepository implements Repository on a database/sql handle opened
// with the sqlite3 driver.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository applies the schema and returns the repository.
func NewSQLiteRepository(ctx context.Context, db *sql.DB) (*SQLiteRepository, error) {
	if _, err := db.ExecContext(ctx, SQLiteSchema); err != nil {
		return nil, fmt.Errorf("applying account schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseSQLiteTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp %q: %w", s.String, err)
	}
	return &t, nil
}

// sqliteValue converts patch values into driver values for the text schema.
func sqliteValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return formatSQLiteTime(x)
	default:
		return v
	}
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteAccount(row rowScanner) (Account, error) {
	var (
		acct                         Account
		id, createdAt                string
		phone, tempExpiry, lastLogin sql.NullString
	)
	err := row.Scan(
		&id,
		&acct.Name,
		&acct.Email,
		&acct.PasswordHash,
		&phone,
		&acct.IsAdmin,
		&acct.IsBusiness,
		&acct.IsUser,
		&tempExpiry,
		&createdAt,
		&lastLogin,
		&acct.IsOnline,
	)
	if err != nil {
		return Account{}, err
	}

	if acct.ID, err = uuid.Parse(id); err != nil {
		return Account{}, fmt.Errorf("parsing account id: %w", err)
	}
	acct.Phone = phone.String
	created, err := parseSQLiteTime(sql.NullString{String: createdAt, Valid: true})
	if err != nil {
		return Account{}, err
	}
	acct.CreatedAt = *created
	if acct.TempAdminExpiry, err = parseSQLiteTime(tempExpiry); err != nil {
		return Account{}, err
	}
	if acct.LastLogin, err = parseSQLiteTime(lastLogin); err != nil {
		return Account{}, err
	}
	return acct, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, params CreateAccountParams) (Account, error) {
	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	id := uuid.New()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, email, password_hash, phone, is_admin, is_business, is_user, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(),
		params.Name,
		params.Email,
		params.PasswordHash,
		nullableString(params.Phone),
		params.IsAdmin,
		params.IsBusiness,
		params.IsUser,
		formatSQLiteTime(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Account{}, ErrEmailTaken
		}
		return Account{}, fmt.Errorf("inserting account: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id uuid.UUID) (Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id.String())
	return r.lookup(row)
}

func (r *SQLiteRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return r.lookup(row)
}

func (r *SQLiteRepository) lookup(row *sql.Row) (Account, error) {
	acct, err := scanSQLiteAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("querying account: %w", err)
	}
	return acct, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts`)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		acct, err := scanSQLiteAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}
	// Text timestamps do not sort reliably across precisions, so order in Go.
	sortNewestFirst(accounts)
	return accounts, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id uuid.UUID, patch Patch) (Account, error) {
	sets := patch.assignments()
	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}

	clauses := make([]string, 0, len(sets))
	args := make([]any, 0, len(sets)+1)
	for _, s := range sets {
		clauses = append(clauses, s.column+" = ?")
		args = append(args, sqliteValue(s.value))
	}
	args = append(args, id.String())

	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET `+strings.Join(clauses, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return Account{}, ErrEmailTaken
		}
		return Account{}, fmt.Errorf("updating account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Account{}, ErrAccountNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting accounts: %w", err)
	}
	return n, nil
}
