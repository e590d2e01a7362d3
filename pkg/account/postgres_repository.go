package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

const accountColumns = `id, name, email, password_hash, phone, is_admin, is_business, is_user,
	temp_admin_expiry, created_at, last_login, is_online`

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL account repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanAccount(row pgx.Row) (Account, error) {
	var acct Account
	var phone *string
	err := row.Scan(
		&acct.ID,
		&acct.Name,
		&acct.Email,
		&acct.PasswordHash,
		&phone,
		&acct.IsAdmin,
		&acct.IsBusiness,
		&acct.IsUser,
		&acct.TempAdminExpiry,
		&acct.CreatedAt,
		&acct.LastLogin,
		&acct.IsOnline,
	)
	if err != nil {
		return Account{}, err
	}
	if phone != nil {
		acct.Phone = *phone
	}
	return acct, nil
}

func translatePgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAccountNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrEmailTaken
	}
	return err
}

func (r *PostgresRepository) Create(ctx context.Context, params CreateAccountParams) (Account, error) {
	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO accounts (name, email, password_hash, phone, is_admin, is_business, is_user, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + accountColumns

	acct, err := scanAccount(r.pool.QueryRow(ctx, query,
		params.Name,
		params.Email,
		params.PasswordHash,
		nullableString(params.Phone),
		params.IsAdmin,
		params.IsBusiness,
		params.IsUser,
		createdAt.UTC(),
	))
	if err != nil {
		if err = translatePgError(err); errors.Is(err, ErrEmailTaken) {
			return Account{}, err
		}
		return Account{}, fmt.Errorf("failed to create account: %w", err)
	}
	return acct, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acct, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return Account{}, r.wrapLookup(err, "failed to get account")
	}
	return acct, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	acct, err := scanAccount(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		return Account{}, r.wrapLookup(err, "failed to get account by email")
	}
	return acct, nil
}

func (r *PostgresRepository) wrapLookup(err error, msg string) error {
	err = translatePgError(err)
	if errors.Is(err, ErrAccountNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func (r *PostgresRepository) List(ctx context.Context) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

// Update applies the patch in a single UPDATE statement.
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, patch Patch) (Account, error) {
	sets := patch.assignments()
	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}

	clauses := make([]string, 0, len(sets))
	args := make([]any, 0, len(sets)+1)
	args = append(args, id)
	for _, s := range sets {
		args = append(args, s.value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", s.column, len(args)))
	}

	query := `UPDATE accounts SET ` + strings.Join(clauses, ", ") +
		` WHERE id = $1 RETURNING ` + accountColumns

	acct, err := scanAccount(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return Account{}, r.wrapLookup(err, "failed to update account")
	}
	return acct, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return n, nil
}
