package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when an account does not exist.
var ErrNotFound = errors.New("account not found")

const accountColumns = `id, account_id, display_name, status, connected_at, created_at`

// Repository provides account persistence on Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert registers a provider account or refreshes its status. Keyed on the
// provider's account id so reconnects update the same row.
func (r *Repository) Upsert(ctx context.Context, accountID, displayName string, status Status) (Account, error) {
	var connectedAt *time.Time
	if status == StatusConnected {
		now := time.Now().UTC()
		connectedAt = &now
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO linkedin_accounts (account_id, display_name, status, connected_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id) DO UPDATE SET
			display_name = CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name ELSE linkedin_accounts.display_name END,
			status = EXCLUDED.status,
			connected_at = COALESCE(EXCLUDED.connected_at, linkedin_accounts.connected_at)
		RETURNING `+accountColumns,
		accountID, displayName, string(status), connectedAt)
	return scanAccount(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM linkedin_accounts WHERE id = $1`, id)
	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return account, err
}

// GetByAccountID looks up by the provider's identifier.
func (r *Repository) GetByAccountID(ctx context.Context, accountID string) (Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM linkedin_accounts WHERE account_id = $1`, accountID)
	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return account, err
}

func (r *Repository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM linkedin_accounts ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	return out, rows.Err()
}

// ListConnected returns accounts eligible for sending.
func (r *Repository) ListConnected(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+` FROM linkedin_accounts WHERE status = $1 ORDER BY created_at
	`, string(StatusConnected))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	return out, rows.Err()
}

// SetStatus updates an account's status by the provider identifier and
// returns the previous status so callers can detect transitions.
func (r *Repository) SetStatus(ctx context.Context, accountID string, status Status) (Status, error) {
	var previous string
	err := r.pool.QueryRow(ctx, `
		UPDATE linkedin_accounts a SET
			status = $2,
			connected_at = CASE WHEN $2 = 'connected' AND a.connected_at IS NULL THEN now() ELSE a.connected_at END
		FROM (SELECT status FROM linkedin_accounts WHERE account_id = $1 FOR UPDATE) prev
		WHERE a.account_id = $1
		RETURNING prev.status
	`, accountID, string(status)).Scan(&previous)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(previous), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var a Account
	var status string
	err := row.Scan(&a.ID, &a.AccountID, &a.DisplayName, &status, &a.ConnectedAt, &a.CreatedAt)
	if err != nil {
		return Account{}, err
	}
	a.Status = Status(status)
	return a, nil
}
