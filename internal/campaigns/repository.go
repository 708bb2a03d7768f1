package campaigns

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("campaign not found")

// Repository provides data access for campaigns.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so reads can run
// inside or outside a transaction.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type CreateParams struct {
	LinkedInAccountID *uuid.UUID
	Name              string
	Timezone          string
	Sequence          Sequence
}

func (r *Repository) Create(ctx context.Context, params CreateParams) (Campaign, error) {
	seq, err := marshalSequence(params.Sequence)
	if err != nil {
		return Campaign{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (linkedin_account_id, name, timezone, sequence_json)
		VALUES ($1, $2, $3, $4)
		RETURNING id, linkedin_account_id, name, timezone, sequence_json, status, created_at
	`, params.LinkedInAccountID, params.Name, params.Timezone, seq)

	return scanCampaign(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Campaign, error) {
	return r.get(ctx, r.pool, id)
}

// GetByIDTx reads a campaign inside an open transaction.
func (r *Repository) GetByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (Campaign, error) {
	return r.get(ctx, tx, id)
}

func (r *Repository) get(ctx context.Context, q Querier, id uuid.UUID) (Campaign, error) {
	row := q.QueryRow(ctx, `
		SELECT id, linkedin_account_id, name, timezone, sequence_json, status, created_at
		FROM campaigns
		WHERE id = $1
	`, id)

	c, err := scanCampaign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	return c, err
}

func (r *Repository) List(ctx context.Context) ([]Campaign, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, linkedin_account_id, name, timezone, sequence_json, status, created_at
		FROM campaigns
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// UpdateSequence replaces the campaign's sequence and timezone.
func (r *Repository) UpdateSequence(ctx context.Context, id uuid.UUID, timezone string, seq Sequence) error {
	raw, err := marshalSequence(seq)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET sequence_json = $2, timezone = $3 WHERE id = $1
	`, id, raw, timezone)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus updates the campaign status.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE campaigns SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalSequence(seq Sequence) ([]byte, error) {
	if seq == nil {
		return nil, nil
	}
	return json.Marshal(seq)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (Campaign, error) {
	var (
		c         Campaign
		rawSeq    []byte
		status    string
		createdAt time.Time
	)
	if err := row.Scan(&c.ID, &c.LinkedInAccountID, &c.Name, &c.Timezone, &rawSeq, &status, &createdAt); err != nil {
		return Campaign{}, err
	}
	c.Status = Status(status)
	c.CreatedAt = createdAt
	if len(rawSeq) > 0 {
		if err := json.Unmarshal(rawSeq, &c.Sequence); err != nil {
			return Campaign{}, err
		}
	}
	return c, nil
}
