package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides event persistence on Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert records an event outside any transaction.
func (r *Repository) Insert(ctx context.Context, leadID *uuid.UUID, eventType string, meta map[string]any) error {
	data, err := marshalMeta(meta)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO events (lead_id, event_type, meta_json) VALUES ($1, $2, $3)
	`, leadID, eventType, data)
	return err
}

// InsertTx records an event inside the caller's transaction so the event
// commits atomically with the lead mutation it describes.
func (r *Repository) InsertTx(ctx context.Context, tx pgx.Tx, leadID *uuid.UUID, eventType string, meta map[string]any) error {
	data, err := marshalMeta(meta)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO events (lead_id, event_type, meta_json) VALUES ($1, $2, $3)
	`, leadID, eventType, data)
	return err
}

// HasRecentTx reports whether the lead already has an event of one of the
// given types since the cutoff. Runs inside the lead's transaction so the
// check observes events committed by concurrent workers before their locks
// were released.
func (r *Repository) HasRecentTx(ctx context.Context, tx pgx.Tx, leadID uuid.UUID, types []string, since time.Time) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM events
			WHERE lead_id = $1 AND event_type = ANY($2) AND occurred_at >= $3
		)
	`, leadID, types, since).Scan(&exists)
	return exists, err
}

// ListByLead returns a lead's history, newest first.
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, event_type, occurred_at, meta_json
		FROM events
		WHERE lead_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var meta []byte
		if err := rows.Scan(&e.ID, &e.LeadID, &e.EventType, &e.OccurredAt, &meta); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Meta); err != nil {
				return nil, fmt.Errorf("decode event meta: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DailyUsage is one account's action counts derived from the event log.
type DailyUsage struct {
	AccountID string
	Invites   int
	Messages  int
}

// CountDailyActions aggregates sent actions per account for one calendar
// day, used by the nightly job to reconcile the rate_usage counters against
// the event log.
func (r *Repository) CountDailyActions(ctx context.Context, day time.Time) ([]DailyUsage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.account_id,
		       COUNT(*) FILTER (WHERE e.event_type = $1) AS invites,
		       COUNT(*) FILTER (WHERE e.event_type = $2) AS messages
		FROM events e
		JOIN leads l ON l.id = e.lead_id
		JOIN campaigns c ON c.id = l.campaign_id
		JOIN linkedin_accounts a ON a.id = c.linkedin_account_id
		WHERE e.event_type IN ($1, $2)
		  AND e.occurred_at >= $3 AND e.occurred_at < $4
		GROUP BY a.account_id
	`, TypeConnectionRequestSent, TypeMessageSent,
		day.Truncate(24*time.Hour), day.Truncate(24*time.Hour).Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailyUsage
	for rows.Next() {
		var u DailyUsage
		if err := rows.Scan(&u.AccountID, &u.Invites, &u.Messages); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func marshalMeta(meta map[string]any) ([]byte, error) {
	if meta == nil {
		return nil, nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode event meta: %w", err)
	}
	return data, nil
}
