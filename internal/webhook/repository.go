// Package webhook receives provider callbacks and turns them into lead and
// account transitions.
package webhook

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository captures every raw inbound payload before interpretation, so
// missed or misparsed webhooks can be replayed from storage.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveRaw stores one inbound webhook verbatim.
func (r *Repository) SaveRaw(ctx context.Context, source string, headers map[string]string, payload []byte) error {
	headerJSON, err := json.Marshal(headers)
	if err != nil {
		return err
	}
	if !json.Valid(payload) {
		payload, _ = json.Marshal(map[string]string{"raw": string(payload)})
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO webhook_data (source, headers, payload) VALUES ($1, $2, $3)
	`, source, headerJSON, payload)
	return err
}
