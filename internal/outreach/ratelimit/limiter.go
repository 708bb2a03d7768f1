// Package ratelimit enforces per-account daily action budgets. Counters are
// persisted in Postgres so restarts never reset a day's spend, and checked
// under a row lock so concurrent workers cannot both consume the last slot.
package ratelimit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Usage is one account's action counts for a calendar day.
type Usage struct {
	Invites  int
	Messages int
}

// Limiter combines the configured caps with persisted usage counters.
type Limiter struct {
	pool        *pgxpool.Pool
	maxInvites  int
	maxMessages int
}

func New(pool *pgxpool.Pool, maxInvites, maxMessages int) *Limiter {
	return &Limiter{pool: pool, maxInvites: maxInvites, maxMessages: maxMessages}
}

// CanSendInvite reports whether the usage leaves invite budget.
func (l *Limiter) CanSendInvite(u Usage) bool {
	return u.Invites < l.maxInvites
}

// CanSendMessage reports whether the usage leaves message budget. Priority
// leads (already-connected imports) run on a doubled cap since messages to
// existing relations carry less account risk than cold outreach.
func (l *Limiter) CanSendMessage(u Usage, priority bool) bool {
	limit := l.maxMessages
	if priority {
		limit *= 2
	}
	return u.Messages < limit
}

// LockUsageTx ensures today's counter row exists and locks it for the rest
// of the transaction. Between this call and commit no other worker can read
// or bump the same account's counters, which makes check-then-increment
// atomic.
func (l *Limiter) LockUsageTx(ctx context.Context, tx pgx.Tx, accountID string, day time.Time) (Usage, error) {
	date := day.UTC().Format("2006-01-02")

	if _, err := tx.Exec(ctx, `
		INSERT INTO rate_usage (account_id, usage_date)
		VALUES ($1, $2)
		ON CONFLICT (account_id, usage_date) DO NOTHING
	`, accountID, date); err != nil {
		return Usage{}, err
	}

	var u Usage
	err := tx.QueryRow(ctx, `
		SELECT invites_sent, messages_sent FROM rate_usage
		WHERE account_id = $1 AND usage_date = $2
		FOR UPDATE
	`, accountID, date).Scan(&u.Invites, &u.Messages)
	return u, err
}

// IncrementInviteTx bumps the locked invite counter. Call only after the
// provider accepted the action, inside the same transaction as LockUsageTx.
func (l *Limiter) IncrementInviteTx(ctx context.Context, tx pgx.Tx, accountID string, day time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE rate_usage SET invites_sent = invites_sent + 1
		WHERE account_id = $1 AND usage_date = $2
	`, accountID, day.UTC().Format("2006-01-02"))
	return err
}

// IncrementMessageTx bumps the locked message counter.
func (l *Limiter) IncrementMessageTx(ctx context.Context, tx pgx.Tx, accountID string, day time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE rate_usage SET messages_sent = messages_sent + 1
		WHERE account_id = $1 AND usage_date = $2
	`, accountID, day.UTC().Format("2006-01-02"))
	return err
}

// GetUsage reads a day's counters without locking, for status endpoints.
func (l *Limiter) GetUsage(ctx context.Context, accountID string, day time.Time) (Usage, error) {
	var u Usage
	err := l.pool.QueryRow(ctx, `
		SELECT invites_sent, messages_sent FROM rate_usage
		WHERE account_id = $1 AND usage_date = $2
	`, accountID, day.UTC().Format("2006-01-02")).Scan(&u.Invites, &u.Messages)
	if err == pgx.ErrNoRows {
		return Usage{}, nil
	}
	return u, err
}

// Reconcile raises a day's counters to at least the given values. The
// nightly job derives true counts from the event log; GREATEST means
// reconciliation can only tighten the budget, never refund it.
func (l *Limiter) Reconcile(ctx context.Context, accountID string, day time.Time, invites, messages int) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO rate_usage (account_id, usage_date, invites_sent, messages_sent)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, usage_date) DO UPDATE SET
			invites_sent = GREATEST(rate_usage.invites_sent, EXCLUDED.invites_sent),
			messages_sent = GREATEST(rate_usage.messages_sent, EXCLUDED.messages_sent)
	`, accountID, day.UTC().Format("2006-01-02"), invites, messages)
	return err
}
