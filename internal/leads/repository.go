package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"outreach_backend/internal/leads/domain"
)

// ErrNotFound is returned when a lead does not exist.
var ErrNotFound = errors.New("lead not found")

const leadColumns = `id, campaign_id, first_name, last_name, company_name, public_identifier,
	provider_id, conversation_id, status, current_step, last_step_sent_at, connected_at, meta_json, created_at`

// Repository provides lead persistence on Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateParams describes a lead to import.
type CreateParams struct {
	CampaignID       uuid.UUID
	FirstName        string
	LastName         string
	CompanyName      string
	PublicIdentifier string
	ProviderID       *string
	Status           domain.Status
	Meta             map[string]any
}

// Create inserts a single lead. Duplicate public identifiers within the same
// campaign are rejected by the unique constraint.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Lead, error) {
	meta, err := marshalMeta(params.Meta)
	if err != nil {
		return Lead{}, err
	}
	status := params.Status
	if status == "" {
		status = domain.StatusPendingInvite
	}

	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO leads (campaign_id, first_name, last_name, company_name, public_identifier, provider_id, status, meta_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s
	`, leadColumns), params.CampaignID, params.FirstName, params.LastName, params.CompanyName,
		params.PublicIdentifier, params.ProviderID, status, meta)

	return scanLead(row)
}

// CreateBatch imports many leads, skipping duplicates. Returns the number
// actually inserted.
func (r *Repository) CreateBatch(ctx context.Context, items []CreateParams) (int, error) {
	inserted := 0
	for _, params := range items {
		meta, err := marshalMeta(params.Meta)
		if err != nil {
			return inserted, err
		}
		status := params.Status
		if status == "" {
			status = domain.StatusPendingInvite
		}
		tag, err := r.pool.Exec(ctx, `
			INSERT INTO leads (campaign_id, first_name, last_name, company_name, public_identifier, provider_id, status, meta_json)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (campaign_id, public_identifier) DO NOTHING
		`, params.CampaignID, params.FirstName, params.LastName, params.CompanyName,
			params.PublicIdentifier, params.ProviderID, status, meta)
		if err != nil {
			return inserted, fmt.Errorf("insert lead %s: %w", params.PublicIdentifier, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM leads WHERE id = $1`, leadColumns), id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// GetForUpdate loads a lead inside tx with a row lock, serializing all
// processing for that lead until the transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (Lead, error) {
	row := tx.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM leads WHERE id = $1 FOR UPDATE`, leadColumns), id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// ListByCampaign returns a page of leads for a campaign, newest first.
func (r *Repository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]Lead, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE campaign_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, leadColumns), campaignID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeads(rows)
}

// CountByStatus returns per-status lead counts for a campaign.
func (r *Repository) CountByStatus(ctx context.Context, campaignID uuid.UUID) (map[domain.Status]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM leads WHERE campaign_id = $1 GROUP BY status
	`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[domain.Status(status)] = count
	}
	return counts, rows.Err()
}

// ListAutomatable returns ids of leads the scheduler should consider this
// tick: leads in an automatable status whose campaign is active and whose
// account is connected. Order is randomized so one campaign cannot starve
// the others within a tick.
func (r *Repository) ListAutomatable(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.id
		FROM leads l
		JOIN campaigns c ON c.id = l.campaign_id
		JOIN linkedin_accounts a ON a.id = c.linkedin_account_id
		WHERE l.status = ANY($1)
		  AND c.status = 'active'
		  AND a.status = 'connected'
		ORDER BY random()
		LIMIT $2
	`, statusStrings(domain.AutomatableStatuses()), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListInviteSentByAccount returns leads waiting on an invite for one account.
func (r *Repository) ListInviteSentByAccount(ctx context.Context, accountID uuid.UUID) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM leads l
		WHERE l.status = $1
		  AND l.campaign_id IN (SELECT id FROM campaigns WHERE linkedin_account_id = $2)
	`, prefixColumns("l")), string(domain.StatusInviteSent), accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeads(rows)
}

// ListPendingInviteWithProvider returns pending_invite leads for one account
// whose provider id is already known. These are candidates for the
// invite-sent recovery: an invite that went out but whose state change was
// lost before commit.
func (r *Repository) ListPendingInviteWithProvider(ctx context.Context, accountID uuid.UUID) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM leads l
		WHERE l.status = $1
		  AND l.provider_id IS NOT NULL
		  AND l.campaign_id IN (SELECT id FROM campaigns WHERE linkedin_account_id = $2)
	`, prefixColumns("l")), string(domain.StatusPendingInvite), accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeads(rows)
}

// MarkInviteSent upgrades a pending_invite lead whose invite the provider
// reports as outstanding. Guarded on the current status so a concurrent
// step execution wins.
func (r *Repository) MarkInviteSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads SET status = $2, last_step_sent_at = COALESCE(last_step_sent_at, now())
		WHERE id = $1 AND status = $3
	`, id, string(domain.StatusInviteSent), string(domain.StatusPendingInvite))
	return err
}

// FindByProviderID returns the most recent non-terminal lead with the given
// provider profile id.
func (r *Repository) FindByProviderID(ctx context.Context, providerID string) (Lead, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE provider_id = $1 AND status NOT IN ('responded', 'completed', 'error')
		ORDER BY created_at DESC
		LIMIT 1
	`, leadColumns), providerID)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// FindByConversationID returns the lead attached to a provider chat.
func (r *Repository) FindByConversationID(ctx context.Context, conversationID string) (Lead, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, leadColumns), conversationID)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// FindByPublicIdentifier returns the most recent non-terminal lead with the
// given public profile identifier.
func (r *Repository) FindByPublicIdentifier(ctx context.Context, publicIdentifier string) (Lead, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE public_identifier = $1 AND status NOT IN ('responded', 'completed', 'error')
		ORDER BY created_at DESC
		LIMIT 1
	`, leadColumns), publicIdentifier)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// FindInviteSentByName is the last-resort match for connection detection
// when the provider payload carries no stable identifier. Case-insensitive
// on both name parts; returns ErrNotFound unless exactly one lead matches.
func (r *Repository) FindInviteSentByName(ctx context.Context, firstName, lastName string) (Lead, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE status = $1
		  AND LOWER(TRIM(first_name)) = LOWER(TRIM($2))
		  AND LOWER(TRIM(last_name)) = LOWER(TRIM($3))
	`, leadColumns), string(domain.StatusInviteSent), firstName, lastName)
	if err != nil {
		return Lead{}, err
	}
	defer rows.Close()

	matches, err := scanLeads(rows)
	if err != nil {
		return Lead{}, err
	}
	if len(matches) != 1 {
		return Lead{}, ErrNotFound
	}
	return matches[0], nil
}

// StepResult captures the lead mutations of one executed sequence step.
type StepResult struct {
	Status         domain.Status
	CurrentStep    int
	ProviderID     *string
	ConversationID *string
	SentAt         time.Time
	ConnectedAt    *time.Time
}

// ApplyStepResultTx writes the outcome of a step execution under the lead's
// row lock. COALESCE keeps previously learned provider and conversation ids.
func (r *Repository) ApplyStepResultTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, res StepResult) error {
	_, err := tx.Exec(ctx, `
		UPDATE leads SET
			status = $2,
			current_step = $3,
			provider_id = COALESCE($4, provider_id),
			conversation_id = COALESCE($5, conversation_id),
			last_step_sent_at = $6,
			connected_at = COALESCE($7, connected_at)
		WHERE id = $1
	`, id, string(res.Status), res.CurrentStep, res.ProviderID, res.ConversationID, res.SentAt, res.ConnectedAt)
	return err
}

// SetStatusTx updates only the status under an existing transaction.
func (r *Repository) SetStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.Status) error {
	_, err := tx.Exec(ctx, `UPDATE leads SET status = $2 WHERE id = $1`, id, string(status))
	return err
}

// MarkConnectedTx transitions a lead to connected and stamps connected_at.
func (r *Repository) MarkConnectedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE leads SET status = $2, connected_at = COALESCE(connected_at, $3) WHERE id = $1
	`, id, string(domain.StatusConnected), at)
	return err
}

// SetConversationID backfills a discovered chat id.
func (r *Repository) SetConversationID(ctx context.Context, id uuid.UUID, conversationID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads SET conversation_id = $2 WHERE id = $1 AND conversation_id IS NULL
	`, id, conversationID)
	return err
}

// ListMessagedWithoutConversation returns leads that were messaged but whose
// chat id was never recorded, for the nightly backfill.
func (r *Repository) ListMessagedWithoutConversation(ctx context.Context, limit int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE conversation_id IS NULL
		  AND provider_id IS NOT NULL
		  AND status IN ('messaged', 'responded')
		LIMIT $1
	`, leadColumns), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeads(rows)
}

// ResetError returns an errored lead to the start of automation.
func (r *Repository) ResetError(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET status = $2 WHERE id = $1 AND status = $3
	`, id, string(domain.StatusPendingInvite), string(domain.StatusError))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (Lead, error) {
	var l Lead
	var status string
	var meta []byte
	err := row.Scan(&l.ID, &l.CampaignID, &l.FirstName, &l.LastName, &l.CompanyName,
		&l.PublicIdentifier, &l.ProviderID, &l.ConversationID, &status, &l.CurrentStep,
		&l.LastStepSentAt, &l.ConnectedAt, &meta, &l.CreatedAt)
	if err != nil {
		return Lead{}, err
	}
	l.Status = domain.Status(status)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &l.Meta); err != nil {
			return Lead{}, fmt.Errorf("decode lead meta: %w", err)
		}
	}
	return l, nil
}

func scanLeads(rows pgx.Rows) ([]Lead, error) {
	var out []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	return out, rows.Err()
}

func marshalMeta(meta map[string]any) ([]byte, error) {
	if meta == nil {
		return nil, nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode lead meta: %w", err)
	}
	return data, nil
}

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func prefixColumns(alias string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.campaign_id, %[1]s.first_name, %[1]s.last_name, %[1]s.company_name, %[1]s.public_identifier,
	%[1]s.provider_id, %[1]s.conversation_id, %[1]s.status, %[1]s.current_step, %[1]s.last_step_sent_at, %[1]s.connected_at, %[1]s.meta_json, %[1]s.created_at`, alias)
}
