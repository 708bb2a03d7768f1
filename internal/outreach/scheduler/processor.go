package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"outreach_backend/internal/accounts"
	"outreach_backend/internal/activity"
	"outreach_backend/internal/campaigns"
	"outreach_backend/internal/events"
	"outreach_backend/internal/leads"
	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/outreach/ratelimit"
	"outreach_backend/internal/outreach/sequence"
	"outreach_backend/internal/provider"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
)

// stepEventTypes are the engine-written events used as the dedup signal.
var stepEventTypes = []string{
	activity.TypeConnectionRequestSent,
	activity.TypeMessageSent,
	activity.TypeConnectionAccepted,
}

// Processor runs one lead through the engine inside a single transaction.
// The lead's row lock is the mutual exclusion: a second worker picking the
// same lead blocks until the first commits, then sees the advanced state
// and the fresh event and does nothing.
type Processor struct {
	pool       *pgxpool.Pool
	leadsRepo  *leads.Repository
	leadsSvc   *leads.Service
	campRepo   *campaigns.Repository
	acctRepo   *accounts.Repository
	activities *activity.Repository
	limiter    *ratelimit.Limiter
	engine     *sequence.Engine
	api        sequence.ProviderAPI
	bus        events.Bus
	log        *logger.Logger

	workStart int
	workEnd   int
	dedup     time.Duration

	mu     sync.Mutex
	pacers map[string]*rate.Limiter
	pace   time.Duration
}

func NewProcessor(
	pool *pgxpool.Pool,
	leadsRepo *leads.Repository,
	leadsSvc *leads.Service,
	campRepo *campaigns.Repository,
	acctRepo *accounts.Repository,
	activities *activity.Repository,
	limiter *ratelimit.Limiter,
	api sequence.ProviderAPI,
	bus events.Bus,
	cfg config.OutreachConfig,
	log *logger.Logger,
) *Processor {
	pace := cfg.GetMinActionDelay() / 5
	if pace < 10*time.Second {
		pace = 10 * time.Second
	}
	return &Processor{
		pool:       pool,
		leadsRepo:  leadsRepo,
		leadsSvc:   leadsSvc,
		campRepo:   campRepo,
		acctRepo:   acctRepo,
		activities: activities,
		limiter:    limiter,
		engine:     sequence.NewEngine(cfg.GetMinActionDelay()),
		api:        api,
		bus:        bus,
		log:        log,
		workStart:  cfg.GetWorkingHoursStart(),
		workEnd:    cfg.GetWorkingHoursEnd(),
		dedup:      cfg.GetIdempotencyWindow(),
		pacers:     make(map[string]*rate.Limiter),
		pace:       pace,
	}
}

// pacer returns the per-account send pacer, spreading one account's actions
// out even when many of its leads become eligible in the same tick.
func (p *Processor) pacer(accountID string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	lim, ok := p.pacers[accountID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(p.pace), 1)
		p.pacers[accountID] = lim
	}
	return lim
}

// ProcessLead evaluates and possibly executes one step for the lead.
// Returning nil means "nothing to do right now"; errors are transient
// conditions worth retrying.
func (p *Processor) ProcessLead(ctx context.Context, leadID uuid.UUID) error {
	now := time.Now().UTC()
	log := p.log.WithLead(leadID.String())

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	lead, err := p.leadsRepo.GetForUpdate(ctx, tx, leadID)
	if err != nil {
		if err == leads.ErrNotFound {
			return nil
		}
		return err
	}
	if !lead.Status.Automatable() {
		return nil
	}

	campaign, err := p.campRepo.GetByIDTx(ctx, tx, lead.CampaignID)
	if err != nil {
		return err
	}
	if campaign.Status != campaigns.StatusActive || campaign.LinkedInAccountID == nil {
		return nil
	}

	account, err := p.acctRepo.GetByID(ctx, *campaign.LinkedInAccountID)
	if err != nil {
		return err
	}
	if account.Status != accounts.StatusConnected {
		return nil
	}

	loc, known := campaign.Location()
	if !known {
		log.Warn("campaign timezone unknown, using UTC", "campaign_id", campaign.ID, "timezone", campaign.Timezone)
	}
	if !sequence.IsWorkingHours(now, loc, p.workStart, p.workEnd) {
		return nil
	}

	step := p.engine.NextStep(campaign, lead)
	if step == nil {
		return p.completeLead(ctx, tx, lead, log)
	}

	if el := p.engine.CanExecute(campaign, lead, *step, now); !el.Eligible {
		log.Debug("step not eligible", "step", step.StepOrder, "reason", el.Reason)
		return nil
	}

	// Dedup: a matching event inside the window means another worker (or a
	// crashed run that still committed) already acted on this lead.
	recent, err := p.activities.HasRecentTx(ctx, tx, leadID, stepEventTypes, now.Add(-p.dedup))
	if err != nil {
		return err
	}
	if recent {
		log.Debug("recent step event found, skipping", "step", step.StepOrder)
		return nil
	}

	usage, err := p.limiter.LockUsageTx(ctx, tx, account.AccountID, now)
	if err != nil {
		return err
	}
	switch step.ActionType {
	case campaigns.ActionConnectionRequest:
		if !p.limiter.CanSendInvite(usage) {
			p.log.RateLimitReached(account.AccountID, string(step.ActionType))
			return nil
		}
	case campaigns.ActionMessage:
		if !p.limiter.CanSendMessage(usage, lead.IsFirstLevel()) {
			p.log.RateLimitReached(account.AccountID, string(step.ActionType))
			return nil
		}
	}

	if err := p.pacer(account.AccountID).Wait(ctx); err != nil {
		return err
	}

	res, err := p.engine.Execute(ctx, p.api, account.AccountID, lead, *step)
	if err != nil {
		if provider.IsTransient(err) {
			log.Warn("step failed, will retry", "step", step.StepOrder, "error", err)
			return nil
		}
		// Permanent rejection: abandon this transaction, then record the
		// failure in its own.
		tx.Rollback(ctx)
		if ferr := p.leadsSvc.MarkFailed(ctx, leadID, err.Error()); ferr != nil {
			log.Error("mark lead failed", "error", ferr)
		}
		return nil
	}

	if err := p.leadsRepo.ApplyStepResultTx(ctx, tx, leadID, leads.StepResult{
		Status:         res.NewStatus,
		CurrentStep:    res.CurrentStep,
		ProviderID:     res.ProviderID,
		ConversationID: res.ConversationID,
		SentAt:         now,
		ConnectedAt:    res.ConnectedAt,
	}); err != nil {
		return err
	}

	switch res.EventType {
	case activity.TypeConnectionRequestSent:
		if err := p.limiter.IncrementInviteTx(ctx, tx, account.AccountID, now); err != nil {
			return err
		}
	case activity.TypeMessageSent:
		if err := p.limiter.IncrementMessageTx(ctx, tx, account.AccountID, now); err != nil {
			return err
		}
	}

	if err := p.activities.InsertTx(ctx, tx, &leadID, res.EventType, res.Meta); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	log.Info("step executed",
		"campaign_id", campaign.ID,
		"step", res.CurrentStep,
		"action", step.ActionType,
		"new_status", res.NewStatus,
	)
	p.bus.Publish(ctx, events.StepExecuted{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     leadID,
		CampaignID: campaign.ID,
		StepOrder:  res.CurrentStep,
		ActionType: string(step.ActionType),
	})
	return nil
}

// completeLead closes out a lead whose sequence is exhausted. Leads that
// cannot legally complete (a pending lead facing an empty usable sequence)
// are left alone.
func (p *Processor) completeLead(ctx context.Context, tx pgx.Tx, lead leads.Lead, log *logger.Logger) error {
	if !lead.Status.CanTransition(domain.StatusCompleted) {
		return nil
	}
	if err := p.leadsRepo.SetStatusTx(ctx, tx, lead.ID, domain.StatusCompleted); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Info("sequence completed", "campaign_id", lead.CampaignID)
	return nil
}
