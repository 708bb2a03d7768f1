package scheduler

import (
	"context"
	"time"

	"outreach_backend/internal/accounts"
	"outreach_backend/internal/activity"
	"outreach_backend/internal/campaigns"
	"outreach_backend/internal/leads"
	"outreach_backend/internal/outreach/ratelimit"
	"outreach_backend/platform/logger"
)

const backfillBatchSize = 100

// conversationFinder is the slice of the provider client backfills need.
type conversationFinder interface {
	FindConversation(ctx context.Context, accountID, providerID string) (string, error)
}

// Nightly runs the once-a-day reconciliation jobs: conversation id backfill
// for messaged leads and rate counter reconciliation from the event log.
type Nightly struct {
	leadsRepo  *leads.Repository
	campRepo   *campaigns.Repository
	acctRepo   *accounts.Repository
	activities *activity.Repository
	limiter    *ratelimit.Limiter
	api        conversationFinder
	log        *logger.Logger
}

func NewNightly(
	leadsRepo *leads.Repository,
	campRepo *campaigns.Repository,
	acctRepo *accounts.Repository,
	activities *activity.Repository,
	limiter *ratelimit.Limiter,
	api conversationFinder,
	log *logger.Logger,
) *Nightly {
	return &Nightly{
		leadsRepo:  leadsRepo,
		campRepo:   campRepo,
		acctRepo:   acctRepo,
		activities: activities,
		limiter:    limiter,
		api:        api,
		log:        log,
	}
}

// Run executes all nightly jobs, continuing past individual failures.
func (n *Nightly) Run(ctx context.Context) {
	n.log.Info("nightly jobs starting")
	n.backfillConversations(ctx)
	n.reconcileUsage(ctx)
	n.log.Info("nightly jobs finished")
}

// backfillConversations finds chat ids for leads that were messaged before
// the chat id was known (e.g. the provider's create response omitted it).
func (n *Nightly) backfillConversations(ctx context.Context) {
	items, err := n.leadsRepo.ListMessagedWithoutConversation(ctx, backfillBatchSize)
	if err != nil {
		n.log.Error("list leads for conversation backfill", "error", err)
		return
	}

	filled := 0
	for _, lead := range items {
		if ctx.Err() != nil {
			return
		}
		accountID, ok := n.accountFor(ctx, lead)
		if !ok {
			continue
		}
		chatID, err := n.api.FindConversation(ctx, accountID, *lead.ProviderID)
		if err != nil {
			n.log.ProviderError("find_conversation", err)
			continue
		}
		if chatID == "" {
			continue
		}
		if err := n.leadsRepo.SetConversationID(ctx, lead.ID, chatID); err != nil {
			n.log.WithLead(lead.ID.String()).DatabaseError("set conversation id", err)
			continue
		}
		filled++
	}
	if filled > 0 {
		n.log.Info("conversation ids backfilled", "count", filled)
	}
}

// reconcileUsage raises today's and yesterday's rate counters to the counts
// derived from the event log, repairing any undercounting from crashes
// between a provider call and its counter bump.
func (n *Nightly) reconcileUsage(ctx context.Context) {
	for _, day := range []time.Time{time.Now().UTC(), time.Now().UTC().AddDate(0, 0, -1)} {
		usages, err := n.activities.CountDailyActions(ctx, day)
		if err != nil {
			n.log.Error("count daily actions", "error", err)
			continue
		}
		for _, usage := range usages {
			if err := n.limiter.Reconcile(ctx, usage.AccountID, day, usage.Invites, usage.Messages); err != nil {
				n.log.Error("reconcile usage", "account_id", usage.AccountID, "error", err)
			}
		}
	}
}

func (n *Nightly) accountFor(ctx context.Context, lead leads.Lead) (string, bool) {
	campaign, err := n.campRepo.GetByID(ctx, lead.CampaignID)
	if err != nil || campaign.LinkedInAccountID == nil {
		return "", false
	}
	account, err := n.acctRepo.GetByID(ctx, *campaign.LinkedInAccountID)
	if err != nil {
		return "", false
	}
	return account.AccountID, true
}
