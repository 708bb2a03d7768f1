package scheduler

import (
	"context"
	"strings"

	"outreach_backend/internal/accounts"
	"outreach_backend/internal/leads"
	"outreach_backend/internal/provider"
	"outreach_backend/platform/logger"
)

const maxRelationPages = 10

// relationLister is the slice of the provider client detection needs.
type relationLister interface {
	ListRelations(ctx context.Context, accountID, cursor string) (provider.RelationsPage, error)
	ListSentInvitations(ctx context.Context, accountID string) ([]provider.Invitation, error)
}

// ConnectionChecker is the polling fallback for invite acceptance. Webhooks
// are the fast path; this catches acceptances whose webhook was missed by
// comparing invite_sent leads against the account's relations list.
type ConnectionChecker struct {
	acctRepo  *accounts.Repository
	leadsRepo *leads.Repository
	leadsSvc  *leads.Service
	api       relationLister
	log       *logger.Logger
}

func NewConnectionChecker(
	acctRepo *accounts.Repository,
	leadsRepo *leads.Repository,
	leadsSvc *leads.Service,
	api relationLister,
	log *logger.Logger,
) *ConnectionChecker {
	return &ConnectionChecker{
		acctRepo:  acctRepo,
		leadsRepo: leadsRepo,
		leadsSvc:  leadsSvc,
		api:       api,
		log:       log,
	}
}

// Run checks every connected account once.
func (c *ConnectionChecker) Run(ctx context.Context) {
	accts, err := c.acctRepo.ListConnected(ctx)
	if err != nil {
		c.log.Error("list accounts for connection check", "error", err)
		return
	}
	for _, account := range accts {
		if ctx.Err() != nil {
			return
		}
		c.checkAccount(ctx, account)
	}
}

func (c *ConnectionChecker) checkAccount(ctx context.Context, account accounts.Account) {
	waiting, err := c.leadsRepo.ListInviteSentByAccount(ctx, account.ID)
	if err != nil {
		c.log.Error("list invite_sent leads", "account_id", account.AccountID, "error", err)
		return
	}
	invites := c.sentInvitations(ctx, account.AccountID)
	c.recoverInviteState(ctx, account, invites)
	if len(waiting) == 0 {
		return
	}

	relations, err := c.fetchRelations(ctx, account.AccountID)
	if err != nil {
		c.log.ProviderError("list_relations", err)
		return
	}

	detected := 0
	for _, lead := range waiting {
		switch invitationStatus(invites, lead) {
		case "accepted":
			if err := c.leadsSvc.MarkConnected(ctx, lead.ID, account.AccountID, "invitation_check"); err != nil {
				c.log.WithLead(lead.ID.String()).Error("mark connected", "error", err)
				continue
			}
			detected++
			continue
		case "pending":
			// Still listed as sent, definitively not accepted yet.
			continue
		}
		if c.matchRelation(relations, lead) {
			if err := c.leadsSvc.MarkConnected(ctx, lead.ID, account.AccountID, "relation_check"); err != nil {
				c.log.WithLead(lead.ID.String()).Error("mark connected", "error", err)
				continue
			}
			detected++
		}
	}
	if detected > 0 {
		c.log.Info("connections detected", "account_id", account.AccountID, "count", detected)
	}
}

// recoverInviteState repairs pending_invite leads whose invite the provider
// already knows about, which happens when a send succeeded but the state
// change was lost before commit.
func (c *ConnectionChecker) recoverInviteState(ctx context.Context, account accounts.Account, invites map[string]string) {
	if len(invites) == 0 {
		return
	}
	stale, err := c.leadsRepo.ListPendingInviteWithProvider(ctx, account.ID)
	if err != nil {
		c.log.Error("list pending_invite leads", "account_id", account.AccountID, "error", err)
		return
	}
	for _, lead := range stale {
		switch invitationStatus(invites, lead) {
		case "pending":
			if err := c.leadsRepo.MarkInviteSent(ctx, lead.ID); err != nil {
				c.log.WithLead(lead.ID.String()).DatabaseError("mark invite sent", err)
				continue
			}
			c.log.WithLead(lead.ID.String()).Info("recovered lost invite state")
		case "accepted":
			if err := c.leadsSvc.MarkConnected(ctx, lead.ID, account.AccountID, "invitation_check"); err != nil {
				c.log.WithLead(lead.ID.String()).Error("mark connected", "error", err)
			}
		}
	}
}

func (c *ConnectionChecker) fetchRelations(ctx context.Context, accountID string) ([]provider.Relation, error) {
	var all []provider.Relation
	cursor := ""
	for page := 0; page < maxRelationPages; page++ {
		result, err := c.api.ListRelations(ctx, accountID, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, result.Items...)
		if result.Cursor == "" {
			break
		}
		cursor = result.Cursor
	}
	return all, nil
}

// sentInvitations returns invitation status keyed by both the invitee's
// provider id and public identifier. A provider failure degrades to an
// empty map; relation matching alone is still correct, just less informed.
func (c *ConnectionChecker) sentInvitations(ctx context.Context, accountID string) map[string]string {
	invitations, err := c.api.ListSentInvitations(ctx, accountID)
	if err != nil {
		c.log.ProviderError("list_sent_invitations", err)
		return map[string]string{}
	}
	statuses := make(map[string]string, len(invitations)*2)
	for _, inv := range invitations {
		status := strings.ToLower(inv.Status)
		if inv.ProviderID != "" {
			statuses[inv.ProviderID] = status
		}
		if inv.PublicIdentifier != "" {
			statuses[inv.PublicIdentifier] = status
		}
	}
	return statuses
}

// invitationStatus looks a lead up in the invitation map, empty string when
// the provider has no record of an invite to this lead.
func invitationStatus(invites map[string]string, lead leads.Lead) string {
	if lead.ProviderID != nil && *lead.ProviderID != "" {
		if status, ok := invites[*lead.ProviderID]; ok {
			return status
		}
	}
	if lead.PublicIdentifier != "" {
		if status, ok := invites[lead.PublicIdentifier]; ok {
			return status
		}
	}
	return ""
}

// matchRelation tries provider id, then public identifier, then an exact
// case-insensitive full name as a last resort.
func (c *ConnectionChecker) matchRelation(relations []provider.Relation, lead leads.Lead) bool {
	for _, rel := range relations {
		if lead.ProviderID != nil && *lead.ProviderID != "" && rel.ProviderID == *lead.ProviderID {
			return true
		}
		if rel.PublicIdentifier != "" && rel.PublicIdentifier == lead.PublicIdentifier {
			return true
		}
	}

	first := strings.ToLower(strings.TrimSpace(lead.FirstName))
	last := strings.ToLower(strings.TrimSpace(lead.LastName))
	if first == "" || last == "" {
		return false
	}
	matches := 0
	for _, rel := range relations {
		if strings.ToLower(strings.TrimSpace(rel.FirstName)) == first &&
			strings.ToLower(strings.TrimSpace(rel.LastName)) == last {
			matches++
		}
	}
	if matches == 1 {
		c.log.WithLead(lead.ID.String()).Warn("connection matched by name only")
		return true
	}
	return false
}
