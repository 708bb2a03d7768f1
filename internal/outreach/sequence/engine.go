package sequence

import (
	"context"
	"fmt"
	"time"

	"outreach_backend/internal/activity"
	"outreach_backend/internal/campaigns"
	"outreach_backend/internal/leads"
	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/provider"
)

// ProviderAPI is the slice of the provider client the engine needs.
// Narrowed to an interface so engine tests can run against a fake.
type ProviderAPI interface {
	ResolveProfile(ctx context.Context, accountID, identifier string) (provider.Profile, error)
	SendConnectionRequest(ctx context.Context, accountID, providerID, message string) error
	StartChat(ctx context.Context, accountID, providerID, text string) (string, error)
	SendMessage(ctx context.Context, chatID, text string) error
	FindConversation(ctx context.Context, accountID, providerID string) (string, error)
}

// Engine decides which step a lead gets next, whether it may fire now, and
// performs the provider call. It holds no storage; the scheduler persists
// the returned result under the lead's row lock.
type Engine struct {
	minActionDelay time.Duration
}

func NewEngine(minActionDelay time.Duration) *Engine {
	return &Engine{minActionDelay: minActionDelay}
}

// NextStep returns the lead's next sequence step, or nil when the sequence
// is exhausted. Connection request steps are skipped for leads imported
// from existing relations and for leads already past pending_invite: a lead
// that reached connected through detection has no invite left to send.
func (e *Engine) NextStep(campaign campaigns.Campaign, lead leads.Lead) *campaigns.Step {
	skipConnect := lead.IsFirstLevel() || lead.Status != domain.StatusPendingInvite
	return campaign.Sequence.NextAfter(lead.CurrentStep, skipConnect)
}

// Eligibility is the outcome of a CanExecute check. Reason is a short
// machine-friendly token for logs.
type Eligibility struct {
	Eligible bool
	Reason   string
}

func blocked(reason string) Eligibility { return Eligibility{Reason: reason} }

// CanExecute checks the step's status precondition and delay gate against
// now. The first message after an accepted invite is exempt from the step's
// configured delay; only the minimum action spacing applies, measured from
// the acceptance.
func (e *Engine) CanExecute(campaign campaigns.Campaign, lead leads.Lead, step campaigns.Step, now time.Time) Eligibility {
	switch step.ActionType {
	case campaigns.ActionConnectionRequest:
		if lead.Status != domain.StatusPendingInvite {
			return blocked("status_not_pending_invite")
		}
	case campaigns.ActionMessage:
		if lead.Status != domain.StatusConnected && lead.Status != domain.StatusMessaged {
			return blocked("status_not_connected")
		}
	default:
		return blocked("unknown_action_type")
	}

	loc, _ := campaign.Location()

	// Accepted but never messaged: send the opener without the configured
	// step delay, spaced off the acceptance time.
	if step.ActionType == campaigns.ActionMessage && lead.Status == domain.StatusConnected {
		if lead.ConnectedAt != nil && now.Before(lead.ConnectedAt.Add(e.minActionDelay)) {
			return blocked("min_action_delay")
		}
		return Eligibility{Eligible: true}
	}

	if lead.LastStepSentAt == nil {
		return Eligibility{Eligible: true}
	}
	if now.Before(lead.LastStepSentAt.Add(e.minActionDelay)) {
		return blocked("min_action_delay")
	}
	if now.Before(EligibleAt(step, loc, *lead.LastStepSentAt)) {
		return blocked("step_delay")
	}
	return Eligibility{Eligible: true}
}

// ExecResult is what one successful step execution changed.
type ExecResult struct {
	NewStatus      domain.Status
	CurrentStep    int
	ProviderID     *string
	ConversationID *string
	ConnectedAt    *time.Time
	EventType      string
	Meta           map[string]any
}

// Execute performs the provider call for one step and returns the lead
// mutations to persist. Errors are returned unwrapped so the caller can
// classify them as transient or permanent.
func (e *Engine) Execute(ctx context.Context, api ProviderAPI, accountID string, lead leads.Lead, step campaigns.Step) (ExecResult, error) {
	switch step.ActionType {
	case campaigns.ActionConnectionRequest:
		return e.executeConnectionRequest(ctx, api, accountID, lead, step)
	case campaigns.ActionMessage:
		return e.executeMessage(ctx, api, accountID, lead, step)
	default:
		return ExecResult{}, fmt.Errorf("unknown action type %q", step.ActionType)
	}
}

func (e *Engine) executeConnectionRequest(ctx context.Context, api ProviderAPI, accountID string, lead leads.Lead, step campaigns.Step) (ExecResult, error) {
	providerID := ""
	if lead.ProviderID != nil {
		providerID = *lead.ProviderID
	}

	var resolvedID *string
	if providerID == "" {
		profile, err := api.ResolveProfile(ctx, accountID, lead.PublicIdentifier)
		if err != nil {
			return ExecResult{}, fmt.Errorf("resolve profile: %w", err)
		}
		providerID = profile.ProviderID
		resolvedID = &profile.ProviderID

		// Already a relation: no invite needed, the lead jumps straight
		// to connected and the next tick sends the first message.
		if profile.IsFirstDegree() {
			now := time.Now().UTC()
			return ExecResult{
				NewStatus:   domain.StatusConnected,
				CurrentStep: step.StepOrder,
				ProviderID:  resolvedID,
				ConnectedAt: &now,
				EventType:   activity.TypeConnectionAccepted,
				Meta:        map[string]any{"detection": "profile_resolution"},
			}, nil
		}
	}

	note := Truncate(Personalize(step.Message, lead), MaxNoteLength)
	if err := api.SendConnectionRequest(ctx, accountID, providerID, note); err != nil {
		return ExecResult{}, fmt.Errorf("send connection request: %w", err)
	}

	return ExecResult{
		NewStatus:   domain.StatusInviteSent,
		CurrentStep: step.StepOrder,
		ProviderID:  resolvedID,
		EventType:   activity.TypeConnectionRequestSent,
		Meta:        map[string]any{"step_order": step.StepOrder},
	}, nil
}

func (e *Engine) executeMessage(ctx context.Context, api ProviderAPI, accountID string, lead leads.Lead, step campaigns.Step) (ExecResult, error) {
	if lead.ProviderID == nil || *lead.ProviderID == "" {
		return ExecResult{}, fmt.Errorf("lead has no provider id")
	}
	text := Truncate(Personalize(step.Message, lead), MaxMessageLength)

	chatID := ""
	if lead.ConversationID != nil {
		chatID = *lead.ConversationID
	}
	if chatID == "" {
		found, err := api.FindConversation(ctx, accountID, *lead.ProviderID)
		if err != nil {
			return ExecResult{}, fmt.Errorf("find conversation: %w", err)
		}
		chatID = found
	}

	var conversationID *string
	if chatID == "" {
		created, err := api.StartChat(ctx, accountID, *lead.ProviderID, text)
		if err != nil {
			return ExecResult{}, fmt.Errorf("start chat: %w", err)
		}
		if created != "" {
			conversationID = &created
		}
	} else {
		if err := api.SendMessage(ctx, chatID, text); err != nil {
			return ExecResult{}, fmt.Errorf("send message: %w", err)
		}
		conversationID = &chatID
	}

	return ExecResult{
		NewStatus:      domain.StatusMessaged,
		CurrentStep:    step.StepOrder,
		ConversationID: conversationID,
		EventType:      activity.TypeMessageSent,
		Meta:           map[string]any{"step_order": step.StepOrder},
	}, nil
}
