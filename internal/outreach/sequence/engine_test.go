package sequence

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"outreach_backend/internal/activity"
	"outreach_backend/internal/campaigns"
	"outreach_backend/internal/leads"
	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/provider"
)

type fakeProvider struct {
	profile provider.Profile

	resolveErr error
	inviteErr  error
	chatID     string
	foundChat  string

	sentInvite  string
	sentMessage string
	startedChat string
	messageTo   string
}

func (f *fakeProvider) ResolveProfile(_ context.Context, _, _ string) (provider.Profile, error) {
	return f.profile, f.resolveErr
}

func (f *fakeProvider) SendConnectionRequest(_ context.Context, _, providerID, message string) error {
	f.sentInvite = providerID
	f.sentMessage = message
	return f.inviteErr
}

func (f *fakeProvider) StartChat(_ context.Context, _, providerID, text string) (string, error) {
	f.startedChat = providerID
	f.sentMessage = text
	return f.chatID, nil
}

func (f *fakeProvider) SendMessage(_ context.Context, chatID, text string) error {
	f.messageTo = chatID
	f.sentMessage = text
	return nil
}

func (f *fakeProvider) FindConversation(_ context.Context, _, _ string) (string, error) {
	return f.foundChat, nil
}

func testCampaign() campaigns.Campaign {
	return campaigns.Campaign{
		ID:       uuid.New(),
		Timezone: "UTC",
		Status:   campaigns.StatusActive,
		Sequence: campaigns.Sequence{
			{StepOrder: 1, ActionType: campaigns.ActionConnectionRequest, Message: "Hi {{first_name}}"},
			{StepOrder: 2, ActionType: campaigns.ActionMessage, Message: "Thanks {{first_name}}", DelayHours: 24},
			{StepOrder: 3, ActionType: campaigns.ActionMessage, Message: "Bump", DelayWorkingDays: 2},
		},
	}
}

func strPtr(s string) *string { return &s }

func TestNextStep(t *testing.T) {
	engine := NewEngine(5 * time.Minute)
	campaign := testCampaign()

	lead := leads.Lead{Status: domain.StatusPendingInvite}
	if step := engine.NextStep(campaign, lead); step == nil || step.StepOrder != 1 {
		t.Fatalf("expected step 1, got %+v", step)
	}

	lead.CurrentStep = 3
	if step := engine.NextStep(campaign, lead); step != nil {
		t.Fatalf("expected nil for exhausted sequence, got %+v", step)
	}
}

func TestNextStepSkipsInviteForFirstLevel(t *testing.T) {
	engine := NewEngine(5 * time.Minute)
	lead := leads.Lead{
		Status: domain.StatusConnected,
		Meta:   map[string]any{"source": leads.SourceFirstLevel},
	}
	step := engine.NextStep(testCampaign(), lead)
	if step == nil || step.StepOrder != 2 {
		t.Fatalf("expected first-level lead to skip to step 2, got %+v", step)
	}
}

func TestNextStepSkipsInviteOnceConnected(t *testing.T) {
	engine := NewEngine(5 * time.Minute)
	lead := leads.Lead{Status: domain.StatusConnected}
	step := engine.NextStep(testCampaign(), lead)
	if step == nil || step.StepOrder != 2 {
		t.Fatalf("expected connected lead to skip the invite step, got %+v", step)
	}
}

func TestCanExecuteStatusPreconditions(t *testing.T) {
	engine := NewEngine(5 * time.Minute)
	campaign := testCampaign()
	now := time.Now().UTC()

	inviteStep := campaign.Sequence[0]
	messageStep := campaign.Sequence[1]

	if el := engine.CanExecute(campaign, leads.Lead{Status: domain.StatusInviteSent}, inviteStep, now); el.Eligible {
		t.Fatal("invite must not fire for invite_sent lead")
	}
	if el := engine.CanExecute(campaign, leads.Lead{Status: domain.StatusPendingInvite}, messageStep, now); el.Eligible {
		t.Fatal("message must not fire before connection")
	}
	if el := engine.CanExecute(campaign, leads.Lead{Status: domain.StatusPendingInvite}, inviteStep, now); !el.Eligible {
		t.Fatalf("invite should fire for pending lead, blocked by %s", el.Reason)
	}
}

func TestCanExecuteFirstMessageExemption(t *testing.T) {
	engine := NewEngine(5 * time.Minute)
	campaign := testCampaign()
	messageStep := campaign.Sequence[1] // 24h delay configured
	now := time.Now().UTC()

	// Accepted 10 minutes ago; the opener skips the configured 24h delay.
	connectedAt := now.Add(-10 * time.Minute)
	lastSent := now.Add(-20 * time.Minute)
	lead := leads.Lead{
		Status:         domain.StatusConnected,
		CurrentStep:    1,
		ConnectedAt:    &connectedAt,
		LastStepSentAt: &lastSent,
	}
	if el := engine.CanExecute(campaign, lead, messageStep, now); !el.Eligible {
		t.Fatalf("first message should skip the step delay, blocked by %s", el.Reason)
	}

	// But the minimum action spacing from acceptance still applies.
	justConnected := now.Add(-1 * time.Minute)
	lead.ConnectedAt = &justConnected
	if el := engine.CanExecute(campaign, lead, messageStep, now); el.Eligible {
		t.Fatal("minimum action delay must apply after acceptance")
	}
}

func TestCanExecuteStepDelay(t *testing.T) {
	engine := NewEngine(5 * time.Minute)
	campaign := testCampaign()
	messageStep := campaign.Sequence[1] // 24h delay
	now := time.Now().UTC()

	lastSent := now.Add(-2 * time.Hour)
	lead := leads.Lead{
		Status:         domain.StatusMessaged,
		CurrentStep:    1,
		LastStepSentAt: &lastSent,
	}
	el := engine.CanExecute(campaign, lead, messageStep, now)
	if el.Eligible {
		t.Fatal("24h delay not elapsed, step must be blocked")
	}
	if el.Reason != "step_delay" {
		t.Fatalf("expected step_delay reason, got %s", el.Reason)
	}

	oldSent := now.Add(-25 * time.Hour)
	lead.LastStepSentAt = &oldSent
	if el := engine.CanExecute(campaign, lead, messageStep, now); !el.Eligible {
		t.Fatalf("delay elapsed, expected eligible, blocked by %s", el.Reason)
	}
}

func TestExecuteConnectionRequest(t *testing.T) {
	engine := NewEngine(5 * time.Minute)
	api := &fakeProvider{profile: provider.Profile{ProviderID: "prov_1", NetworkDistance: "SECOND_DEGREE"}}

	lead := leads.Lead{
		FirstName:        "Jane",
		PublicIdentifier: "jane-doe",
		Status:           domain.StatusPendingInvite,
	}
	step := campaigns.Step{StepOrder: 1, ActionType: campaigns.ActionConnectionRequest, Message: "Hi {{first_name}}"}

	res, err := engine.Execute(context.Background(), api, "acc_1", lead, step)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.NewStatus != domain.StatusInviteSent {
		t.Fatalf("expected invite_sent, got %s", res.NewStatus)
	}
	if res.EventType != activity.TypeConnectionRequestSent {
		t.Fatalf("unexpected event type %s", res.EventType)
	}
	if res.ProviderID == nil || *res.ProviderID != "prov_1" {
		t.Fatal("resolved provider id should be returned for persistence")
	}
	if api.sentInvite != "prov_1" {
		t.Fatalf("invite sent to %s", api.sentInvite)
	}
	if api.sentMessage != "Hi Jane" {
		t.Fatalf("note not personalized: %q", api.sentMessage)
	}
}

func TestExecuteConnectionRequestAlreadyConnected(t *testing.T) {
	engine := NewEngine(5 * time.Minute)
	api := &fakeProvider{profile: provider.Profile{ProviderID: "prov_1", NetworkDistance: "FIRST_DEGREE"}}

	lead := leads.Lead{PublicIdentifier: "jane-doe", Status: domain.StatusPendingInvite}
	step := campaigns.Step{StepOrder: 1, ActionType: campaigns.ActionConnectionRequest, Message: "Hi"}

	res, err := engine.Execute(context.Background(), api, "acc_1", lead, step)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.NewStatus != domain.StatusConnected {
		t.Fatalf("first degree profile should become connected, got %s", res.NewStatus)
	}
	if res.ConnectedAt == nil {
		t.Fatal("connected_at should be set")
	}
	if api.sentInvite != "" {
		t.Fatal("no invite should be sent to an existing relation")
	}
}

func TestExecuteConnectionRequestTruncatesNote(t *testing.T) {
	engine := NewEngine(5 * time.Minute)
	api := &fakeProvider{profile: provider.Profile{ProviderID: "prov_1"}}

	lead := leads.Lead{PublicIdentifier: "jane-doe", Status: domain.StatusPendingInvite}
	step := campaigns.Step{
		StepOrder:  1,
		ActionType: campaigns.ActionConnectionRequest,
		Message:    strings.Repeat("x", 500),
	}

	if _, err := engine.Execute(context.Background(), api, "acc_1", lead, step); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(api.sentMessage) != MaxNoteLength {
		t.Fatalf("note length %d, want %d", len(api.sentMessage), MaxNoteLength)
	}
}

func TestExecuteMessageExistingConversation(t *testing.T) {
	engine := NewEngine(5 * time.Minute)
	api := &fakeProvider{}

	lead := leads.Lead{
		FirstName:      "Jane",
		Status:         domain.StatusConnected,
		ProviderID:     strPtr("prov_1"),
		ConversationID: strPtr("chat_9"),
	}
	step := campaigns.Step{StepOrder: 2, ActionType: campaigns.ActionMessage, Message: "Thanks {{first_name}}"}

	res, err := engine.Execute(context.Background(), api, "acc_1", lead, step)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if api.messageTo != "chat_9" {
		t.Fatalf("message sent to %s, want chat_9", api.messageTo)
	}
	if res.NewStatus != domain.StatusMessaged || res.CurrentStep != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if api.sentMessage != "Thanks Jane" {
		t.Fatalf("message not personalized: %q", api.sentMessage)
	}
}

func TestExecuteMessageFindsConversation(t *testing.T) {
	engine := NewEngine(5 * time.Minute)
	api := &fakeProvider{foundChat: "chat_7"}

	lead := leads.Lead{Status: domain.StatusConnected, ProviderID: strPtr("prov_1")}
	step := campaigns.Step{StepOrder: 2, ActionType: campaigns.ActionMessage, Message: "Hello"}

	res, err := engine.Execute(context.Background(), api, "acc_1", lead, step)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if api.messageTo != "chat_7" {
		t.Fatalf("expected discovered chat to be used, got %s", api.messageTo)
	}
	if res.ConversationID == nil || *res.ConversationID != "chat_7" {
		t.Fatal("discovered conversation id should be persisted")
	}
}

func TestExecuteMessageStartsChat(t *testing.T) {
	engine := NewEngine(5 * time.Minute)
	api := &fakeProvider{chatID: "chat_new"}

	lead := leads.Lead{Status: domain.StatusConnected, ProviderID: strPtr("prov_1")}
	step := campaigns.Step{StepOrder: 2, ActionType: campaigns.ActionMessage, Message: "Hello"}

	res, err := engine.Execute(context.Background(), api, "acc_1", lead, step)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if api.startedChat != "prov_1" {
		t.Fatalf("chat started with %s, want prov_1", api.startedChat)
	}
	if res.ConversationID == nil || *res.ConversationID != "chat_new" {
		t.Fatal("new chat id should be persisted")
	}
}

func TestExecuteMessageWithoutProviderID(t *testing.T) {
	engine := NewEngine(5 * time.Minute)
	lead := leads.Lead{Status: domain.StatusConnected}
	step := campaigns.Step{StepOrder: 2, ActionType: campaigns.ActionMessage, Message: "Hello"}

	if _, err := engine.Execute(context.Background(), &fakeProvider{}, "acc_1", lead, step); err == nil {
		t.Fatal("expected error for lead without provider id")
	}
}
