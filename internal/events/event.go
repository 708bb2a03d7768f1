// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"outreach_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Lifecycle Events
// =============================================================================

// LeadConnected is published when a connection request is detected as accepted,
// either via a provider webhook or the periodic relation reconciliation.
type LeadConnected struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	CampaignID uuid.UUID `json:"campaignId"`
	AccountID  string    `json:"accountId"`
	Detection  string    `json:"detection"` // "webhook", "relation_check", "invitation_check"
}

func (e LeadConnected) EventName() string { return "outreach.lead.connected" }

// LeadReplied is published when an inbound message from the lead is detected.
// Automation must stop advancing the sequence for this lead.
type LeadReplied struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	CampaignID     uuid.UUID `json:"campaignId"`
	ConversationID string    `json:"conversationId,omitempty"`
}

func (e LeadReplied) EventName() string { return "outreach.lead.replied" }

// StepExecuted is published after the sequence engine successfully performs
// a step's external action and the lead row has been advanced.
type StepExecuted struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	CampaignID uuid.UUID `json:"campaignId"`
	StepOrder  int       `json:"stepOrder"`
	ActionType string    `json:"actionType"`
}

func (e StepExecuted) EventName() string { return "outreach.step.executed" }

// LeadFailed is published when a lead is moved to the error status after a
// permanent provider rejection.
type LeadFailed struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	CampaignID uuid.UUID `json:"campaignId"`
	Reason     string    `json:"reason"`
}

func (e LeadFailed) EventName() string { return "outreach.lead.failed" }

// AccountStatusChanged is published when the messaging provider reports a
// change in a sending account's connectivity.
type AccountStatusChanged struct {
	BaseEvent
	AccountID string `json:"accountId"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
}

func (e AccountStatusChanged) EventName() string { return "outreach.account.status_changed" }
