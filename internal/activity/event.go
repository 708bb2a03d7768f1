// Package activity records the append-only event log. Events double as the
// audit trail and as the idempotency signal for the scheduler: a step is not
// re-sent while a matching event exists inside the dedup window.
package activity

import (
	"time"

	"github.com/google/uuid"
)

// Event types written by the engine and webhook paths.
const (
	TypeConnectionRequestSent = "connection_request_sent"
	TypeMessageSent           = "message_sent"
	TypeConnectionAccepted    = "connection_accepted"
	TypeReplyReceived         = "reply_received"
	TypeStepFailed            = "step_failed"
	TypeLeadImported          = "lead_imported"
	TypeAccountStatusChanged  = "account_status_changed"
)

// Event is one recorded occurrence in a lead's history. LeadID is nil for
// account-level events.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	LeadID     *uuid.UUID     `json:"lead_id,omitempty"`
	EventType  string         `json:"event_type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Meta       map[string]any `json:"meta,omitempty"`
}
