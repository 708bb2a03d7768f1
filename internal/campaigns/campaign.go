// Package campaigns provides the campaign bounded context: the sequence
// definition (ordered outreach steps), the campaign scheduling policy
// (IANA timezone), and the status gating whether the scheduler acts on
// the campaign's leads.
package campaigns

import (
	"time"

	"github.com/google/uuid"
)

// Status gates whether the scheduler will act on a campaign's leads.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known campaign status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

// ActionType is the tagged variant discriminator for a sequence step.
type ActionType string

const (
	ActionConnectionRequest ActionType = "connection_request"
	ActionMessage           ActionType = "message"
)

// Step is one unit of the outreach sequence: exactly one action type, a
// message template with placeholders, and a delay specification.
type Step struct {
	StepOrder        int        `json:"step_order" validate:"required,min=1"`
	ActionType       ActionType `json:"action_type" validate:"required,oneof=connection_request message"`
	Name             string     `json:"name,omitempty"`
	Message          string     `json:"message" validate:"required"`
	DelayHours       int        `json:"delay_hours" validate:"min=0"`
	DelayWorkingDays int        `json:"delay_working_days" validate:"min=0"`
}

// Sequence is the ordered list of steps, persisted as JSONB on the campaign.
type Sequence []Step

// Campaign is the container for a sequence definition and scheduling policy.
type Campaign struct {
	ID                uuid.UUID
	LinkedInAccountID *uuid.UUID
	Name              string
	Timezone          string
	Sequence          Sequence
	Status            Status
	CreatedAt         time.Time
}

// Location resolves the campaign's IANA timezone, falling back to UTC when
// the zone name is unrecognized. The boolean reports whether the fallback
// was taken so callers can log the data-quality issue.
func (c *Campaign) Location() (*time.Location, bool) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil || loc == nil {
		return time.UTC, true
	}
	return loc, false
}
