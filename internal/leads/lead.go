// Package leads manages lead records and their lifecycle transitions.
package leads

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"outreach_backend/internal/leads/domain"
)

// Source value marking leads imported from the account's existing relations.
// These skip connection requests and enter the sequence already connected.
const SourceFirstLevel = "first_level_connections"

// Lead is one person inside a campaign.
type Lead struct {
	ID               uuid.UUID      `json:"id"`
	CampaignID       uuid.UUID      `json:"campaign_id"`
	FirstName        string         `json:"first_name"`
	LastName         string         `json:"last_name"`
	CompanyName      string         `json:"company_name"`
	PublicIdentifier string         `json:"public_identifier"`
	ProviderID       *string        `json:"provider_id,omitempty"`
	ConversationID   *string        `json:"conversation_id,omitempty"`
	Status           domain.Status  `json:"status"`
	CurrentStep      int            `json:"current_step"`
	LastStepSentAt   *time.Time     `json:"last_step_sent_at,omitempty"`
	ConnectedAt      *time.Time     `json:"connected_at,omitempty"`
	Meta             map[string]any `json:"meta,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

// FullName joins the name parts, tolerating either being empty.
func (l Lead) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(l.FirstName) + " " + strings.TrimSpace(l.LastName))
}

// IsFirstLevel reports whether the lead was imported from existing
// relations rather than prospected cold.
func (l Lead) IsFirstLevel() bool {
	if l.Meta == nil {
		return false
	}
	source, _ := l.Meta["source"].(string)
	return source == SourceFirstLevel
}

// Headline returns the profile headline captured at import, if any.
func (l Lead) Headline() string {
	if l.Meta == nil {
		return ""
	}
	headline, _ := l.Meta["headline"].(string)
	return headline
}
