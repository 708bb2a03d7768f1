// Package accounts manages the provider accounts that campaigns send from.
package accounts

import (
	"time"

	"github.com/google/uuid"
)

// Status of a provider account connection.
type Status string

const (
	// StatusPending means the account was registered but the provider has
	// not yet confirmed the session.
	StatusPending Status = "pending"
	// StatusConnected means the account can send actions.
	StatusConnected Status = "connected"
	// StatusDisconnected means the session dropped or credentials expired.
	// Campaigns on this account are skipped until it reconnects.
	StatusDisconnected Status = "disconnected"
)

// Account is one provider account. AccountID is the provider's identifier;
// ID is ours.
type Account struct {
	ID          uuid.UUID  `json:"id"`
	AccountID   string     `json:"account_id"`
	DisplayName string     `json:"display_name"`
	Status      Status     `json:"status"`
	ConnectedAt *time.Time `json:"connected_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
