// Package domain defines the lead lifecycle state machine. It is kept free
// of storage and transport concerns so the scheduler and webhook paths can
// share one source of truth for legal transitions.
package domain

// Status is a lead's position in the outreach lifecycle.
type Status string

const (
	// StatusPendingInvite means no connection request has been sent yet.
	StatusPendingInvite Status = "pending_invite"
	// StatusInviteSent means a connection request is outstanding.
	StatusInviteSent Status = "invite_sent"
	// StatusConnected means the invite was accepted but no message sent yet.
	StatusConnected Status = "connected"
	// StatusMessaged means at least one sequence message has been sent.
	StatusMessaged Status = "messaged"
	// StatusResponded means the lead replied; automation stops.
	StatusResponded Status = "responded"
	// StatusCompleted means the sequence ran to the end without a reply.
	StatusCompleted Status = "completed"
	// StatusError means a permanent failure stopped the lead.
	StatusError Status = "error"
)

// transitions lists the legal next statuses for each status. A lead never
// moves backwards, and terminal statuses have no exits except manual retry
// out of error.
var transitions = map[Status][]Status{
	StatusPendingInvite: {StatusInviteSent, StatusConnected, StatusError},
	StatusInviteSent:    {StatusConnected, StatusError},
	StatusConnected:     {StatusMessaged, StatusResponded, StatusCompleted, StatusError},
	StatusMessaged:      {StatusMessaged, StatusResponded, StatusCompleted, StatusError},
	StatusResponded:     {},
	StatusCompleted:     {},
	StatusError:         {StatusPendingInvite},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether moving from s to next is legal. A self
// transition is only legal for messaged (each further message in the
// sequence keeps the lead in messaged).
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether automation is finished for this status.
// Error is terminal for the scheduler even though a manual retry can
// reset the lead.
func (s Status) IsTerminal() bool {
	return s == StatusResponded || s == StatusCompleted || s == StatusError
}

// Automatable reports whether the scheduler should pick up leads in this
// status. Invite-sent leads wait on the other party, so they are advanced by
// connection detection rather than the polling loop.
func (s Status) Automatable() bool {
	return s == StatusPendingInvite || s == StatusConnected || s == StatusMessaged
}

// AutomatableStatuses is the polling filter for scheduler candidate queries.
func AutomatableStatuses() []Status {
	return []Status{StatusPendingInvite, StatusConnected, StatusMessaged}
}
