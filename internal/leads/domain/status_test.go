package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPendingInvite, StatusInviteSent, true},
		{StatusPendingInvite, StatusConnected, true},
		{StatusPendingInvite, StatusMessaged, false},
		{StatusInviteSent, StatusConnected, true},
		{StatusInviteSent, StatusPendingInvite, false},
		{StatusConnected, StatusMessaged, true},
		{StatusConnected, StatusResponded, true},
		{StatusConnected, StatusCompleted, true},
		{StatusMessaged, StatusMessaged, true},
		{StatusMessaged, StatusResponded, true},
		{StatusMessaged, StatusCompleted, true},
		{StatusResponded, StatusMessaged, false},
		{StatusResponded, StatusCompleted, false},
		{StatusCompleted, StatusMessaged, false},
		{StatusError, StatusPendingInvite, true},
		{StatusError, StatusConnected, false},
		{StatusConnected, StatusInviteSent, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []Status{StatusResponded, StatusCompleted, StatusError}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Fatalf("expected %s to be terminal", s)
		}
	}
	active := []Status{StatusPendingInvite, StatusInviteSent, StatusConnected, StatusMessaged}
	for _, s := range active {
		if s.IsTerminal() {
			t.Fatalf("expected %s to not be terminal", s)
		}
	}
}

func TestAutomatable(t *testing.T) {
	for _, s := range AutomatableStatuses() {
		if !s.Automatable() {
			t.Fatalf("expected %s to be automatable", s)
		}
	}
	// invite_sent waits on the other party; detection moves it forward.
	if StatusInviteSent.Automatable() {
		t.Fatal("invite_sent must not be picked up by the polling loop")
	}
	for _, s := range []Status{StatusResponded, StatusCompleted, StatusError} {
		if s.Automatable() {
			t.Fatalf("terminal status %s must not be automatable", s)
		}
	}
}

func TestValid(t *testing.T) {
	if !StatusMessaged.Valid() {
		t.Fatal("messaged should be a known status")
	}
	if Status("ghosted").Valid() {
		t.Fatal("unknown status should not validate")
	}
}
