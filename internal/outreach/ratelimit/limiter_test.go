package ratelimit

import "testing"

func TestCanSendInvite(t *testing.T) {
	l := New(nil, 25, 100)

	if !l.CanSendInvite(Usage{Invites: 0}) {
		t.Fatal("fresh day should allow invites")
	}
	if !l.CanSendInvite(Usage{Invites: 24}) {
		t.Fatal("one slot left should allow an invite")
	}
	if l.CanSendInvite(Usage{Invites: 25}) {
		t.Fatal("cap reached, invite must be denied")
	}
	if l.CanSendInvite(Usage{Invites: 30}) {
		t.Fatal("over cap must be denied")
	}
}

func TestCanSendMessage(t *testing.T) {
	l := New(nil, 25, 100)

	if !l.CanSendMessage(Usage{Messages: 99}, false) {
		t.Fatal("under cap should allow a message")
	}
	if l.CanSendMessage(Usage{Messages: 100}, false) {
		t.Fatal("cap reached, message must be denied")
	}
}

func TestPriorityMessagesDoubleCap(t *testing.T) {
	l := New(nil, 25, 100)

	if l.CanSendMessage(Usage{Messages: 150}, false) {
		t.Fatal("standard lane must respect the base cap")
	}
	if !l.CanSendMessage(Usage{Messages: 150}, true) {
		t.Fatal("priority lane should run on the doubled cap")
	}
	if l.CanSendMessage(Usage{Messages: 200}, true) {
		t.Fatal("doubled cap reached, priority message must be denied")
	}
}
