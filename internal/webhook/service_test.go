package webhook

import (
	"testing"

	"outreach_backend/internal/accounts"
)

func TestMapAccountStatus(t *testing.T) {
	cases := []struct {
		message string
		want    accounts.Status
	}{
		{"OK", accounts.StatusConnected},
		{"ok", accounts.StatusConnected},
		{" Reconnected ", accounts.StatusConnected},
		{"CREATION_SUCCESS", accounts.StatusConnected},
		{"SYNC_SUCCESS", accounts.StatusConnected},
		{"CREDENTIALS", accounts.StatusDisconnected},
		{"ERROR", accounts.StatusDisconnected},
		{"DELETED", accounts.StatusDisconnected},
		{"", accounts.StatusDisconnected},
	}

	for _, tc := range cases {
		if got := mapAccountStatus(tc.message); got != tc.want {
			t.Fatalf("mapAccountStatus(%q) = %s, want %s", tc.message, got, tc.want)
		}
	}
}
