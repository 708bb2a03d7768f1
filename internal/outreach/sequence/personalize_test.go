package sequence

import (
	"strings"
	"testing"

	"outreach_backend/internal/leads"
)

func TestPersonalize(t *testing.T) {
	lead := leads.Lead{FirstName: "Jane", LastName: "Doe", CompanyName: "Acme"}

	cases := []struct {
		template string
		want     string
	}{
		{"Hi {{first_name}}!", "Hi Jane!"},
		{"Dear {{full_name}},", "Dear Jane Doe,"},
		{"Greetings {{first_name}} {{last_name}}", "Greetings Jane Doe"},
		{"I saw {{company}} is growing", "I saw Acme is growing"},
		{"I saw {{company_name}} is growing", "I saw Acme is growing"},
		{"No placeholders here", "No placeholders here"},
	}

	for _, tc := range cases {
		if got := Personalize(tc.template, lead); got != tc.want {
			t.Fatalf("Personalize(%q) = %q, want %q", tc.template, got, tc.want)
		}
	}
}

func TestPersonalizeMissingFields(t *testing.T) {
	lead := leads.Lead{}

	if got := Personalize("Hi {{first_name}}!", lead); got != "Hi there!" {
		t.Fatalf("missing first name: got %q", got)
	}
	if got := Personalize("Dear {{full_name}}", lead); got != "Dear there" {
		t.Fatalf("missing full name: got %q", got)
	}
	if got := Personalize("Bye {{last_name}}.", lead); got != "Bye ." {
		t.Fatalf("missing last name should be empty: got %q", got)
	}
	if got := Personalize("At {{company}}", lead); got != "At your company" {
		t.Fatalf("missing company: got %q", got)
	}
}

func TestCompanyMinedFromHeadline(t *testing.T) {
	lead := leads.Lead{
		FirstName: "Jane",
		Meta:      map[string]any{"headline": "CTO at Acme Robotics | Hiring engineers"},
	}
	if got := Personalize("{{company}}", lead); got != "Acme Robotics" {
		t.Fatalf("expected mined company, got %q", got)
	}

	// Explicit field beats the headline.
	lead.CompanyName = "Globex"
	if got := Personalize("{{company}}", lead); got != "Globex" {
		t.Fatalf("expected explicit company, got %q", got)
	}
}

func TestCompanyHeadlineWithoutMarker(t *testing.T) {
	lead := leads.Lead{Meta: map[string]any{"headline": "Serial founder and investor"}}
	if got := Personalize("{{company}}", lead); got != "your company" {
		t.Fatalf("expected generic fallback, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 300); got != "short" {
		t.Fatalf("under limit should be unchanged, got %q", got)
	}

	long := strings.Repeat("a", 400)
	got := Truncate(long, MaxNoteLength)
	if len(got) != MaxNoteLength {
		t.Fatalf("expected %d chars, got %d", MaxNoteLength, len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatal("truncated text should end with ellipsis")
	}

	exact := strings.Repeat("b", MaxNoteLength)
	if got := Truncate(exact, MaxNoteLength); got != exact {
		t.Fatal("text at the limit should be unchanged")
	}
}
