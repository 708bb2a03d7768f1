package leads

import "testing"

func TestFullName(t *testing.T) {
	cases := []struct {
		first, last, want string
	}{
		{"Jane", "Doe", "Jane Doe"},
		{"Jane", "", "Jane"},
		{"", "Doe", "Doe"},
		{"", "", ""},
		{" Jane ", " Doe ", "Jane Doe"},
	}
	for _, tc := range cases {
		lead := Lead{FirstName: tc.first, LastName: tc.last}
		if got := lead.FullName(); got != tc.want {
			t.Fatalf("FullName(%q, %q) = %q, want %q", tc.first, tc.last, got, tc.want)
		}
	}
}

func TestIsFirstLevel(t *testing.T) {
	if (Lead{}).IsFirstLevel() {
		t.Fatal("lead without meta must not be first level")
	}
	if (Lead{Meta: map[string]any{"source": "csv"}}).IsFirstLevel() {
		t.Fatal("other sources must not be first level")
	}
	if !(Lead{Meta: map[string]any{"source": SourceFirstLevel}}).IsFirstLevel() {
		t.Fatal("first level source should be detected")
	}
}

func TestHeadline(t *testing.T) {
	if got := (Lead{Meta: map[string]any{"headline": "CTO at Acme"}}).Headline(); got != "CTO at Acme" {
		t.Fatalf("Headline = %q", got)
	}
	if got := (Lead{}).Headline(); got != "" {
		t.Fatalf("empty meta should yield empty headline, got %q", got)
	}
}
