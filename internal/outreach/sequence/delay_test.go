package sequence

import (
	"testing"
	"time"

	"outreach_backend/internal/campaigns"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestEligibleAtWorkingDays(t *testing.T) {
	ny := mustLocation(t, "America/New_York")

	// Friday 2024-03-15 10:00 local.
	friday := time.Date(2024, 3, 15, 10, 0, 0, 0, ny)

	step := campaigns.Step{DelayWorkingDays: 3}
	got := EligibleAt(step, ny, friday)

	// Mon, Tue, Wed are the three working days; weekend does not count.
	want := time.Date(2024, 3, 20, 10, 0, 0, 0, ny)
	if !got.Equal(want) {
		t.Fatalf("EligibleAt = %v, want %v", got, want)
	}
	if got.Weekday() != time.Wednesday {
		t.Fatalf("expected Wednesday, got %v", got.Weekday())
	}
}

func TestEligibleAtSingleWorkingDayOverWeekend(t *testing.T) {
	ny := mustLocation(t, "America/New_York")
	friday := time.Date(2024, 3, 15, 16, 30, 0, 0, ny)

	got := EligibleAt(campaigns.Step{DelayWorkingDays: 1}, ny, friday)
	want := time.Date(2024, 3, 18, 16, 30, 0, 0, ny)
	if !got.Equal(want) {
		t.Fatalf("EligibleAt = %v, want %v (Monday)", got, want)
	}
}

func TestEligibleAtHours(t *testing.T) {
	utc := time.UTC
	sent := time.Date(2024, 3, 12, 9, 0, 0, 0, utc)

	got := EligibleAt(campaigns.Step{DelayHours: 48}, utc, sent)
	want := sent.Add(48 * time.Hour)
	if !got.Equal(want) {
		t.Fatalf("EligibleAt = %v, want %v", got, want)
	}
}

func TestEligibleAtCombined(t *testing.T) {
	utc := time.UTC
	// Monday.
	sent := time.Date(2024, 3, 11, 9, 0, 0, 0, utc)

	got := EligibleAt(campaigns.Step{DelayWorkingDays: 2, DelayHours: 3}, utc, sent)
	want := time.Date(2024, 3, 13, 12, 0, 0, 0, utc)
	if !got.Equal(want) {
		t.Fatalf("EligibleAt = %v, want %v", got, want)
	}
}

func TestEligibleAtNoDelay(t *testing.T) {
	sent := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	got := EligibleAt(campaigns.Step{}, time.UTC, sent)
	if !got.Equal(sent) {
		t.Fatalf("zero delay should be immediate, got %v", got)
	}
}

func TestIsWorkingHours(t *testing.T) {
	ny := mustLocation(t, "America/New_York")

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"weekday inside window", time.Date(2024, 3, 12, 10, 0, 0, 0, ny), true},
		{"weekday before window", time.Date(2024, 3, 12, 8, 59, 0, 0, ny), false},
		{"weekday at end of window", time.Date(2024, 3, 12, 17, 0, 0, 0, ny), false},
		{"saturday", time.Date(2024, 3, 16, 11, 0, 0, 0, ny), false},
		{"sunday", time.Date(2024, 3, 17, 11, 0, 0, 0, ny), false},
	}

	for _, tc := range cases {
		if got := IsWorkingHours(tc.at, ny, 9, 17); got != tc.want {
			t.Fatalf("%s: IsWorkingHours = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsWorkingHoursCrossTimezone(t *testing.T) {
	ny := mustLocation(t, "America/New_York")
	// 20:00 UTC is 16:00 in New York during DST.
	at := time.Date(2024, 6, 12, 20, 0, 0, 0, time.UTC)
	if !IsWorkingHours(at, ny, 9, 17) {
		t.Fatal("expected 16:00 local to be inside working hours")
	}
}
