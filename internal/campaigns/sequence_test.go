package campaigns

import (
	"testing"

	"outreach_backend/platform/validator"
)

func validSequence() Sequence {
	return Sequence{
		{StepOrder: 1, ActionType: ActionConnectionRequest, Name: "Invite", Message: "Hi {{first_name}}", DelayHours: 0},
		{StepOrder: 2, ActionType: ActionMessage, Name: "Follow up", Message: "Thanks for connecting, {{first_name}}", DelayHours: 24},
		{StepOrder: 3, ActionType: ActionMessage, Name: "Bump", Message: "Any thoughts, {{first_name}}?", DelayWorkingDays: 3},
	}
}

func TestValidateSequence(t *testing.T) {
	val := validator.New()

	t.Run("valid sequence passes", func(t *testing.T) {
		report := ValidateSequence(val, validSequence())
		if !report.Valid {
			t.Fatalf("expected valid sequence, got errors: %v", report.Errors)
		}
		if len(report.Warnings) != 0 {
			t.Fatalf("expected no warnings, got %v", report.Warnings)
		}
	})

	t.Run("empty sequence rejected", func(t *testing.T) {
		report := ValidateSequence(val, Sequence{})
		if report.Valid {
			t.Fatal("expected empty sequence to be invalid")
		}
	})

	t.Run("unknown action type rejected", func(t *testing.T) {
		seq := validSequence()
		seq[1].ActionType = "inmail"
		report := ValidateSequence(val, seq)
		if report.Valid {
			t.Fatal("expected unknown action type to be invalid")
		}
	})

	t.Run("empty message rejected", func(t *testing.T) {
		seq := validSequence()
		seq[0].Message = ""
		report := ValidateSequence(val, seq)
		if report.Valid {
			t.Fatal("expected empty message to be invalid")
		}
	})

	t.Run("non-sequential orders rejected", func(t *testing.T) {
		seq := validSequence()
		seq[2].StepOrder = 5
		report := ValidateSequence(val, seq)
		if report.Valid {
			t.Fatal("expected gap in step orders to be invalid")
		}
	})

	t.Run("duplicate orders rejected", func(t *testing.T) {
		seq := validSequence()
		seq[1].StepOrder = 1
		report := ValidateSequence(val, seq)
		if report.Valid {
			t.Fatal("expected duplicate step orders to be invalid")
		}
	})

	t.Run("missing placeholders warns", func(t *testing.T) {
		seq := Sequence{
			{StepOrder: 1, ActionType: ActionMessage, Name: "Plain", Message: "Hello there"},
		}
		report := ValidateSequence(val, seq)
		if !report.Valid {
			t.Fatalf("expected valid sequence, got errors: %v", report.Errors)
		}
		if len(report.Warnings) != 1 {
			t.Fatalf("expected one placeholder warning, got %v", report.Warnings)
		}
	})
}

func TestValidateTimezone(t *testing.T) {
	if err := ValidateTimezone("America/New_York"); err != nil {
		t.Fatalf("expected valid timezone, got %v", err)
	}
	if err := ValidateTimezone("Mars/Olympus_Mons"); err == nil {
		t.Fatal("expected unknown timezone to be rejected")
	}
	if err := ValidateTimezone(""); err == nil {
		t.Fatal("expected empty timezone to be rejected")
	}
}

func TestNextAfter(t *testing.T) {
	seq := validSequence()

	t.Run("first step from zero", func(t *testing.T) {
		step := seq.NextAfter(0, false)
		if step == nil || step.StepOrder != 1 {
			t.Fatalf("expected step 1, got %+v", step)
		}
	})

	t.Run("advances past completed steps", func(t *testing.T) {
		step := seq.NextAfter(1, false)
		if step == nil || step.StepOrder != 2 {
			t.Fatalf("expected step 2, got %+v", step)
		}
	})

	t.Run("exhausted returns nil", func(t *testing.T) {
		if step := seq.NextAfter(3, false); step != nil {
			t.Fatalf("expected nil after last step, got %+v", step)
		}
	})

	t.Run("skips connection requests for existing relations", func(t *testing.T) {
		step := seq.NextAfter(0, true)
		if step == nil || step.StepOrder != 2 {
			t.Fatalf("expected step 2 for pre-existing connection, got %+v", step)
		}
		if step.ActionType != ActionMessage {
			t.Fatalf("expected message step, got %s", step.ActionType)
		}
	})

	t.Run("unsorted input still ordered", func(t *testing.T) {
		shuffled := Sequence{seq[2], seq[0], seq[1]}
		step := shuffled.NextAfter(0, false)
		if step == nil || step.StepOrder != 1 {
			t.Fatalf("expected step 1 from unsorted sequence, got %+v", step)
		}
	})
}
