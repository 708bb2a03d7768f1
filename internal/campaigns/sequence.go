package campaigns

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"outreach_backend/platform/apperr"
	"outreach_backend/platform/validator"
)

// SequenceReport is the outcome of validating a sequence definition.
// Errors block saving; warnings are returned to the caller for display.
type SequenceReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidateSequence checks a sequence definition: every step carries exactly
// one known action type, a non-empty template, and non-negative delays, and
// step orders are unique and sequential starting at 1.
func ValidateSequence(val *validator.Validator, seq Sequence) SequenceReport {
	report := SequenceReport{Errors: []string{}, Warnings: []string{}}

	if len(seq) == 0 {
		report.Errors = append(report.Errors, "sequence cannot be empty")
		return report
	}

	for i, step := range seq {
		if err := val.Struct(step); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("step %d: %v", i+1, err))
			continue
		}
		if !strings.Contains(step.Message, "{{") {
			report.Warnings = append(report.Warnings, fmt.Sprintf("step %d: no personalization placeholders found", i+1))
		}
	}

	orders := make([]int, 0, len(seq))
	for _, step := range seq {
		orders = append(orders, step.StepOrder)
	}
	sort.Ints(orders)
	for i, order := range orders {
		if order != i+1 {
			report.Errors = append(report.Errors, "step orders must be unique and sequential starting at 1")
			break
		}
	}

	report.Valid = len(report.Errors) == 0
	return report
}

// ValidateTimezone rejects timezone names the runtime cannot resolve.
func ValidateTimezone(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.New(apperr.KindValidation, "timezone is required")
	}
	if _, err := time.LoadLocation(name); err != nil {
		return apperr.Wrap(apperr.KindValidation, "unknown IANA timezone: "+name, err)
	}
	return nil
}

// NextAfter returns the first step whose order exceeds currentStep, skipping
// connection-request steps when skipConnect is set (leads ingested as
// pre-existing relations never receive a connection request). Returns nil
// when the sequence is exhausted.
func (s Sequence) NextAfter(currentStep int, skipConnect bool) *Step {
	sorted := append(Sequence(nil), s...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StepOrder < sorted[j].StepOrder })

	for i := range sorted {
		step := sorted[i]
		if step.StepOrder <= currentStep {
			continue
		}
		if skipConnect && step.ActionType == ActionConnectionRequest {
			continue
		}
		return &step
	}
	return nil
}
