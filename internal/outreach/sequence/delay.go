// Package sequence executes campaign sequence steps: delay arithmetic,
// message personalization and the provider calls for each action type.
package sequence

import (
	"time"

	"outreach_backend/internal/campaigns"
)

// EligibleAt returns the earliest instant a step may fire, given when the
// previous step was sent. Working-day delays walk forward in the campaign's
// timezone, skipping Saturdays and Sundays while keeping the local clock
// time. Hour delays are added on top. A step with no delay is immediate.
func EligibleAt(step campaigns.Step, loc *time.Location, lastSentAt time.Time) time.Time {
	eligible := lastSentAt.In(loc)

	for days := step.DelayWorkingDays; days > 0; {
		eligible = eligible.AddDate(0, 0, 1)
		if wd := eligible.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days--
	}

	if step.DelayHours > 0 {
		eligible = eligible.Add(time.Duration(step.DelayHours) * time.Hour)
	}
	return eligible
}

// IsWorkingHours reports whether the local time falls inside the sending
// window on a weekday.
func IsWorkingHours(now time.Time, loc *time.Location, startHour, endHour int) bool {
	local := now.In(loc)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	h := local.Hour()
	return h >= startHour && h < endHour
}
