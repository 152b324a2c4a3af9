// Package habits implements the completion-eligibility and
// streak-consistency engine. Everything here is a pure function of
// (schedule, completion history, target instant, timezone) — no clocks,
// no storage, no suspension points. The commit orchestrator calls these
// in sequence inside one transaction.
package habits

import (
	"fmt"
	"time"

	"github.com/stride-labs/stride/internal/app/timeline"
	"github.com/stride-labs/stride/internal/domain"
)

// CheckEligibility decides whether a completion for the habit may be
// recorded at the target instant. history may be unsorted and wider than
// the relevant day/week — the check filters by local bounds itself.
// Rejections carry a human-readable reason: they are an expected,
// frequent, non-exceptional outcome.
func CheckEligibility(sched domain.Schedule, history []domain.Completion, at time.Time, tz string) domain.EligibilityResult {
	switch sched.Cadence {
	case domain.CadenceDaily:
		start, end := timeline.DayBounds(at, tz)
		if anyWithin(history, start, end) {
			return conflict("already completed today")
		}
		return allow()

	case domain.CadenceWeekly:
		start, end := timeline.WeekBounds(at, tz)
		if anyWithin(history, start, end) {
			return conflict("already completed this week")
		}
		return allow()

	case domain.CadenceCustom:
		days := sched.SortedDays()
		if len(days) == 0 {
			return reject("no scheduled days configured")
		}
		wd := timeline.Weekday(at, tz)
		if !sched.ScheduledOn(wd) {
			return reject(fmt.Sprintf("not scheduled for %s — scheduled days are %s",
				wd, sched.DayNames()))
		}
		start, end := timeline.DayBounds(at, tz)
		if anyWithin(history, start, end) {
			return conflict("already completed today")
		}
		return allow()
	}

	return reject(domain.ErrInvalidCadence.Error())
}

func allow() domain.EligibilityResult {
	return domain.EligibilityResult{Allowed: true}
}

func reject(reason string) domain.EligibilityResult {
	return domain.EligibilityResult{Allowed: false, Reason: reason}
}

func conflict(reason string) domain.EligibilityResult {
	return domain.EligibilityResult{Allowed: false, Conflict: true, Reason: reason}
}

// anyWithin reports whether any completion falls in [start, end).
func anyWithin(history []domain.Completion, start, end time.Time) bool {
	for _, c := range history {
		if !c.CompletedAt.Before(start) && c.CompletedAt.Before(end) {
			return true
		}
	}
	return false
}
