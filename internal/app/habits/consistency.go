package habits

import (
	"math"
	"time"

	"github.com/stride-labs/stride/internal/app/timeline"
	"github.com/stride-labs/stride/internal/domain"
)

// DefaultConsistencyWindowDays is the trailing lookback used by the
// commit orchestrator.
const DefaultConsistencyWindowDays = 30

// ConsistencyRate computes a 0–100 adherence percentage over the trailing
// window ending at now: actual completions against the expected count for
// the cadence. An empty Custom schedule has zero expectation and scores 0.
func ConsistencyRate(sched domain.Schedule, history []domain.Completion, tz string, now time.Time, windowDays int) int {
	if windowDays <= 0 {
		return 0
	}

	_, windowEnd := timeline.DayBounds(now, tz)
	windowStart := timeline.LocalDate(now, tz).AddDate(0, 0, -(windowDays - 1))

	expected := expectedCompletions(sched, windowStart, windowDays, tz)
	if expected == 0 {
		return 0
	}

	actual := 0
	for _, c := range history {
		if !c.CompletedAt.Before(windowStart) && c.CompletedAt.Before(windowEnd) {
			actual++
		}
	}

	pct := int(math.Round(float64(actual) / float64(expected) * 100))
	if pct > 100 {
		pct = 100
	}
	return pct
}

// expectedCompletions counts how many completions the cadence calls for in
// a window of windowDays calendar days starting at windowStart: every day
// for Daily, every whole or partial week for Weekly, and every scheduled
// weekday for Custom.
func expectedCompletions(sched domain.Schedule, windowStart time.Time, windowDays int, tz string) int {
	switch sched.Cadence {
	case domain.CadenceDaily:
		return windowDays
	case domain.CadenceWeekly:
		weeks := map[time.Time]bool{}
		for i := 0; i < windowDays; i++ {
			day := windowStart.AddDate(0, 0, i)
			weeks[timeline.WeekStart(day, tz)] = true
		}
		return len(weeks)
	case domain.CadenceCustom:
		n := 0
		for i := 0; i < windowDays; i++ {
			if sched.ScheduledOn(windowStart.AddDate(0, 0, i).Weekday()) {
				n++
			}
		}
		return n
	}
	return 0
}
