package habits

import (
	"sort"
	"time"

	"github.com/stride-labs/stride/internal/app/timeline"
	"github.com/stride-labs/stride/internal/domain"
)

// Streaks is the result of a full streak recompute.
type Streaks struct {
	Current int
	Longest int
}

// ComputeStreaks derives current and longest streak from the habit's full
// completion history. History may be unsorted and edited out of order —
// the computation reduces it to unique local calendar units first.
//
// A streak is not considered broken until a full unit has elapsed with
// nothing recorded: if the unit containing "now" has no completion yet,
// the walk starts one unit back. For Custom cadences "one unit back"
// means the previous scheduled weekday, so a Mon/Wed/Fri habit is not
// broken by an empty Tuesday.
func ComputeStreaks(sched domain.Schedule, history []domain.Completion, tz string, now time.Time) Streaks {
	units := uniqueUnits(sched, history, tz)
	if len(units) == 0 {
		return Streaks{}
	}

	cur := currentStreak(sched, units, tz, now)
	longest := longestRun(sched, units, tz)
	if cur > longest {
		longest = cur
	}
	return Streaks{Current: cur, Longest: longest}
}

// uniqueUnits reduces history to the set of distinct local calendar units:
// days for Daily/Custom, week-start dates for Weekly. For Custom habits,
// completions on non-scheduled weekdays are ignored — they cannot anchor
// or extend a scheduled-day streak.
func uniqueUnits(sched domain.Schedule, history []domain.Completion, tz string) map[time.Time]bool {
	units := make(map[time.Time]bool, len(history))
	for _, c := range history {
		switch sched.Cadence {
		case domain.CadenceWeekly:
			units[timeline.WeekStart(c.CompletedAt, tz)] = true
		case domain.CadenceCustom:
			day := timeline.LocalDate(c.CompletedAt, tz)
			if sched.ScheduledOn(day.Weekday()) {
				units[day] = true
			}
		default:
			units[timeline.LocalDate(c.CompletedAt, tz)] = true
		}
	}
	return units
}

// currentStreak walks backward one unit at a time from the anchoring unit,
// stopping at the first gap.
func currentStreak(sched domain.Schedule, units map[time.Time]bool, tz string, now time.Time) int {
	inProgress, anchor, ok := anchorUnit(sched, tz, now)
	if !ok {
		return 0
	}

	if !units[anchor] {
		// Grace: the in-progress unit may still be completed later today
		// (or this week). A unit already elapsed breaks the streak.
		if !anchor.Equal(inProgress) {
			return 0
		}
		anchor, ok = prevUnit(sched, anchor)
		if !ok || !units[anchor] {
			return 0
		}
	}

	n := 0
	for units[anchor] {
		n++
		var more bool
		anchor, more = prevUnit(sched, anchor)
		if !more {
			break
		}
	}
	return n
}

// anchorUnit returns the unit containing now (inProgress) and the unit the
// backward walk starts from. For Custom cadences on a non-scheduled day
// the walk starts at the most recent scheduled day, which has already
// elapsed and gets no grace.
func anchorUnit(sched domain.Schedule, tz string, now time.Time) (inProgress, anchor time.Time, ok bool) {
	switch sched.Cadence {
	case domain.CadenceWeekly:
		ws := timeline.WeekStart(now, tz)
		return ws, ws, true
	case domain.CadenceCustom:
		if len(sched.SortedDays()) == 0 {
			return time.Time{}, time.Time{}, false
		}
		today := timeline.LocalDate(now, tz)
		if sched.ScheduledOn(today.Weekday()) {
			return today, today, true
		}
		prev, ok := prevUnit(sched, today)
		return today, prev, ok
	default:
		today := timeline.LocalDate(now, tz)
		return today, today, true
	}
}

// prevUnit steps one cadence unit back: the previous calendar day, the
// previous week start, or the previous scheduled weekday.
func prevUnit(sched domain.Schedule, u time.Time) (time.Time, bool) {
	switch sched.Cadence {
	case domain.CadenceWeekly:
		return u.AddDate(0, 0, -7), true
	case domain.CadenceCustom:
		d := u
		for i := 0; i < 7; i++ {
			d = d.AddDate(0, 0, -1)
			if sched.ScheduledOn(d.Weekday()) {
				return d, true
			}
		}
		return time.Time{}, false
	default:
		return u.AddDate(0, 0, -1), true
	}
}

// nextUnit steps one cadence unit forward. Used by the longest-run scan.
func nextUnit(sched domain.Schedule, u time.Time) (time.Time, bool) {
	switch sched.Cadence {
	case domain.CadenceWeekly:
		return u.AddDate(0, 0, 7), true
	case domain.CadenceCustom:
		d := u
		for i := 0; i < 7; i++ {
			d = d.AddDate(0, 0, 1)
			if sched.ScheduledOn(d.Weekday()) {
				return d, true
			}
		}
		return time.Time{}, false
	default:
		return u.AddDate(0, 0, 1), true
	}
}

// longestRun scans the sorted unique units once, counting maximal runs of
// consecutive units and returning the maximum run length.
func longestRun(sched domain.Schedule, units map[time.Time]bool, tz string) int {
	if len(units) == 0 {
		return 0
	}
	sorted := make([]time.Time, 0, len(units))
	for u := range units {
		sorted = append(sorted, u)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	best, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		next, ok := nextUnit(sched, sorted[i-1])
		if ok && sorted[i].Equal(next) {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// Ratchet returns the longest streak to store: it never decreases below
// the previously recorded value.
func Ratchet(existing int, s Streaks) int {
	longest := s.Longest
	if s.Current > longest {
		longest = s.Current
	}
	if existing > longest {
		longest = existing
	}
	return longest
}
