// Package domain holds the pure types of the Stride habit engine.
// Domain types carry no infrastructure dependency — storage, transport,
// and scheduling live in internal/infra and internal/app.
package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cadence is a habit's required completion schedule.
type Cadence string

const (
	// CadenceDaily requires one completion per local calendar day.
	CadenceDaily Cadence = "daily"
	// CadenceWeekly requires one completion per local calendar week (Monday start).
	CadenceWeekly Cadence = "weekly"
	// CadenceCustom requires one completion per scheduled weekday.
	CadenceCustom Cadence = "custom"
)

// Schedule describes when a habit expects completions.
// DaysOfWeek and TimesPerWeek are only meaningful for CadenceCustom.
type Schedule struct {
	Cadence      Cadence        `json:"cadence"`
	DaysOfWeek   []time.Weekday `json:"days_of_week,omitempty"`
	TimesPerWeek int            `json:"times_per_week,omitempty"`
}

// Valid reports whether the cadence is one of the three known variants.
func (s Schedule) Valid() bool {
	switch s.Cadence {
	case CadenceDaily, CadenceWeekly, CadenceCustom:
		return true
	}
	return false
}

// ScheduledOn reports whether the given weekday is part of the schedule.
// Daily habits are scheduled every day; weekly habits any day of the week.
func (s Schedule) ScheduledOn(wd time.Weekday) bool {
	switch s.Cadence {
	case CadenceDaily, CadenceWeekly:
		return true
	case CadenceCustom:
		for _, d := range s.DaysOfWeek {
			if d == wd {
				return true
			}
		}
	}
	return false
}

// SortedDays returns the custom weekday set in Sunday-first order,
// deduplicated. Empty for non-custom cadences.
func (s Schedule) SortedDays() []time.Weekday {
	if s.Cadence != CadenceCustom {
		return nil
	}
	seen := map[time.Weekday]bool{}
	var days []time.Weekday
	for _, d := range s.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday || seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// DayNames returns the scheduled weekdays as a human-readable list,
// e.g. "Monday, Wednesday, Friday". Used in eligibility rejection reasons.
func (s Schedule) DayNames() string {
	days := s.SortedDays()
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return strings.Join(names, ", ")
}

// Habit is a recurring user commitment.
// CurrentStreak, LongestStreak, TotalCompletions and ConsistencyRate are
// derived — only the streak/consistency calculators may write them.
// Invariant: LongestStreak >= CurrentStreak.
type Habit struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Schedule Schedule  `json:"schedule"`

	CurrentStreak    int `json:"current_streak"`
	LongestStreak    int `json:"longest_streak"`
	TotalCompletions int `json:"total_completions"`
	ConsistencyRate  int `json:"consistency_rate"` // 0–100

	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CheckInvariants returns an error if a derived-stats invariant is violated.
// Violations are repaired by a full recompute, never silently ignored.
func (h Habit) CheckInvariants() error {
	if h.LongestStreak < h.CurrentStreak {
		return fmt.Errorf("%w: habit %s longest=%d < current=%d",
			ErrInvariantViolation, h.ID, h.LongestStreak, h.CurrentStreak)
	}
	if h.ConsistencyRate < 0 || h.ConsistencyRate > 100 {
		return fmt.Errorf("%w: habit %s consistency=%d out of range",
			ErrInvariantViolation, h.ID, h.ConsistencyRate)
	}
	return nil
}

// Completion records one satisfied habit occurrence.
// Immutable once written except for moderation/audit flags.
type Completion struct {
	ID             uuid.UUID `json:"id"`
	HabitID        uuid.UUID `json:"habit_id"`
	UserID         uuid.UUID `json:"user_id"`
	CompletedAt    time.Time `json:"completed_at"`
	DeviceTimezone string    `json:"device_timezone"`
	XPEarned       int64     `json:"xp_earned"`
	Forgiveness    bool      `json:"forgiveness_used"`
	Edited         bool      `json:"edited"`
	CreatedAt      time.Time `json:"created_at"`
}

// EligibilityResult is the outcome of the completion-eligibility check.
// Reason is human-readable and empty when Allowed is true. Conflict marks
// duplicate-completion rejections, as opposed to off-schedule ones.
type EligibilityResult struct {
	Allowed  bool   `json:"allowed"`
	Conflict bool   `json:"conflict,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// CommitResult is returned by a successful completion commit.
type CommitResult struct {
	Completion      Completion `json:"completion"`
	XPAwarded       int64      `json:"xp_awarded"`
	LeveledUp       bool       `json:"leveled_up"`
	NewLevel        int        `json:"new_level"`
	TotalXP         int64      `json:"total_xp"`
	CurrentStreak   int        `json:"current_streak"`
	LongestStreak   int        `json:"longest_streak"`
	ConsistencyRate int        `json:"consistency_rate"`
}
