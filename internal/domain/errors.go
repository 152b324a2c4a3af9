package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Validation errors — reject the single operation, never fatal.
	ErrInvalidCadence    = errors.New("invalid cadence")
	ErrEmptySchedule     = errors.New("custom habit has no scheduled days")
	ErrInvalidDifficulty = errors.New("difficulty must be between 1 and 5")

	// Conflict errors — duplicate completion or lost commit race.
	// Surfaced to the caller as "already completed", not retried.
	ErrAlreadyCompleted = errors.New("already completed")

	// ErrNotEligible covers non-conflict rejections, e.g. a Custom habit
	// attempted on an unscheduled weekday. The wrapped message names the
	// allowed days.
	ErrNotEligible = errors.New("completion not eligible")

	// Not-found errors — abort the transaction, surface to caller.
	ErrHabitNotFound = errors.New("habit not found")
	ErrUserNotFound  = errors.New("user not found")

	// Ownership / lifecycle errors.
	ErrNotHabitOwner = errors.New("habit does not belong to user")
	ErrHabitArchived = errors.New("habit is archived")

	// Forgiveness errors.
	ErrNoForgivenessTokens = errors.New("no forgiveness tokens remaining")

	// Transient store errors — eligible for bounded retry at the
	// orchestrator boundary, never inside the pure calculators.
	ErrStoreBusy = errors.New("store busy — transient, retry later")

	// Invariant violations — logged at error severity and repaired via a
	// full stats recompute, never silently ignored.
	ErrInvariantViolation = errors.New("derived-stats invariant violated")
)
