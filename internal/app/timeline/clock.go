// Package timeline resolves instants to user-local calendar units.
// All streak, eligibility and consistency arithmetic flows through here so
// that day/week boundaries are identical regardless of the machine's own
// locale: project the instant into the named zone, measure civil-calendar
// boundaries, project back to zone-independent instants.
package timeline

import "time"

// Clock supplies the current instant. Injectable so that streak and
// eligibility logic is deterministically testable across day, week, and
// timezone boundaries.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current wall-clock instant.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	Instant time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return c.Instant }
