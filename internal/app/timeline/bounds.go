package timeline

import (
	"sync"
	"time"
)

var zones = struct {
	sync.Mutex
	byName map[string]*time.Location
}{byName: map[string]*time.Location{}}

// Zone resolves an IANA timezone name, falling back to UTC for anything
// unrecognized. A bad client-supplied string must never block a completion.
//
// Resolutions are cached so every call for the same name returns the same
// *Location. The calculators key maps by local-midnight time.Time values,
// and time.Time map equality includes the location pointer — a fresh
// LoadLocation per call would make identical civil days compare unequal.
func Zone(tz string) *time.Location {
	if tz == "" || tz == "UTC" {
		return time.UTC
	}
	zones.Lock()
	defer zones.Unlock()
	if loc, ok := zones.byName[tz]; ok {
		return loc
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	zones.byName[tz] = loc
	return loc
}

// LocalDate returns midnight of the instant's calendar day in the named
// zone. This is the canonical "day unit" used by the calculators.
func LocalDate(t time.Time, tz string) time.Time {
	loc := Zone(tz)
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// DayBounds returns the half-open interval [start, end) covering the
// instant's local calendar day, as zone-independent instants.
func DayBounds(t time.Time, tz string) (time.Time, time.Time) {
	start := LocalDate(t, tz)
	return start, start.AddDate(0, 0, 1)
}

// WeekStart returns midnight of the Monday beginning the instant's local
// calendar week. Weeks start on Monday everywhere in the engine.
func WeekStart(t time.Time, tz string) time.Time {
	day := LocalDate(t, tz)
	// Monday=0 … Sunday=6
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// WeekBounds returns the half-open interval [start, end) covering the
// instant's local calendar week.
func WeekBounds(t time.Time, tz string) (time.Time, time.Time) {
	start := WeekStart(t, tz)
	return start, start.AddDate(0, 0, 7)
}

// Weekday returns the instant's weekday in the named zone.
func Weekday(t time.Time, tz string) time.Weekday {
	return t.In(Zone(tz)).Weekday()
}

// SameDay reports whether two instants fall on the same local calendar day.
func SameDay(a, b time.Time, tz string) bool {
	return LocalDate(a, tz).Equal(LocalDate(b, tz))
}
