// Package gamification implements the XP and level economy as pure
// functions. The level curve lives here and only here — every component
// that derives a level calls LevelFor rather than reimplementing the
// formula.
package gamification

import "math"

const (
	// curveBase is the XP required to advance from level 1 to 2.
	curveBase = 100
	// curveMult is the geometric growth factor per level.
	curveMult = 1.2
	// MaxLevel caps the curve.
	MaxLevel = 100
)

// XPThreshold returns the XP required to advance from level L to L+1,
// rounded to the nearest multiple of 10 so the curve stays human-readable:
// 100, 120, 140, 170, 210, …
func XPThreshold(level int) int64 {
	if level < 1 {
		return 0
	}
	raw := curveBase * math.Pow(curveMult, float64(level-1))
	return int64(math.Round(raw/10) * 10)
}

// XPForLevel returns the cumulative XP required to reach a level.
// Level 1 starts at 0.
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	var total int64
	for l := 1; l < level; l++ {
		total += XPThreshold(l)
	}
	return total
}

// LevelFor returns the level for a lifetime XP total: it walks the curve
// upward from level 1, accumulating thresholds, until the next threshold
// would exceed totalXP.
func LevelFor(totalXP int64) int {
	if totalXP < 0 {
		return 1
	}
	level := 1
	var accumulated int64
	for level < MaxLevel {
		accumulated += XPThreshold(level)
		if totalXP < accumulated {
			return level
		}
		level++
	}
	return MaxLevel
}

// XPToNextLevel returns XP remaining until the next level, zero at cap.
func XPToNextLevel(totalXP int64) int64 {
	level := LevelFor(totalXP)
	if level >= MaxLevel {
		return 0
	}
	remaining := XPForLevel(level+1) - totalXP
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// ProgressPct returns progress through the current level (0.0–100.0).
func ProgressPct(totalXP int64) float64 {
	level := LevelFor(totalXP)
	if level >= MaxLevel {
		return 100.0
	}
	floor := XPForLevel(level)
	span := XPForLevel(level+1) - floor
	if span <= 0 {
		return 100.0
	}
	pct := float64(totalXP-floor) / float64(span) * 100.0
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}
