package gamification

import "math"

const (
	// baseCompletionXP is awarded for any regular completion.
	baseCompletionXP = 10
	// ForgivenessXP is the reduced value of a synthesized completion.
	ForgivenessXP = 5
	// firstCompletionMult applies to the very first completion of a
	// brand-new habit.
	firstCompletionMult = 1.5
)

// CompletionXP computes the XP for one completion.
//
// Streak bonuses are cumulative: a 40-day streak earns both the 7-day and
// the 30-day bonus. difficulty is the optional user-supplied 1–5 scale; 0
// means unset and applies no scaling. The final result rounds to the
// nearest integer XP.
func CompletionXP(currentStreak int, firstEver bool, difficulty int) int64 {
	total := float64(baseCompletionXP + StreakBonus(currentStreak))

	if firstEver {
		total *= firstCompletionMult
	}
	if difficulty >= 1 && difficulty <= 5 {
		total *= float64(difficulty) / 3.0
	}

	return int64(math.Round(total))
}

// StreakBonus returns the flat XP bonus for a streak length.
func StreakBonus(currentStreak int) int {
	bonus := 0
	if currentStreak >= 7 {
		bonus += 5
	}
	if currentStreak >= 30 {
		bonus += 10
	}
	if currentStreak >= 100 {
		bonus += 20
	}
	return bonus
}

// LevelUpBonus is the extra XP awarded when a commit crosses one or more
// level boundaries. Computed once against the final new level, not per
// boundary crossed.
func LevelUpBonus(newLevel int) int64 {
	return int64(newLevel) * 10
}
