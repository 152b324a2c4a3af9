// Package forgiveness implements the daily automatic streak-protection
// pass. Once per calendar day it scans users holding protection tokens,
// picks the single longest at-risk daily streak per user, and synthesizes
// a reduced-value completion to preserve it. At most one habit per user
// per run.
package forgiveness

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/stride-labs/stride/internal/app/gamification"
	"github.com/stride-labs/stride/internal/app/habits"
	"github.com/stride-labs/stride/internal/app/timeline"
	"github.com/stride-labs/stride/internal/domain"
	"github.com/stride-labs/stride/internal/infra/metrics"
	"github.com/stride-labs/stride/internal/infra/sqlite"
)

// perUserTimeout bounds each user's transaction so one slow user cannot
// stall the batch. A timeout counts as a transient failure; the habit is
// picked up again on the next scheduled run.
const perUserTimeout = 10 * time.Second

// Scheduler runs the daily forgiveness pass.
type Scheduler struct {
	db    *sqlite.DB
	clock timeline.Clock
	rng   *rand.Rand
}

// NewScheduler creates the pass runner. rng breaks ties between equally
// long streaks; pass a seeded source for deterministic tests, nil for a
// time-seeded one.
func NewScheduler(db *sqlite.DB, clock timeline.Clock, rng *rand.Rand) *Scheduler {
	if clock == nil {
		clock = timeline.SystemClock{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Scheduler{db: db, clock: clock, rng: rng}
}

// RunDailyPass processes every eligible user once for the day containing
// asOf. Per-user failures are isolated: logged, counted, never fatal to
// the batch.
func (s *Scheduler) RunDailyPass(ctx context.Context, asOf time.Time) (domain.PassSummary, error) {
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}

	var summary domain.PassSummary

	users, err := s.db.ListForgivenessCandidates()
	if err != nil {
		return summary, fmt.Errorf("list candidates: %w", err)
	}

	for _, user := range users {
		summary.UsersScanned++

		userCtx, cancel := context.WithTimeout(ctx, perUserTimeout)
		protected, err := s.protectOne(userCtx, user, asOf)
		cancel()

		if err != nil {
			summary.Failures++
			metrics.ForgivenessPassFailures.Inc()
			log.Printf("[forgiveness] user %s skipped: %v", user.ID, err)
			continue
		}
		if protected {
			summary.TokensUsed++
			summary.HabitsProtected++
			summary.NotificationsSent++
			metrics.ForgivenessTokensSpent.Inc()
		}
	}

	log.Printf("[forgiveness] pass done: scanned=%d protected=%d failures=%d",
		summary.UsersScanned, summary.HabitsProtected, summary.Failures)
	return summary, nil
}

// protectOne atomically protects at most one habit for one user.
// Returns false with nil error when the user has nothing at risk.
func (s *Scheduler) protectOne(ctx context.Context, user domain.User, asOf time.Time) (bool, error) {
	protected := false

	err := s.db.WithTx(ctx, func(tx *sqlite.Tx) error {
		// Re-read inside the transaction: the balance may have changed
		// since the candidate scan.
		u, err := tx.GetUser(user.ID)
		if err != nil {
			return err
		}
		if u.ForgivenessTokens <= 0 {
			return nil
		}

		candidates, err := tx.ListProtectableHabits(u.ID)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return nil
		}

		// Subtract habits already completed today (user-local day).
		dayStart, dayEnd := timeline.DayBounds(asOf, u.Timezone)
		today, err := tx.ListUserCompletionsInRange(u.ID, dayStart, dayEnd)
		if err != nil {
			return err
		}
		done := make(map[uuid.UUID]bool, len(today))
		for _, c := range today {
			done[c.HabitID] = true
		}

		var atRisk []domain.Habit
		for _, h := range candidates {
			if !done[h.ID] {
				atRisk = append(atRisk, h)
			}
		}
		if len(atRisk) == 0 {
			return nil // nothing missed — no deduction, no notification
		}

		// Select the longest at-risk streak; uniform random tie-break.
		maxStreak := 0
		for _, h := range atRisk {
			if h.CurrentStreak > maxStreak {
				maxStreak = h.CurrentStreak
			}
		}
		var ties []domain.Habit
		for _, h := range atRisk {
			if h.CurrentStreak == maxStreak {
				ties = append(ties, h)
			}
		}
		habit := ties[s.rng.Intn(len(ties))]

		// Synthesize the completion, dated now. Eligibility is skipped:
		// a protection fills a day the normal rules would reject.
		comp := domain.Completion{
			ID:             uuid.New(),
			HabitID:        habit.ID,
			UserID:         u.ID,
			CompletedAt:    asOf,
			DeviceTimezone: u.Timezone,
			XPEarned:       gamification.ForgivenessXP,
			Forgiveness:    true,
			CreatedAt:      s.clock.Now(),
		}
		if err := tx.InsertCompletion(comp); err != nil {
			return fmt.Errorf("insert synthesized completion: %w", err)
		}

		history, err := tx.ListCompletionsByHabit(habit.ID)
		if err != nil {
			return err
		}
		streaks := habits.ComputeStreaks(habit.Schedule, history, u.Timezone, asOf)
		habit.CurrentStreak = streaks.Current
		habit.LongestStreak = habits.Ratchet(habit.LongestStreak, streaks)
		habit.ConsistencyRate = habits.ConsistencyRate(habit.Schedule, history, u.Timezone, asOf, habits.DefaultConsistencyWindowDays)
		habit.TotalCompletions++
		habit.UpdatedAt = s.clock.Now()
		if err := tx.UpdateHabitStats(habit); err != nil {
			return fmt.Errorf("update habit stats: %w", err)
		}

		if _, err := tx.InsertLedgerEntry(domain.LedgerEntry{
			UserID:      u.ID,
			HabitID:     habit.ID,
			Amount:      gamification.ForgivenessXP,
			Source:      domain.XPForgiveness,
			Description: fmt.Sprintf("Streak protected on %q", habit.Name),
			CreatedAt:   s.clock.Now(),
		}); err != nil {
			return fmt.Errorf("ledger entry: %w", err)
		}

		// Apply XP and the token spend to the user, keeping the
		// level == LevelFor(totalXP) invariant.
		oldLevel := u.Level
		u.TotalXP += gamification.ForgivenessXP
		newLevel := gamification.LevelFor(u.TotalXP)
		if newLevel > oldLevel {
			bonus := gamification.LevelUpBonus(newLevel)
			u.TotalXP += bonus
			if _, err := tx.InsertLedgerEntry(domain.LedgerEntry{
				UserID:      u.ID,
				Amount:      bonus,
				Source:      domain.XPLevelBonus,
				Description: fmt.Sprintf("Reached level %d", newLevel),
				CreatedAt:   s.clock.Now(),
			}); err != nil {
				return fmt.Errorf("level bonus ledger entry: %w", err)
			}
			newLevel = gamification.LevelFor(u.TotalXP)
			metrics.LevelUps.Inc()
		}
		u.Level = newLevel
		u.ForgivenessTokens--
		u.UpdatedAt = s.clock.Now()
		if err := tx.UpdateUserProgress(*u); err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		if _, err := tx.InsertNotification(domain.Notification{
			UserID: u.ID,
			Kind:   domain.NotifyForgiveness,
			Title:  "Streak protected",
			Body: fmt.Sprintf("Your %d-day streak on %q was protected. %d forgiveness token(s) remaining.",
				habit.CurrentStreak, habit.Name, u.ForgivenessTokens),
			CreatedAt: s.clock.Now(),
		}); err != nil {
			return fmt.Errorf("notification: %w", err)
		}

		metrics.XPAwarded.WithLabelValues(string(domain.XPForgiveness)).Add(float64(gamification.ForgivenessXP))
		protected = true
		return nil
	})

	return protected, err
}
