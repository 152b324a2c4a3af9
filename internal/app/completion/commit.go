// Package completion implements the atomic completion-commit pipeline.
// It is the only component that mutates habit and user state: eligibility,
// streak/consistency recompute, XP award, level-up, and the ledger append
// all happen inside one store transaction, so a crash or concurrent write
// never leaves XP, streak state, and the completion record inconsistent.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/stride-labs/stride/internal/app/gamification"
	"github.com/stride-labs/stride/internal/app/habits"
	"github.com/stride-labs/stride/internal/app/timeline"
	"github.com/stride-labs/stride/internal/domain"
	"github.com/stride-labs/stride/internal/infra/metrics"
	"github.com/stride-labs/stride/internal/infra/sqlite"
)

// ChallengeSink receives progress deltas after a commit. Best-effort:
// its failure never rolls back a committed completion.
type ChallengeSink interface {
	NotifyProgress(userID uuid.UUID, habitCategory string, newStreak, completionsSinceStart int) error
}

// LogChallengeSink logs progress deltas. The default sink when no
// external challenge tracker is wired.
type LogChallengeSink struct{}

// NotifyProgress logs the delta and always succeeds.
func (LogChallengeSink) NotifyProgress(userID uuid.UUID, category string, newStreak, total int) error {
	log.Printf("[challenges] user=%s category=%q streak=%d completions=%d", userID, category, newStreak, total)
	return nil
}

// transient retry policy at the orchestrator boundary. The pure
// calculators never retry or block.
const (
	maxCommitAttempts = 3
	retryBackoff      = 100 * time.Millisecond
)

// Service is the completion commit orchestrator.
type Service struct {
	db         *sqlite.DB
	clock      timeline.Clock
	challenges ChallengeSink
}

// NewService creates the orchestrator. A nil sink falls back to logging.
func NewService(db *sqlite.DB, clock timeline.Clock, sink ChallengeSink) *Service {
	if clock == nil {
		clock = timeline.SystemClock{}
	}
	if sink == nil {
		sink = LogChallengeSink{}
	}
	return &Service{db: db, clock: clock, challenges: sink}
}

// RecordOptions carries optional per-completion input.
type RecordOptions struct {
	// Difficulty is the optional user-supplied 1–5 scale; 0 means unset.
	Difficulty int
	// DeviceTimezone is recorded on the completion and used as a fallback
	// when the user has no stored timezone.
	DeviceTimezone string
}

// ValidateEligibility answers whether a completion could be recorded at
// the given instant, without committing anything.
func (s *Service) ValidateEligibility(habitID, userID uuid.UUID, at time.Time, tz string) (domain.EligibilityResult, error) {
	habit, err := s.db.GetHabit(habitID)
	if err != nil {
		return domain.EligibilityResult{}, err
	}
	if habit.UserID != userID {
		return domain.EligibilityResult{}, domain.ErrNotHabitOwner
	}
	user, err := s.db.GetUser(userID)
	if err != nil {
		return domain.EligibilityResult{}, err
	}
	history, err := s.db.ListCompletionsByHabit(habitID)
	if err != nil {
		return domain.EligibilityResult{}, err
	}
	return habits.CheckEligibility(habit.Schedule, history, at, effectiveTZ(user.Timezone, tz)), nil
}

// Record runs the full commit pipeline. Transient store failures are
// retried a small number of times with backoff; everything else aborts.
func (s *Service) Record(ctx context.Context, habitID, userID uuid.UUID, at time.Time, tz string, opts RecordOptions) (*domain.CommitResult, error) {
	if at.IsZero() {
		at = s.clock.Now()
	}
	if opts.Difficulty < 0 || opts.Difficulty > 5 {
		return nil, domain.ErrInvalidDifficulty
	}
	if opts.DeviceTimezone == "" {
		opts.DeviceTimezone = tz
	}

	var result *domain.CommitResult
	var err error
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		result, err = s.record(ctx, habitID, userID, at, tz, opts)
		if !errors.Is(err, domain.ErrStoreBusy) {
			break
		}
		log.Printf("[completion] transient store error (attempt %d/%d): %v", attempt, maxCommitAttempts, err)
		time.Sleep(retryBackoff * time.Duration(attempt))
	}
	if err != nil {
		return nil, err
	}

	// Step 8: forward the progress delta. Fire-and-forget — a sink
	// failure is surfaced as a warning, never a rollback.
	habit, gerr := s.db.GetHabit(habitID)
	if gerr == nil {
		if serr := s.challenges.NotifyProgress(userID, habit.Category, result.CurrentStreak, habit.TotalCompletions); serr != nil {
			log.Printf("[completion] WARNING: challenge sink failed: %v", serr)
		}
	}

	return result, nil
}

// record is one transactional attempt of the nine-step pipeline.
func (s *Service) record(ctx context.Context, habitID, userID uuid.UUID, at time.Time, tz string, opts RecordOptions) (*domain.CommitResult, error) {
	start := time.Now()
	var result domain.CommitResult

	err := s.db.WithTx(ctx, func(tx *sqlite.Tx) error {
		// 1. Load habit; verify ownership and active state.
		habit, err := tx.GetHabit(habitID)
		if err != nil {
			return err
		}
		if habit.UserID != userID {
			return domain.ErrNotHabitOwner
		}
		if !habit.Active {
			return domain.ErrHabitArchived
		}
		if !habit.Schedule.Valid() {
			return fmt.Errorf("%w: %q", domain.ErrInvalidCadence, habit.Schedule.Cadence)
		}

		user, err := tx.GetUser(userID)
		if err != nil {
			return err
		}
		zone := effectiveTZ(user.Timezone, tz)

		// 2. Eligibility. The read here sees any concurrent insert that
		// committed first, so the loser of a race aborts with a conflict.
		history, err := tx.ListCompletionsByHabit(habitID)
		if err != nil {
			return err
		}
		elig := habits.CheckEligibility(habit.Schedule, history, at, zone)
		if !elig.Allowed {
			metrics.CompletionsRejected.WithLabelValues(rejectLabel(elig)).Inc()
			if elig.Conflict {
				return fmt.Errorf("%w: %s", domain.ErrAlreadyCompleted, elig.Reason)
			}
			return fmt.Errorf("%w: %s", domain.ErrNotEligible, elig.Reason)
		}

		// 3. Insert the completion, XP provisionally 0.
		comp := domain.Completion{
			ID:             uuid.New(),
			HabitID:        habitID,
			UserID:         userID,
			CompletedAt:    at,
			DeviceTimezone: opts.DeviceTimezone,
			CreatedAt:      s.clock.Now(),
		}
		if err := tx.InsertCompletion(comp); err != nil {
			return fmt.Errorf("insert completion: %w", err)
		}

		// 4–5. Re-derive streaks and consistency over history including
		// the new record.
		firstEver := habit.TotalCompletions == 0
		history = append(history, comp)
		streaks := habits.ComputeStreaks(habit.Schedule, history, zone, at)
		habit.CurrentStreak = streaks.Current
		habit.LongestStreak = habits.Ratchet(habit.LongestStreak, streaks)
		habit.ConsistencyRate = habits.ConsistencyRate(habit.Schedule, history, zone, at, habits.DefaultConsistencyWindowDays)
		habit.TotalCompletions++
		habit.UpdatedAt = s.clock.Now()
		if err := habit.CheckInvariants(); err != nil {
			return err
		}
		if err := tx.UpdateHabitStats(*habit); err != nil {
			return fmt.Errorf("update habit stats: %w", err)
		}

		// 6. Compute XP from the post-update streak; patch the record and
		// append the ledger entry.
		xp := gamification.CompletionXP(habit.CurrentStreak, firstEver, opts.Difficulty)
		comp.XPEarned = xp
		if err := tx.PatchCompletionXP(comp.ID, xp); err != nil {
			return fmt.Errorf("patch completion xp: %w", err)
		}
		if _, err := tx.InsertLedgerEntry(domain.LedgerEntry{
			UserID:      userID,
			HabitID:     habitID,
			Amount:      xp,
			Source:      domain.XPCompletion,
			Description: fmt.Sprintf("Completed %q (streak %d)", habit.Name, habit.CurrentStreak),
			CreatedAt:   s.clock.Now(),
		}); err != nil {
			return fmt.Errorf("ledger entry: %w", err)
		}

		// 7. Apply XP to the user; award the level bonus once if one or
		// more boundaries were crossed.
		oldLevel := user.Level
		user.TotalXP += xp
		newLevel := gamification.LevelFor(user.TotalXP)
		leveledUp := newLevel > oldLevel
		if leveledUp {
			bonus := gamification.LevelUpBonus(newLevel)
			user.TotalXP += bonus
			if _, err := tx.InsertLedgerEntry(domain.LedgerEntry{
				UserID:      userID,
				Amount:      bonus,
				Source:      domain.XPLevelBonus,
				Description: fmt.Sprintf("Reached level %d", newLevel),
				CreatedAt:   s.clock.Now(),
			}); err != nil {
				return fmt.Errorf("level bonus ledger entry: %w", err)
			}
			// The bonus itself may cross a boundary; the stored level must
			// always equal LevelFor(TotalXP).
			newLevel = gamification.LevelFor(user.TotalXP)

			if _, err := tx.InsertNotification(domain.Notification{
				UserID:    userID,
				Kind:      domain.NotifyLevelUp,
				Title:     fmt.Sprintf("Level %d!", newLevel),
				Body:      fmt.Sprintf("You reached level %d and earned a %d XP bonus.", newLevel, gamification.LevelUpBonus(newLevel)),
				CreatedAt: s.clock.Now(),
			}); err != nil {
				return fmt.Errorf("level-up notification: %w", err)
			}
		}
		user.Level = newLevel
		user.UpdatedAt = s.clock.Now()
		if err := tx.UpdateUserProgress(*user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		result = domain.CommitResult{
			Completion:      comp,
			XPAwarded:       xp,
			LeveledUp:       leveledUp,
			NewLevel:        newLevel,
			TotalXP:         user.TotalXP,
			CurrentStreak:   habit.CurrentStreak,
			LongestStreak:   habit.LongestStreak,
			ConsistencyRate: habit.ConsistencyRate,
		}

		metrics.CompletionsRecorded.WithLabelValues(string(habit.Schedule.Cadence)).Inc()
		metrics.XPAwarded.WithLabelValues(string(domain.XPCompletion)).Add(float64(xp))
		if leveledUp {
			metrics.LevelUps.Inc()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CommitDuration.Observe(time.Since(start).Seconds())
	return &result, nil
}

// effectiveTZ picks the authoritative timezone: the user's stored zone,
// falling back to the caller-supplied one. Unrecognized names degrade to
// UTC inside the timeline package, never to an error.
func effectiveTZ(stored, supplied string) string {
	if stored != "" {
		return stored
	}
	return supplied
}

// rejectLabel folds free-form rejection reasons into a small metric label set.
func rejectLabel(r domain.EligibilityResult) string {
	if r.Conflict {
		return "duplicate"
	}
	return "off_schedule"
}
