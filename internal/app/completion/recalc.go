package completion

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/stride-labs/stride/internal/app/habits"
	"github.com/stride-labs/stride/internal/domain"
	"github.com/stride-labs/stride/internal/infra/metrics"
	"github.com/stride-labs/stride/internal/infra/sqlite"
)

// Recalculate rebuilds a habit's derived stats from its full completion
// history. Idempotent: applying it twice yields identical stats. Used for
// repair after an invariant violation and for migration/backfill.
func (s *Service) Recalculate(ctx context.Context, habitID uuid.UUID) (*domain.Habit, error) {
	var out *domain.Habit
	err := s.db.WithTx(ctx, func(tx *sqlite.Tx) error {
		habit, err := tx.GetHabit(habitID)
		if err != nil {
			return err
		}
		user, err := tx.GetUser(habit.UserID)
		if err != nil {
			return err
		}
		history, err := tx.ListCompletionsByHabit(habitID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		zone := user.Timezone
		streaks := habits.ComputeStreaks(habit.Schedule, history, zone, now)
		habit.CurrentStreak = streaks.Current
		habit.LongestStreak = habits.Ratchet(habit.LongestStreak, streaks)
		habit.ConsistencyRate = habits.ConsistencyRate(habit.Schedule, history, zone, now, habits.DefaultConsistencyWindowDays)
		habit.TotalCompletions = len(history)
		habit.UpdatedAt = now

		if err := habit.CheckInvariants(); err != nil {
			return fmt.Errorf("post-recompute: %w", err)
		}
		if err := tx.UpdateHabitStats(*habit); err != nil {
			return err
		}
		out = habit
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.StatsRecomputes.Inc()
	return out, nil
}
