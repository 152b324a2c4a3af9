package sqlite

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/stride-labs/stride/internal/domain"
)

// ─── Completion Repository ──────────────────────────────────────────────────

// InsertCompletion appends a completion record.
func (s queries) InsertCompletion(c domain.Completion) error {
	_, err := s.q.Exec(
		`INSERT INTO completions (id, habit_id, user_id, completed_at, device_timezone,
		                          xp_earned, forgiveness_used, edited, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.HabitID.String(), c.UserID.String(),
		c.CompletedAt.Unix(), c.DeviceTimezone,
		c.XPEarned, c.Forgiveness, c.Edited, c.CreatedAt.Unix(),
	)
	return err
}

// PatchCompletionXP writes the final XP once the award is computed.
// The record is inserted with a provisional 0 before streaks are known.
func (s queries) PatchCompletionXP(id uuid.UUID, xp int64) error {
	_, err := s.q.Exec(
		`UPDATE completions SET xp_earned = ? WHERE id = ?`, xp, id.String(),
	)
	return err
}

// ListCompletionsByHabit returns a habit's full completion history,
// oldest first.
func (s queries) ListCompletionsByHabit(habitID uuid.UUID) ([]domain.Completion, error) {
	rows, err := s.q.Query(
		`SELECT id, habit_id, user_id, completed_at, device_timezone,
		        xp_earned, forgiveness_used, edited, created_at
		 FROM completions WHERE habit_id = ? ORDER BY completed_at ASC`,
		habitID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCompletions(rows)
}

// ListUserCompletionsInRange returns a user's completions with
// completed_at in [start, end). Used to find habits already done today.
func (s queries) ListUserCompletionsInRange(userID uuid.UUID, start, end time.Time) ([]domain.Completion, error) {
	rows, err := s.q.Query(
		`SELECT id, habit_id, user_id, completed_at, device_timezone,
		        xp_earned, forgiveness_used, edited, created_at
		 FROM completions
		 WHERE user_id = ? AND completed_at >= ? AND completed_at < ?
		 ORDER BY completed_at ASC`,
		userID.String(), start.Unix(), end.Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCompletions(rows)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func collectCompletions(rows *sql.Rows) ([]domain.Completion, error) {
	var completions []domain.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

func scanCompletion(s scanner) (*domain.Completion, error) {
	var c domain.Completion
	var id, habitID, userID string
	var completedAt, createdAt int64

	err := s.Scan(&id, &habitID, &userID, &completedAt, &c.DeviceTimezone,
		&c.XPEarned, &c.Forgiveness, &c.Edited, &createdAt)
	if err != nil {
		return nil, err
	}

	c.ID, _ = uuid.Parse(id)
	c.HabitID, _ = uuid.Parse(habitID)
	c.UserID, _ = uuid.Parse(userID)
	c.CompletedAt = time.Unix(completedAt, 0)
	c.CreatedAt = time.Unix(createdAt, 0)
	return &c, nil
}
