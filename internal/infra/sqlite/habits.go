package sqlite

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stride-labs/stride/internal/domain"
)

// ─── Habit Repository ───────────────────────────────────────────────────────

// InsertHabit creates a new habit record.
func (s queries) InsertHabit(h domain.Habit) error {
	_, err := s.q.Exec(
		`INSERT INTO habits (id, user_id, name, category, cadence, days_of_week, times_per_week,
		                     current_streak, longest_streak, total_completions, consistency_rate,
		                     active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID.String(), h.UserID.String(), h.Name, h.Category,
		string(h.Schedule.Cadence), encodeDays(h.Schedule.DaysOfWeek), h.Schedule.TimesPerWeek,
		h.CurrentStreak, h.LongestStreak, h.TotalCompletions, h.ConsistencyRate,
		h.Active, h.CreatedAt.Unix(), h.UpdatedAt.Unix(),
	)
	return err
}

// GetHabit retrieves a habit by id.
func (s queries) GetHabit(id uuid.UUID) (*domain.Habit, error) {
	row := s.q.QueryRow(
		`SELECT id, user_id, name, category, cadence, days_of_week, times_per_week,
		        current_streak, longest_streak, total_completions, consistency_rate,
		        active, created_at, updated_at
		 FROM habits WHERE id = ?`, id.String(),
	)
	h, err := scanHabit(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrHabitNotFound
	}
	return h, err
}

// ListHabitsByUser returns a user's habits, newest first.
func (s queries) ListHabitsByUser(userID uuid.UUID) ([]domain.Habit, error) {
	rows, err := s.q.Query(
		`SELECT id, user_id, name, category, cadence, days_of_week, times_per_week,
		        current_streak, longest_streak, total_completions, consistency_rate,
		        active, created_at, updated_at
		 FROM habits WHERE user_id = ? ORDER BY created_at DESC`, userID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectHabits(rows)
}

// ListProtectableHabits returns a user's active daily-cadence habits with
// a live streak — the forgiveness candidate pool.
func (s queries) ListProtectableHabits(userID uuid.UUID) ([]domain.Habit, error) {
	rows, err := s.q.Query(
		`SELECT id, user_id, name, category, cadence, days_of_week, times_per_week,
		        current_streak, longest_streak, total_completions, consistency_rate,
		        active, created_at, updated_at
		 FROM habits
		 WHERE user_id = ? AND active = 1 AND cadence = ? AND current_streak > 0`,
		userID.String(), string(domain.CadenceDaily),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectHabits(rows)
}

// ListBrokenInvariants returns habits whose stored stats violate the
// longest >= current ratchet. Repaired by a full recompute.
func (s queries) ListBrokenInvariants() ([]domain.Habit, error) {
	rows, err := s.q.Query(
		`SELECT id, user_id, name, category, cadence, days_of_week, times_per_week,
		        current_streak, longest_streak, total_completions, consistency_rate,
		        active, created_at, updated_at
		 FROM habits WHERE longest_streak < current_streak`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectHabits(rows)
}

// UpdateHabitStats writes the derived streak/consistency fields.
func (s queries) UpdateHabitStats(h domain.Habit) error {
	res, err := s.q.Exec(
		`UPDATE habits SET current_streak = ?, longest_streak = ?, total_completions = ?,
		        consistency_rate = ?, updated_at = ?
		 WHERE id = ?`,
		h.CurrentStreak, h.LongestStreak, h.TotalCompletions, h.ConsistencyRate,
		h.UpdatedAt.Unix(), h.ID.String(),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrHabitNotFound
	}
	return nil
}

// SetHabitActive soft-pauses or reactivates a habit. Habits referenced by
// history are archived, never physically deleted.
func (s queries) SetHabitActive(id uuid.UUID, active bool) error {
	res, err := s.q.Exec(
		`UPDATE habits SET active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().Unix(), id.String(),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrHabitNotFound
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func collectHabits(rows *sql.Rows) ([]domain.Habit, error) {
	var habits []domain.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, *h)
	}
	return habits, rows.Err()
}

func scanHabit(s scanner) (*domain.Habit, error) {
	var h domain.Habit
	var id, userID, cadence, days string
	var createdAt, updatedAt int64

	err := s.Scan(&id, &userID, &h.Name, &h.Category, &cadence, &days,
		&h.Schedule.TimesPerWeek, &h.CurrentStreak, &h.LongestStreak,
		&h.TotalCompletions, &h.ConsistencyRate, &h.Active, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	h.ID, _ = uuid.Parse(id)
	h.UserID, _ = uuid.Parse(userID)
	h.Schedule.Cadence = domain.Cadence(cadence)
	h.Schedule.DaysOfWeek = decodeDays(days)
	h.CreatedAt = time.Unix(createdAt, 0)
	h.UpdatedAt = time.Unix(updatedAt, 0)
	return &h, nil
}

// encodeDays stores a weekday set as a comma-separated list, e.g. "1,3,5".
func encodeDays(days []time.Weekday) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

func decodeDays(s string) []time.Weekday {
	if s == "" {
		return nil
	}
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			continue
		}
		days = append(days, time.Weekday(n))
	}
	return days
}
