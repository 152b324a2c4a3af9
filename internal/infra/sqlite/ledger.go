package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stride-labs/stride/internal/domain"
)

// ─── XP Ledger ──────────────────────────────────────────────────────────────
// Append-only. Refunds are new negative entries, never deletions.

// InsertLedgerEntry appends an XP audit record.
func (s queries) InsertLedgerEntry(e domain.LedgerEntry) (int64, error) {
	if e.Amount == 0 {
		return 0, fmt.Errorf("ledger amount must be non-zero")
	}
	var habitID any
	if e.HabitID != uuid.Nil {
		habitID = e.HabitID.String()
	}
	result, err := s.q.Exec(
		`INSERT INTO xp_ledger (user_id, habit_id, amount, source, description, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.UserID.String(), habitID, e.Amount, string(e.Source),
		e.Description, e.Metadata, e.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// LedgerEntries returns a user's recent XP history, newest first.
func (s queries) LedgerEntries(userID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	rows, err := s.q.Query(
		`SELECT id, user_id, habit_id, amount, source, description, metadata, created_at
		 FROM xp_ledger WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		userID.String(), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var uid string
		var habitID sql.NullString
		var createdAt int64
		err := rows.Scan(&e.ID, &uid, &habitID, &e.Amount, &e.Source,
			&e.Description, &e.Metadata, &createdAt)
		if err != nil {
			return nil, err
		}
		e.UserID, _ = uuid.Parse(uid)
		if habitID.Valid {
			e.HabitID, _ = uuid.Parse(habitID.String)
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LedgerSum returns the signed sum of all entries for a user. The sum
// must equal the user's stored total_xp; drift indicates a bug.
func (s queries) LedgerSum(userID uuid.UUID) (int64, error) {
	var sum sql.NullInt64
	err := s.q.QueryRow(
		`SELECT SUM(amount) FROM xp_ledger WHERE user_id = ?`, userID.String(),
	).Scan(&sum)
	if err != nil {
		return 0, err
	}
	return sum.Int64, nil
}
