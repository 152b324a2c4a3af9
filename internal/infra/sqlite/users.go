package sqlite

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/stride-labs/stride/internal/domain"
)

// ─── User Repository ────────────────────────────────────────────────────────

// InsertUser creates a new user record.
func (s queries) InsertUser(u domain.User) error {
	_, err := s.q.Exec(
		`INSERT INTO users (id, name, timezone, total_xp, level, forgiveness_tokens,
		                    forgiveness_opt_in, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Name, u.Timezone, u.TotalXP, u.Level,
		u.ForgivenessTokens, u.ForgivenessOptIn,
		u.CreatedAt.Unix(), u.UpdatedAt.Unix(),
	)
	return err
}

// GetUser retrieves a user by id.
func (s queries) GetUser(id uuid.UUID) (*domain.User, error) {
	row := s.q.QueryRow(
		`SELECT id, name, timezone, total_xp, level, forgiveness_tokens,
		        forgiveness_opt_in, created_at, updated_at
		 FROM users WHERE id = ?`, id.String(),
	)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	return u, err
}

// UpdateUserProgress writes the mutable ledger projection: XP, level,
// and forgiveness token balance.
func (s queries) UpdateUserProgress(u domain.User) error {
	res, err := s.q.Exec(
		`UPDATE users SET total_xp = ?, level = ?, forgiveness_tokens = ?, updated_at = ?
		 WHERE id = ?`,
		u.TotalXP, u.Level, u.ForgivenessTokens, u.UpdatedAt.Unix(), u.ID.String(),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ListForgivenessCandidates returns users holding tokens who opted into
// the automatic pass.
func (s queries) ListForgivenessCandidates() ([]domain.User, error) {
	rows, err := s.q.Query(
		`SELECT id, name, timezone, total_xp, level, forgiveness_tokens,
		        forgiveness_opt_in, created_at, updated_at
		 FROM users WHERE forgiveness_tokens > 0 AND forgiveness_opt_in = 1
		 ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func scanUser(s scanner) (*domain.User, error) {
	var u domain.User
	var id string
	var createdAt, updatedAt int64

	err := s.Scan(&id, &u.Name, &u.Timezone, &u.TotalXP, &u.Level,
		&u.ForgivenessTokens, &u.ForgivenessOptIn, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	u.ID, _ = uuid.Parse(id)
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)
	return &u, nil
}
