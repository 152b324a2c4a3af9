package sqlite

import (
	"time"

	"github.com/google/uuid"

	"github.com/stride-labs/stride/internal/domain"
)

// ─── Notification Log ───────────────────────────────────────────────────────
// The engine records notifications; delivery is someone else's job.

// InsertNotification appends a notification record.
func (s queries) InsertNotification(n domain.Notification) (int64, error) {
	result, err := s.q.Exec(
		`INSERT INTO notifications (user_id, kind, title, body, metadata, created_at, shown)
		 VALUES (?, ?, ?, ?, ?, ?, 0)`,
		n.UserID.String(), string(n.Kind), n.Title, n.Body, n.Metadata,
		n.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListPendingNotifications returns a user's unshown notifications,
// oldest first.
func (s queries) ListPendingNotifications(userID uuid.UUID, limit int) ([]domain.Notification, error) {
	rows, err := s.q.Query(
		`SELECT id, user_id, kind, title, body, metadata, created_at, shown
		 FROM notifications WHERE user_id = ? AND shown = 0
		 ORDER BY created_at ASC LIMIT ?`,
		userID.String(), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifs []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var uid string
		var createdAt int64
		err := rows.Scan(&n.ID, &uid, &n.Kind, &n.Title, &n.Body,
			&n.Metadata, &createdAt, &n.Shown)
		if err != nil {
			return nil, err
		}
		n.UserID, _ = uuid.Parse(uid)
		n.CreatedAt = time.Unix(createdAt, 0)
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}

// MarkNotificationShown flags a notification as delivered.
func (s queries) MarkNotificationShown(id int64) error {
	_, err := s.q.Exec(
		`UPDATE notifications SET shown = 1 WHERE id = ?`, id,
	)
	return err
}
