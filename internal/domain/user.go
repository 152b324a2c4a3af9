package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxForgivenessTokens caps the per-user token balance.
const MaxForgivenessTokens = 3

// User is the ledger-relevant projection of an account.
// TotalXP only increases (refunds are modeled as negative ledger entries
// that still reduce the balance explicitly, never by deleting history).
// Invariant: Level == LevelFor(TotalXP) after any mutation.
type User struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Timezone          string    `json:"timezone"` // IANA name, e.g. "America/Chicago"
	TotalXP           int64     `json:"total_xp"`
	Level             int       `json:"level"`
	ForgivenessTokens int       `json:"forgiveness_tokens"` // 0–3
	ForgivenessOptIn  bool      `json:"forgiveness_opt_in"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// XPSource categorizes how a ledger amount was earned or spent.
type XPSource string

const (
	XPCompletion  XPSource = "completion"
	XPStreakBonus XPSource = "streak_bonus"
	XPLevelBonus  XPSource = "level_bonus"
	XPForgiveness XPSource = "forgiveness"
	XPRefund      XPSource = "refund"
	XPChallenge   XPSource = "challenge"
)

// LedgerEntry is an immutable, append-only XP audit record.
// Amount is signed and non-zero; refunds append a negative entry.
type LedgerEntry struct {
	ID          int64     `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	HabitID     uuid.UUID `json:"habit_id,omitempty"` // zero UUID when not habit-scoped
	Amount      int64     `json:"amount"`
	Source      XPSource  `json:"source"`
	Description string    `json:"description"`
	Metadata    string    `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NotificationKind categorizes user-facing notifications.
type NotificationKind string

const (
	NotifyLevelUp     NotificationKind = "level_up"
	NotifyForgiveness NotificationKind = "forgiveness"
	NotifyMilestone   NotificationKind = "milestone"
)

// Notification is a persisted user-facing message. Delivery is out of
// scope — the engine only records and exposes pending notifications.
type Notification struct {
	ID        int64            `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Metadata  string           `json:"metadata,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Shown     bool             `json:"shown"`
}

// PassSummary reports one daily forgiveness run.
// Counts only — per-user failures are logged, not accumulated here.
type PassSummary struct {
	UsersScanned      int `json:"users_scanned"`
	TokensUsed        int `json:"tokens_used"`
	HabitsProtected   int `json:"habits_protected"`
	NotificationsSent int `json:"notifications_sent"`
	Failures          int `json:"failures"`
}
