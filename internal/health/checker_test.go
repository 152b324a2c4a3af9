package health

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stride-labs/stride/internal/app/completion"
	"github.com/stride-labs/stride/internal/app/timeline"
	"github.com/stride-labs/stride/internal/domain"
	"github.com/stride-labs/stride/internal/infra/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestChecker(t *testing.T, db *sqlite.DB) *Checker {
	t.Helper()
	clock := timeline.FixedClock{Instant: time.Date(2026, 2, 12, 9, 0, 0, 0, time.UTC)}
	return NewChecker(db, t.TempDir(), completion.NewService(db, clock, nil))
}

// ─── Checker Tests ──────────────────────────────────────────────────────────

func TestNewChecker(t *testing.T) {
	db := newTestDB(t)
	c := newTestChecker(t, db)
	if c == nil {
		t.Fatal("NewChecker() returned nil")
	}
	if len(c.checks) != 3 {
		t.Errorf("checks = %d, want 3", len(c.checks))
	}
}

func TestChecker_RunAllHealthy(t *testing.T) {
	db := newTestDB(t)
	c := newTestChecker(t, db)
	c.runAll(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 3 {
		t.Fatalf("Statuses() = %d, want 3", len(statuses))
	}
	for _, s := range statuses {
		if !s.Healthy {
			t.Errorf("check %q should be healthy, got error: %s", s.Name, s.Error)
		}
	}
	if !c.Healthy() {
		t.Error("Healthy() should be true when all checks pass")
	}
}

func TestChecker_HealthyBeforeFirstRun(t *testing.T) {
	db := newTestDB(t)
	c := newTestChecker(t, db)
	// No statuses yet: vacuously healthy rather than alarming on startup.
	if !c.Healthy() {
		t.Error("Healthy() should be true before the first run")
	}
}

func TestChecker_RepairsStreakInvariant(t *testing.T) {
	db := newTestDB(t)

	u := domain.User{
		ID: uuid.New(), Name: "amara", Timezone: "UTC", Level: 1,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	if err := db.InsertUser(u); err != nil {
		t.Fatalf("InsertUser() error: %v", err)
	}
	h := domain.Habit{
		ID: uuid.New(), UserID: u.ID, Name: "run",
		Schedule: domain.Schedule{Cadence: domain.CadenceDaily},
		Active:   true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	if err := db.InsertHabit(h); err != nil {
		t.Fatalf("InsertHabit() error: %v", err)
	}

	// Violate longest >= current directly in the store.
	h.CurrentStreak = 5
	h.LongestStreak = 2
	if err := db.UpdateHabitStats(h); err != nil {
		t.Fatalf("UpdateHabitStats() error: %v", err)
	}

	c := newTestChecker(t, db)
	c.runAll(context.Background())

	// The recompute repaired the stats from (empty) history.
	got, err := db.GetHabit(h.ID)
	if err != nil {
		t.Fatalf("GetHabit() error: %v", err)
	}
	if got.LongestStreak < got.CurrentStreak {
		t.Errorf("still violated: longest=%d current=%d", got.LongestStreak, got.CurrentStreak)
	}
	if !c.Healthy() {
		for _, s := range c.Statuses() {
			t.Logf("check %s healthy=%v err=%s", s.Name, s.Healthy, s.Error)
		}
		t.Error("checker should be healthy after repair")
	}
}
