package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stride-labs/stride/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *DB) domain.User {
	t.Helper()
	u := domain.User{
		ID:                uuid.New(),
		Name:              "amara",
		Timezone:          "America/Chicago",
		Level:             1,
		ForgivenessTokens: domain.MaxForgivenessTokens,
		ForgivenessOptIn:  true,
		CreatedAt:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.InsertUser(u); err != nil {
		t.Fatalf("InsertUser() error: %v", err)
	}
	return u
}

func seedHabit(t *testing.T, db *DB, userID uuid.UUID, sched domain.Schedule) domain.Habit {
	t.Helper()
	h := domain.Habit{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      "morning run",
		Category:  "fitness",
		Schedule:  sched,
		Active:    true,
		CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	if err := db.InsertHabit(h); err != nil {
		t.Fatalf("InsertHabit() error: %v", err)
	}
	return h
}

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, "stride.db")); os.IsNotExist(err) {
		t.Error("stride.db should exist")
	}
}

func TestOpen_Ping(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
}

// ─── Users ──────────────────────────────────────────────────────────────────

func TestInsertUser_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db)

	got, err := db.GetUser(u.ID)
	if err != nil {
		t.Fatalf("GetUser() error: %v", err)
	}
	if got.Name != "amara" {
		t.Errorf("Name = %q, want amara", got.Name)
	}
	if got.Timezone != "America/Chicago" {
		t.Errorf("Timezone = %q", got.Timezone)
	}
	if got.ForgivenessTokens != domain.MaxForgivenessTokens {
		t.Errorf("ForgivenessTokens = %d, want %d", got.ForgivenessTokens, domain.MaxForgivenessTokens)
	}
	if !got.ForgivenessOptIn {
		t.Error("ForgivenessOptIn should be true")
	}
}

func TestGetUser_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetUser(uuid.New())
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestUpdateUserProgress(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db)

	u.TotalXP = 150
	u.Level = 2
	u.ForgivenessTokens = 1
	if err := db.UpdateUserProgress(u); err != nil {
		t.Fatalf("UpdateUserProgress() error: %v", err)
	}

	got, _ := db.GetUser(u.ID)
	if got.TotalXP != 150 || got.Level != 2 || got.ForgivenessTokens != 1 {
		t.Errorf("got xp=%d level=%d tokens=%d", got.TotalXP, got.Level, got.ForgivenessTokens)
	}
}

func TestListForgivenessCandidates_FiltersTokensAndOptIn(t *testing.T) {
	db := newTestDB(t)

	eligible := seedUser(t, db)

	broke := seedUser(t, db)
	broke.ForgivenessTokens = 0
	if err := db.UpdateUserProgress(broke); err != nil {
		t.Fatalf("UpdateUserProgress() error: %v", err)
	}

	optedOut := domain.User{
		ID: uuid.New(), Name: "quiet", Timezone: "UTC",
		Level: 1, ForgivenessTokens: 2, ForgivenessOptIn: false,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	if err := db.InsertUser(optedOut); err != nil {
		t.Fatalf("InsertUser() error: %v", err)
	}

	got, err := db.ListForgivenessCandidates()
	if err != nil {
		t.Fatalf("ListForgivenessCandidates() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("candidates = %d, want 1", len(got))
	}
	if got[0].ID != eligible.ID {
		t.Errorf("candidate = %s, want %s", got[0].ID, eligible.ID)
	}
}

// ─── Habits ─────────────────────────────────────────────────────────────────

func TestInsertHabit_RoundTripCustomDays(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db)
	h := seedHabit(t, db, u.ID, domain.Schedule{
		Cadence:    domain.CadenceCustom,
		DaysOfWeek: []time.Weekday{time.Friday, time.Monday, time.Wednesday},
	})

	got, err := db.GetHabit(h.ID)
	if err != nil {
		t.Fatalf("GetHabit() error: %v", err)
	}
	if got.Schedule.Cadence != domain.CadenceCustom {
		t.Errorf("Cadence = %q", got.Schedule.Cadence)
	}
	days := got.Schedule.SortedDays()
	want := []time.Weekday{time.Monday, time.Wednesday, time.Friday}
	if len(days) != len(want) {
		t.Fatalf("days = %v, want %v", days, want)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("days[%d] = %v, want %v", i, days[i], want[i])
		}
	}
}

func TestGetHabit_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetHabit(uuid.New())
	if !errors.Is(err, domain.ErrHabitNotFound) {
		t.Errorf("err = %v, want ErrHabitNotFound", err)
	}
}

func TestUpdateHabitStats(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db)
	h := seedHabit(t, db, u.ID, domain.Schedule{Cadence: domain.CadenceDaily})

	h.CurrentStreak = 5
	h.LongestStreak = 8
	h.TotalCompletions = 20
	h.ConsistencyRate = 67
	if err := db.UpdateHabitStats(h); err != nil {
		t.Fatalf("UpdateHabitStats() error: %v", err)
	}

	got, _ := db.GetHabit(h.ID)
	if got.CurrentStreak != 5 || got.LongestStreak != 8 || got.TotalCompletions != 20 || got.ConsistencyRate != 67 {
		t.Errorf("stats = %+v", got)
	}
}

func TestUpdateHabitStats_MissingHabit(t *testing.T) {
	db := newTestDB(t)
	err := db.UpdateHabitStats(domain.Habit{ID: uuid.New()})
	if !errors.Is(err, domain.ErrHabitNotFound) {
		t.Errorf("err = %v, want ErrHabitNotFound", err)
	}
}

func TestSetHabitActive_Archive(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db)
	h := seedHabit(t, db, u.ID, domain.Schedule{Cadence: domain.CadenceDaily})

	if err := db.SetHabitActive(h.ID, false); err != nil {
		t.Fatalf("SetHabitActive() error: %v", err)
	}
	got, _ := db.GetHabit(h.ID)
	if got.Active {
		t.Error("habit should be archived")
	}

	if err := db.SetHabitActive(h.ID, true); err != nil {
		t.Fatalf("SetHabitActive() error: %v", err)
	}
	got, _ = db.GetHabit(h.ID)
	if !got.Active {
		t.Error("habit should be restored")
	}
}

func TestListProtectableHabits(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db)

	streak := seedHabit(t, db, u.ID, domain.Schedule{Cadence: domain.CadenceDaily})
	streak.CurrentStreak = 4
	streak.LongestStreak = 4
	if err := db.UpdateHabitStats(streak); err != nil {
		t.Fatalf("UpdateHabitStats() error: %v", err)
	}

	// Weekly cadence, zero streak, and archived habits are all excluded.
	seedHabit(t, db, u.ID, domain.Schedule{Cadence: domain.CadenceWeekly})
	seedHabit(t, db, u.ID, domain.Schedule{Cadence: domain.CadenceDaily})
	archived := seedHabit(t, db, u.ID, domain.Schedule{Cadence: domain.CadenceDaily})
	archived.CurrentStreak = 9
	archived.LongestStreak = 9
	if err := db.UpdateHabitStats(archived); err != nil {
		t.Fatalf("UpdateHabitStats() error: %v", err)
	}
	if err := db.SetHabitActive(archived.ID, false); err != nil {
		t.Fatalf("SetHabitActive() error: %v", err)
	}

	got, err := db.ListProtectableHabits(u.ID)
	if err != nil {
		t.Fatalf("ListProtectableHabits() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("protectable = %d, want 1", len(got))
	}
	if got[0].ID != streak.ID {
		t.Errorf("protectable = %s, want %s", got[0].ID, streak.ID)
	}
}

// ─── Completions ────────────────────────────────────────────────────────────

func TestInsertCompletion_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db)
	h := seedHabit(t, db, u.ID, domain.Schedule{Cadence: domain.CadenceDaily})

	at := time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)
	c := domain.Completion{
		ID: uuid.New(), HabitID: h.ID, UserID: u.ID,
		CompletedAt: at, DeviceTimezone: "America/Chicago",
		XPEarned: 10, CreatedAt: at,
	}
	if err := db.InsertCompletion(c); err != nil {
		t.Fatalf("InsertCompletion() error: %v", err)
	}

	list, err := db.ListCompletionsByHabit(h.ID)
	if err != nil {
		t.Fatalf("ListCompletionsByHabit() error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("completions = %d, want 1", len(list))
	}
	if !list[0].CompletedAt.Equal(at) {
		t.Errorf("CompletedAt = %v, want %v", list[0].CompletedAt, at)
	}
	if list[0].DeviceTimezone != "America/Chicago" {
		t.Errorf("DeviceTimezone = %q", list[0].DeviceTimezone)
	}
}

func TestPatchCompletionXP(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db)
	h := seedHabit(t, db, u.ID, domain.Schedule{Cadence: domain.CadenceDaily})

	c := domain.Completion{
		ID: uuid.New(), HabitID: h.ID, UserID: u.ID,
		CompletedAt: time.Now(), CreatedAt: time.Now(),
	}
	if err := db.InsertCompletion(c); err != nil {
		t.Fatalf("InsertCompletion() error: %v", err)
	}
	if err := db.PatchCompletionXP(c.ID, 15); err != nil {
		t.Fatalf("PatchCompletionXP() error: %v", err)
	}

	list, _ := db.ListCompletionsByHabit(h.ID)
	if list[0].XPEarned != 15 {
		t.Errorf("XPEarned = %d, want 15", list[0].XPEarned)
	}
}

func TestListUserCompletionsInRange_HalfOpen(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db)
	h := seedHabit(t, db, u.ID, domain.Schedule{Cadence: domain.CadenceDaily})

	start := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	for _, at := range []time.Time{
		start.Add(-time.Second), // before
		start,                   // inclusive lower bound
		start.Add(12 * time.Hour),
		end, // exclusive upper bound
	} {
		c := domain.Completion{
			ID: uuid.New(), HabitID: h.ID, UserID: u.ID,
			CompletedAt: at, CreatedAt: at,
		}
		if err := db.InsertCompletion(c); err != nil {
			t.Fatalf("InsertCompletion() error: %v", err)
		}
	}

	got, err := db.ListUserCompletionsInRange(u.ID, start, end)
	if err != nil {
		t.Fatalf("ListUserCompletionsInRange() error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("in range = %d, want 2", len(got))
	}
}

// ─── XP Ledger ──────────────────────────────────────────────────────────────

func TestInsertLedgerEntry_RejectsZeroAmount(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db)

	_, err := db.InsertLedgerEntry(domain.LedgerEntry{
		UserID: u.ID, Amount: 0, Source: domain.XPCompletion, CreatedAt: time.Now(),
	})
	if err == nil {
		t.Fatal("zero-amount ledger entry should be rejected")
	}
}

func TestLedgerEntries_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db)

	base := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := db.InsertLedgerEntry(domain.LedgerEntry{
			UserID:      u.ID,
			Amount:      int64(10 * (i + 1)),
			Source:      domain.XPCompletion,
			Description: fmt.Sprintf("entry %d", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("InsertLedgerEntry() error: %v", err)
		}
	}

	got, err := db.LedgerEntries(u.ID, 2)
	if err != nil {
		t.Fatalf("LedgerEntries() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got[0].Amount != 30 || got[1].Amount != 20 {
		t.Errorf("order = [%d, %d], want [30, 20]", got[0].Amount, got[1].Amount)
	}
}

func TestLedgerSum(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db)

	amounts := []int64{10, 25, -5}
	for _, a := range amounts {
		if _, err := db.InsertLedgerEntry(domain.LedgerEntry{
			UserID: u.ID, Amount: a, Source: domain.XPCompletion, CreatedAt: time.Now(),
		}); err != nil {
			t.Fatalf("InsertLedgerEntry() error: %v", err)
		}
	}

	sum, err := db.LedgerSum(u.ID)
	if err != nil {
		t.Fatalf("LedgerSum() error: %v", err)
	}
	if sum != 30 {
		t.Errorf("sum = %d, want 30", sum)
	}
}

// ─── Notifications ──────────────────────────────────────────────────────────

func TestNotifications_PendingAndShown(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db)

	id, err := db.InsertNotification(domain.Notification{
		UserID: u.ID, Kind: domain.NotifyLevelUp,
		Title: "Level 2!", Body: "You reached level 2.",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("InsertNotification() error: %v", err)
	}

	pending, err := db.ListPendingNotifications(u.ID, 10)
	if err != nil {
		t.Fatalf("ListPendingNotifications() error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}

	if err := db.MarkNotificationShown(id); err != nil {
		t.Fatalf("MarkNotificationShown() error: %v", err)
	}
	pending, _ = db.ListPendingNotifications(u.ID, 10)
	if len(pending) != 0 {
		t.Errorf("pending after shown = %d, want 0", len(pending))
	}
}

// ─── Transactions ───────────────────────────────────────────────────────────

func TestWithTx_RollbackOnError(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db)
	h := seedHabit(t, db, u.ID, domain.Schedule{Cadence: domain.CadenceDaily})

	wantErr := errors.New("abort")
	err := db.WithTx(context.Background(), func(tx *Tx) error {
		c := domain.Completion{
			ID: uuid.New(), HabitID: h.ID, UserID: u.ID,
			CompletedAt: time.Now(), CreatedAt: time.Now(),
		}
		if err := tx.InsertCompletion(c); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("WithTx() err = %v, want abort", err)
	}

	list, _ := db.ListCompletionsByHabit(h.ID)
	if len(list) != 0 {
		t.Errorf("completions after rollback = %d, want 0", len(list))
	}
}

func TestWithTx_CommitVisible(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db)
	h := seedHabit(t, db, u.ID, domain.Schedule{Cadence: domain.CadenceDaily})

	err := db.WithTx(context.Background(), func(tx *Tx) error {
		return tx.InsertCompletion(domain.Completion{
			ID: uuid.New(), HabitID: h.ID, UserID: u.ID,
			CompletedAt: time.Now(), CreatedAt: time.Now(),
		})
	})
	if err != nil {
		t.Fatalf("WithTx() error: %v", err)
	}

	list, _ := db.ListCompletionsByHabit(h.ID)
	if len(list) != 1 {
		t.Errorf("completions = %d, want 1", len(list))
	}
}
