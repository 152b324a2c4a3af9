package gamification

import "testing"

// ─── Level Curve ────────────────────────────────────────────────────────────

func TestXPThreshold_CurveShape(t *testing.T) {
	// 100 * 1.2^(L-1), rounded to the nearest 10.
	cases := []struct {
		level int
		want  int64
	}{
		{1, 100},
		{2, 120},
		{3, 140},
		{4, 170},
		{5, 210},
		{6, 250},
	}
	for _, tc := range cases {
		if got := XPThreshold(tc.level); got != tc.want {
			t.Errorf("XPThreshold(%d) = %d, want %d", tc.level, got, tc.want)
		}
	}
}

func TestXPThreshold_RoundsToTens(t *testing.T) {
	for level := 1; level <= MaxLevel; level++ {
		if got := XPThreshold(level); got%10 != 0 {
			t.Fatalf("XPThreshold(%d) = %d, not a multiple of 10", level, got)
		}
	}
}

func TestXPForLevel_Cumulative(t *testing.T) {
	if got := XPForLevel(1); got != 0 {
		t.Errorf("XPForLevel(1) = %d, want 0", got)
	}
	if got := XPForLevel(2); got != 100 {
		t.Errorf("XPForLevel(2) = %d, want 100", got)
	}
	if got := XPForLevel(3); got != 220 {
		t.Errorf("XPForLevel(3) = %d, want 220", got)
	}
	if got := XPForLevel(4); got != 360 {
		t.Errorf("XPForLevel(4) = %d, want 360", got)
	}
}

func TestLevelFor_Boundaries(t *testing.T) {
	cases := []struct {
		xp   int64
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{219, 2},
		{220, 3},
		{359, 3},
		{360, 4},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.xp); got != tc.want {
			t.Errorf("LevelFor(%d) = %d, want %d", tc.xp, got, tc.want)
		}
	}
}

func TestLevelFor_NegativeXP(t *testing.T) {
	if got := LevelFor(-50); got != 1 {
		t.Errorf("LevelFor(-50) = %d, want 1", got)
	}
}

func TestLevelFor_MonotonicAndConsistent(t *testing.T) {
	// Every level boundary must round-trip: LevelFor(XPForLevel(L)) == L,
	// and one XP less stays at L-1.
	for level := 2; level <= MaxLevel; level++ {
		floor := XPForLevel(level)
		if got := LevelFor(floor); got != level {
			t.Fatalf("LevelFor(XPForLevel(%d)=%d) = %d", level, floor, got)
		}
		if got := LevelFor(floor - 1); got != level-1 {
			t.Fatalf("LevelFor(%d) = %d, want %d", floor-1, got, level-1)
		}
	}
}

func TestLevelFor_Cap(t *testing.T) {
	if got := LevelFor(1 << 60); got != MaxLevel {
		t.Errorf("LevelFor(huge) = %d, want %d", got, MaxLevel)
	}
}

func TestXPToNextLevel(t *testing.T) {
	if got := XPToNextLevel(0); got != 100 {
		t.Errorf("XPToNextLevel(0) = %d, want 100", got)
	}
	if got := XPToNextLevel(150); got != 70 {
		t.Errorf("XPToNextLevel(150) = %d, want 70", got)
	}
	if got := XPToNextLevel(XPForLevel(MaxLevel)); got != 0 {
		t.Errorf("XPToNextLevel(cap) = %d, want 0", got)
	}
}

func TestProgressPct(t *testing.T) {
	if got := ProgressPct(50); got != 50.0 {
		t.Errorf("ProgressPct(50) = %v, want 50", got)
	}
	if got := ProgressPct(0); got != 0.0 {
		t.Errorf("ProgressPct(0) = %v, want 0", got)
	}
	if got := ProgressPct(XPForLevel(MaxLevel)); got != 100.0 {
		t.Errorf("ProgressPct(cap) = %v, want 100", got)
	}
}
