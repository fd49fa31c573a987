package hunt

import (
	"testing"
	"time"
)

var taipei = mustLocation("Asia/Taipei")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func campaignStart() time.Time {
	return time.Date(2025, time.April, 20, 0, 0, 0, 0, taipei)
}

func TestUnlockedIndex(t *testing.T) {
	start := campaignStart()

	cases := []struct {
		name string
		now  time.Time
		want int
	}{
		{"before campaign", start.AddDate(0, 0, -1).Add(12 * time.Hour), -1},
		{"first morning", start.Add(1 * time.Minute), 0},
		{"late on day zero", start.Add(23 * time.Hour), 0},
		{"stroke of day three", start.AddDate(0, 0, 3), 3},
		{"final landmark day", start.AddDate(0, 0, 6).Add(8 * time.Hour), 6},
		{"long after the hunt", start.AddDate(0, 1, 0), 30},
	}
	for _, tc := range cases {
		if got := UnlockedIndex(tc.now, start, taipei); got != tc.want {
			t.Errorf("%s: UnlockedIndex = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestNextUnlockAt(t *testing.T) {
	start := campaignStart()

	next := NextUnlockAt(start.Add(10*time.Hour), start, taipei)
	if next == nil {
		t.Fatal("expected a next unlock on day zero")
	}
	if want := start.AddDate(0, 0, 1); !next.Equal(want) {
		t.Errorf("next unlock = %v, want %v", next, want)
	}

	// Before the campaign the countdown targets landmark zero, not a
	// negative index.
	next = NextUnlockAt(start.AddDate(0, 0, -5), start, taipei)
	if next == nil {
		t.Fatal("expected a next unlock before the campaign")
	}
	if !next.Equal(start) {
		t.Errorf("pre-campaign next unlock = %v, want %v", next, start)
	}

	if next := NextUnlockAt(start.AddDate(0, 0, 6), start, taipei); next != nil {
		t.Errorf("expected nil once every landmark is reachable, got %v", next)
	}
}

func TestSameCalendarDay(t *testing.T) {
	a := time.Date(2025, time.April, 21, 23, 50, 0, 0, taipei)
	b := time.Date(2025, time.April, 22, 0, 10, 0, 0, taipei)
	if SameCalendarDay(a, b, taipei) {
		t.Error("midnight boundary should split the days")
	}
	if !SameCalendarDay(a, a.Add(-20*time.Hour), taipei) {
		t.Error("same local date should match regardless of hour")
	}

	// 16:30 UTC on the 21st is already the 22nd in Taipei.
	utc := time.Date(2025, time.April, 21, 16, 30, 0, 0, time.UTC)
	if SameCalendarDay(a, utc, taipei) {
		t.Error("comparison must use the campaign timezone, not the stamp's own zone")
	}
}

func TestEvalAchievements(t *testing.T) {
	var p Progress
	if got := EvalAchievements(p); got.FirstStep || got.HalfWay || got.Completed {
		t.Errorf("empty progress earned %+v", got)
	}

	p = Progress{Landmark: map[string]bool{"0": true}}
	if got := EvalAchievements(p); !got.FirstStep || got.HalfWay {
		t.Errorf("single landmark earned %+v", got)
	}

	p = Progress{Landmark: map[string]bool{"1": true, "2": true, "3": true}}
	got := EvalAchievements(p)
	if got.FirstStep {
		t.Error("firstStep requires landmark zero specifically")
	}
	if !got.HalfWay {
		t.Error("three landmarks should earn halfWay")
	}

	p.Landmark = map[string]bool{"0": true, "1": true, "2": true, "3": true, "4": true, "5": true, "6": true}
	if got := EvalAchievements(p); !got.Completed {
		t.Error("all seven landmarks should earn completed")
	}
}

func TestNewlyEarned(t *testing.T) {
	prev := Achievements{FirstStep: true}
	next := Achievements{FirstStep: true, HalfWay: true, Completed: true}
	got := NewlyEarned(prev, next)
	if len(got) != 2 || got[0] != "halfWay" || got[1] != "completed" {
		t.Errorf("NewlyEarned = %v, want [halfWay completed]", got)
	}

	if got := NewlyEarned(next, next); got != nil {
		t.Errorf("unchanged achievements re-fired: %v", got)
	}
}

func TestRankOrdering(t *testing.T) {
	early := time.Date(2025, time.April, 21, 9, 0, 0, 0, taipei)
	late := early.Add(3 * time.Hour)

	entries := []LeaderboardEntry{
		{UID: "c", DiamondPoints: 30, LastDiamondUpdated: &late},
		{UID: "a", DiamondPoints: 50, LastDiamondUpdated: &late},
		{UID: "b", DiamondPoints: 30, LastDiamondUpdated: &early},
		{UID: "d", DiamondPoints: 30}, // never earned: missing stamp ranks last among ties
	}

	ranked := Rank(entries)
	wantOrder := []string{"a", "b", "c", "d"}
	for i, want := range wantOrder {
		if ranked[i].UID != want {
			t.Fatalf("position %d = %s, want %s", i, ranked[i].UID, want)
		}
		if ranked[i].Rank != i+1 {
			t.Errorf("%s rank = %d, want %d", ranked[i].UID, ranked[i].Rank, i+1)
		}
	}
}

func TestPassphraseMatches(t *testing.T) {
	p := Passphrase{Keyword: "燈塔", Keyword1: "lighthouse"}

	if !p.Matches("燈塔") || !p.Matches("lighthouse") {
		t.Error("both stored spellings should match")
	}
	if !p.Matches("  燈塔 \n") {
		t.Error("surrounding whitespace should be trimmed")
	}
	if p.Matches("Lighthouse") {
		t.Error("comparison is case-sensitive")
	}
	if p.Matches("") {
		t.Error("empty submission never matches")
	}

	if (Passphrase{}).Matches("") {
		t.Error("unset secrets must not match the empty string")
	}
}
