package hunt

import (
	"sort"
	"time"
)

// missingTimestamp ranks players without a lastDiamondUpdated stamp behind
// every real timestamp on point ties.
var missingTimestamp = time.Date(3000, time.January, 1, 0, 0, 0, 0, time.UTC)

// UnlockedIndex returns the highest landmark index reachable at now: landmark
// i becomes unlockable once i whole calendar days have elapsed since the
// campaign start in the given location. A negative result means the campaign
// has not started and nothing is unlockable.
func UnlockedIndex(now, start time.Time, loc *time.Location) int {
	return daysBetween(midnight(start, loc), midnight(now, loc))
}

// NextUnlockAt returns the instant the next landmark becomes unlockable, or
// nil once every landmark is reachable.
func NextUnlockAt(now, start time.Time, loc *time.Location) *time.Time {
	idx := UnlockedIndex(now, start, loc)
	if idx >= LandmarkCount-1 {
		return nil
	}
	next := idx + 1
	if next < 0 {
		next = 0
	}
	at := midnight(start, loc).AddDate(0, 0, next)
	return &at
}

// SameCalendarDay reports whether a and b fall on the same calendar day in loc.
func SameCalendarDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// EvalAchievements derives the badge flags from landmark progress. The flags
// are never persisted as authoritative state; they are recomputed on demand.
func EvalAchievements(p Progress) Achievements {
	done := p.LandmarksDone()
	return Achievements{
		FirstStep: p.Done(TargetLandmark, 0),
		HalfWay:   done >= 3,
		Completed: done == LandmarkCount,
	}
}

// NewlyEarned emits the badge IDs that flipped from false to true between two
// evaluations. Flags that were already true never re-fire.
func NewlyEarned(prev, next Achievements) []string {
	var earned []string
	if next.FirstStep && !prev.FirstStep {
		earned = append(earned, "firstStep")
	}
	if next.HalfWay && !prev.HalfWay {
		earned = append(earned, "halfWay")
	}
	if next.Completed && !prev.Completed {
		earned = append(earned, "completed")
	}
	return earned
}

// Rank orders leaderboard entries by points descending, breaking ties by the
// earlier lastDiamondUpdated stamp, and assigns 1-based ranks in place.
func Rank(entries []LeaderboardEntry) []LeaderboardEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].DiamondPoints != entries[j].DiamondPoints {
			return entries[i].DiamondPoints > entries[j].DiamondPoints
		}
		return tieStamp(entries[i]).Before(tieStamp(entries[j]))
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func tieStamp(e LeaderboardEntry) time.Time {
	if e.LastDiamondUpdated == nil {
		return missingTimestamp
	}
	return *e.LastDiamondUpdated
}

func midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// daysBetween counts whole days from a to b; both must be midnight-normalized
// in the same location. Round absorbs DST shifts.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Round(24*time.Hour) / (24 * time.Hour))
}
