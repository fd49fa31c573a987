package hunt

import (
	"context"
	"strconv"
	"strings"
	"time"
)

const (
	// LandmarkCount is the number of date-gated landmarks on the map.
	LandmarkCount = 7
	// DiamondCount is the number of bonus diamond chests.
	DiamondCount = 3
)

// TaskKind is the category of a point-awarding action.
type TaskKind string

const (
	TaskLandmarkUnlock TaskKind = "landmarkUnlock"
	TaskDiamondChest   TaskKind = "diamondChest"
	TaskDailyCheckIn   TaskKind = "dailyCheckIn"
)

// TargetKind distinguishes the two passphrase-protected target sets.
type TargetKind string

const (
	TargetLandmark TargetKind = "landmark"
	TargetDiamond  TargetKind = "diamond"
)

// Progress tracks which landmarks and diamond chests a player has completed.
// Keys are decimal indices ("0".."6" for landmarks, "0".."2" for diamonds);
// a true value is permanent and never reset.
type Progress struct {
	Landmark map[string]bool `json:"landmark" firestore:"landmark"`
	Diamond  map[string]bool `json:"diamond" firestore:"diamond"`
}

// Done reports whether the given target has been completed.
func (p Progress) Done(kind TargetKind, index int) bool {
	key := strconv.Itoa(index)
	if kind == TargetDiamond {
		return p.Diamond[key]
	}
	return p.Landmark[key]
}

// LandmarksDone returns the number of completed landmarks.
func (p Progress) LandmarksDone() int {
	return countTrue(p.Landmark)
}

// DiamondsDone returns the number of completed diamond chests.
func (p Progress) DiamondsDone() int {
	return countTrue(p.Diamond)
}

func countTrue(m map[string]bool) int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Record is the per-player game document stored in Firestore under users/{uid}.
// Profile attributes live on the same document and are managed by the user package.
type Record struct {
	UID                string     `json:"uid" firestore:"-"`
	Name               string     `json:"name" firestore:"name"`
	Email              string     `json:"email" firestore:"email"`
	ProfileCompleted   bool       `json:"profile_completed" firestore:"profileCompleted"`
	Progress           Progress   `json:"progress" firestore:"progress"`
	DiamondPoints      int        `json:"diamond_points" firestore:"diamondPoints"`
	LastCheckIn        *time.Time `json:"last_check_in" firestore:"lastCheckIn"`
	LastDiamondUpdated *time.Time `json:"last_diamond_updated" firestore:"lastDiamondUpdated"`
}

// Passphrase holds the accepted secrets for one landmark or diamond chest.
// Landmarks may carry a second accepted spelling; diamond chests use Keyword only.
type Passphrase struct {
	Keyword  string `firestore:"keyword"`
	Keyword1 string `firestore:"keyword1"`
}

// Matches verifies a submission against the stored secrets. The submission is
// trimmed of surrounding whitespace; the comparison itself is case-sensitive.
func (p Passphrase) Matches(submitted string) bool {
	s := strings.TrimSpace(submitted)
	if p.Keyword != "" && s == p.Keyword {
		return true
	}
	return p.Keyword1 != "" && s == p.Keyword1
}

// AwardEntry is one immutable row of the per-player award history.
type AwardEntry struct {
	ID        string    `json:"id" firestore:"-"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
	Task      TaskKind  `json:"task" firestore:"task"`
	Points    int       `json:"points" firestore:"points"`
	TaskID    string    `json:"task_id,omitempty" firestore:"task_id,omitempty"`
}

// LeaderboardEntry is the denormalized per-player projection used for ranking.
type LeaderboardEntry struct {
	UID                string     `json:"uid" firestore:"-"`
	Name               string     `json:"name" firestore:"name"`
	DiamondPoints      int        `json:"diamond_points" firestore:"diamondPoints"`
	LastDiamondUpdated *time.Time `json:"last_diamond_updated" firestore:"lastDiamondUpdated"`
	Rank               int        `json:"rank" firestore:"-"`
}

// Achievements are derived badge flags, recomputed from progress on every evaluation.
type Achievements struct {
	FirstStep bool `json:"firstStep"`
	HalfWay   bool `json:"halfWay"`
	Completed bool `json:"completed"`
}

// AwardRequest describes one transactional complete-and-award step.
type AwardRequest struct {
	UID    string
	Target TargetKind
	Index  int
	Task   TaskKind
	Points int
	TaskID string
	LogID  string
	Now    time.Time
}

// AwardOutcome reports what the transaction actually did. FirstTime is false
// when the target was already complete, in which case no points were awarded.
type AwardOutcome struct {
	FirstTime bool
	Balance   int
	Prev      Progress
	Next      Progress
}

// CheckInRequest describes one transactional daily check-in attempt.
type CheckInRequest struct {
	UID      string
	Points   int
	LogID    string
	Now      time.Time
	Location *time.Location
}

// CheckInOutcome is the result of a successful daily check-in.
type CheckInOutcome struct {
	Balance     int
	CheckedInAt time.Time
}

// Repository defines the persistence operations the hunt service relies on.
type Repository interface {
	GetRecord(ctx context.Context, uid string) (*Record, error)
	GetPassphrase(ctx context.Context, kind TargetKind, index int) (*Passphrase, error)
	CompleteAndAward(ctx context.Context, req AwardRequest) (AwardOutcome, error)
	CheckInAndAward(ctx context.Context, req CheckInRequest) (CheckInOutcome, error)
	ListAwards(ctx context.Context, uid string) ([]AwardEntry, error)
	SumAwards(ctx context.Context, uid string) (int, error)
	ListLeaderboard(ctx context.Context) ([]LeaderboardEntry, error)
	ListRecords(ctx context.Context) ([]*Record, error)
}

// StateResponse is returned by GET /v1/hunt/state.
type StateResponse struct {
	Record          *Record      `json:"record"`
	UnlockedIndex   int          `json:"unlocked_index"`
	NextUnlockAt    *time.Time   `json:"next_unlock_at,omitempty"`
	SecondsToUnlock int64        `json:"seconds_to_unlock,omitempty"`
	Achievements    Achievements `json:"achievements"`
	CheckedInToday  bool         `json:"checked_in_today"`
	Rank            int          `json:"rank,omitempty"`
}

// UnlockResponse is returned by the landmark and diamond unlock operations.
type UnlockResponse struct {
	FirstTime       bool         `json:"first_time"`
	Message         string       `json:"message"`
	PointsAwarded   int          `json:"points_awarded"`
	Balance         int          `json:"balance"`
	Achievements    Achievements `json:"achievements"`
	NewAchievements []string     `json:"new_achievements,omitempty"`
}

// CheckInResponse is returned by POST /v1/hunt/checkins.
type CheckInResponse struct {
	PointsAwarded int       `json:"points_awarded"`
	Balance       int       `json:"balance"`
	CheckedInAt   time.Time `json:"checked_in_at"`
	Message       string    `json:"message"`
}

// LeaderboardResponse carries the ranked projection plus the caller's own
// position and, when the caller is outside the top entries, a peer window.
type LeaderboardResponse struct {
	Entries []LeaderboardEntry `json:"entries"`
	Me      *LeaderboardEntry  `json:"me,omitempty"`
	Peers   []LeaderboardEntry `json:"peers,omitempty"`
	Total   int                `json:"total"`
}

// AdminUser is one row of the admin user listing.
type AdminUser struct {
	UID                string     `json:"uid"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	ProfileCompleted   bool       `json:"profile_completed"`
	DiamondPoints      int        `json:"diamond_points"`
	LandmarksDone      int        `json:"landmarks_done"`
	DiamondsDone       int        `json:"diamonds_done"`
	EngagementScore    int        `json:"engagement_score"`
	LastDiamondUpdated *time.Time `json:"last_diamond_updated,omitempty"`
}

// AdminStats aggregates campaign-wide progress for the admin dashboard.
type AdminStats struct {
	TotalUsers       int            `json:"total_users"`
	ProfileCompleted int            `json:"profile_completed"`
	TotalPoints      int            `json:"total_points"`
	CompletedAll     int            `json:"completed_all"`
	LandmarkDist     map[int]int    `json:"landmark_distribution"`
	DiamondDist      map[int]int    `json:"diamond_distribution"`
	PointsRanges     map[string]int `json:"points_ranges"`
}

// ConsistencyRow compares a player's balance against the sum of their award log.
type ConsistencyRow struct {
	UID        string `json:"uid"`
	Balance    int    `json:"balance"`
	LogSum     int    `json:"log_sum"`
	Consistent bool   `json:"consistent"`
}

// Service defines the hunt service interface.
type Service interface {
	State(ctx context.Context, uid string) (*StateResponse, error)
	UnlockLandmark(ctx context.Context, uid string, index int, passphrase string) (*UnlockResponse, error)
	UnlockDiamond(ctx context.Context, uid string, index int, passphrase string) (*UnlockResponse, error)
	CheckIn(ctx context.Context, uid string) (*CheckInResponse, error)
	Awards(ctx context.Context, uid string) ([]AwardEntry, error)
	Leaderboard(ctx context.Context, uid string) (*LeaderboardResponse, error)
	AdminUsers(ctx context.Context, sortField string, descending bool) ([]AdminUser, error)
	AdminStats(ctx context.Context) (*AdminStats, error)
	ConsistencyReport(ctx context.Context) ([]ConsistencyRow, error)
}
