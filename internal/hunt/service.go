package hunt

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

const leaderboardTopSize = 10

type service struct {
	repo  Repository
	clock Clock
	ids   IDGenerator
	start time.Time
	loc   *time.Location
}

// NewService creates a new hunt service.
func NewService(repo Repository, clock Clock, ids IDGenerator, start time.Time, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if clock == nil {
		clock = NewSystemClock()
	}
	if ids == nil {
		ids = NewUUIDGenerator()
	}
	if loc == nil {
		loc = time.UTC
	}
	if start.IsZero() {
		return nil, errors.New("campaign start date is required")
	}
	return &service{repo: repo, clock: clock, ids: ids, start: start, loc: loc}, nil
}

func (s *service) State(ctx context.Context, uid string) (*StateResponse, error) {
	if uid == "" {
		return nil, ErrMissingUID
	}

	var (
		record  *Record
		entries []LeaderboardEntry
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r, err := s.repo.GetRecord(gctx, uid)
		if err != nil {
			return err
		}
		record = r
		return nil
	})

	g.Go(func() error {
		e, err := s.repo.ListLeaderboard(gctx)
		if err != nil {
			return err
		}
		entries = e
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	resp := &StateResponse{
		Record:        record,
		UnlockedIndex: UnlockedIndex(now, s.start, s.loc),
		Achievements:  EvalAchievements(record.Progress),
	}
	if next := NextUnlockAt(now, s.start, s.loc); next != nil {
		resp.NextUnlockAt = next
		resp.SecondsToUnlock = int64(next.Sub(now).Seconds())
	}
	if record.LastCheckIn != nil {
		resp.CheckedInToday = SameCalendarDay(*record.LastCheckIn, now, s.loc)
	}
	for _, e := range Rank(entries) {
		if e.UID == uid {
			resp.Rank = e.Rank
			break
		}
	}
	return resp, nil
}

func (s *service) UnlockLandmark(ctx context.Context, uid string, index int, passphrase string) (*UnlockResponse, error) {
	if uid == "" {
		return nil, ErrMissingUID
	}
	if index < 0 || index >= LandmarkCount {
		return nil, ErrInvalidIndex
	}

	now := s.clock.Now()
	if UnlockedIndex(now, s.start, s.loc) < index {
		return nil, ErrLocked
	}

	if err := s.verifyPassphrase(ctx, TargetLandmark, index, passphrase); err != nil {
		return nil, err
	}

	return s.completeAndAward(ctx, uid, TargetLandmark, index, TaskLandmarkUnlock, now)
}

func (s *service) UnlockDiamond(ctx context.Context, uid string, index int, passphrase string) (*UnlockResponse, error) {
	if uid == "" {
		return nil, ErrMissingUID
	}
	if index < 0 || index >= DiamondCount {
		return nil, ErrInvalidIndex
	}

	// Diamond chests are not date-gated; the passphrase is the only barrier.
	if err := s.verifyPassphrase(ctx, TargetDiamond, index, passphrase); err != nil {
		return nil, err
	}

	return s.completeAndAward(ctx, uid, TargetDiamond, index, TaskDiamondChest, s.clock.Now())
}

func (s *service) verifyPassphrase(ctx context.Context, kind TargetKind, index int, submitted string) error {
	secret, err := s.repo.GetPassphrase(ctx, kind, index)
	if err != nil {
		return err
	}
	if !secret.Matches(submitted) {
		return ErrWrongPassphrase
	}
	return nil
}

// completeAndAward runs the transactional mark-complete-and-award step and
// shapes the response. A replay of an already-complete target succeeds
// without awarding points a second time.
func (s *service) completeAndAward(ctx context.Context, uid string, kind TargetKind, index int, task TaskKind, now time.Time) (*UnlockResponse, error) {
	rule, ok := RuleFor(task)
	if !ok {
		return nil, fmt.Errorf("no rule for task %s", task)
	}

	outcome, err := s.repo.CompleteAndAward(ctx, AwardRequest{
		UID:    uid,
		Target: kind,
		Index:  index,
		Task:   task,
		Points: rule.Points,
		TaskID: fmt.Sprintf("%s_%d", kind, index+1),
		LogID:  s.ids.NewLogID(now),
		Now:    now,
	})
	if err != nil {
		return nil, err
	}

	resp := &UnlockResponse{
		FirstTime:    outcome.FirstTime,
		Balance:      outcome.Balance,
		Achievements: EvalAchievements(outcome.Next),
	}
	if !outcome.FirstTime {
		resp.Message = MsgAlreadyDone
		return resp, nil
	}

	resp.Message = rule.Message()
	resp.PointsAwarded = rule.Points
	if kind == TargetLandmark {
		resp.NewAchievements = NewlyEarned(EvalAchievements(outcome.Prev), EvalAchievements(outcome.Next))
	}
	return resp, nil
}

func (s *service) CheckIn(ctx context.Context, uid string) (*CheckInResponse, error) {
	if uid == "" {
		return nil, ErrMissingUID
	}

	rule, _ := RuleFor(TaskDailyCheckIn)
	now := s.clock.Now()

	outcome, err := s.repo.CheckInAndAward(ctx, CheckInRequest{
		UID:      uid,
		Points:   rule.Points,
		LogID:    s.ids.NewLogID(now),
		Now:      now,
		Location: s.loc,
	})
	if err != nil {
		return nil, err
	}

	return &CheckInResponse{
		PointsAwarded: rule.Points,
		Balance:       outcome.Balance,
		CheckedInAt:   outcome.CheckedInAt,
		Message:       rule.Message(),
	}, nil
}

func (s *service) Awards(ctx context.Context, uid string) ([]AwardEntry, error) {
	if uid == "" {
		return nil, ErrMissingUID
	}
	return s.repo.ListAwards(ctx, uid)
}

func (s *service) Leaderboard(ctx context.Context, uid string) (*LeaderboardResponse, error) {
	entries, err := s.repo.ListLeaderboard(ctx)
	if err != nil {
		return nil, err
	}
	ranked := Rank(entries)

	resp := &LeaderboardResponse{Total: len(ranked)}

	top := leaderboardTopSize
	if top > len(ranked) {
		top = len(ranked)
	}
	resp.Entries = ranked[:top]

	for i := range ranked {
		if ranked[i].UID == uid {
			me := ranked[i]
			resp.Me = &me
			break
		}
	}

	// When the caller sits below the visible top, include two neighbours on
	// either side so the UI can show their local standing.
	if resp.Me != nil && resp.Me.Rank > leaderboardTopSize {
		lo := resp.Me.Rank - 3
		if lo < 0 {
			lo = 0
		}
		hi := resp.Me.Rank + 2
		if hi > len(ranked) {
			hi = len(ranked)
		}
		resp.Peers = ranked[lo:hi]
	}

	return resp, nil
}

func (s *service) AdminUsers(ctx context.Context, sortField string, descending bool) ([]AdminUser, error) {
	if sortField == "" {
		sortField = "diamond_points"
	}
	less, ok := adminUserLess(sortField)
	if !ok {
		return nil, ErrInvalidSort
	}

	records, err := s.repo.ListRecords(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]AdminUser, 0, len(records))
	for _, r := range records {
		landmarks := r.Progress.LandmarksDone()
		diamonds := r.Progress.DiamondsDone()
		users = append(users, AdminUser{
			UID:                r.UID,
			Name:               r.Name,
			Email:              r.Email,
			ProfileCompleted:   r.ProfileCompleted,
			DiamondPoints:      r.DiamondPoints,
			LandmarksDone:      landmarks,
			DiamondsDone:       diamonds,
			EngagementScore:    landmarks*10 + diamonds*15 + r.DiamondPoints*2,
			LastDiamondUpdated: r.LastDiamondUpdated,
		})
	}

	sort.SliceStable(users, func(i, j int) bool {
		if descending {
			return less(users[j], users[i])
		}
		return less(users[i], users[j])
	})
	return users, nil
}

// adminUserLess whitelists the sortable columns of the admin user listing.
// Field names match the JSON field names of AdminUser.
func adminUserLess(field string) (func(a, b AdminUser) bool, bool) {
	switch field {
	case "name":
		return func(a, b AdminUser) bool { return a.Name < b.Name }, true
	case "email":
		return func(a, b AdminUser) bool { return a.Email < b.Email }, true
	case "diamond_points":
		return func(a, b AdminUser) bool { return a.DiamondPoints < b.DiamondPoints }, true
	case "landmarks_done":
		return func(a, b AdminUser) bool { return a.LandmarksDone < b.LandmarksDone }, true
	case "diamonds_done":
		return func(a, b AdminUser) bool { return a.DiamondsDone < b.DiamondsDone }, true
	case "engagement_score":
		return func(a, b AdminUser) bool { return a.EngagementScore < b.EngagementScore }, true
	case "last_diamond_updated":
		return func(a, b AdminUser) bool { return adminStamp(a).Before(adminStamp(b)) }, true
	}
	return nil, false
}

func adminStamp(u AdminUser) time.Time {
	if u.LastDiamondUpdated == nil {
		return missingTimestamp
	}
	return *u.LastDiamondUpdated
}

func (s *service) AdminStats(ctx context.Context) (*AdminStats, error) {
	records, err := s.repo.ListRecords(ctx)
	if err != nil {
		return nil, err
	}

	stats := &AdminStats{
		TotalUsers:   len(records),
		LandmarkDist: make(map[int]int, LandmarkCount+1),
		DiamondDist:  make(map[int]int, DiamondCount+1),
		PointsRanges: map[string]int{"0-10": 0, "11-20": 0, "21-30": 0, "31-40": 0, "41+": 0},
	}
	for i := 0; i <= LandmarkCount; i++ {
		stats.LandmarkDist[i] = 0
	}
	for i := 0; i <= DiamondCount; i++ {
		stats.DiamondDist[i] = 0
	}

	for _, r := range records {
		landmarks := r.Progress.LandmarksDone()
		diamonds := r.Progress.DiamondsDone()

		stats.TotalPoints += r.DiamondPoints
		stats.LandmarkDist[landmarks]++
		stats.DiamondDist[diamonds]++
		if r.ProfileCompleted {
			stats.ProfileCompleted++
		}
		if landmarks == LandmarkCount && diamonds == DiamondCount {
			stats.CompletedAll++
		}

		switch {
		case r.DiamondPoints <= 10:
			stats.PointsRanges["0-10"]++
		case r.DiamondPoints <= 20:
			stats.PointsRanges["11-20"]++
		case r.DiamondPoints <= 30:
			stats.PointsRanges["21-30"]++
		case r.DiamondPoints <= 40:
			stats.PointsRanges["31-40"]++
		default:
			stats.PointsRanges["41+"]++
		}
	}

	return stats, nil
}

// ConsistencyReport compares each player's balance against the sum of their
// award log. The balance field is authoritative; drift is reported, not
// repaired.
func (s *service) ConsistencyReport(ctx context.Context) ([]ConsistencyRow, error) {
	records, err := s.repo.ListRecords(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]ConsistencyRow, 0, len(records))
	for _, r := range records {
		sum, err := s.repo.SumAwards(ctx, r.UID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, ConsistencyRow{
			UID:        r.UID,
			Balance:    r.DiamondPoints,
			LogSum:     sum,
			Consistent: r.DiamondPoints == sum,
		})
	}
	return rows, nil
}
