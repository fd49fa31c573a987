package hunt

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	records map[string]*Record
	secrets map[TargetKind]map[int]Passphrase
	awards  map[string][]AwardEntry
	board   map[string]LeaderboardEntry
	logIDs  map[string]map[string]bool
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		records: make(map[string]*Record),
		secrets: make(map[TargetKind]map[int]Passphrase),
		awards:  make(map[string][]AwardEntry),
		board:   make(map[string]LeaderboardEntry),
		logIDs:  make(map[string]map[string]bool),
	}
}

// SetPassphrase seeds a secret; exposed for dev wiring and tests.
func (r *memoryRepository) SetPassphrase(kind TargetKind, index int, secret Passphrase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.secrets[kind] == nil {
		r.secrets[kind] = make(map[int]Passphrase)
	}
	r.secrets[kind][index] = secret
}

func (r *memoryRepository) GetRecord(_ context.Context, uid string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[uid]
	if !ok {
		return defaultRecord(uid), nil
	}
	copied := *record
	copied.Progress = cloneProgress(record.Progress)
	return &copied, nil
}

func (r *memoryRepository) GetPassphrase(_ context.Context, kind TargetKind, index int) (*Passphrase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	secret, ok := r.secrets[kind][index]
	if !ok {
		return nil, ErrNoPassphrase
	}
	return &secret, nil
}

func (r *memoryRepository) CompleteAndAward(_ context.Context, req AwardRequest) (AwardOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := r.mustRecord(req.UID)

	outcome := AwardOutcome{Prev: cloneProgress(record.Progress)}

	if record.Progress.Done(req.Target, req.Index) {
		outcome.Balance = record.DiamondPoints
		outcome.Next = cloneProgress(record.Progress)
		return outcome, nil
	}

	if err := r.appendLog(req.UID, req.LogID, AwardEntry{
		ID:        req.LogID,
		Timestamp: req.Now,
		Task:      req.Task,
		Points:    req.Points,
		TaskID:    req.TaskID,
	}); err != nil {
		return AwardOutcome{}, err
	}

	setDone(&record.Progress, req.Target, req.Index)
	record.DiamondPoints += req.Points
	now := req.Now
	record.LastDiamondUpdated = &now

	r.projectToBoard(record)

	outcome.FirstTime = true
	outcome.Balance = record.DiamondPoints
	outcome.Next = cloneProgress(record.Progress)
	return outcome, nil
}

func (r *memoryRepository) CheckInAndAward(_ context.Context, req CheckInRequest) (CheckInOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := r.mustRecord(req.UID)

	if record.LastCheckIn != nil && SameCalendarDay(*record.LastCheckIn, req.Now, req.Location) {
		return CheckInOutcome{}, ErrAlreadyCheckedIn
	}

	if err := r.appendLog(req.UID, req.LogID, AwardEntry{
		ID:        req.LogID,
		Timestamp: req.Now,
		Task:      TaskDailyCheckIn,
		Points:    req.Points,
	}); err != nil {
		return CheckInOutcome{}, err
	}

	now := req.Now
	record.LastCheckIn = &now
	record.LastDiamondUpdated = &now
	record.DiamondPoints += req.Points

	r.projectToBoard(record)

	return CheckInOutcome{Balance: record.DiamondPoints, CheckedInAt: req.Now}, nil
}

func (r *memoryRepository) ListAwards(_ context.Context, uid string) ([]AwardEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]AwardEntry, len(r.awards[uid]))
	copy(entries, r.awards[uid])
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

func (r *memoryRepository) SumAwards(_ context.Context, uid string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sum := 0
	for _, e := range r.awards[uid] {
		sum += e.Points
	}
	return sum, nil
}

func (r *memoryRepository) ListLeaderboard(_ context.Context) ([]LeaderboardEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]LeaderboardEntry, 0, len(r.board))
	for _, e := range r.board {
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *memoryRepository) ListRecords(_ context.Context) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*Record, 0, len(r.records))
	for _, record := range r.records {
		copied := *record
		copied.Progress = cloneProgress(record.Progress)
		records = append(records, &copied)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UID < records[j].UID })
	return records, nil
}

func (r *memoryRepository) mustRecord(uid string) *Record {
	record, ok := r.records[uid]
	if !ok {
		record = defaultRecord(uid)
		r.records[uid] = record
	}
	return record
}

func (r *memoryRepository) appendLog(uid, logID string, entry AwardEntry) error {
	if r.logIDs[uid] == nil {
		r.logIDs[uid] = make(map[string]bool)
	}
	if r.logIDs[uid][logID] {
		return fmt.Errorf("award log id %s already exists", logID)
	}
	r.logIDs[uid][logID] = true
	r.awards[uid] = append(r.awards[uid], entry)
	return nil
}

func (r *memoryRepository) projectToBoard(record *Record) {
	name := record.Name
	if name == "" {
		name = anonymousName
	}
	r.board[record.UID] = LeaderboardEntry{
		UID:                record.UID,
		Name:               name,
		DiamondPoints:      record.DiamondPoints,
		LastDiamondUpdated: record.LastDiamondUpdated,
	}
}

// seedRecord is a test helper; index keys follow the Firestore convention.
func (r *memoryRepository) seedRecord(record *Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.Progress.Landmark == nil {
		record.Progress.Landmark = map[string]bool{}
	}
	if record.Progress.Diamond == nil {
		record.Progress.Diamond = map[string]bool{}
	}
	r.records[record.UID] = record
	r.projectToBoard(record)
}
