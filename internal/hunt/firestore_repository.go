package hunt

import (
	"context"
	"fmt"
	"strconv"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection       = "users"
	landmarkSecrets       = "treasure_passwords"
	diamondSecrets        = "diamond_passwords"
	awardLogCollection    = "diamond_logs"
	leaderboardCollection = "leaderboard"

	anonymousName = "匿名玩家"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a new Firestore repository
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) userRef(uid string) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(uid)
}

func (r *firestoreRepository) GetRecord(ctx context.Context, uid string) (*Record, error) {
	doc, err := r.userRef(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return defaultRecord(uid), nil
	}
	if err != nil {
		return nil, err
	}

	var record Record
	if err := doc.DataTo(&record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	record.UID = uid
	return &record, nil
}

func (r *firestoreRepository) GetPassphrase(ctx context.Context, kind TargetKind, index int) (*Passphrase, error) {
	collection := landmarkSecrets
	if kind == TargetDiamond {
		collection = diamondSecrets
	}

	// Secret documents are keyed 1-based, matching the campaign sheet.
	doc, err := r.client.Collection(collection).Doc(strconv.Itoa(index + 1)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNoPassphrase
	}
	if err != nil {
		return nil, err
	}

	var secret Passphrase
	if err := doc.DataTo(&secret); err != nil {
		return nil, fmt.Errorf("unmarshal passphrase: %w", err)
	}
	return &secret, nil
}

// CompleteAndAward marks the target complete and applies the award in one
// transaction conditioned on the incomplete-to-complete transition. Two
// sessions racing on the same target cannot both observe FirstTime.
func (r *firestoreRepository) CompleteAndAward(ctx context.Context, req AwardRequest) (AwardOutcome, error) {
	userRef := r.userRef(req.UID)
	logRef := userRef.Collection(awardLogCollection).Doc(req.LogID)
	boardRef := r.client.Collection(leaderboardCollection).Doc(req.UID)

	var outcome AwardOutcome

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		record, exists, err := recordInTx(tx, userRef, req.UID)
		if err != nil {
			return err
		}

		outcome.Prev = cloneProgress(record.Progress)

		if record.Progress.Done(req.Target, req.Index) {
			// Replay of a correct passphrase: no state change, no points.
			outcome.FirstTime = false
			outcome.Balance = record.DiamondPoints
			outcome.Next = cloneProgress(record.Progress)
			return nil
		}

		newBalance := record.DiamondPoints + req.Points

		if !exists {
			if err := tx.Set(userRef, defaultRecord(req.UID)); err != nil {
				return err
			}
		}
		if err := tx.Update(userRef, []firestore.Update{
			{FieldPath: firestore.FieldPath{"progress", string(req.Target), strconv.Itoa(req.Index)}, Value: true},
			{Path: "diamondPoints", Value: newBalance},
			{Path: "lastDiamondUpdated", Value: req.Now},
		}); err != nil {
			return err
		}

		// Write-once history entry; Create fails if the key is ever reused.
		if err := tx.Create(logRef, AwardEntry{
			Timestamp: req.Now,
			Task:      req.Task,
			Points:    req.Points,
			TaskID:    req.TaskID,
		}); err != nil {
			return err
		}

		if err := tx.Set(boardRef, leaderboardProjection(record, newBalance, req)); err != nil {
			return err
		}

		outcome.FirstTime = true
		outcome.Balance = newBalance
		outcome.Next = cloneProgress(record.Progress)
		setDone(&outcome.Next, req.Target, req.Index)
		return nil
	})
	if err != nil {
		return AwardOutcome{}, err
	}
	return outcome, nil
}

// CheckInAndAward stamps lastCheckIn and applies the daily award in one
// transaction. A second attempt on the same calendar day aborts with
// ErrAlreadyCheckedIn before any write.
func (r *firestoreRepository) CheckInAndAward(ctx context.Context, req CheckInRequest) (CheckInOutcome, error) {
	userRef := r.userRef(req.UID)
	logRef := userRef.Collection(awardLogCollection).Doc(req.LogID)
	boardRef := r.client.Collection(leaderboardCollection).Doc(req.UID)

	var outcome CheckInOutcome

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		record, exists, err := recordInTx(tx, userRef, req.UID)
		if err != nil {
			return err
		}

		if record.LastCheckIn != nil && SameCalendarDay(*record.LastCheckIn, req.Now, req.Location) {
			return ErrAlreadyCheckedIn
		}

		newBalance := record.DiamondPoints + req.Points

		if !exists {
			if err := tx.Set(userRef, defaultRecord(req.UID)); err != nil {
				return err
			}
		}
		if err := tx.Update(userRef, []firestore.Update{
			{Path: "lastCheckIn", Value: req.Now},
			{Path: "diamondPoints", Value: newBalance},
			{Path: "lastDiamondUpdated", Value: req.Now},
		}); err != nil {
			return err
		}

		if err := tx.Create(logRef, AwardEntry{
			Timestamp: req.Now,
			Task:      TaskDailyCheckIn,
			Points:    req.Points,
		}); err != nil {
			return err
		}

		name := record.Name
		if name == "" {
			name = anonymousName
		}
		if err := tx.Set(boardRef, map[string]any{
			"name":               name,
			"diamondPoints":      newBalance,
			"lastDiamondUpdated": req.Now,
		}); err != nil {
			return err
		}

		outcome.Balance = newBalance
		outcome.CheckedInAt = req.Now
		return nil
	})
	if err != nil {
		return CheckInOutcome{}, err
	}
	return outcome, nil
}

func (r *firestoreRepository) ListAwards(ctx context.Context, uid string) ([]AwardEntry, error) {
	iter := r.userRef(uid).Collection(awardLogCollection).
		OrderBy("timestamp", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var entries []AwardEntry
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var entry AwardEntry
		if err := doc.DataTo(&entry); err != nil {
			return nil, fmt.Errorf("unmarshal award entry: %w", err)
		}
		entry.ID = doc.Ref.ID
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *firestoreRepository) SumAwards(ctx context.Context, uid string) (int, error) {
	iter := r.userRef(uid).Collection(awardLogCollection).
		Select("points").
		Documents(ctx)
	defer iter.Stop()

	sum := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, err
		}

		var entry struct {
			Points int `firestore:"points"`
		}
		if err := doc.DataTo(&entry); err != nil {
			continue
		}
		sum += entry.Points
	}
	return sum, nil
}

func (r *firestoreRepository) ListLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	// No OrderBy here: documents missing lastDiamondUpdated would drop out of
	// an ordered query, and ranking is applied in memory anyway.
	iter := r.client.Collection(leaderboardCollection).Documents(ctx)
	defer iter.Stop()

	var entries []LeaderboardEntry
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var entry LeaderboardEntry
		if err := doc.DataTo(&entry); err != nil {
			return nil, fmt.Errorf("unmarshal leaderboard entry: %w", err)
		}
		entry.UID = doc.Ref.ID
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *firestoreRepository) ListRecords(ctx context.Context) ([]*Record, error) {
	iter := r.client.Collection(usersCollection).Documents(ctx)
	defer iter.Stop()

	var records []*Record
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var record Record
		if err := doc.DataTo(&record); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		record.UID = doc.Ref.ID
		records = append(records, &record)
	}
	return records, nil
}

func recordInTx(tx *firestore.Transaction, ref *firestore.DocumentRef, uid string) (*Record, bool, error) {
	doc, err := tx.Get(ref)
	if status.Code(err) == codes.NotFound {
		return defaultRecord(uid), false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var record Record
	if err := doc.DataTo(&record); err != nil {
		return nil, false, fmt.Errorf("unmarshal record: %w", err)
	}
	record.UID = uid
	return &record, true, nil
}

func leaderboardProjection(record *Record, balance int, req AwardRequest) map[string]any {
	name := record.Name
	if name == "" {
		name = anonymousName
	}
	return map[string]any{
		"name":               name,
		"diamondPoints":      balance,
		"lastDiamondUpdated": req.Now,
	}
}

func defaultRecord(uid string) *Record {
	return &Record{
		UID: uid,
		Progress: Progress{
			Landmark: map[string]bool{},
			Diamond:  map[string]bool{},
		},
	}
}

func cloneProgress(p Progress) Progress {
	out := Progress{
		Landmark: make(map[string]bool, len(p.Landmark)),
		Diamond:  make(map[string]bool, len(p.Diamond)),
	}
	for k, v := range p.Landmark {
		out.Landmark[k] = v
	}
	for k, v := range p.Diamond {
		out.Diamond[k] = v
	}
	return out
}

func setDone(p *Progress, kind TargetKind, index int) {
	key := strconv.Itoa(index)
	if kind == TargetDiamond {
		if p.Diamond == nil {
			p.Diamond = map[string]bool{}
		}
		p.Diamond[key] = true
		return
	}
	if p.Landmark == nil {
		p.Landmark = map[string]bool{}
	}
	p.Landmark[key] = true
}
