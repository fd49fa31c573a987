package user

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const usersCollection = "users"

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a new Firestore repository
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) GetProfile(ctx context.Context, uid string) (*Profile, error) {
	doc, err := r.client.Collection(usersCollection).Doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return &Profile{UID: uid}, nil
	}
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := doc.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	profile.UID = uid
	return &profile, nil
}

func (r *firestoreRepository) UpsertProfile(ctx context.Context, uid string, updates UpdateInput) (*Profile, error) {
	docRef := r.client.Collection(usersCollection).Doc(uid)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var current Profile
		doc, err := tx.Get(docRef)
		switch {
		case status.Code(err) == codes.NotFound:
			// First write creates the document; hunt fields start at their zero values.
		case err != nil:
			return err
		default:
			if err := doc.DataTo(&current); err != nil {
				return fmt.Errorf("unmarshal profile: %w", err)
			}
		}

		merged := applyPatch(current, updates)
		merged.ProfileCompleted = current.ProfileCompleted || complete(&merged)

		data := map[string]any{
			"name":             merged.Name,
			"location":         merged.Location,
			"helper":           merged.Helper,
			"phoneNumber":      merged.PhoneNumber,
			"countryCode":      merged.CountryCode,
			"secretCodeYear":   merged.SecretCodeYear,
			"profileCompleted": merged.ProfileCompleted,
		}
		if merged.Email != "" {
			data["email"] = merged.Email
		}
		return tx.Set(docRef, data, firestore.MergeAll)
	})
	if err != nil {
		return nil, err
	}

	return r.GetProfile(ctx, uid)
}

func applyPatch(current Profile, updates UpdateInput) Profile {
	merged := current
	if updates.Name != nil {
		merged.Name = strings.TrimSpace(*updates.Name)
	}
	if updates.Location != nil {
		merged.Location = strings.TrimSpace(*updates.Location)
	}
	if updates.Helper != nil {
		merged.Helper = strings.TrimSpace(*updates.Helper)
	}
	if updates.PhoneNumber != nil {
		merged.PhoneNumber = strings.TrimSpace(*updates.PhoneNumber)
	}
	if updates.CountryCode != nil {
		merged.CountryCode = strings.TrimSpace(*updates.CountryCode)
	}
	if updates.SecretCodeYear != nil {
		merged.SecretCodeYear = strings.TrimSpace(*updates.SecretCodeYear)
	}
	if updates.Email != "" {
		merged.Email = updates.Email
	}
	return merged
}
