package user

import (
	"context"
)

// Profile represents the player-editable attributes on the users/{uid}
// document. Game bookkeeping fields on the same document belong to the hunt
// package and are never written through this interface.
type Profile struct {
	UID              string `json:"uid" firestore:"-"`
	Name             string `json:"name" firestore:"name"`
	Email            string `json:"email" firestore:"email"`
	Location         string `json:"location" firestore:"location"`
	Helper           string `json:"helper" firestore:"helper"`
	PhoneNumber      string `json:"phone_number" firestore:"phoneNumber"`
	CountryCode      string `json:"country_code" firestore:"countryCode"`
	SecretCodeYear   string `json:"secret_code_year" firestore:"secretCodeYear"`
	ProfileCompleted bool   `json:"profile_completed" firestore:"profileCompleted"`
}

// UpdateInput describes the allowed fields during a PATCH request. Nil means
// the field was omitted and keeps its stored value.
type UpdateInput struct {
	Name           *string
	Location       *string
	Helper         *string
	PhoneNumber    *string
	CountryCode    *string
	SecretCodeYear *string

	// Email comes from the verified token, never from the request body.
	Email string
}

// Empty reports whether the patch carries no player-editable changes.
func (in UpdateInput) Empty() bool {
	return in.Name == nil && in.Location == nil && in.Helper == nil &&
		in.PhoneNumber == nil && in.CountryCode == nil && in.SecretCodeYear == nil
}

// Repository defines the interface for profile data access.
type Repository interface {
	GetProfile(ctx context.Context, uid string) (*Profile, error)
	UpsertProfile(ctx context.Context, uid string, updates UpdateInput) (*Profile, error)
}

// Service defines the profile service interface.
type Service interface {
	GetProfile(ctx context.Context, uid string) (*Profile, error)
	UpdateProfile(ctx context.Context, uid string, updates UpdateInput) (*Profile, error)
}
