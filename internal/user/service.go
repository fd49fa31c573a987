package user

import (
	"context"
	"errors"
)

var (
	// ErrMissingUID indicates a required user id was absent.
	ErrMissingUID = errors.New("user id is required")
	// ErrEmptyUpdate indicates a patch request with no recognized fields.
	ErrEmptyUpdate = errors.New("no profile fields to update")
)

type service struct {
	repo Repository
}

// NewService creates a new profile service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetProfile(ctx context.Context, uid string) (*Profile, error) {
	if uid == "" {
		return nil, ErrMissingUID
	}
	return s.repo.GetProfile(ctx, uid)
}

func (s *service) UpdateProfile(ctx context.Context, uid string, updates UpdateInput) (*Profile, error) {
	if uid == "" {
		return nil, ErrMissingUID
	}
	if updates.Empty() {
		return nil, ErrEmptyUpdate
	}
	return s.repo.UpsertProfile(ctx, uid, updates)
}

// complete reports whether a profile carries everything the campaign needs
// before the map is shown. Mirrors the sign-up form's required fields.
func complete(p *Profile) bool {
	return p.Name != "" && p.Helper != "" && p.PhoneNumber != "" && p.SecretCodeYear != ""
}
