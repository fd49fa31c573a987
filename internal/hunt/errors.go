package hunt

import "errors"

var (
	// ErrWrongPassphrase indicates the submitted passphrase did not match.
	ErrWrongPassphrase = errors.New("wrong passphrase")
	// ErrNoPassphrase indicates no passphrase has been configured for the target.
	ErrNoPassphrase = errors.New("passphrase not configured")
	// ErrLocked indicates the landmark is not yet reachable by date gating.
	ErrLocked = errors.New("landmark not yet unlocked")
	// ErrAlreadyCheckedIn indicates a second check-in attempt on the same calendar day.
	ErrAlreadyCheckedIn = errors.New("already checked in today")
	// ErrInvalidIndex indicates a target index outside the fixed set.
	ErrInvalidIndex = errors.New("invalid target index")
	// ErrInvalidSort indicates an unrecognized sort field on a listing request.
	ErrInvalidSort = errors.New("invalid sort field")
	// ErrMissingUID indicates a required user id was absent.
	ErrMissingUID = errors.New("user id is required")
)
