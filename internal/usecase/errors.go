package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrTournamentLocked      = errors.New("tournament is locked")
	ErrNotYetEligible        = errors.New("registration not yet eligible")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
