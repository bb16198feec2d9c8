package services

import "errors"

// Shared errors used across services and the HTTP mapping.
var (
	// Resource lookups
	ErrNotFound       = errors.New("requested resource not found")
	ErrMatchNotFound  = errors.New("match not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrResultNotFound = errors.New("historical match record not found")

	// Validation and business rules, caller-correctable and rejected before any write
	ErrValidationFailed     = errors.New("validation failed")
	ErrDuplicatePlayers     = errors.New("player ids contain duplicates")
	ErrPoolSizeOutOfRange   = errors.New("pool size is outside the allowed range")
	ErrTeamTooSmall         = errors.New("a team would fall below the minimum size")
	ErrNegativeOwnGoals     = errors.New("own goals must not be negative")
	ErrScoreMismatch        = errors.New("player goals plus own goals do not add up to the team score")
	ErrUnknownBalanceMethod = errors.New("unknown balance method")

	// Concurrency — the caller must refetch the current version, not "fix" input
	ErrConflict          = errors.New("state version conflict")
	ErrInvalidTransition = errors.New("operation not valid in the current match state")
	ErrLockTimeout       = errors.New("could not acquire the tenant-match lock")

	// Balancing
	ErrUnsupportedForSplit = errors.New("skill balancing is unsupported for this split; use random")

	// Authentication
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Unexpected store failures — logged with context, reported without detail
	ErrPersistenceFailed = errors.New("persistence failure")
)
