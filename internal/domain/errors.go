package domain

import "errors"

// Domain errors. Expected validation outcomes are recovered into a
// ValidationResult and are never errors; these cover request shape and
// infrastructure conditions only.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPlayerNotFound  = errors.New("player not found in leaderboard")
	ErrUserBanned      = errors.New("user is banned")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrInternalError   = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrPlayerNotFound)
}
