package anticheat

import (
	"context"
	"time"

	"github.com/samuel-1-avson/Arcade-sub006/internal/domain"
)

// Store abstracts session tracking so sessions can live in process
// memory (default, single instance) or in a shared backing store when
// the validator runs behind multiple instances.
type Store interface {
	// Create opens a tracked session for a user/game pair and returns
	// its id. Implementations sweep expired sessions opportunistically
	// as a side effect of creation.
	Create(ctx context.Context, userID, gameID string) (string, error)

	// RecordAction appends an in-game action with a server-observed
	// timestamp. Returns false if the session is unknown; callers treat
	// this as best-effort telemetry, not a hard dependency.
	RecordAction(ctx context.Context, sessionID, actionType string, data map[string]interface{}) bool

	// RecordScore appends an intermediate score observation.
	RecordScore(ctx context.Context, sessionID string, score float64) bool

	// Get resolves a session by id.
	Get(ctx context.Context, sessionID string) (domain.Session, bool)

	// SweepExpired removes every session whose age exceeds the timeout
	// as of now, and returns how many were removed.
	SweepExpired(ctx context.Context, now time.Time) int
}
