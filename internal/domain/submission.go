package domain

import "time"

// ScoreSubmission is a client-reported final score. Score is a pointer so
// a missing field can be told apart from a legitimate zero. SessionID,
// DurationMs and Checksum are optional; supplying them enables the
// session-bound, timing and integrity checks.
type ScoreSubmission struct {
	UserID     string                 `json:"user_id"`
	GameID     string                 `json:"game_id"`
	Score      *float64               `json:"score"`
	SessionID  string                 `json:"session_id,omitempty"`
	DurationMs int64                  `json:"duration_ms,omitempty"`
	Checksum   string                 `json:"checksum,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// GameConfig holds the per-game validation thresholds. Every game id the
// platform accepts must have an entry; a missing entry rejects the
// submission outright.
type GameConfig struct {
	MaxScore           float64       `json:"max_score"`
	MinDuration        time.Duration `json:"min_duration"`
	MaxScorePerSecond  float64       `json:"max_score_per_second"`
	SuspiciousPatterns []string      `json:"suspicious_patterns,omitempty"`
}

// FlaggedSubmission is the audit-log entry written for a rejected
// submission.
type FlaggedSubmission struct {
	ID        int64                  `json:"id,omitempty"`
	UserID    string                 `json:"user_id"`
	GameID    string                 `json:"game_id"`
	Score     float64                `json:"score"`
	SessionID string                 `json:"session_id,omitempty"`
	Reason    Reason                 `json:"reason"`
	Severity  Severity               `json:"severity"`
	Details   map[string]interface{} `json:"details,omitempty"`
	FlaggedAt time.Time              `json:"flagged_at"`
}

// Ban is a persisted ban record. A ban whose ExpiresAt has passed is
// treated as not banned and removed lazily on read.
type Ban struct {
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the ban has lapsed as of now.
func (b *Ban) Expired(now time.Time) bool {
	return !b.ExpiresAt.IsZero() && now.After(b.ExpiresAt)
}

// LeaderboardEntry is a ranked row on a per-game board.
type LeaderboardEntry struct {
	Rank     int64   `json:"rank"`
	PlayerID string  `json:"player_id"`
	Score    float64 `json:"score"`
}
