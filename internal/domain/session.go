package domain

import "time"

// ActionEvent is a single in-game action observed during a session.
// The timestamp is assigned server-side when the action is recorded.
type ActionEvent struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// ScoreSample is an intermediate score observed during a session.
type ScoreSample struct {
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the server-side record of one play attempt. StartTime is
// fixed at creation; Actions and ScoreHistory are append-only while the
// session lives. ChecksumSeed binds submitted scores to this session.
type Session struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	GameID       string        `json:"game_id"`
	StartTime    time.Time     `json:"start_time"`
	Actions      []ActionEvent `json:"actions"`
	ScoreHistory []ScoreSample `json:"score_history"`
	ChecksumSeed string        `json:"checksum_seed"`
}

// Age returns how long the session has existed as of now.
func (s *Session) Age(now time.Time) time.Duration {
	return now.Sub(s.StartTime)
}
