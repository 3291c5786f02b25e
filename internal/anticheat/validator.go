package anticheat

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/samuel-1-avson/Arcade-sub006/internal/config"
	"github.com/samuel-1-avson/Arcade-sub006/internal/domain"
)

// Validator runs the ordered check battery over a score submission and
// returns a structured verdict. Checks short-circuit on first failure,
// cheapest first: purely local shape checks run before anything that
// touches the session store, the absolute ceiling bounds sessionless
// submissions, and the checksum runs last.
type Validator struct {
	registry *Registry
	sessions Store
	cfg      *config.ValidationConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewValidator creates a validator over the given registry and session
// store.
func NewValidator(registry *Registry, sessions Store, cfg *config.ValidationConfig, logger *slog.Logger) *Validator {
	return &Validator{
		registry: registry,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// ValidateScore validates a final score submission. Every expected
// business condition is recovered into the verdict; nothing here returns
// an error.
func (v *Validator) ValidateScore(ctx context.Context, sub domain.ScoreSubmission) domain.ValidationResult {
	// Field presence.
	if sub.UserID == "" || sub.GameID == "" || sub.Score == nil {
		return domain.Rejected(domain.ReasonMissingRequiredFields, nil)
	}

	// Score type and range.
	score := *sub.Score
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return domain.Rejected(domain.ReasonInvalidScoreType, nil)
	}

	// Config lookup. An unknown game is immediately invalid; no further
	// checks run.
	gameCfg, ok := v.registry.Get(sub.GameID)
	if !ok {
		return domain.Rejected(domain.ReasonUnknownGame, map[string]interface{}{
			"game_id": sub.GameID,
		})
	}

	// Absolute ceiling, independent of session state.
	if score > gameCfg.MaxScore {
		return domain.Rejected(domain.ReasonScoreExceedsMaximum, map[string]interface{}{
			"score":     score,
			"max_score": gameCfg.MaxScore,
		})
	}

	// Session-bound checks.
	var (
		session        domain.Session
		sessionTracked bool
	)
	if sub.SessionID != "" {
		var verdict domain.ValidationResult
		session, sessionTracked, verdict = v.validateSession(ctx, sub.SessionID, score)
		if !verdict.Valid {
			return verdict
		}
	}

	// Duration plausibility.
	if sub.DurationMs > 0 && time.Duration(sub.DurationMs)*time.Millisecond < gameCfg.MinDuration {
		return domain.Rejected(domain.ReasonImpossibleDuration, map[string]interface{}{
			"duration_ms":     sub.DurationMs,
			"min_duration_ms": gameCfg.MinDuration.Milliseconds(),
		})
	}

	// Score-rate plausibility.
	if sub.DurationMs > 0 {
		rate := score / (float64(sub.DurationMs) / 1000)
		if rate > gameCfg.MaxScorePerSecond {
			return domain.Rejected(domain.ReasonSuspiciousScoreRate, map[string]interface{}{
				"score_per_second": rate,
				"max_per_second":   gameCfg.MaxScorePerSecond,
			})
		}
	}

	// Checksum, the most certain signal, checked last and only once
	// everything else is consistent.
	verified := false
	if sub.Checksum != "" && sessionTracked {
		expected := Checksum(session, score)
		if !ChecksumEqual(sub.Checksum, expected) {
			return domain.Rejected(domain.ReasonInvalidChecksum, map[string]interface{}{
				"session_id": sub.SessionID,
			})
		}
		verified = true
	}

	return domain.Accepted(verified)
}

// validateSession runs the session-bound checks: existence, age, action
// density and score-jump heuristics. The resolved session is returned so
// the checksum check does not need a second lookup.
func (v *Validator) validateSession(ctx context.Context, sessionID string, score float64) (domain.Session, bool, domain.ValidationResult) {
	session, ok := v.sessions.Get(ctx, sessionID)
	if !ok {
		return domain.Session{}, false, domain.Rejected(domain.ReasonSessionNotFound, map[string]interface{}{
			"session_id": sessionID,
		})
	}

	now := v.now()
	if session.Age(now) > v.cfg.SessionTimeout {
		return session, true, domain.Rejected(domain.ReasonSessionExpired, map[string]interface{}{
			"session_age_ms": session.Age(now).Milliseconds(),
			"timeout_ms":     v.cfg.SessionTimeout.Milliseconds(),
		})
	}

	// A plausible session accrues roughly one recorded action per
	// ScorePerAction points; a huge score with almost no actions means
	// the client injected a score without playing.
	minExpected := int(math.Floor(score / v.cfg.ScorePerAction))
	if minExpected > v.cfg.MinActionFloor && len(session.Actions) < minExpected {
		return session, true, domain.Rejected(domain.ReasonInsufficientActions, map[string]interface{}{
			"observed_actions": len(session.Actions),
			"expected_actions": minExpected,
		})
	}

	// Score should accrue gradually; a near-instant five-figure jump
	// over the last intermediate score suggests a forged final value.
	if n := len(session.ScoreHistory); n > 0 {
		last := session.ScoreHistory[n-1]
		jump := score - last.Score
		elapsed := now.Sub(last.Timestamp)
		if jump > v.cfg.MaxScoreJump && elapsed < v.cfg.ScoreJumpWindow {
			return session, true, domain.Rejected(domain.ReasonSuspiciousScoreJump, map[string]interface{}{
				"jump":       jump,
				"elapsed_ms": elapsed.Milliseconds(),
			})
		}
	}

	return session, true, domain.ValidationResult{Valid: true}
}
