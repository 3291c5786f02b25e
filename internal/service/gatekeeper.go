package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samuel-1-avson/Arcade-sub006/internal/anticheat"
	"github.com/samuel-1-avson/Arcade-sub006/internal/config"
	"github.com/samuel-1-avson/Arcade-sub006/internal/domain"
)

// BanRegistry is the persisted ban store consulted around validation.
type BanRegistry interface {
	IsBanned(ctx context.Context, userID string) (bool, error)
	CreateBan(ctx context.Context, ban domain.Ban) error
	AddStrike(ctx context.Context, userID string) (int, error)
}

// AuditLogger is the append-only sink for flagged submissions.
type AuditLogger interface {
	RecordFlagged(ctx context.Context, flag domain.FlaggedSubmission) error
	ListFlagged(ctx context.Context, limit int) ([]domain.FlaggedSubmission, error)
}

// ScoreStore persists accepted scores durably.
type ScoreStore interface {
	UpsertBestScore(ctx context.Context, gameID, userID string, score float64, sessionID string, verified bool) error
}

// Boards is the live per-game leaderboard accepted scores land on.
type Boards interface {
	SubmitBest(ctx context.Context, gameID, playerID string, score float64) (bool, error)
	GetTopN(ctx context.Context, gameID string, n int) ([]domain.LeaderboardEntry, error)
	GetPlayerRank(ctx context.Context, gameID, playerID string) (*domain.LeaderboardEntry, error)
	GetAroundPlayer(ctx context.Context, gameID, playerID string, count int) ([]domain.LeaderboardEntry, error)
	GetCount(ctx context.Context, gameID string) (int64, error)
}

// Notifier pushes accepted-score and flag events to live observers.
type Notifier interface {
	BroadcastScoreAccepted(gameID string, entry domain.LeaderboardEntry)
	BroadcastFlagged(gameID string, flag domain.FlaggedSubmission)
}

// Gatekeeper orchestrates the submission pipeline: ban check, validation,
// audit of flagged verdicts and persistence of accepted scores.
type Gatekeeper struct {
	validator *anticheat.Validator
	sessions  anticheat.Store
	bans      BanRegistry
	audit     AuditLogger
	scores    ScoreStore
	boards    Boards
	notifier  Notifier
	valCfg    *config.ValidationConfig
	lbCfg     *config.LeaderboardConfig
	logger    *slog.Logger
}

// NewGatekeeper creates the submission service.
func NewGatekeeper(
	validator *anticheat.Validator,
	sessions anticheat.Store,
	bans BanRegistry,
	audit AuditLogger,
	scores ScoreStore,
	boards Boards,
	valCfg *config.ValidationConfig,
	lbCfg *config.LeaderboardConfig,
	logger *slog.Logger,
) *Gatekeeper {
	return &Gatekeeper{
		validator: validator,
		sessions:  sessions,
		bans:      bans,
		audit:     audit,
		scores:    scores,
		boards:    boards,
		valCfg:    valCfg,
		lbCfg:     lbCfg,
		logger:    logger,
	}
}

// SetNotifier attaches the live-event hub for broadcasting.
func (g *Gatekeeper) SetNotifier(n Notifier) {
	g.notifier = n
}

// StartSession opens a tracked play session for a user/game pair.
func (g *Gatekeeper) StartSession(ctx context.Context, userID, gameID string) (string, error) {
	if userID == "" || gameID == "" {
		return "", domain.ErrInvalidRequest
	}

	sessionID, err := g.sessions.Create(ctx, userID, gameID)
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}

	g.logger.Debug("session started", "session_id", sessionID, "user_id", userID, "game_id", gameID)
	return sessionID, nil
}

// RecordAction streams an in-game action into a session. Actions of type
// "score" with a numeric score field also feed the session's score
// history. Returns false if the session is unknown.
func (g *Gatekeeper) RecordAction(ctx context.Context, sessionID, actionType string, data map[string]interface{}) bool {
	ok := g.sessions.RecordAction(ctx, sessionID, actionType, data)
	if !ok {
		return false
	}

	if actionType == "score" {
		if raw, present := data["score"]; present {
			if score, isNum := raw.(float64); isNum {
				g.sessions.RecordScore(ctx, sessionID, score)
			}
		}
	}
	return true
}

// SubmitScore runs a final score submission through the gatekeeper.
// Known-banned users are short-circuited with ErrUserBanned; every other
// outcome is a verdict, never an error.
func (g *Gatekeeper) SubmitScore(ctx context.Context, sub domain.ScoreSubmission) (domain.ValidationResult, error) {
	banned, err := g.bans.IsBanned(ctx, sub.UserID)
	if err != nil {
		// Ban-store outages fail open: availability of gameplay wins
		// over strict enforcement. Operational, not a security event.
		g.logger.Warn("ban check unavailable, failing open", "user_id", sub.UserID, "error", err)
	} else if banned {
		return domain.ValidationResult{}, domain.ErrUserBanned
	}

	verdict := g.validator.ValidateScore(ctx, sub)
	if !verdict.Valid {
		g.handleFlagged(sub, verdict)
		return verdict, nil
	}

	g.persistAccepted(ctx, sub, verdict)
	return verdict, nil
}

// SubmitScoreBatch runs multiple submissions through the gatekeeper,
// continuing past individual rejections.
func (g *Gatekeeper) SubmitScoreBatch(ctx context.Context, subs []domain.ScoreSubmission) error {
	for _, sub := range subs {
		if _, err := g.SubmitScore(ctx, sub); err != nil {
			g.logger.Warn("submission dropped",
				"user_id", sub.UserID,
				"game_id", sub.GameID,
				"error", err,
			)
		}
	}
	return nil
}

// handleFlagged forwards a rejected verdict to the audit log and, for
// critical severities, runs the ban escalation. The verdict is already
// final; nothing here can alter it.
func (g *Gatekeeper) handleFlagged(sub domain.ScoreSubmission, verdict domain.ValidationResult) {
	score := 0.0
	if sub.Score != nil {
		score = *sub.Score
	}

	flag := domain.FlaggedSubmission{
		UserID:    sub.UserID,
		GameID:    sub.GameID,
		Score:     score,
		SessionID: sub.SessionID,
		Reason:    verdict.Reason,
		Severity:  verdict.Severity,
		Details:   verdict.Details,
		FlaggedAt: time.Now(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := g.audit.RecordFlagged(ctx, flag); err != nil {
			g.logger.Warn("failed to record flagged submission", "user_id", flag.UserID, "error", err)
		}

		if verdict.Severity == domain.SeverityCritical {
			g.escalate(ctx, flag)
		}
	}()

	if g.notifier != nil {
		g.notifier.BroadcastFlagged(sub.GameID, flag)
	}
}

// escalate counts a critical strike and bans the user at the threshold.
func (g *Gatekeeper) escalate(ctx context.Context, flag domain.FlaggedSubmission) {
	count, err := g.bans.AddStrike(ctx, flag.UserID)
	if err != nil {
		g.logger.Warn("failed to add strike", "user_id", flag.UserID, "error", err)
		return
	}
	if count < g.valCfg.BanStrikeThreshold {
		return
	}

	now := time.Now()
	ban := domain.Ban{
		UserID:    flag.UserID,
		Reason:    fmt.Sprintf("%d critical validation failures, last: %s", count, flag.Reason),
		CreatedAt: now,
		ExpiresAt: now.Add(g.valCfg.BanDuration),
	}
	if err := g.bans.CreateBan(ctx, ban); err != nil {
		g.logger.Error("failed to create ban", "user_id", flag.UserID, "error", err)
		return
	}
	g.logger.Info("user banned", "user_id", flag.UserID, "strikes", count, "expires_at", ban.ExpiresAt)
}

// persistAccepted lands an accepted score on the live board and the
// durable store. Persistence failures are logged, not surfaced: the
// verdict stands.
func (g *Gatekeeper) persistAccepted(ctx context.Context, sub domain.ScoreSubmission, verdict domain.ValidationResult) {
	score := *sub.Score

	changed, err := g.boards.SubmitBest(ctx, sub.GameID, sub.UserID, score)
	if err != nil {
		g.logger.Warn("failed to update board", "game_id", sub.GameID, "error", err)
	}

	if err := g.scores.UpsertBestScore(ctx, sub.GameID, sub.UserID, score, sub.SessionID, verdict.Verified); err != nil {
		g.logger.Warn("failed to persist score", "game_id", sub.GameID, "error", err)
	}

	if changed && g.notifier != nil {
		if entry, err := g.boards.GetPlayerRank(ctx, sub.GameID, sub.UserID); err == nil {
			g.notifier.BroadcastScoreAccepted(sub.GameID, *entry)
		}
	}
}

// IsUserBanned reports whether a user is banned, failing open on store
// outages.
func (g *Gatekeeper) IsUserBanned(ctx context.Context, userID string) (bool, error) {
	banned, err := g.bans.IsBanned(ctx, userID)
	if err != nil {
		g.logger.Warn("ban check unavailable, failing open", "user_id", userID, "error", err)
		return false, nil
	}
	return banned, nil
}

// BanUser writes a ban directly (admin path).
func (g *Gatekeeper) BanUser(ctx context.Context, userID, reason string, duration time.Duration) error {
	if userID == "" {
		return domain.ErrInvalidRequest
	}
	if duration <= 0 {
		duration = g.valCfg.BanDuration
	}
	now := time.Now()
	ban := domain.Ban{
		UserID:    userID,
		Reason:    reason,
		CreatedAt: now,
		ExpiresAt: now.Add(duration),
	}
	if err := g.bans.CreateBan(ctx, ban); err != nil {
		return fmt.Errorf("creating ban: %w", err)
	}
	return nil
}

// ListFlagged returns recent flagged submissions for review.
func (g *Gatekeeper) ListFlagged(ctx context.Context, limit int) ([]domain.FlaggedSubmission, error) {
	if limit <= 0 {
		limit = g.lbCfg.DefaultLimit
	}
	if limit > g.lbCfg.MaxLimit {
		limit = g.lbCfg.MaxLimit
	}
	return g.audit.ListFlagged(ctx, limit)
}

// GetTopN returns the top N players of a game's board.
func (g *Gatekeeper) GetTopN(ctx context.Context, gameID string, n int) ([]domain.LeaderboardEntry, error) {
	if n <= 0 {
		n = g.lbCfg.DefaultLimit
	}
	if n > g.lbCfg.MaxLimit {
		n = g.lbCfg.MaxLimit
	}

	entries, err := g.boards.GetTopN(ctx, gameID, n)
	if err != nil {
		return nil, fmt.Errorf("getting top n: %w", err)
	}
	return entries, nil
}

// GetPlayerRank returns a player's rank and score on a game's board.
func (g *Gatekeeper) GetPlayerRank(ctx context.Context, gameID, playerID string) (*domain.LeaderboardEntry, error) {
	return g.boards.GetPlayerRank(ctx, gameID, playerID)
}

// GetAroundPlayer returns players around a specific player's rank.
func (g *Gatekeeper) GetAroundPlayer(ctx context.Context, gameID, playerID string, count int) ([]domain.LeaderboardEntry, error) {
	if count <= 0 {
		count = 5
	}
	if count > 50 {
		count = 50
	}
	return g.boards.GetAroundPlayer(ctx, gameID, playerID, count)
}

// GetCount returns the number of players on a game's board.
func (g *Gatekeeper) GetCount(ctx context.Context, gameID string) (int64, error) {
	return g.boards.GetCount(ctx, gameID)
}
