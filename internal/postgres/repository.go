package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samuel-1-avson/Arcade-sub006/internal/config"
	"github.com/samuel-1-avson/Arcade-sub006/internal/domain"
)

// Repository provides PostgreSQL-based persistence for ban records, the
// flagged-submission audit log and accepted scores.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS bans (
			user_id VARCHAR(64) PRIMARY KEY,
			reason VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS flagged_submissions (
			id BIGSERIAL PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			game_id VARCHAR(64) NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			session_id VARCHAR(255),
			reason VARCHAR(40) NOT NULL,
			severity VARCHAR(10) NOT NULL,
			details JSONB,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS accepted_scores (
			id BIGSERIAL PRIMARY KEY,
			game_id VARCHAR(64) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			session_id VARCHAR(255),
			verified BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(game_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS strikes (
			user_id VARCHAR(64) PRIMARY KEY,
			count INT NOT NULL DEFAULT 0,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_flagged_user ON flagged_submissions(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_flagged_severity ON flagged_submissions(severity, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_accepted_game_score ON accepted_scores(game_id, score DESC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// IsBanned reports whether a user has an active ban. An expired ban is
// treated as not banned and removed lazily.
func (r *Repository) IsBanned(ctx context.Context, userID string) (bool, error) {
	query := `SELECT expires_at FROM bans WHERE user_id = $1`
	var expiresAt time.Time
	err := r.pool.QueryRow(ctx, query, userID).Scan(&expiresAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("checking ban: %w", err)
	}

	if time.Now().After(expiresAt) {
		if _, err := r.pool.Exec(ctx, `DELETE FROM bans WHERE user_id = $1`, userID); err != nil {
			r.logger.Warn("failed to remove expired ban", "user_id", userID, "error", err)
		}
		return false, nil
	}
	return true, nil
}

// CreateBan inserts or extends a ban record.
func (r *Repository) CreateBan(ctx context.Context, ban domain.Ban) error {
	query := `
		INSERT INTO bans (user_id, reason, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET reason = $2, expires_at = GREATEST(bans.expires_at, $4)
	`
	_, err := r.pool.Exec(ctx, query, ban.UserID, ban.Reason, ban.CreatedAt, ban.ExpiresAt)
	if err != nil {
		return fmt.Errorf("creating ban: %w", err)
	}
	return nil
}

// RemoveBan lifts a ban.
func (r *Repository) RemoveBan(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM bans WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("removing ban: %w", err)
	}
	return nil
}

// AddStrike increments a user's critical-strike counter and returns the
// new count.
func (r *Repository) AddStrike(ctx context.Context, userID string) (int, error) {
	query := `
		INSERT INTO strikes (user_id, count, updated_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET count = strikes.count + 1, updated_at = $2
		RETURNING count
	`
	var count int
	err := r.pool.QueryRow(ctx, query, userID, time.Now()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("adding strike: %w", err)
	}
	return count, nil
}

// RecordFlagged appends a flagged submission to the audit log.
func (r *Repository) RecordFlagged(ctx context.Context, flag domain.FlaggedSubmission) error {
	var detailsJSON []byte
	var err error
	if flag.Details != nil {
		detailsJSON, err = json.Marshal(flag.Details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
	}

	query := `
		INSERT INTO flagged_submissions (user_id, game_id, score, session_id, reason, severity, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.pool.Exec(ctx, query,
		flag.UserID,
		flag.GameID,
		flag.Score,
		flag.SessionID,
		string(flag.Reason),
		string(flag.Severity),
		detailsJSON,
		flag.FlaggedAt,
	)
	if err != nil {
		return fmt.Errorf("recording flagged submission: %w", err)
	}
	return nil
}

// ListFlagged returns the most recent flagged submissions for review.
func (r *Repository) ListFlagged(ctx context.Context, limit int) ([]domain.FlaggedSubmission, error) {
	query := `
		SELECT id, user_id, game_id, score, session_id, reason, severity, details, created_at
		FROM flagged_submissions
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing flagged submissions: %w", err)
	}
	defer rows.Close()

	var flags []domain.FlaggedSubmission
	for rows.Next() {
		var flag domain.FlaggedSubmission
		var detailsJSON []byte
		err := rows.Scan(
			&flag.ID,
			&flag.UserID,
			&flag.GameID,
			&flag.Score,
			&flag.SessionID,
			&flag.Reason,
			&flag.Severity,
			&detailsJSON,
			&flag.FlaggedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning flagged submission: %w", err)
		}
		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &flag.Details); err != nil {
				r.logger.Warn("failed to decode flag details", "id", flag.ID, "error", err)
			}
		}
		flags = append(flags, flag)
	}
	return flags, nil
}

// UpsertBestScore records an accepted score, keeping the player's best.
func (r *Repository) UpsertBestScore(ctx context.Context, gameID, userID string, score float64, sessionID string, verified bool) error {
	query := `
		INSERT INTO accepted_scores (game_id, user_id, score, session_id, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (game_id, user_id)
		DO UPDATE SET
			score = GREATEST(accepted_scores.score, $3),
			session_id = CASE WHEN $3 > accepted_scores.score THEN $4 ELSE accepted_scores.session_id END,
			verified = CASE WHEN $3 > accepted_scores.score THEN $5 ELSE accepted_scores.verified END,
			updated_at = $6
	`
	_, err := r.pool.Exec(ctx, query, gameID, userID, score, sessionID, verified, time.Now())
	if err != nil {
		return fmt.Errorf("upserting score: %w", err)
	}
	return nil
}

// GetAllScores retrieves all accepted scores for a game (for sync).
func (r *Repository) GetAllScores(ctx context.Context, gameID string) (map[string]float64, error) {
	query := `SELECT user_id, score FROM accepted_scores WHERE game_id = $1`
	rows, err := r.pool.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("getting all scores: %w", err)
	}
	defer rows.Close()

	scores := make(map[string]float64)
	for rows.Next() {
		var userID string
		var score float64
		if err := rows.Scan(&userID, &score); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		scores[userID] = score
	}
	return scores, nil
}

// ListGames returns the distinct game ids with accepted scores.
func (r *Repository) ListGames(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT game_id FROM accepted_scores`)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	var games []string
	for rows.Next() {
		var gameID string
		if err := rows.Scan(&gameID); err != nil {
			return nil, fmt.Errorf("scanning game id: %w", err)
		}
		games = append(games, gameID)
	}
	return games, nil
}

// BatchUpsertScores inserts or updates multiple scores efficiently
func (r *Repository) BatchUpsertScores(ctx context.Context, gameID string, scores map[string]float64) error {
	if len(scores) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO accepted_scores (game_id, user_id, score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (game_id, user_id)
		DO UPDATE SET score = GREATEST(accepted_scores.score, $3), updated_at = $4
	`
	now := time.Now()

	for userID, score := range scores {
		batch.Queue(query, gameID, userID, score, now)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range scores {
		_, err := br.Exec()
		if err != nil {
			return fmt.Errorf("batch upserting scores: %w", err)
		}
	}
	return nil
}
