package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samuel-1-avson/Arcade-sub006/internal/config"
	"github.com/samuel-1-avson/Arcade-sub006/internal/postgres"
	"github.com/samuel-1-avson/Arcade-sub006/internal/redis"
)

// SyncWorker reconciles the live Redis boards with the durable accepted
// scores in PostgreSQL. Accepted scores are written to both paths at
// submission time; the worker repairs whatever a partial failure left
// behind.
type SyncWorker struct {
	boards   *redis.Boards
	postgres *postgres.Repository
	config   *config.SyncConfig
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(
	boards *redis.Boards,
	pg *postgres.Repository,
	cfg *config.SyncConfig,
	logger *slog.Logger,
) *SyncWorker {
	return &SyncWorker{
		boards:   boards,
		postgres: pg,
		config:   cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sync process
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("sync worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background sync process
func (w *SyncWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("sync worker stopped")
	return nil
}

// run is the main worker loop
func (w *SyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.syncAll(ctx)
		}
	}
}

// syncAll syncs every game's board from Redis to PostgreSQL
func (w *SyncWorker) syncAll(ctx context.Context) {
	w.logger.Info("starting sync cycle")
	startTime := time.Now()

	games, err := w.postgres.ListGames(ctx)
	if err != nil {
		w.logger.Error("failed to list games for sync", "error", err)
		return
	}

	syncedCount := 0
	errorCount := 0

	for _, gameID := range games {
		if err := w.SyncToDatabase(ctx, gameID); err != nil {
			w.logger.Error("failed to sync board",
				"game_id", gameID,
				"error", err,
			)
			errorCount++
		} else {
			syncedCount++
		}
	}

	duration := time.Since(startTime)
	w.logger.Info("sync cycle completed",
		"duration", duration,
		"synced", syncedCount,
		"errors", errorCount,
	)
}

// SyncToDatabase syncs a game's board from Redis to PostgreSQL
func (w *SyncWorker) SyncToDatabase(ctx context.Context, gameID string) error {
	w.logger.Debug("syncing board to database", "game_id", gameID)

	scores, err := w.boards.GetAllScores(ctx, gameID)
	if err != nil {
		return err
	}

	if len(scores) == 0 {
		w.logger.Debug("no scores to sync", "game_id", gameID)
		return nil
	}

	// Process in batches to avoid overwhelming the database
	batchSize := w.config.BatchSize
	if batchSize == 0 {
		batchSize = 1000
	}

	batch := make(map[string]float64, batchSize)
	count := 0

	for playerID, score := range scores {
		batch[playerID] = score
		count++

		if count >= batchSize {
			if err := w.postgres.BatchUpsertScores(ctx, gameID, batch); err != nil {
				return err
			}
			batch = make(map[string]float64, batchSize)
			count = 0
		}
	}

	if len(batch) > 0 {
		if err := w.postgres.BatchUpsertScores(ctx, gameID, batch); err != nil {
			return err
		}
	}

	w.logger.Debug("synced board to database",
		"game_id", gameID,
		"player_count", len(scores),
	)

	return nil
}

// SyncFromDatabase rebuilds a game's Redis board from PostgreSQL.
// Used for recovery after a Redis flush or failover.
func (w *SyncWorker) SyncFromDatabase(ctx context.Context, gameID string) error {
	w.logger.Debug("syncing board from database", "game_id", gameID)

	scores, err := w.postgres.GetAllScores(ctx, gameID)
	if err != nil {
		return err
	}

	if len(scores) == 0 {
		w.logger.Debug("no scores to sync from database", "game_id", gameID)
		return nil
	}

	if err := w.boards.BatchSetScores(ctx, gameID, scores); err != nil {
		return err
	}

	w.logger.Debug("synced board from database",
		"game_id", gameID,
		"player_count", len(scores),
	)

	return nil
}

// SyncAllFromDatabase rebuilds every game's board from PostgreSQL
func (w *SyncWorker) SyncAllFromDatabase(ctx context.Context) error {
	w.logger.Info("syncing all boards from database")

	games, err := w.postgres.ListGames(ctx)
	if err != nil {
		return err
	}

	for _, gameID := range games {
		if err := w.SyncFromDatabase(ctx, gameID); err != nil {
			w.logger.Error("failed to sync board from database",
				"game_id", gameID,
				"error", err,
			)
			// Continue with other boards
		}
	}

	w.logger.Info("completed syncing all boards from database", "count", len(games))
	return nil
}

// IsRunning returns whether the worker is currently running
func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single sync cycle (useful for manual triggers)
func (w *SyncWorker) RunOnce(ctx context.Context) {
	w.syncAll(ctx)
}
