package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/samuel-1-avson/Arcade-sub006/internal/config"
	"github.com/samuel-1-avson/Arcade-sub006/internal/domain"
)

// Boards provides the per-game leaderboard sorted sets that validated
// scores land on.
type Boards struct {
	client *redis.Client
	logger *slog.Logger
}

// NewClient opens a Redis client and verifies the connection.
func NewClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}

// NewBoards creates the leaderboard service over an existing client.
func NewBoards(client *redis.Client, logger *slog.Logger) *Boards {
	return &Boards{client: client, logger: logger}
}

// Close closes the Redis connection
func (b *Boards) Close() error {
	return b.client.Close()
}

// boardKey returns the Redis key for a game's sorted set
func (b *Boards) boardKey(gameID string) string {
	return fmt.Sprintf("arcade:board:%s", gameID)
}

// SubmitBest records a score for a player, keeping only their best.
// Returns whether the board changed.
func (b *Boards) SubmitBest(ctx context.Context, gameID, playerID string, score float64) (bool, error) {
	key := b.boardKey(gameID)

	current, err := b.client.ZScore(ctx, key, playerID).Result()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("getting current score: %w", err)
	}
	if err == nil && current >= score {
		return false, nil
	}

	if err := b.client.ZAdd(ctx, key, redis.Z{Score: score, Member: playerID}).Err(); err != nil {
		return false, fmt.Errorf("setting score: %w", err)
	}
	return true, nil
}

// GetTopN returns the top N players of a game's board (descending).
func (b *Boards) GetTopN(ctx context.Context, gameID string, n int) ([]domain.LeaderboardEntry, error) {
	key := b.boardKey(gameID)
	results, err := b.client.ZRevRangeWithScores(ctx, key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting top n: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, len(results))
	for i, result := range results {
		entries[i] = domain.LeaderboardEntry{
			Rank:     int64(i + 1),
			PlayerID: result.Member.(string),
			Score:    result.Score,
		}
	}
	return entries, nil
}

// GetPlayerRank returns a player's rank and score on a game's board.
func (b *Boards) GetPlayerRank(ctx context.Context, gameID, playerID string) (*domain.LeaderboardEntry, error) {
	key := b.boardKey(gameID)

	pipe := b.client.Pipeline()
	rankCmd := pipe.ZRevRank(ctx, key, playerID)
	scoreCmd := pipe.ZScore(ctx, key, playerID)
	_, err := pipe.Exec(ctx)

	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("getting player rank: %w", err)
	}

	rank, err := rankCmd.Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("getting rank result: %w", err)
	}

	score, err := scoreCmd.Result()
	if err != nil {
		return nil, fmt.Errorf("getting score result: %w", err)
	}

	return &domain.LeaderboardEntry{
		Rank:     rank + 1, // Convert 0-indexed to 1-indexed
		PlayerID: playerID,
		Score:    score,
	}, nil
}

// GetAroundPlayer returns players around a specific player's rank.
func (b *Boards) GetAroundPlayer(ctx context.Context, gameID, playerID string, count int) ([]domain.LeaderboardEntry, error) {
	playerEntry, err := b.GetPlayerRank(ctx, gameID, playerID)
	if err != nil {
		return nil, err
	}

	start := playerEntry.Rank - int64(count) - 1 // rank is 1-indexed
	if start < 0 {
		start = 0
	}
	end := playerEntry.Rank + int64(count) - 1

	return b.GetRange(ctx, gameID, int(start), int(end))
}

// GetRange returns players within a rank range (0-indexed).
func (b *Boards) GetRange(ctx context.Context, gameID string, start, end int) ([]domain.LeaderboardEntry, error) {
	key := b.boardKey(gameID)
	results, err := b.client.ZRevRangeWithScores(ctx, key, int64(start), int64(end)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting range: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, len(results))
	for i, result := range results {
		entries[i] = domain.LeaderboardEntry{
			Rank:     int64(start + i + 1),
			PlayerID: result.Member.(string),
			Score:    result.Score,
		}
	}
	return entries, nil
}

// GetCount returns the number of players on a game's board.
func (b *Boards) GetCount(ctx context.Context, gameID string) (int64, error) {
	count, err := b.client.ZCard(ctx, b.boardKey(gameID)).Result()
	if err != nil {
		return 0, fmt.Errorf("getting count: %w", err)
	}
	return count, nil
}

// GetAllScores returns every player and score on a game's board.
func (b *Boards) GetAllScores(ctx context.Context, gameID string) (map[string]float64, error) {
	key := b.boardKey(gameID)
	results, err := b.client.ZRevRangeWithScores(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("getting all scores: %w", err)
	}

	scores := make(map[string]float64, len(results))
	for _, result := range results {
		scores[result.Member.(string)] = result.Score
	}
	return scores, nil
}

// BatchSetScores sets multiple scores using pipelining. Used by the
// startup recovery sync.
func (b *Boards) BatchSetScores(ctx context.Context, gameID string, scores map[string]float64) error {
	key := b.boardKey(gameID)
	pipe := b.client.Pipeline()

	for playerID, score := range scores {
		pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: playerID})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("batch setting scores: %w", err)
	}
	return nil
}

// RemovePlayer removes a player from a game's board.
func (b *Boards) RemovePlayer(ctx context.Context, gameID, playerID string) error {
	if err := b.client.ZRem(ctx, b.boardKey(gameID), playerID).Err(); err != nil {
		return fmt.Errorf("removing player: %w", err)
	}
	return nil
}

// Reset clears a game's board.
func (b *Boards) Reset(ctx context.Context, gameID string) error {
	if err := b.client.Del(ctx, b.boardKey(gameID)).Err(); err != nil {
		return fmt.Errorf("resetting board: %w", err)
	}
	return nil
}
