package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
)

// ScoreSubmission represents a score submission message
type ScoreSubmission struct {
	UserID     string                 `json:"user_id"`
	GameID     string                 `json:"game_id"`
	Score      float64                `json:"score"`
	SessionID  string                 `json:"session_id,omitempty"`
	DurationMs int64                  `json:"duration_ms,omitempty"`
	Checksum   string                 `json:"checksum,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// gameProfile shapes plausible submissions for a game
type gameProfile struct {
	id          string
	maxScore    float64
	minDuration time.Duration
	maxPerSec   float64
}

var games = []gameProfile{
	{"snake", 1_000_000, 10 * time.Second, 100},
	{"tetris", 2_000_000, 30 * time.Second, 500},
	{"pacman", 500_000, 20 * time.Second, 200},
	{"breakout", 250_000, 15 * time.Second, 150},
	{"space-invaders", 750_000, 20 * time.Second, 250},
	{"pong", 100, 30 * time.Second, 1},
}

var playerPrefixes = []string{
	"Phoenix", "Shadow", "Thunder", "Storm", "Blaze", "Ninja", "Dragon", "Wolf", "Hawk", "Viper",
	"Ghost", "Titan", "Frost", "Cyber", "Nova", "Raven", "Omega", "Alpha", "Delta", "Sigma",
	"Ace", "Bolt", "Crash", "Dash", "Edge", "Flash", "Glitch", "Haze", "Ion", "Jade",
	"Knight", "Luna", "Mystic", "Neon", "Orion", "Pulse", "Quantum", "Rebel", "Spark", "Turbo",
}

func getPlayerName(idx int) string {
	prefixIdx := idx % len(playerPrefixes)
	suffix := idx/len(playerPrefixes) + 1
	return fmt.Sprintf("%s%d", playerPrefixes[prefixIdx], suffix)
}

// cleanSubmission builds a submission that should pass validation
func cleanSubmission(playerIdx int, game gameProfile) ScoreSubmission {
	duration := game.minDuration + time.Duration(rand.Intn(120))*time.Second
	maxPlausible := game.maxPerSec * duration.Seconds()
	if maxPlausible > game.maxScore {
		maxPlausible = game.maxScore
	}
	return ScoreSubmission{
		UserID:     getPlayerName(playerIdx),
		GameID:     game.id,
		Score:      float64(rand.Intn(int(maxPlausible)/2 + 1)),
		DurationMs: duration.Milliseconds(),
	}
}

// cheatSubmission builds a submission that should be flagged
func cheatSubmission(playerIdx int, game gameProfile) ScoreSubmission {
	switch rand.Intn(3) {
	case 0:
		// Over the absolute ceiling
		return ScoreSubmission{
			UserID:     getPlayerName(playerIdx),
			GameID:     game.id,
			Score:      game.maxScore * (2 + rand.Float64()*10),
			DurationMs: (game.minDuration + 30*time.Second).Milliseconds(),
		}
	case 1:
		// Finished impossibly fast
		return ScoreSubmission{
			UserID:     getPlayerName(playerIdx),
			GameID:     game.id,
			Score:      game.maxScore / 4,
			DurationMs: int64(rand.Intn(int(game.minDuration.Milliseconds()) / 2)),
		}
	default:
		// Accrued points far faster than the game allows
		duration := game.minDuration + 10*time.Second
		return ScoreSubmission{
			UserID:     getPlayerName(playerIdx),
			GameID:     game.id,
			Score:      game.maxPerSec * duration.Seconds() * 50,
			DurationMs: duration.Milliseconds(),
		}
	}
}

func main() {
	// Command line flags
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "arcade-scores", "Kafka topic")
	totalPlayers := flag.Int("players", 1000, "Total number of players to simulate")
	updatesPerSecond := flag.Int("rate", 100, "Submissions per second")
	cheatPercent := flag.Int("cheat", 10, "Percentage of submissions that should be flagged")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	flag.Parse()

	brokerList := strings.Split(*brokers, ",")

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("  🚀 Arcade Score Producer")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Brokers:          %s\n", *brokers)
	fmt.Printf("  Topic:            %s\n", *topic)
	fmt.Printf("  Total Players:    %d\n", *totalPlayers)
	fmt.Printf("  Submissions/sec:  %d\n", *updatesPerSecond)
	fmt.Printf("  Cheat rate:       %d%%\n", *cheatPercent)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Flush.Messages = 100
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	// Create producer
	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}
	defer producer.Close()

	// Handle producer errors and successes
	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	// Send message helper
	sendMessage := func(submission ScoreSubmission) {
		data, err := json.Marshal(submission)
		if err != nil {
			log.Printf("Failed to marshal message: %v", err)
			return
		}

		msg := &sarama.ProducerMessage{
			Topic: *topic,
			Key:   sarama.StringEncoder(submission.UserID),
			Value: sarama.ByteEncoder(data),
		}

		select {
		case producer.Input() <- msg:
		case <-done:
			return
		}
	}

	shutdown := func(reason string) {
		fmt.Printf("\n\n%s\n", reason)
		close(done)
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("\n✓ Completed. Sent: %d, Errors: %d\n", atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	fmt.Printf("Starting continuous submissions (%d/sec)\n", *updatesPerSecond)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	interval := time.Second / time.Duration(*updatesPerSecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	var submitCount, cheatCount int64

	for {
		select {
		case <-sigChan:
			shutdown("Shutting down...")
			return

		case <-ticker.C:
			if *duration > 0 && time.Now().After(endTime) {
				shutdown("Duration reached, shutting down...")
				return
			}

			playerIdx := rand.Intn(*totalPlayers)
			game := games[rand.Intn(len(games))]

			var submission ScoreSubmission
			if rand.Intn(100) < *cheatPercent {
				submission = cheatSubmission(playerIdx, game)
				atomic.AddInt64(&cheatCount, 1)
			} else {
				submission = cleanSubmission(playerIdx, game)
			}
			sendMessage(submission)
			atomic.AddInt64(&submitCount, 1)

		case <-statsTicker.C:
			submits := atomic.LoadInt64(&submitCount)
			cheats := atomic.LoadInt64(&cheatCount)
			success := atomic.LoadInt64(&successCount)
			errors := atomic.LoadInt64(&errorCount)
			fmt.Printf("[%s] Submissions: %d | Cheats: %d | Sent: %d | Errors: %d\n",
				time.Now().Format("15:04:05"),
				submits,
				cheats,
				success,
				errors,
			)
		}
	}
}
