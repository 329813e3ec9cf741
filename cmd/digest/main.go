// Command digest watches tracked games through the supstats API and logs
// a periodic summary of rising and falling nations and price moves.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/talgya/supstats/internal/config"
	"github.com/talgya/supstats/internal/digest"
	"github.com/talgya/supstats/internal/logging"
)

func main() {
	godotenv.Load()

	logCfg := config.Default().Log
	if v := os.Getenv("SUPSTATS_LOG_FORMAT"); v != "" {
		logCfg.Format = v
	}
	logging.Setup(logCfg)

	// Configuration from environment.
	apiURL := envOrDefault("SUPSTATS_API_URL", "http://localhost:8080")
	intervalMin := envIntOrDefault("DIGEST_INTERVAL", 60)
	top := envIntOrDefault("DIGEST_TOP", 3)
	games, err := parseGameIDs(os.Getenv("DIGEST_GAMES"))
	if err != nil {
		slog.Error("invalid DIGEST_GAMES", "error", err)
		os.Exit(1)
	}
	if len(games) == 0 {
		slog.Error("DIGEST_GAMES is required (comma-separated game ids)")
		os.Exit(1)
	}

	interval := time.Duration(intervalMin) * time.Minute
	slog.Info("digest starting", "api_url", apiURL, "interval", interval, "games", len(games))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	observer := digest.NewObserver(apiURL)

	// The API may still be migrating its database when we start.
	slog.Info("waiting for supstats API...")
	if err := observer.WaitForAPI(ctx, 2*time.Second, 30*time.Second, 5*time.Minute); err != nil {
		slog.Error("supstats API did not become ready", "error", err)
		os.Exit(1)
	}

	runCycle(ctx, observer, games, top)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			runCycle(ctx, observer, games, top)
		case <-ctx.Done():
			slog.Info("shutting down")
			fmt.Println("Digest stopped.")
			return
		}
	}
}

// runCycle observes and summarizes each game. A failing game is logged
// and skipped.
func runCycle(ctx context.Context, observer *digest.Observer, games []int64, top int) {
	slog.Info("digest cycle starting", "games", len(games))
	for _, id := range games {
		snap, err := observer.Observe(ctx, id)
		if err != nil {
			slog.Error("observation failed", "game_id", id, "error", err)
			continue
		}
		digest.Triage(snap, top).Log(slog.Default())
	}
}

func parseGameIDs(v string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("game id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
