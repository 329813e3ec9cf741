// Package refresh provides the loop that recomputes standings of tracked
// games and pushes them to the standings cache.
package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/talgya/supstats/internal/model"
	"github.com/talgya/supstats/internal/stats"
)

// Finished games no longer change; they are refreshed only on every
// TicksPerFullSweep-th tick so a cold cache still fills.
const TicksPerFullSweep = 60

// GameLister lists games (persistence.DB).
type GameLister interface {
	Games(ctx context.Context, trackedOnly bool) ([]model.Game, error)
}

// Ranker computes a game's standings (overview.Service).
type Ranker interface {
	RawStandings(ctx context.Context, game model.Game) ([]stats.Standing, error)
}

// Sink receives fresh standings (cache.Standings).
type Sink interface {
	Store(ctx context.Context, gameID int64, rows []stats.Standing) error
}

// Engine drives the refresh loop.
type Engine struct {
	Tick     uint64        // Completed refresh rounds
	Interval time.Duration // Time between rounds

	games  GameLister
	ranker Ranker
	sink   Sink

	// OnGame, if set, is called after a game's standings are stored.
	OnGame func(game model.Game, rows []stats.Standing)
}

// NewEngine creates a refresh engine running every interval.
func NewEngine(games GameLister, ranker Ranker, sink Sink, interval time.Duration) *Engine {
	return &Engine{Interval: interval, games: games, ranker: ranker, sink: sink}
}

// Run refreshes once immediately and then every Interval. Blocks until
// ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("refresh engine started", "interval", e.Interval)

	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	for {
		start := time.Now()
		n := e.step(ctx)
		slog.Debug("refresh round", "tick", e.Tick, "games", n, "took", time.Since(start))

		select {
		case <-ctx.Done():
			slog.Info("refresh engine stopped", "tick", e.Tick)
			return
		case <-ticker.C:
		}
	}
}

// step runs one refresh round and returns how many games were stored.
// Errors on one game are logged and do not stop the round.
func (e *Engine) step(ctx context.Context) int {
	e.Tick++
	fullSweep := e.Tick%TicksPerFullSweep == 1

	games, err := e.games.Games(ctx, true)
	if err != nil {
		slog.Error("refresh: list games", "error", err)
		return 0
	}

	stored := 0
	for _, g := range games {
		if ctx.Err() != nil {
			break
		}
		if g.EndOfGame && !fullSweep {
			continue
		}
		rows, err := e.ranker.RawStandings(ctx, g)
		if err != nil {
			slog.Warn("refresh: standings", "game_id", g.GameID, "error", err)
			continue
		}
		if err := e.sink.Store(ctx, g.GameID, rows); err != nil {
			slog.Warn("refresh: store", "game_id", g.GameID, "error", err)
			continue
		}
		stored++
		if e.OnGame != nil {
			e.OnGame(g, rows)
		}
	}
	return stored
}
