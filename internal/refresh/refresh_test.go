package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/supstats/internal/model"
	"github.com/talgya/supstats/internal/stats"
)

type fakeGames struct {
	games []model.Game
	err   error
}

func (f fakeGames) Games(context.Context, bool) ([]model.Game, error) { return f.games, f.err }

type fakeRanker struct{ fail map[int64]bool }

func (f fakeRanker) RawStandings(_ context.Context, g model.Game) ([]stats.Standing, error) {
	if f.fail[g.GameID] {
		return nil, errors.New("boom")
	}
	return []stats.Standing{{Rank: 1, Points: int(g.GameID)}}, nil
}

type memSink struct {
	mu     sync.Mutex
	stored map[int64]int
}

func (m *memSink) Store(_ context.Context, gameID int64, rows []stats.Standing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stored == nil {
		m.stored = make(map[int64]int)
	}
	m.stored[gameID]++
	return nil
}

func (m *memSink) count(gameID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stored[gameID]
}

func TestStepSkipsFinishedGamesBetweenSweeps(t *testing.T) {
	games := fakeGames{games: []model.Game{
		{GameID: 1},
		{GameID: 2, EndOfGame: true},
		{GameID: 3},
	}}
	sink := &memSink{}
	e := NewEngine(games, fakeRanker{fail: map[int64]bool{3: true}}, sink, time.Minute)

	var seen []int64
	e.OnGame = func(g model.Game, rows []stats.Standing) { seen = append(seen, g.GameID) }

	ctx := context.Background()
	assert.Equal(t, 2, e.step(ctx)) // tick 1 is a full sweep
	assert.Equal(t, 1, e.step(ctx))
	assert.Equal(t, uint64(2), e.Tick)

	assert.Equal(t, 2, sink.count(1))
	assert.Equal(t, 1, sink.count(2))
	assert.Equal(t, 0, sink.count(3))
	assert.Equal(t, []int64{1, 2, 1}, seen)
}

func TestStepListError(t *testing.T) {
	e := NewEngine(fakeGames{err: errors.New("db down")}, fakeRanker{}, &memSink{}, time.Minute)
	assert.Equal(t, 0, e.step(context.Background()))
}

func TestRunStopsOnCancel(t *testing.T) {
	sink := &memSink{}
	e := NewEngine(fakeGames{games: []model.Game{{GameID: 9}}}, fakeRanker{}, sink, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return sink.count(9) >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
