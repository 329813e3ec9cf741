package stats

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/supstats/internal/model"
)

func days(pairs ...int) []model.Day {
	out := make([]model.Day, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.Day{ID: int64(i/2 + 1), Day: pairs[i], Points: pairs[i+1]})
	}
	return out
}

func TestLatestSnapshot(t *testing.T) {
	_, ok := LatestSnapshot(nil)
	assert.False(t, ok)

	latest, ok := LatestSnapshot(days(3, 30, 9, 90, 5, 50))
	require.True(t, ok)
	assert.Equal(t, 9, latest.Day)
	assert.Equal(t, 90, latest.Points)
}

func TestCurrentPoints(t *testing.T) {
	tests := []struct {
		name string
		days []model.Day
		want int
	}{
		{"no snapshots", nil, 0},
		{"single", days(1, 12), 12},
		{"unordered", days(4, 40, 2, 20, 7, 70, 5, 50), 70},
		{"latest lower than earlier", days(1, 500, 2, 100), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CurrentPoints(tt.days))
		})
	}
}

func TestPercentageChange(t *testing.T) {
	tests := []struct {
		name   string
		days   []model.Day
		offset int
		want   float64
		ok     bool
	}{
		{"no snapshots day", nil, DayOffset, 0, false},
		{"no snapshots week", nil, WeekOffset, 0, false},
		{"week growth", days(3, 100, 10, 150), WeekOffset, 50, true},
		{"day decline", days(9, 200, 10, 150), DayOffset, -25, true},
		{"baseline missing", days(8, 100, 10, 150), DayOffset, 0, false},
		{"nearest is not exact", days(2, 100, 4, 150, 10, 300), WeekOffset, 0, false},
		{"zero baseline", days(9, 0, 10, 150), DayOffset, 0, false},
		{"rounded", days(1, 3, 2, 4), DayOffset, 33.33, true},
		{"no change", days(1, 80, 2, 80), DayOffset, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Trend(tt.days, tt.offset)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.InDelta(t, tt.want, PercentageChange(tt.days, tt.offset), 1e-9)
		})
	}
}

func TestDayAndWeekHelpers(t *testing.T) {
	d := days(3, 100, 9, 120, 10, 150)
	assert.InDelta(t, 25.0, DayOverDay(d), 1e-9)
	assert.InDelta(t, 50.0, WeekOverWeek(d), 1e-9)
}

func TestWeekTrendMatchesFilteredBaseline(t *testing.T) {
	var d []model.Day
	for i := 1; i <= 14; i++ {
		d = append(d, model.Day{Day: i, Points: 100 + i*i*3})
	}

	direct := PercentageChange(d, WeekOffset)

	var baseline model.Day
	for _, s := range d {
		if s.Day <= 14-WeekOffset {
			baseline = s
		}
	}
	require.Equal(t, 7, baseline.Day)
	today := d[len(d)-1]
	manual := math.Round(float64(today.Points-baseline.Points)/float64(baseline.Points)*100*100) / 100

	assert.Equal(t, manual, direct)
}

func TestLastDay(t *testing.T) {
	assert.Equal(t, 0, LastDay(nil))
	assert.Equal(t, 12, LastDay(days(12, 1, 3, 5)))
}

func TestGameDay(t *testing.T) {
	start := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	game := model.Game{StartAt: start}

	assert.Equal(t, 2, GameDay(game, start))
	assert.Equal(t, 2, GameDay(game, start.Add(23*time.Hour)))
	assert.Equal(t, 3, GameDay(game, start.Add(24*time.Hour)))
	assert.Equal(t, 12, GameDay(game, start.Add(10*24*time.Hour+time.Minute)))
	assert.Equal(t, 1, GameDay(game, start.Add(-time.Hour)))
}
