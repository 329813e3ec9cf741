// Package stats computes point-in-time analytics from a player's daily
// score snapshots: current points, day-over-day and week-over-week trends,
// active player filtering and standings.
//
// Every function is total. Missing snapshots and zero baselines fall back
// to 0 instead of returning an error.
package stats

import (
	"math"
	"time"

	"github.com/talgya/supstats/internal/model"
)

// Trend offsets in days.
const (
	DayOffset  = 1
	WeekOffset = 7
)

// LatestSnapshot returns the snapshot with the highest day number.
// On duplicate day numbers the first one in days wins.
func LatestSnapshot(days []model.Day) (model.Day, bool) {
	if len(days) == 0 {
		return model.Day{}, false
	}
	latest := days[0]
	for _, d := range days[1:] {
		if d.Day > latest.Day {
			latest = d
		}
	}
	return latest, true
}

// snapshotOn returns the first snapshot recorded exactly on day.
func snapshotOn(days []model.Day, day int) (model.Day, bool) {
	for _, d := range days {
		if d.Day == day {
			return d, true
		}
	}
	return model.Day{}, false
}

// CurrentPoints returns the points of the latest snapshot, or 0.
func CurrentPoints(days []model.Day) int {
	today, ok := LatestSnapshot(days)
	if !ok {
		return 0
	}
	return today.Points
}

// Trend compares the latest snapshot against the one exactly offset days
// earlier and returns the change in percent, rounded to two decimals.
// ok is false when there is no latest snapshot, no baseline on that exact
// day, or the baseline scored zero points; the returned value is then 0.
func Trend(days []model.Day, offset int) (float64, bool) {
	today, ok := LatestSnapshot(days)
	if !ok {
		return 0, false
	}
	baseline, ok := snapshotOn(days, today.Day-offset)
	if !ok {
		return 0, false
	}
	if baseline.Points == 0 {
		return 0, false
	}
	pct := float64(today.Points-baseline.Points) / float64(baseline.Points) * 100
	return round2(pct), true
}

// PercentageChange is Trend without the ok flag.
func PercentageChange(days []model.Day, offset int) float64 {
	pct, _ := Trend(days, offset)
	return pct
}

// DayOverDay is the change since the previous day.
func DayOverDay(days []model.Day) float64 {
	return PercentageChange(days, DayOffset)
}

// WeekOverWeek is the change since seven days earlier.
func WeekOverWeek(days []model.Day) float64 {
	return PercentageChange(days, WeekOffset)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LastDay returns the highest day number among days, or 0 when empty.
func LastDay(days []model.Day) int {
	latest, ok := LatestSnapshot(days)
	if !ok {
		return 0
	}
	return latest.Day
}

// GameDay returns the current in-game day: whole days elapsed since the
// start plus two, accounting for the setup day. Not clamped; a start in
// the future yields a smaller or negative day.
func GameDay(game model.Game, now time.Time) int {
	elapsed := now.Sub(game.StartAt)
	return int(math.Floor(elapsed.Hours()/24)) + 2
}
