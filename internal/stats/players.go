package stats

import (
	"sort"

	"github.com/talgya/supstats/internal/model"
)

func active(p model.Player) bool {
	return p.Human() && !p.Defeated
}

// ActivePlayers returns the human players that are not defeated, in their
// original order.
func ActivePlayers(players []model.Player) []model.Player {
	out := make([]model.Player, 0, len(players))
	for _, p := range players {
		if active(p) {
			out = append(out, p)
		}
	}
	return out
}

// ActivePlayerCount counts ActivePlayers without building the slice.
func ActivePlayerCount(players []model.Player) int {
	n := 0
	for _, p := range players {
		if active(p) {
			n++
		}
	}
	return n
}

// AllHumanPlayers returns every player linked to a user, defeated or not.
func AllHumanPlayers(players []model.Player) []model.Player {
	out := make([]model.Player, 0, len(players))
	for _, p := range players {
		if p.Human() {
			out = append(out, p)
		}
	}
	return out
}

// Standing is one row of a game's ranking.
type Standing struct {
	Rank       int          `json:"rank"`
	Player     model.Player `json:"player"`
	Points     int          `json:"points"`
	DayTrend   float64      `json:"day_trend"`
	WeekTrend  float64      `json:"week_trend"`
	LastRecord int          `json:"last_record_day"`
}

// Standings ranks players by current points, highest first. Ties keep
// the order of players. daysByPlayer is keyed by Player.ID; players with
// no entry rank with 0 points.
func Standings(players []model.Player, daysByPlayer map[int64][]model.Day) []Standing {
	out := make([]Standing, len(players))
	for i, p := range players {
		days := daysByPlayer[p.ID]
		out[i] = Standing{
			Player:     p,
			Points:     CurrentPoints(days),
			DayTrend:   DayOverDay(days),
			WeekTrend:  WeekOverWeek(days),
			LastRecord: LastDay(days),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Points > out[j].Points
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// GroupDays splits a game's snapshots by player, keeping their order.
func GroupDays(days []model.Day) map[int64][]model.Day {
	out := make(map[int64][]model.Day)
	for _, d := range days {
		out[d.PlayerID] = append(out[d.PlayerID], d)
	}
	return out
}
