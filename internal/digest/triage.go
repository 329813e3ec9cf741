package digest

import (
	"math"
	"sort"

	"github.com/talgya/supstats/internal/overview"
)

// Activity levels, by the share of players whose score moved sharply
// since the previous day.
const (
	LevelCalm      = "CALM"
	LevelShifting  = "SHIFTING"
	LevelTurbulent = "TURBULENT"
)

const (
	sharpMove      = 10.0 // percent day over day
	shiftingShare  = 0.2
	turbulentShare = 0.5
)

// Mover is a player whose score changed.
type Mover struct {
	Fullname   string  `json:"fullname"`
	NationName string  `json:"nation_name"`
	Points     int     `json:"points"`
	Trend      float64 `json:"trend"` // Week over week, percent
}

// PriceMove is a resource whose price changed since the last snapshot.
type PriceMove struct {
	Resource string  `json:"resource"`
	Buy      bool    `json:"buy"`
	Value    string  `json:"value"`
	Percent  float64 `json:"percent"`
}

// Digest holds derived signals computed from a Snapshot.
type Digest struct {
	GameID        int64       `json:"game_id"`
	Day           int         `json:"day"`
	ActivePlayers int         `json:"active_players"`
	Leader        *Mover      `json:"leader,omitempty"`
	Risers        []Mover     `json:"risers"`
	Fallers       []Mover     `json:"fallers"`
	PriceMoves    []PriceMove `json:"price_moves"`
	Level         string      `json:"level"`
}

func mover(row overview.StandingRow) Mover {
	return Mover{
		Fullname:   row.Player.Fullname,
		NationName: row.Player.NationName,
		Points:     row.Points,
		Trend:      row.WeekTrend,
	}
}

// Triage computes a Digest keeping up to n risers, fallers and price moves.
func Triage(snap *Snapshot, n int) *Digest {
	g := snap.Game
	d := &Digest{
		GameID:        g.GameID,
		Day:           g.Day,
		ActivePlayers: g.ActivePlayers,
		Level:         LevelCalm,
	}
	if len(g.Standings) == 0 {
		return d
	}

	leader := mover(g.Standings[0])
	d.Leader = &leader

	var risers, fallers []Mover
	sharp := 0
	for _, row := range g.Standings {
		if math.Abs(row.DayTrend) >= sharpMove {
			sharp++
		}
		switch {
		case row.WeekTrend > 0:
			risers = append(risers, mover(row))
		case row.WeekTrend < 0:
			fallers = append(fallers, mover(row))
		}
	}
	sort.SliceStable(risers, func(i, j int) bool { return risers[i].Trend > risers[j].Trend })
	sort.SliceStable(fallers, func(i, j int) bool { return fallers[i].Trend < fallers[j].Trend })
	d.Risers = head(risers, n)
	d.Fallers = head(fallers, n)

	share := float64(sharp) / float64(len(g.Standings))
	switch {
	case share > turbulentShare:
		d.Level = LevelTurbulent
	case share > shiftingShare:
		d.Level = LevelShifting
	}

	if snap.Market != nil {
		var moves []PriceMove
		for _, p := range snap.Market.Prices {
			if p.Change == nil || p.Change.Percent == 0 {
				continue
			}
			moves = append(moves, PriceMove{
				Resource: p.Resource.Name,
				Buy:      p.Buy,
				Value:    p.Value.String(),
				Percent:  p.Change.Percent,
			})
		}
		sort.SliceStable(moves, func(i, j int) bool {
			return math.Abs(moves[i].Percent) > math.Abs(moves[j].Percent)
		})
		d.PriceMoves = head(moves, n)
	}
	return d
}

func head[T any](s []T, n int) []T {
	if n >= 0 && len(s) > n {
		return s[:n]
	}
	return s
}
