package digest

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
)

// Log writes the digest as structured log lines.
func (d *Digest) Log(logger *slog.Logger) {
	attrs := []any{"game_id", d.GameID, "day", d.Day, "active_players", d.ActivePlayers, "level", d.Level}
	if d.Leader != nil {
		attrs = append(attrs, "leader", d.Leader.NationName, "leader_points", humanize.Comma(int64(d.Leader.Points)))
	}
	logger.Info("game digest", attrs...)

	for i, m := range d.Risers {
		logger.Info("riser", "game_id", d.GameID, "rank", humanize.Ordinal(i+1),
			"nation", m.NationName, "player", m.Fullname,
			"points", humanize.Comma(int64(m.Points)), "week", fmt.Sprintf("%+.2f%%", m.Trend))
	}
	for i, m := range d.Fallers {
		logger.Info("faller", "game_id", d.GameID, "rank", humanize.Ordinal(i+1),
			"nation", m.NationName, "player", m.Fullname,
			"points", humanize.Comma(int64(m.Points)), "week", fmt.Sprintf("%+.2f%%", m.Trend))
	}
	for _, p := range d.PriceMoves {
		side := "sell"
		if p.Buy {
			side = "buy"
		}
		logger.Info("price move", "game_id", d.GameID, "resource", p.Resource, "side", side,
			"value", p.Value, "change", fmt.Sprintf("%+.2f%%", p.Percent))
	}
}
