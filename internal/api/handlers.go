package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/talgya/supstats/internal/diplomacy"
	"github.com/talgya/supstats/internal/format"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	if err := s.Store.Ping(r.Context()); err != nil {
		dbStatus = "unavailable"
	}
	cacheStatus := "disabled"
	if s.Cache != nil {
		cacheStatus = "ok"
		if err := s.Cache.Ping(r.Context()); err != nil {
			cacheStatus = "unavailable"
		}
	}

	writeJSON(w, map[string]any{
		"name":       "supstats",
		"started":    format.NewHumanize().NaturalTime(s.started),
		"uptime":     time.Since(s.started).Round(time.Second).String(),
		"database":   dbStatus,
		"cache":      cacheStatus,
		"admin_auth": s.AdminKey != "",
	})
}

// handleGames lists games. ?all=1 includes games whose sync is off.
func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	all := r.URL.Query().Get("all") == "1"
	games, err := s.Overview.Games(r.Context(), !all)
	if err != nil {
		writeError(w, r, "games", err)
		return
	}
	writeJSON(w, games)
}

// handleGameRoutes dispatches /api/v1/game/:id[/players|/standings|/market|/days].
func (s *Server) handleGameRoutes(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r)
	if len(parts) < 4 || len(parts) > 5 {
		http.NotFound(w, r)
		return
	}
	sub := ""
	if len(parts) == 5 {
		sub = parts[4]
	}

	var h http.HandlerFunc
	switch {
	case sub == "":
		h = s.public("game", s.handleGame)
	case sub == "players":
		h = s.public("game_players", s.handleGamePlayers)
	case sub == "standings":
		h = s.public("game_standings", s.handleGameStandings)
	case sub == "market" && r.Method == http.MethodPost:
		h = instrument("game_market_ingest", s.adminOnly(s.handleMarketIngest))
	case sub == "market":
		h = s.public("game_market", s.handleGameMarket)
	case sub == "days":
		h = instrument("game_days_ingest", s.adminOnly(s.handleDaysIngest))
	default:
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

// gameID is the upstream game id in /api/v1/game/:id/...
func gameID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return parseID(w, pathParts(r)[3], "game")
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	out, err := s.Overview.Game(r.Context(), id, s.viewer(r))
	if err != nil {
		writeError(w, r, "game", err)
		return
	}
	writeJSON(w, out)
}

func (s *Server) handleGamePlayers(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	out, err := s.Overview.Players(r.Context(), id)
	if err != nil {
		writeError(w, r, "game", err)
		return
	}
	writeJSON(w, out)
}

// handleGameStandings ranks a game's players. With ?limit=N the cached
// top N is served when available.
func (s *Server) handleGameStandings(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	if limit > 0 {
		entries, hit, err := s.Cache.Top(r.Context(), id, limit)
		if err != nil {
			slog.Warn("standings cache read failed", "game_id", id, "error", err)
		}
		if hit {
			writeJSON(w, map[string]any{"source": "cache", "entries": entries})
			return
		}
	}

	rows, err := s.Overview.Standings(r.Context(), id)
	if err != nil {
		writeError(w, r, "game", err)
		return
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	writeJSON(w, map[string]any{"source": "db", "standings": rows})
}

// handleGameMarket serves the latest market snapshot, or ?market=ID.
func (s *Server) handleGameMarket(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	var marketID *int64
	if v := r.URL.Query().Get("market"); v != "" {
		mid, ok := parseID(w, v, "market")
		if !ok {
			return
		}
		marketID = &mid
	}
	out, err := s.Overview.Market(r.Context(), id, marketID)
	if err != nil {
		writeError(w, r, "market", err)
		return
	}
	writeJSON(w, out)
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r)
	if len(parts) != 4 {
		http.NotFound(w, r)
		return
	}
	id, ok := parseID(w, parts[3], "player")
	if !ok {
		return
	}
	out, err := s.Overview.Player(r.Context(), id)
	if err != nil {
		writeError(w, r, "player", err)
		return
	}
	writeJSON(w, out)
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r)
	if len(parts) != 4 {
		http.NotFound(w, r)
		return
	}
	id, ok := parseID(w, parts[3], "user")
	if !ok {
		return
	}
	out, err := s.Overview.User(r.Context(), id)
	if err != nil {
		writeError(w, r, "user", err)
		return
	}
	writeJSON(w, out)
}

type statusEntry struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

// handleRelationStatus labels one relation code. Unknown integer codes
// are labelled "unknown"; non-integers are 404.
func (s *Server) handleRelationStatus(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r)
	if len(parts) != 5 {
		http.NotFound(w, r)
		return
	}
	code, err := strconv.Atoi(parts[4])
	if err != nil {
		http.Error(w, "status not found", http.StatusNotFound)
		return
	}
	writeJSON(w, statusEntry{Code: code, Label: diplomacy.StatusLabel(code)})
}

func (s *Server) handleRelationStatuses(w http.ResponseWriter, r *http.Request) {
	all := diplomacy.Statuses()
	out := make([]statusEntry, len(all))
	for i, st := range all {
		out[i] = statusEntry{Code: int(st), Label: st.String()}
	}
	writeJSON(w, out)
}
