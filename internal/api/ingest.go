package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/talgya/supstats/internal/model"
	"github.com/talgya/supstats/internal/persistence"
)

const maxIngestBody = 1 << 20

// Sync function names recorded in the sync log.
const (
	syncScores = "scores"
	syncMarket = "market"
)

// daysRequest carries one day's scores keyed by in-game player id.
type daysRequest struct {
	Day    int `json:"day"`
	Scores []struct {
		PlayerID int64 `json:"player_id"`
		Points   int   `json:"points"`
	} `json:"scores"`
}

// marketRequest carries one market snapshot. Order player ids are in-game.
type marketRequest struct {
	Datetime time.Time `json:"datetime"`
	Prices   []struct {
		ResourceID int64           `json:"resource_id"`
		Value      decimal.Decimal `json:"value"`
		Buy        bool            `json:"buy"`
	} `json:"prices"`
	Orders []struct {
		OrderID    int64           `json:"order_id"`
		PlayerID   *int64          `json:"player_id"`
		ResourceID int64           `json:"resource_id"`
		Amount     int             `json:"amount"`
		Limit      decimal.Decimal `json:"limit"`
		Buy        bool            `json:"buy"`
	} `json:"orders"`
}

// badRequest is an ingest payload problem reported as 400.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequest{fmt.Sprintf("invalid body: %v", err)}
	}
	return nil
}

// ingestTarget loads the game named in the path and indexes its players
// by in-game id.
func (s *Server) ingestTarget(ctx context.Context, id int64) (model.Game, map[int64]model.Player, error) {
	game, err := s.Store.GameByExternalID(ctx, id)
	if err != nil {
		return game, nil, err
	}
	players, err := s.Store.PlayersByGame(ctx, game.ID)
	if err != nil {
		return game, nil, err
	}
	bySlot := make(map[int64]model.Player, len(players))
	for _, p := range players {
		bySlot[p.PlayerID] = p
	}
	return game, bySlot, nil
}

// finishIngest logs the sync run and writes the response.
func (s *Server) finishIngest(w http.ResponseWriter, r *http.Request, game model.Game, function string, err error, body any) {
	if game.ID != 0 {
		if _, logErr := s.Store.LogSync(r.Context(), model.SyncLog{
			GameID:   game.ID,
			Function: function,
			Datetime: time.Now(),
			Success:  err == nil,
		}); logErr != nil {
			slog.Warn("sync log write failed", "game_id", game.GameID, "function", function, "error", logErr)
		}
	}

	var bad badRequest
	switch {
	case err == nil:
		writeJSONStatus(w, http.StatusCreated, body)
	case errors.As(err, &bad):
		http.Error(w, bad.msg, http.StatusBadRequest)
	default:
		writeError(w, r, "game", err)
	}
}

func (s *Server) handleDaysIngest(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	game, bySlot, err := s.ingestTarget(ctx, id)
	if err != nil {
		writeError(w, r, "game", err)
		return
	}

	var req daysRequest
	err = decodeBody(w, r, &req)
	if err == nil {
		days := make([]model.Day, 0, len(req.Scores))
		for _, sc := range req.Scores {
			p, ok := bySlot[sc.PlayerID]
			if !ok {
				err = badRequest{fmt.Sprintf("unknown player %d", sc.PlayerID)}
				break
			}
			days = append(days, model.Day{Day: req.Day, Points: sc.Points, PlayerID: p.ID, GameID: game.ID})
		}
		if err == nil {
			err = s.Store.RecordDays(ctx, days)
		}
	}
	if err == nil {
		s.refreshCache(ctx, game)
	}
	s.finishIngest(w, r, game, syncScores, err, map[string]any{"game_id": game.GameID, "day": req.Day, "recorded": len(req.Scores)})
}

func (s *Server) handleMarketIngest(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	game, bySlot, err := s.ingestTarget(ctx, id)
	if err != nil {
		writeError(w, r, "game", err)
		return
	}

	var (
		req    marketRequest
		stored model.Market
		prices []model.Price
	)
	err = decodeBody(w, r, &req)
	if err == nil && req.Datetime.IsZero() {
		err = badRequest{"datetime is required"}
	}
	if err == nil {
		stored, prices, err = s.recordMarket(ctx, game, bySlot, req)
	}
	s.finishIngest(w, r, game, syncMarket, err, map[string]any{"market_id": stored.ID, "prices": prices})
}

func (s *Server) recordMarket(ctx context.Context, game model.Game, bySlot map[int64]model.Player, req marketRequest) (model.Market, []model.Price, error) {
	known := make(map[int64]bool)
	checkResource := func(rid int64) error {
		if known[rid] {
			return nil
		}
		if _, err := s.Store.ResourceByID(ctx, rid); err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				return badRequest{fmt.Sprintf("unknown resource %d", rid)}
			}
			return err
		}
		known[rid] = true
		return nil
	}

	prices := make([]model.Price, 0, len(req.Prices))
	for _, p := range req.Prices {
		if err := checkResource(p.ResourceID); err != nil {
			return model.Market{}, nil, err
		}
		prices = append(prices, model.Price{ResourceID: p.ResourceID, Value: p.Value, Buy: p.Buy})
	}

	orders := make([]model.Order, 0, len(req.Orders))
	for _, o := range req.Orders {
		if err := checkResource(o.ResourceID); err != nil {
			return model.Market{}, nil, err
		}
		order := model.Order{OrderID: o.OrderID, ResourceID: o.ResourceID, Amount: o.Amount, Limit: o.Limit, Buy: o.Buy}
		if o.PlayerID != nil {
			p, ok := bySlot[*o.PlayerID]
			if !ok {
				return model.Market{}, nil, badRequest{fmt.Sprintf("unknown player %d", *o.PlayerID)}
			}
			order.PlayerID = &p.ID
		}
		orders = append(orders, order)
	}

	return s.Store.RecordMarket(ctx, model.Market{GameID: game.ID, Datetime: req.Datetime}, prices, orders)
}

// refreshCache pushes fresh standings for a game after new scores.
func (s *Server) refreshCache(ctx context.Context, game model.Game) {
	if s.Cache == nil {
		return
	}
	rows, err := s.Overview.RawStandings(ctx, game)
	if err != nil {
		slog.Warn("standings recompute failed", "game_id", game.GameID, "error", err)
		return
	}
	if err := s.Cache.Store(ctx, game.GameID, rows); err != nil {
		slog.Warn("standings cache write failed", "game_id", game.GameID, "error", err)
	}
}
