// Package overview assembles the read models served by the API: a game's
// overview and standings, a player's detail page and a market snapshot.
// It loads rows through a Store and derives every figure with the stats,
// diplomacy, market and format packages.
package overview

import (
	"context"
	"time"

	"github.com/talgya/supstats/internal/format"
	"github.com/talgya/supstats/internal/model"
)

// Store is the read side of persistence.DB used here.
type Store interface {
	Games(ctx context.Context, trackedOnly bool) ([]model.Game, error)
	GameByID(ctx context.Context, id int64) (model.Game, error)
	GameByExternalID(ctx context.Context, gameID int64) (model.Game, error)
	MapByID(ctx context.Context, id int64) (model.Map, error)

	PlayerByID(ctx context.Context, id int64) (model.Player, error)
	PlayersByGame(ctx context.Context, gameID int64) ([]model.Player, error)
	PlayersByUser(ctx context.Context, userID int64) ([]model.Player, error)
	UserByID(ctx context.Context, id int64) (model.User, error)

	DaysByPlayer(ctx context.Context, playerID int64) ([]model.Day, error)
	DaysByGame(ctx context.Context, gameID int64) ([]model.Day, error)
	RelationsByNative(ctx context.Context, playerID int64) ([]model.Relation, error)

	MarketsByGame(ctx context.Context, gameID int64) ([]model.Market, error)
	MarketByID(ctx context.Context, id int64) (model.Market, error)
	PricesByMarket(ctx context.Context, marketID int64) ([]model.Price, error)
	PricesByIDs(ctx context.Context, ids []int64) ([]model.Price, error)
	OrdersByMarket(ctx context.Context, marketID int64) ([]model.Order, error)
	ResourceByID(ctx context.Context, id int64) (model.Resource, error)
}

// Service builds read models.
type Service struct {
	store Store
	human format.Humanizer
	now   func() time.Time
}

// NewService returns a Service. A nil humanizer or clock falls back to
// the wall clock.
func NewService(store Store, h format.Humanizer, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if h == nil {
		h = &format.Humanize{Now: now}
	}
	return &Service{store: store, human: h, now: now}
}

// PlayerSummary is a player as shown in lists.
type PlayerSummary struct {
	ID         int64  `json:"id"`
	PlayerID   int64  `json:"player_id"`
	Fullname   string `json:"fullname"`
	NationName string `json:"nation_name"`
	Human      bool   `json:"human"`
	Defeated   bool   `json:"defeated"`
	ImageURL   string `json:"image_url"`
	FlagURL    string `json:"flag_url"`
	LastLogin  string `json:"last_login,omitempty"`
	Route      string `json:"route"`
}

func (s *Service) summarize(p model.Player, game model.Game, mapID int64) PlayerSummary {
	return PlayerSummary{
		ID:         p.ID,
		PlayerID:   p.PlayerID,
		Fullname:   format.Fullname(p),
		NationName: p.NationName,
		Human:      p.Human(),
		Defeated:   p.Defeated,
		ImageURL:   format.PlayerImageURL(p, game, mapID),
		FlagURL:    format.FlagImageURL(p, game, mapID),
		LastLogin:  format.LastLoginFormatted(p, s.human),
		Route:      format.PlayerRoute(p),
	}
}

// externalMapID resolves the upstream map id used in image URLs, or 0
// when the game has no map.
func (s *Service) externalMapID(ctx context.Context, game model.Game) (int64, error) {
	if game.MapID == nil {
		return 0, nil
	}
	m, err := s.store.MapByID(ctx, *game.MapID)
	if err != nil {
		return 0, err
	}
	return m.MapID, nil
}
