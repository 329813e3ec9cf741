package overview

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/supstats/internal/market"
	"github.com/talgya/supstats/internal/model"
	"github.com/talgya/supstats/internal/persistence"
)

// MarketDetail is one market snapshot with per-price diffs against the
// preceding snapshot.
type MarketDetail struct {
	Market   model.Market   `json:"market"`
	Previous *model.Market  `json:"previous,omitempty"`
	Prices   []PriceRow     `json:"prices"`
	Orders   []model.Order  `json:"orders"`
	Markets  []model.Market `json:"markets"`
}

// PriceRow is one resource price with its change, if known.
type PriceRow struct {
	Resource model.Resource  `json:"resource"`
	Buy      bool            `json:"buy"`
	Value    decimal.Decimal `json:"value"`
	Change   *market.Change  `json:"change,omitempty"`
}

// Market builds the snapshot detail for the game with the given upstream
// id. A nil marketID selects the latest snapshot.
func (s *Service) Market(ctx context.Context, gameID int64, marketID *int64) (MarketDetail, error) {
	game, err := s.store.GameByExternalID(ctx, gameID)
	if err != nil {
		return MarketDetail{}, err
	}
	markets, err := s.store.MarketsByGame(ctx, game.ID)
	if err != nil {
		return MarketDetail{}, err
	}

	var m model.Market
	if marketID != nil {
		if m, err = s.store.MarketByID(ctx, *marketID); err != nil {
			return MarketDetail{}, err
		}
		if m.GameID != game.ID {
			return MarketDetail{}, fmt.Errorf("market %d in game %d: %w", *marketID, gameID, persistence.ErrNotFound)
		}
	} else {
		var ok bool
		if m, ok = market.Latest(markets); !ok {
			return MarketDetail{}, fmt.Errorf("market of game %d: %w", gameID, persistence.ErrNotFound)
		}
	}

	var (
		prices []model.Price
		orders []model.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		prices, err = s.store.PricesByMarket(gctx, m.ID)
		return err
	})
	g.Go(func() (err error) {
		orders, err = s.store.OrdersByMarket(gctx, m.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return MarketDetail{}, fmt.Errorf("load market %d: %w", m.ID, err)
	}

	var prevIDs []int64
	for _, p := range prices {
		if p.PreviousID != nil {
			prevIDs = append(prevIDs, *p.PreviousID)
		}
	}
	previous, err := s.store.PricesByIDs(ctx, prevIDs)
	if err != nil {
		return MarketDetail{}, err
	}
	prevByID := market.ByID(previous)

	rows := make([]PriceRow, len(prices))
	for i, p := range prices {
		res, err := s.store.ResourceByID(ctx, p.ResourceID)
		if err != nil {
			return MarketDetail{}, err
		}
		rows[i] = PriceRow{Resource: res, Buy: p.Buy, Value: p.Value}
		if c, ok := market.PriceChange(p, prevByID); ok {
			rows[i].Change = &c
		}
	}

	out := MarketDetail{Market: m, Prices: rows, Orders: orders, Markets: markets}
	if prev, ok := market.PreviousMarket(m, markets); ok {
		out.Previous = &prev
	}
	return out, nil
}
