package persistence

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/supstats/internal/market"
	"github.com/talgya/supstats/internal/model"
)

// CreateResource inserts a tradeable good.
func (db *DB) CreateResource(ctx context.Context, r model.Resource) (model.Resource, error) {
	id, err := insertID(ctx, db.conn, `INSERT INTO resources (name, color) VALUES (:name, :color)`, r)
	if err != nil {
		return r, fmt.Errorf("create resource %s: %w", r.Name, err)
	}
	r.ID = id
	db.resources.Add(id, r)
	return r, nil
}

// ResourceByID returns a resource, served from an in-memory cache after
// the first lookup. Resources are static reference data.
func (db *DB) ResourceByID(ctx context.Context, id int64) (model.Resource, error) {
	if v, ok := db.resources.Get(id); ok {
		return v.(model.Resource), nil
	}
	var r model.Resource
	if err := db.get(ctx, db.conn, &r, `SELECT * FROM resources WHERE id = ?`, id); err != nil {
		return r, fmt.Errorf("resource %d: %w", id, err)
	}
	db.resources.Add(id, r)
	return r, nil
}

// Resources lists all resources and warms the cache.
func (db *DB) Resources(ctx context.Context) ([]model.Resource, error) {
	var rs []model.Resource
	if err := db.list(ctx, db.conn, &rs, `SELECT * FROM resources ORDER BY id`); err != nil {
		return nil, fmt.Errorf("resources: %w", err)
	}
	for _, r := range rs {
		db.resources.Add(r.ID, r)
	}
	return rs, nil
}

// MarketsByGame lists a game's market snapshots, oldest first.
func (db *DB) MarketsByGame(ctx context.Context, gameID int64) ([]model.Market, error) {
	return db.marketsByGame(ctx, db.conn, gameID)
}

func (db *DB) marketsByGame(ctx context.Context, q sqlx.QueryerContext, gameID int64) ([]model.Market, error) {
	var ms []model.Market
	if err := db.list(ctx, q, &ms, `SELECT * FROM markets WHERE game_id = ? ORDER BY datetime, id`, gameID); err != nil {
		return nil, fmt.Errorf("markets of game %d: %w", gameID, err)
	}
	return ms, nil
}

// MarketByID returns the market snapshot with the given id.
func (db *DB) MarketByID(ctx context.Context, id int64) (model.Market, error) {
	var m model.Market
	if err := db.get(ctx, db.conn, &m, `SELECT * FROM markets WHERE id = ?`, id); err != nil {
		return m, fmt.Errorf("market %d: %w", id, err)
	}
	return m, nil
}

// PricesByMarket lists a snapshot's prices in insertion order.
func (db *DB) PricesByMarket(ctx context.Context, marketID int64) ([]model.Price, error) {
	return db.pricesByMarket(ctx, db.conn, marketID)
}

func (db *DB) pricesByMarket(ctx context.Context, q sqlx.QueryerContext, marketID int64) ([]model.Price, error) {
	var ps []model.Price
	if err := db.list(ctx, q, &ps, `SELECT * FROM prices WHERE market_id = ? ORDER BY id`, marketID); err != nil {
		return nil, fmt.Errorf("prices of market %d: %w", marketID, err)
	}
	return ps, nil
}

// PricesByIDs fetches prices by id, for resolving PreviousID edges.
func (db *DB) PricesByIDs(ctx context.Context, ids []int64) ([]model.Price, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM prices WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("prices by id: %w", err)
	}
	var ps []model.Price
	if err := db.list(ctx, db.conn, &ps, query, args...); err != nil {
		return nil, fmt.Errorf("prices by id: %w", err)
	}
	return ps, nil
}

// OrdersByMarket lists a snapshot's open orders.
func (db *DB) OrdersByMarket(ctx context.Context, marketID int64) ([]model.Order, error) {
	var out []model.Order
	if err := db.list(ctx, db.conn, &out, `SELECT * FROM orders WHERE market_id = ? ORDER BY id`, marketID); err != nil {
		return nil, fmt.Errorf("orders of market %d: %w", marketID, err)
	}
	return out, nil
}

// RecordMarket stores a market snapshot with its prices and orders in one
// transaction. Each price's PreviousID is linked to the same resource and
// side in the game's preceding snapshot at write time; links on later
// snapshots are never rewritten.
func (db *DB) RecordMarket(ctx context.Context, m model.Market, prices []model.Price, orders []model.Order) (model.Market, []model.Price, error) {
	m.Datetime = m.Datetime.UTC()
	var stored []model.Price

	err := db.inTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := db.marketsByGame(ctx, tx, m.GameID)
		if err != nil {
			return err
		}
		var previous []model.Price
		if prev, ok := market.PreviousMarket(m, existing); ok {
			if previous, err = db.pricesByMarket(ctx, tx, prev.ID); err != nil {
				return err
			}
		}

		id, err := insertID(ctx, tx, `INSERT INTO markets (game_id, datetime) VALUES (:game_id, :datetime)`, m)
		if err != nil {
			return fmt.Errorf("insert market: %w", err)
		}
		m.ID = id

		for _, p := range market.LinkPrevious(prices, previous) {
			p.MarketID = m.ID
			pid, err := insertID(ctx, tx, `INSERT INTO prices (market_id, resource_id, value, buy, previous_id)
				VALUES (:market_id, :resource_id, :value, :buy, :previous_id)`, p)
			if err != nil {
				return fmt.Errorf("insert price for resource %d: %w", p.ResourceID, err)
			}
			p.ID = pid
			stored = append(stored, p)
		}

		for _, o := range orders {
			o.MarketID = m.ID
			if _, err := sqlx.NamedExecContext(ctx, tx, `INSERT INTO orders (order_id, market_id, player_id, resource_id, amount, limit_price, buy)
				VALUES (:order_id, :market_id, :player_id, :resource_id, :amount, :limit_price, :buy)`, o); err != nil {
				return fmt.Errorf("insert order %d: %w", o.OrderID, err)
			}
		}
		return nil
	})
	if err != nil {
		return m, nil, fmt.Errorf("record market for game %d: %w", m.GameID, err)
	}
	return m, stored, nil
}
