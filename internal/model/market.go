package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Market is the state of a game's resource market at one sync.
type Market struct {
	ID       int64     `db:"id" json:"id"`
	GameID   int64     `db:"game_id" json:"game_id"`
	Datetime time.Time `db:"datetime" json:"datetime"`
}

// Price is the value of one resource in one market snapshot. PreviousID
// points at the same resource's price in the preceding snapshot and is
// set once, when the price is recorded.
type Price struct {
	ID         int64           `db:"id" json:"id"`
	MarketID   int64           `db:"market_id" json:"market_id"`
	ResourceID int64           `db:"resource_id" json:"resource_id"`
	Value      decimal.Decimal `db:"value" json:"value"`
	Buy        bool            `db:"buy" json:"buy"`
	PreviousID *int64          `db:"previous_id" json:"previous_id,omitempty"`
}

// Order is a pending trade offer listed in a market snapshot.
type Order struct {
	ID         int64           `db:"id" json:"id"`
	OrderID    int64           `db:"order_id" json:"order_id"`
	MarketID   int64           `db:"market_id" json:"market_id"`
	PlayerID   *int64          `db:"player_id" json:"player_id,omitempty"`
	ResourceID int64           `db:"resource_id" json:"resource_id"`
	Amount     int             `db:"amount" json:"amount"`
	Limit      decimal.Decimal `db:"limit_price" json:"limit"`
	Buy        bool            `db:"buy" json:"buy"`
}

// Resource is static reference data for a tradeable good.
type Resource struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Color string `db:"color" json:"color"`
}
