// Package market navigates a game's market snapshots: the preceding
// snapshot, per-resource price lookups and one-hop price diffs.
package market

import (
	"github.com/shopspring/decimal"

	"github.com/talgya/supstats/internal/model"
)

// PreviousMarket returns the snapshot of the same game immediately before
// m. ok is false when m is the game's earliest snapshot.
func PreviousMarket(m model.Market, markets []model.Market) (model.Market, bool) {
	var prev model.Market
	found := false
	for _, c := range markets {
		if c.GameID != m.GameID || !c.Datetime.Before(m.Datetime) {
			continue
		}
		if !found || c.Datetime.After(prev.Datetime) {
			prev = c
			found = true
		}
	}
	return prev, found
}

// Latest returns the newest snapshot in markets.
func Latest(markets []model.Market) (model.Market, bool) {
	var latest model.Market
	found := false
	for _, m := range markets {
		if !found || m.Datetime.After(latest.Datetime) {
			latest = m
			found = true
		}
	}
	return latest, found
}

// PriceIndex maps resource id to the market's price for it. A resource
// usually has both a buy and a sell row; the row that comes last in
// prices wins. Use SidedPriceIndex to keep both.
func PriceIndex(prices []model.Price) map[int64]model.Price {
	out := make(map[int64]model.Price, len(prices))
	for _, p := range prices {
		out[p.ResourceID] = p
	}
	return out
}

// Side identifies one side of a resource's price.
type Side struct {
	ResourceID int64
	Buy        bool
}

// SidedPriceIndex maps (resource, side) to the price row.
func SidedPriceIndex(prices []model.Price) map[Side]model.Price {
	out := make(map[Side]model.Price, len(prices))
	for _, p := range prices {
		out[Side{ResourceID: p.ResourceID, Buy: p.Buy}] = p
	}
	return out
}

// ByID indexes prices by their own id, for resolving PreviousID edges.
func ByID(prices []model.Price) map[int64]model.Price {
	out := make(map[int64]model.Price, len(prices))
	for _, p := range prices {
		out[p.ID] = p
	}
	return out
}

// LinkPrevious sets PreviousID on each new price to the id of the price
// for the same resource and side in the preceding snapshot. Prices with
// no counterpart keep a nil PreviousID. The input slice is not modified.
func LinkPrevious(prices, previous []model.Price) []model.Price {
	index := SidedPriceIndex(previous)
	out := make([]model.Price, len(prices))
	for i, p := range prices {
		p.PreviousID = nil
		if prev, ok := index[Side{ResourceID: p.ResourceID, Buy: p.Buy}]; ok && prev.ID != 0 {
			id := prev.ID
			p.PreviousID = &id
		}
		out[i] = p
	}
	return out
}

// Change is the difference between a price and its predecessor.
type Change struct {
	Previous decimal.Decimal `json:"previous"`
	Delta    decimal.Decimal `json:"delta"`
	Percent  float64         `json:"percent"`
}

var hundred = decimal.NewFromInt(100)

// PriceChange follows p's PreviousID one hop into previous (keyed by
// price id) and returns the difference. ok is false when p has no
// predecessor, the predecessor is not in previous, or it was zero.
func PriceChange(p model.Price, previous map[int64]model.Price) (Change, bool) {
	if p.PreviousID == nil {
		return Change{}, false
	}
	prev, ok := previous[*p.PreviousID]
	if !ok || prev.Value.IsZero() {
		return Change{}, false
	}
	delta := p.Value.Sub(prev.Value)
	pct := delta.Div(prev.Value).Mul(hundred).Round(2)
	return Change{
		Previous: prev.Value,
		Delta:    delta,
		Percent:  pct.InexactFloat64(),
	}, true
}
