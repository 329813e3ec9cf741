// Package diplomacy classifies relations between players and coalitions.
package diplomacy

import (
	"sort"

	"github.com/talgya/supstats/internal/model"
)

// Status is the upstream integer code of a relation.
type Status int

const (
	StatusWar          Status = -2
	StatusCeasefire    Status = -1
	StatusTradeEmbargo Status = 0
	StatusPeace        Status = 1
	StatusRightOfWay   Status = 3
	StatusShareMap     Status = 4
	StatusShareInfo    Status = 6
	StatusArmyCommand  Status = 7
)

// Unknown is the label for codes outside the table.
const Unknown = "unknown"

var statusLabels = map[Status]string{
	StatusWar:          "war",
	StatusCeasefire:    "ceasefire",
	StatusTradeEmbargo: "trade-embargo",
	StatusPeace:        "peace",
	StatusRightOfWay:   "right-of-way",
	StatusShareMap:     "share-map",
	StatusShareInfo:    "share-info",
	StatusArmyCommand:  "army-command",
}

// String returns the label of the status.
func (s Status) String() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return Unknown
}

// Known reports whether the code is in the table.
func (s Status) Known() bool {
	_, ok := statusLabels[s]
	return ok
}

// StatusLabel maps a raw relation code to its label.
func StatusLabel(code int) string {
	return Status(code).String()
}

// Statuses lists every known status, most friendly first.
func Statuses() []Status {
	out := make([]Status, 0, len(statusLabels))
	for s := range statusLabels {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	return out
}

// SortedRelations returns the relations the player holds as the native
// party, highest status first. Equal statuses keep their input order.
func SortedRelations(playerID int64, relations []model.Relation) []model.Relation {
	out := make([]model.Relation, 0, len(relations))
	for _, r := range relations {
		if r.PlayerNativeID == playerID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Status > out[j].Status
	})
	return out
}

// inWindow reports whether day lies in [start, end]; a nil end is open.
func inWindow(start int, end *int, day int) bool {
	if day < start {
		return false
	}
	return end == nil || day <= *end
}

// InForce reports whether the relation is valid on the given day.
func InForce(r model.Relation, day int) bool {
	return inWindow(r.StartDay, r.EndDay, day)
}

// CoalitionInForce reports whether the coalition exists on the given day.
func CoalitionInForce(c model.Coalition, day int) bool {
	return inWindow(c.StartDay, c.EndDay, day)
}
