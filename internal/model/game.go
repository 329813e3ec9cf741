// Package model holds the tracked game entities: games, players, their
// daily score snapshots, diplomatic relations and market snapshots.
// The types are plain data; derived values live in the stats, diplomacy,
// market and format packages.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Game is one tracked match on the upstream game server.
type Game struct {
	ID       int64  `db:"id" json:"id"`
	GameID   int64  `db:"game_id" json:"game_id"` // Upstream identifier
	GameHost string `db:"game_host" json:"game_host"`

	StartAt     time.Time  `db:"start_at" json:"start_at"`
	EndAt       *time.Time `db:"end_at" json:"end_at,omitempty"`
	EndOfGame   bool       `db:"end_of_game" json:"end_of_game"`
	NextDayTime *time.Time `db:"next_day_time" json:"next_day_time,omitempty"`

	NumberOfPlayers    int             `db:"number_of_players" json:"number_of_players"`
	Scenario           int             `db:"scenario" json:"scenario"`
	Ranked             int             `db:"ranked" json:"ranked"`
	GoldRound          bool            `db:"gold_round" json:"gold_round"`
	AILevel            int             `db:"ai_level" json:"ai_level"`
	CountrySelection   int             `db:"country_selection" json:"country_selection"`
	TimeScale          decimal.Decimal `db:"time_scale" json:"time_scale"`
	TeamSetting        int             `db:"team_setting" json:"team_setting"`
	TeamVictoryPoints  int             `db:"team_victory_points" json:"team_victory_points"`
	VictoryPoints      int             `db:"victory_points" json:"victory_points"`
	ResearchDaysOffset int             `db:"research_days_offset" json:"research_days_offset"`
	ResearchTimeScale  decimal.Decimal `db:"research_time_scale" json:"research_time_scale"`

	// Tracking toggles decide which parts of the game are synced.
	TrackGame       bool `db:"track_game" json:"track_game"`
	TrackPlayers    bool `db:"track_players" json:"track_players"`
	TrackScore      bool `db:"track_score" json:"track_score"`
	TrackRelations  bool `db:"track_relations" json:"track_relations"`
	TrackCoalitions bool `db:"track_coalitions" json:"track_coalitions"`
	TrackMarket     bool `db:"track_market" json:"track_market"`

	MapID *int64 `db:"map_id" json:"map_id,omitempty"` // Internal Map row
}

// Map is static map reference data shared by games.
type Map struct {
	ID    int64  `db:"id" json:"id"`
	MapID int64  `db:"map_id" json:"map_id"` // Upstream identifier
	Name  string `db:"name" json:"name"`
	Image string `db:"image" json:"image"`
	Slots int    `db:"slots" json:"slots"`
}

// Coalition is a named alliance of players, valid over a day range.
type Coalition struct {
	ID          int64  `db:"id" json:"id"`
	CoalitionID int64  `db:"coalition_id" json:"coalition_id"`
	GameID      int64  `db:"game_id" json:"game_id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	StartDay    int    `db:"start_day" json:"start_day"`
	EndDay      *int   `db:"end_day" json:"end_day,omitempty"`
}

// SyncLog records one run of an upstream sync function for a game.
type SyncLog struct {
	ID       int64     `db:"id" json:"id"`
	GameID   int64     `db:"game_id" json:"game_id"`
	Function string    `db:"function_name" json:"function"`
	Datetime time.Time `db:"datetime" json:"datetime"`
	Success  bool      `db:"success" json:"success"`
}
