package model

import "time"

// User is a registered site account. Players linked to a user are human.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	SiteID         int64     `db:"site_id" json:"site_id"` // Upstream account id
	Email          *string   `db:"email" json:"email,omitempty"`
	RegistrationAt time.Time `db:"registration_at" json:"registration_at"`
	ScoreMilitary  int       `db:"score_military" json:"score_military"`
	ScoreEconomic  int       `db:"score_economic" json:"score_economic"`
}

// NoImage marks a player without a custom uploaded image.
const NoImage = -1

// Player is a nation slot within one game.
type Player struct {
	ID       int64  `db:"id" json:"id"`
	PlayerID int64  `db:"player_id" json:"player_id"` // In-game slot id
	GameID   int64  `db:"game_id" json:"game_id"`
	UserID   *int64 `db:"user_id" json:"user_id,omitempty"` // nil = AI controlled
	StartDay int    `db:"start_day" json:"start_day"`

	Title      string `db:"title" json:"title"`
	Name       string `db:"name" json:"name"`
	NationName string `db:"nation_name" json:"nation_name"`

	PrimaryColor   string `db:"primary_color" json:"primary_color"`
	SecondaryColor string `db:"secondary_color" json:"secondary_color"`

	Defeated       bool       `db:"defeated" json:"defeated"`
	LastLogin      *time.Time `db:"last_login" json:"last_login,omitempty"`
	ComputerPlayer bool       `db:"computer_player" json:"computer_player"`
	NativeComputer bool       `db:"native_computer" json:"native_computer"`

	FlagImageID   int64 `db:"flag_image_id" json:"flag_image_id"`
	PlayerImageID int64 `db:"player_image_id" json:"player_image_id"`
}

// Human reports whether a site user controls the player.
func (p Player) Human() bool {
	return p.UserID != nil
}

// Day is one score snapshot for a player on an in-game day.
type Day struct {
	ID          int64  `db:"id" json:"id"`
	Day         int    `db:"day" json:"day"`
	Points      int    `db:"points" json:"points"`
	PlayerID    int64  `db:"player_id" json:"player_id"`
	GameID      int64  `db:"game_id" json:"game_id"`
	CoalitionID *int64 `db:"coalition_id" json:"coalition_id,omitempty"`
}

// Relation is the diplomatic status one player (native) holds toward
// another (foreign), valid from StartDay through EndDay.
type Relation struct {
	ID              int64 `db:"id" json:"id"`
	GameID          int64 `db:"game_id" json:"game_id"`
	PlayerNativeID  int64 `db:"player_native_id" json:"player_native_id"`
	PlayerForeignID int64 `db:"player_foreign_id" json:"player_foreign_id"`
	Status          int   `db:"status" json:"status"`
	StartDay        int   `db:"start_day" json:"start_day"`
	EndDay          *int  `db:"end_day" json:"end_day,omitempty"`
}
