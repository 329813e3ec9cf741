package persistence

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/supstats/internal/model"
)

// CreatePlayer inserts a player slot.
func (db *DB) CreatePlayer(ctx context.Context, p model.Player) (model.Player, error) {
	if p.LastLogin != nil {
		t := p.LastLogin.UTC()
		p.LastLogin = &t
	}
	id, err := insertID(ctx, db.conn, `INSERT INTO players (
		player_id, game_id, user_id, start_day, title, name, nation_name,
		primary_color, secondary_color, defeated, last_login,
		computer_player, native_computer, flag_image_id, player_image_id
	) VALUES (
		:player_id, :game_id, :user_id, :start_day, :title, :name, :nation_name,
		:primary_color, :secondary_color, :defeated, :last_login,
		:computer_player, :native_computer, :flag_image_id, :player_image_id
	)`, p)
	if err != nil {
		return p, fmt.Errorf("create player %d: %w", p.PlayerID, err)
	}
	p.ID = id
	return p, nil
}

// PlayerByID returns the player with the given internal id.
func (db *DB) PlayerByID(ctx context.Context, id int64) (model.Player, error) {
	var p model.Player
	if err := db.get(ctx, db.conn, &p, `SELECT * FROM players WHERE id = ?`, id); err != nil {
		return p, fmt.Errorf("player %d: %w", id, err)
	}
	return p, nil
}

// PlayersByGame lists a game's players in slot order.
func (db *DB) PlayersByGame(ctx context.Context, gameID int64) ([]model.Player, error) {
	var ps []model.Player
	if err := db.list(ctx, db.conn, &ps, `SELECT * FROM players WHERE game_id = ? ORDER BY player_id`, gameID); err != nil {
		return nil, fmt.Errorf("players of game %d: %w", gameID, err)
	}
	return ps, nil
}

// PlayerForUser returns the user's player in a game.
func (db *DB) PlayerForUser(ctx context.Context, gameID, userID int64) (model.Player, error) {
	var p model.Player
	if err := db.get(ctx, db.conn, &p, `SELECT * FROM players WHERE game_id = ? AND user_id = ? ORDER BY id LIMIT 1`, gameID, userID); err != nil {
		return p, fmt.Errorf("player of user %d in game %d: %w", userID, gameID, err)
	}
	return p, nil
}

// PlayersByUser lists every player slot a user has held.
func (db *DB) PlayersByUser(ctx context.Context, userID int64) ([]model.Player, error) {
	var ps []model.Player
	if err := db.list(ctx, db.conn, &ps, `SELECT * FROM players WHERE user_id = ? ORDER BY game_id, player_id`, userID); err != nil {
		return nil, fmt.Errorf("players of user %d: %w", userID, err)
	}
	return ps, nil
}

// RecordDays upserts score snapshots keyed by player and day.
func (db *DB) RecordDays(ctx context.Context, days []model.Day) error {
	err := db.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, d := range days {
			if _, err := sqlx.NamedExecContext(ctx, tx, `INSERT INTO days (day, points, player_id, game_id, coalition_id)
				VALUES (:day, :points, :player_id, :game_id, :coalition_id)
				ON CONFLICT (player_id, day) DO UPDATE SET points = excluded.points, coalition_id = excluded.coalition_id`, d); err != nil {
				return fmt.Errorf("player %d day %d: %w", d.PlayerID, d.Day, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record days: %w", err)
	}
	return nil
}

// DaysByPlayer lists a player's snapshots in day order.
func (db *DB) DaysByPlayer(ctx context.Context, playerID int64) ([]model.Day, error) {
	var ds []model.Day
	if err := db.list(ctx, db.conn, &ds, `SELECT * FROM days WHERE player_id = ? ORDER BY day, id`, playerID); err != nil {
		return nil, fmt.Errorf("days of player %d: %w", playerID, err)
	}
	return ds, nil
}

// DaysByGame lists every snapshot of a game's players in day order.
func (db *DB) DaysByGame(ctx context.Context, gameID int64) ([]model.Day, error) {
	var ds []model.Day
	if err := db.list(ctx, db.conn, &ds, `SELECT * FROM days WHERE game_id = ? ORDER BY day, id`, gameID); err != nil {
		return nil, fmt.Errorf("days of game %d: %w", gameID, err)
	}
	return ds, nil
}

// CreateRelation inserts a diplomatic relation.
func (db *DB) CreateRelation(ctx context.Context, r model.Relation) (model.Relation, error) {
	id, err := insertID(ctx, db.conn, `INSERT INTO relations (game_id, player_native_id, player_foreign_id, status, start_day, end_day)
		VALUES (:game_id, :player_native_id, :player_foreign_id, :status, :start_day, :end_day)`, r)
	if err != nil {
		return r, fmt.Errorf("create relation %d->%d: %w", r.PlayerNativeID, r.PlayerForeignID, err)
	}
	r.ID = id
	return r, nil
}

// RelationsByNative lists relations a player holds toward others.
func (db *DB) RelationsByNative(ctx context.Context, playerID int64) ([]model.Relation, error) {
	var rs []model.Relation
	if err := db.list(ctx, db.conn, &rs, `SELECT * FROM relations WHERE player_native_id = ? ORDER BY start_day, id`, playerID); err != nil {
		return nil, fmt.Errorf("native relations of player %d: %w", playerID, err)
	}
	return rs, nil
}

// RelationsByForeign lists relations others hold toward a player.
func (db *DB) RelationsByForeign(ctx context.Context, playerID int64) ([]model.Relation, error) {
	var rs []model.Relation
	if err := db.list(ctx, db.conn, &rs, `SELECT * FROM relations WHERE player_foreign_id = ? ORDER BY start_day, id`, playerID); err != nil {
		return nil, fmt.Errorf("foreign relations of player %d: %w", playerID, err)
	}
	return rs, nil
}

// RelationsByGame lists every relation recorded in a game.
func (db *DB) RelationsByGame(ctx context.Context, gameID int64) ([]model.Relation, error) {
	var rs []model.Relation
	if err := db.list(ctx, db.conn, &rs, `SELECT * FROM relations WHERE game_id = ? ORDER BY start_day, id`, gameID); err != nil {
		return nil, fmt.Errorf("relations of game %d: %w", gameID, err)
	}
	return rs, nil
}
