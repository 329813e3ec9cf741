package persistence

import (
	"context"
	"fmt"

	"github.com/talgya/supstats/internal/model"
)

// CreateMap inserts map reference data and returns it with its id.
func (db *DB) CreateMap(ctx context.Context, m model.Map) (model.Map, error) {
	id, err := insertID(ctx, db.conn, `INSERT INTO maps (map_id, name, image, slots)
		VALUES (:map_id, :name, :image, :slots)`, m)
	if err != nil {
		return m, fmt.Errorf("create map %d: %w", m.MapID, err)
	}
	m.ID = id
	return m, nil
}

// MapByID returns the map with the given internal id.
func (db *DB) MapByID(ctx context.Context, id int64) (model.Map, error) {
	var m model.Map
	if err := db.get(ctx, db.conn, &m, `SELECT * FROM maps WHERE id = ?`, id); err != nil {
		return m, fmt.Errorf("map %d: %w", id, err)
	}
	return m, nil
}

// CreateGame inserts a tracked game. Times are stored in UTC.
func (db *DB) CreateGame(ctx context.Context, g model.Game) (model.Game, error) {
	g.StartAt = g.StartAt.UTC()
	if g.EndAt != nil {
		t := g.EndAt.UTC()
		g.EndAt = &t
	}
	if g.NextDayTime != nil {
		t := g.NextDayTime.UTC()
		g.NextDayTime = &t
	}

	id, err := insertID(ctx, db.conn, `INSERT INTO games (
		game_id, game_host, start_at, end_at, end_of_game, next_day_time,
		number_of_players, scenario, ranked, gold_round, ai_level, country_selection,
		time_scale, team_setting, team_victory_points, victory_points,
		research_days_offset, research_time_scale,
		track_game, track_players, track_score, track_relations, track_coalitions, track_market,
		map_id
	) VALUES (
		:game_id, :game_host, :start_at, :end_at, :end_of_game, :next_day_time,
		:number_of_players, :scenario, :ranked, :gold_round, :ai_level, :country_selection,
		:time_scale, :team_setting, :team_victory_points, :victory_points,
		:research_days_offset, :research_time_scale,
		:track_game, :track_players, :track_score, :track_relations, :track_coalitions, :track_market,
		:map_id
	)`, g)
	if err != nil {
		return g, fmt.Errorf("create game %d: %w", g.GameID, err)
	}
	g.ID = id
	return g, nil
}

// GameByID returns the game with the given internal id.
func (db *DB) GameByID(ctx context.Context, id int64) (model.Game, error) {
	var g model.Game
	if err := db.get(ctx, db.conn, &g, `SELECT * FROM games WHERE id = ?`, id); err != nil {
		return g, fmt.Errorf("game #%d: %w", id, err)
	}
	return g, nil
}

// GameByExternalID returns the game with the given upstream game id.
func (db *DB) GameByExternalID(ctx context.Context, gameID int64) (model.Game, error) {
	var g model.Game
	if err := db.get(ctx, db.conn, &g, `SELECT * FROM games WHERE game_id = ?`, gameID); err != nil {
		return g, fmt.Errorf("game %d: %w", gameID, err)
	}
	return g, nil
}

// Games lists games, newest start first. With trackedOnly set, games
// whose sync is switched off are skipped.
func (db *DB) Games(ctx context.Context, trackedOnly bool) ([]model.Game, error) {
	query := `SELECT * FROM games ORDER BY start_at DESC, id DESC`
	if trackedOnly {
		query = `SELECT * FROM games WHERE track_game = TRUE ORDER BY start_at DESC, id DESC`
	}
	var games []model.Game
	if err := db.list(ctx, db.conn, &games, query); err != nil {
		return nil, fmt.Errorf("games: %w", err)
	}
	return games, nil
}

// CreateCoalition inserts a coalition for a game.
func (db *DB) CreateCoalition(ctx context.Context, c model.Coalition) (model.Coalition, error) {
	id, err := insertID(ctx, db.conn, `INSERT INTO coalitions (coalition_id, game_id, name, description, start_day, end_day)
		VALUES (:coalition_id, :game_id, :name, :description, :start_day, :end_day)`, c)
	if err != nil {
		return c, fmt.Errorf("create coalition %d: %w", c.CoalitionID, err)
	}
	c.ID = id
	return c, nil
}

// CoalitionsByGame lists a game's coalitions.
func (db *DB) CoalitionsByGame(ctx context.Context, gameID int64) ([]model.Coalition, error) {
	var cs []model.Coalition
	if err := db.list(ctx, db.conn, &cs, `SELECT * FROM coalitions WHERE game_id = ? ORDER BY start_day, id`, gameID); err != nil {
		return nil, fmt.Errorf("coalitions of game %d: %w", gameID, err)
	}
	return cs, nil
}

// LogSync records one sync run for a game.
func (db *DB) LogSync(ctx context.Context, l model.SyncLog) (model.SyncLog, error) {
	l.Datetime = l.Datetime.UTC()
	id, err := insertID(ctx, db.conn, `INSERT INTO sync_logs (game_id, function_name, datetime, success)
		VALUES (:game_id, :function_name, :datetime, :success)`, l)
	if err != nil {
		return l, fmt.Errorf("log sync %s: %w", l.Function, err)
	}
	l.ID = id
	return l, nil
}

// SyncLogs lists a game's sync runs, most recent first.
func (db *DB) SyncLogs(ctx context.Context, gameID int64, limit int) ([]model.SyncLog, error) {
	var logs []model.SyncLog
	if err := db.list(ctx, db.conn, &logs, `SELECT * FROM sync_logs WHERE game_id = ?
		ORDER BY datetime DESC, id DESC LIMIT ?`, gameID, limit); err != nil {
		return nil, fmt.Errorf("sync logs of game %d: %w", gameID, err)
	}
	return logs, nil
}

// CreateUser inserts a site user.
func (db *DB) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	u.RegistrationAt = u.RegistrationAt.UTC()
	id, err := insertID(ctx, db.conn, `INSERT INTO users (name, site_id, email, registration_at, score_military, score_economic)
		VALUES (:name, :site_id, :email, :registration_at, :score_military, :score_economic)`, u)
	if err != nil {
		return u, fmt.Errorf("create user %s: %w", u.Name, err)
	}
	u.ID = id
	return u, nil
}

// UserByID returns the user with the given internal id.
func (db *DB) UserByID(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	if err := db.get(ctx, db.conn, &u, `SELECT * FROM users WHERE id = ?`, id); err != nil {
		return u, fmt.Errorf("user %d: %w", id, err)
	}
	return u, nil
}

// UserBySiteID returns the user with the given upstream account id.
func (db *DB) UserBySiteID(ctx context.Context, siteID int64) (model.User, error) {
	var u model.User
	if err := db.get(ctx, db.conn, &u, `SELECT * FROM users WHERE site_id = ?`, siteID); err != nil {
		return u, fmt.Errorf("user with site id %d: %w", siteID, err)
	}
	return u, nil
}
