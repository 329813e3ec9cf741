// Package persistence stores tracked games in SQLite or PostgreSQL.
// Relationships are loaded through explicit query functions; nothing is
// fetched lazily.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("not found")

const resourceCacheSize = 64

// DB wraps a database connection holding tracked game data.
type DB struct {
	conn      *sqlx.DB
	driver    string
	resources *lru.Cache
}

// Open connects with the given driver and creates the schema if needed.
// For SQLite dsn is a file path.
func Open(driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite:
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if driver == DriverSQLite {
		// Keeps the foreign_keys pragma on every statement.
		conn.SetMaxOpenConns(1)
	}

	cache, err := lru.New(resourceCacheSize)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("resource cache: %w", err)
	}

	db := &DB{conn: conn, driver: driver, resources: cache}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Debug("database ready", "driver", driver)
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Driver returns the driver name the database was opened with.
func (db *DB) Driver() string {
	return db.driver
}

func (db *DB) migrate() error {
	pk, dec := "INTEGER PRIMARY KEY", "TEXT"
	if db.driver == DriverPostgres {
		pk, dec = "BIGSERIAL PRIMARY KEY", "NUMERIC(4,1)"
	}
	schema := strings.NewReplacer("{{pk}}", pk, "{{decimal}}", dec).Replace(schemaTemplate)

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return stmt[:i]
	}
	return stmt
}

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS maps (
	id {{pk}},
	map_id BIGINT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	image TEXT NOT NULL DEFAULT '',
	slots INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS users (
	id {{pk}},
	name TEXT NOT NULL UNIQUE,
	site_id BIGINT NOT NULL UNIQUE,
	email TEXT UNIQUE,
	registration_at TIMESTAMP NOT NULL,
	score_military INTEGER NOT NULL DEFAULT 0,
	score_economic INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS games (
	id {{pk}},
	game_id BIGINT NOT NULL UNIQUE,
	game_host TEXT NOT NULL DEFAULT '',
	start_at TIMESTAMP NOT NULL,
	end_at TIMESTAMP,
	end_of_game BOOLEAN NOT NULL DEFAULT FALSE,
	next_day_time TIMESTAMP,
	number_of_players INTEGER NOT NULL DEFAULT 0,
	scenario INTEGER NOT NULL DEFAULT 0,
	ranked INTEGER NOT NULL DEFAULT 0,
	gold_round BOOLEAN NOT NULL DEFAULT FALSE,
	ai_level INTEGER NOT NULL DEFAULT 0,
	country_selection INTEGER NOT NULL DEFAULT 0,
	time_scale {{decimal}} NOT NULL DEFAULT 1,
	team_setting INTEGER NOT NULL DEFAULT 0,
	team_victory_points INTEGER NOT NULL DEFAULT 0,
	victory_points INTEGER NOT NULL DEFAULT 0,
	research_days_offset INTEGER NOT NULL DEFAULT 0,
	research_time_scale {{decimal}} NOT NULL DEFAULT 1,
	track_game BOOLEAN NOT NULL DEFAULT FALSE,
	track_players BOOLEAN NOT NULL DEFAULT FALSE,
	track_score BOOLEAN NOT NULL DEFAULT FALSE,
	track_relations BOOLEAN NOT NULL DEFAULT FALSE,
	track_coalitions BOOLEAN NOT NULL DEFAULT FALSE,
	track_market BOOLEAN NOT NULL DEFAULT FALSE,
	map_id BIGINT REFERENCES maps(id)
);

CREATE TABLE IF NOT EXISTS coalitions (
	id {{pk}},
	coalition_id BIGINT NOT NULL,
	game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	name TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	start_day INTEGER NOT NULL DEFAULT 0,
	end_day INTEGER
);

CREATE TABLE IF NOT EXISTS players (
	id {{pk}},
	player_id BIGINT NOT NULL,
	game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
	start_day INTEGER NOT NULL DEFAULT 0,
	title TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	nation_name TEXT NOT NULL,
	primary_color TEXT NOT NULL DEFAULT '',
	secondary_color TEXT NOT NULL DEFAULT '',
	defeated BOOLEAN NOT NULL DEFAULT FALSE,
	last_login TIMESTAMP,
	computer_player BOOLEAN NOT NULL DEFAULT FALSE,
	native_computer BOOLEAN NOT NULL DEFAULT FALSE,
	flag_image_id BIGINT NOT NULL DEFAULT -1,
	player_image_id BIGINT NOT NULL DEFAULT -1,
	UNIQUE (game_id, player_id)
);

CREATE TABLE IF NOT EXISTS days (
	id {{pk}},
	day INTEGER NOT NULL,
	points INTEGER NOT NULL,
	player_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
	game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	coalition_id BIGINT REFERENCES coalitions(id) ON DELETE SET NULL,
	UNIQUE (player_id, day)
);

CREATE TABLE IF NOT EXISTS relations (
	id {{pk}},
	game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	player_native_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
	player_foreign_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
	status INTEGER NOT NULL,
	start_day INTEGER NOT NULL,
	end_day INTEGER
);

CREATE TABLE IF NOT EXISTS resources (
	id {{pk}},
	name TEXT NOT NULL,
	color TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS markets (
	id {{pk}},
	game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	datetime TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS prices (
	id {{pk}},
	market_id BIGINT NOT NULL REFERENCES markets(id) ON DELETE CASCADE,
	resource_id BIGINT NOT NULL REFERENCES resources(id),
	value {{decimal}} NOT NULL,
	buy BOOLEAN NOT NULL DEFAULT FALSE,
	previous_id BIGINT REFERENCES prices(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS orders (
	id {{pk}},
	order_id BIGINT NOT NULL,
	market_id BIGINT NOT NULL REFERENCES markets(id) ON DELETE CASCADE,
	player_id BIGINT REFERENCES players(id) ON DELETE SET NULL,
	resource_id BIGINT NOT NULL REFERENCES resources(id),
	amount INTEGER NOT NULL,
	limit_price {{decimal}} NOT NULL,
	buy BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS sync_logs (
	id {{pk}},
	game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	function_name TEXT NOT NULL,
	datetime TIMESTAMP NOT NULL,
	success BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_players_game ON players(game_id);
CREATE INDEX IF NOT EXISTS idx_days_game ON days(game_id);
CREATE INDEX IF NOT EXISTS idx_relations_native ON relations(player_native_id);
CREATE INDEX IF NOT EXISTS idx_relations_foreign ON relations(player_foreign_id);
CREATE INDEX IF NOT EXISTS idx_markets_game ON markets(game_id, datetime);
CREATE INDEX IF NOT EXISTS idx_prices_market ON prices(market_id);
`

// insertID runs a named INSERT and returns the generated id.
func insertID(ctx context.Context, q sqlx.ExtContext, query string, arg any) (int64, error) {
	rows, err := sqlx.NamedQueryContext(ctx, q, query+" RETURNING id", arg)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, errors.New("insert returned no id")
	}
	var id int64
	if err := rows.Scan(&id); err != nil {
		return 0, err
	}
	return id, rows.Err()
}

// get runs a single-row query, mapping no rows to ErrNotFound.
func (db *DB) get(ctx context.Context, q sqlx.QueryerContext, dest any, query string, args ...any) error {
	err := sqlx.GetContext(ctx, q, dest, db.conn.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// list runs a multi-row query; no rows is an empty result.
func (db *DB) list(ctx context.Context, q sqlx.QueryerContext, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q, dest, db.conn.Rebind(query), args...)
}

// inTx runs fn in a transaction, rolling back on error.
func (db *DB) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
