// Package config loads server settings from an optional TOML file, an
// optional .env file and the environment, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Log     LogConfig     `toml:"log"`
	DB      DBConfig      `toml:"db"`
	API     APIConfig     `toml:"api"`
	Redis   RedisConfig   `toml:"redis"`
	Refresh RefreshConfig `toml:"refresh"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"` // "text", "json" or "auto"
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Driver string `toml:"driver"` // "sqlite" or "postgres"
	DSN    string `toml:"dsn"`
}

type APIConfig struct {
	Port        int      `toml:"port"`
	AdminKey    string   `toml:"admin_key"`
	CORSOrigins []string `toml:"cors_origins"`
	RateLimit   int      `toml:"rate_limit"` // Requests per IP per minute
}

type RedisConfig struct {
	Addr string   `toml:"addr"` // Empty disables the standings cache
	TTL  Duration `toml:"ttl"`
}

type RefreshConfig struct {
	Interval Duration `toml:"interval"`
}

// Duration is a time.Duration written as a string such as "5m".
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Log: LogConfig{Level: slog.LevelInfo, Format: "auto"},
		DB:  DBConfig{Driver: "sqlite", DSN: "data/supstats.db"},
		API: APIConfig{Port: 8080, RateLimit: 120},
		Redis: RedisConfig{
			TTL: Duration(30 * time.Minute),
		},
		Refresh: RefreshConfig{Interval: Duration(5 * time.Minute)},
	}
}

// Load reads the TOML file at path (skipped when path is empty or the
// file is missing), then envFile, then the process environment.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Debug("config file not found, using defaults", "path", path)
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("SUPSTATS_LOG_LEVEL"); v != "" {
		if err := c.Log.Level.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("SUPSTATS_LOG_LEVEL: %w", err)
		}
	}
	if v := getenv("SUPSTATS_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := getenv("SUPSTATS_DB_DRIVER"); v != "" {
		c.DB.Driver = v
	}
	if v := getenv("SUPSTATS_DB_DSN"); v != "" {
		c.DB.DSN = v
	}
	if v := getenv("SUPSTATS_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SUPSTATS_API_PORT: %w", err)
		}
		c.API.Port = port
	}
	if v := getenv("SUPSTATS_ADMIN_KEY"); v != "" {
		c.API.AdminKey = v
	}
	if v := getenv("CORS_ORIGINS"); v != "" {
		c.API.CORSOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.API.CORSOrigins = append(c.API.CORSOrigins, origin)
			}
		}
	}
	if v := getenv("SUPSTATS_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv("SUPSTATS_REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SUPSTATS_REFRESH_INTERVAL: %w", err)
		}
		c.Refresh.Interval = Duration(d)
	}
	return nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("db.driver %q: want sqlite or postgres", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return errors.New("db.dsn is empty")
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval %s must be positive", c.Refresh.Interval.Std())
	}
	switch c.Log.Format {
	case "text", "json", "auto":
	default:
		return fmt.Errorf("log.format %q: want text, json or auto", c.Log.Format)
	}
	return nil
}
