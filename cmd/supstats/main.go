// Command supstats serves statistics of tracked Supremacy 1914 games and
// keeps the cached standings fresh.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/supstats/internal/api"
	"github.com/talgya/supstats/internal/cache"
	"github.com/talgya/supstats/internal/config"
	"github.com/talgya/supstats/internal/format"
	"github.com/talgya/supstats/internal/logging"
	"github.com/talgya/supstats/internal/overview"
	"github.com/talgya/supstats/internal/persistence"
	"github.com/talgya/supstats/internal/refresh"
)

func main() {
	configPath := flag.String("config", "supstats.toml", "TOML config file (optional)")
	envFile := flag.String("env", ".env", "dotenv file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log)

	if err := run(cfg); err != nil {
		slog.Error("supstats stopped", "error", err)
		os.Exit(1)
	}
	fmt.Println("supstats stopped.")
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Database ──────────────────────────────────────────────────────
	if cfg.DB.Driver == persistence.DriverSQLite {
		if dir := filepath.Dir(cfg.DB.DSN); dir != "." {
			os.MkdirAll(dir, 0o755)
		}
	}
	db, err := persistence.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "driver", cfg.DB.Driver)

	// ── Standings cache ───────────────────────────────────────────────
	standings := cache.New(cfg.Redis.Addr, cfg.Redis.TTL.Std())
	if standings != nil {
		defer standings.Close()
		if err := standings.Ping(ctx); err != nil {
			slog.Warn("redis not reachable, standings cache will miss", "addr", cfg.Redis.Addr, "error", err)
		}
	} else {
		slog.Warn("SUPSTATS_REDIS_ADDR not set, standings cache disabled")
	}

	svc := overview.NewService(db, format.NewHumanize(), nil)

	// ── Refresh loop ──────────────────────────────────────────────────
	eng := refresh.NewEngine(db, svc, standings, cfg.Refresh.Interval.Std())
	eng.OnGame = api.ObserveRefresh

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.API.AdminKey == "" {
		slog.Warn("SUPSTATS_ADMIN_KEY not set, ingest endpoints will be disabled")
	}
	apiServer := &api.Server{
		Overview:    svc,
		Store:       db,
		Cache:       standings,
		Port:        cfg.API.Port,
		AdminKey:    cfg.API.AdminKey,
		CORSOrigins: cfg.API.CORSOrigins,
		RateLimit:   cfg.API.RateLimit,
	}

	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		eng.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return apiServer.Run(gctx)
	})
	return g.Wait()
}
