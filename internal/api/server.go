// Package api serves tracked game statistics over HTTP.
// GET endpoints are public and rate limited per IP.
// POST endpoints ingest synced data and require a bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/supstats/internal/cache"
	"github.com/talgya/supstats/internal/format"
	"github.com/talgya/supstats/internal/model"
	"github.com/talgya/supstats/internal/overview"
	"github.com/talgya/supstats/internal/persistence"
)

// Store is the persistence used by the status and ingest endpoints.
type Store interface {
	Ping(ctx context.Context) error
	GameByExternalID(ctx context.Context, gameID int64) (model.Game, error)
	PlayersByGame(ctx context.Context, gameID int64) ([]model.Player, error)
	ResourceByID(ctx context.Context, id int64) (model.Resource, error)
	RecordDays(ctx context.Context, days []model.Day) error
	RecordMarket(ctx context.Context, m model.Market, prices []model.Price, orders []model.Order) (model.Market, []model.Price, error)
	LogSync(ctx context.Context, l model.SyncLog) (model.SyncLog, error)
}

// Server serves the API.
type Server struct {
	Overview    *overview.Service
	Store       Store
	Cache       *cache.Standings // nil disables cached standings
	Port        int
	AdminKey    string // Bearer token for POST endpoints. Empty = POST disabled.
	CORSOrigins []string
	RateLimit   int // Requests per IP per minute on public GETs. 0 = unlimited.

	// Viewer resolves who is asking. Defaults to anonymous.
	Viewer func(*http.Request) format.Viewer

	started time.Time
	limiter *RateLimiter
}

// Handler builds the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	if s.started.IsZero() {
		s.started = time.Now()
	}
	if s.RateLimit > 0 && s.limiter == nil {
		s.limiter = NewRateLimiter(s.RateLimit, time.Minute)
	}

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", instrument("status", s.handleStatus))
	mux.HandleFunc("/api/v1/games", s.public("games", s.handleGames))
	mux.HandleFunc("/api/v1/game/", s.handleGameRoutes)
	mux.HandleFunc("/api/v1/player/", s.public("player", s.handlePlayer))
	mux.HandleFunc("/api/v1/user/", s.public("user", s.handleUser))
	mux.HandleFunc("/api/v1/relations/statuses", s.public("relation_statuses", s.handleRelationStatuses))
	mux.HandleFunc("/api/v1/relations/status/", s.public("relation_status", s.handleRelationStatus))

	mux.Handle("/metrics", promhttp.Handler())

	return requestID(accessLog(corsMiddleware(s.CORSOrigins, mux)))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "", "cache", s.Cache != nil)

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					slog.Error("HTTP shutdown", "error", err)
				}
				return
			case <-ticker.C:
				if s.limiter != nil {
					s.limiter.Cleanup()
				}
			}
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// public wraps a GET endpoint with method check, rate limiting and metrics.
func (s *Server) public(route string, next http.HandlerFunc) http.HandlerFunc {
	h := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
	if s.limiter != nil {
		h = RateLimitMiddleware(s.limiter, h)
	}
	return instrument(route, h)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range origins {
		allowedOrigins[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey int

const requestIDKey ctxKey = iota

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// requestID tags each request with an id, reusing the caller's if sent.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// RequestID returns the id assigned to the request, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", RequestID(r.Context()),
		)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no SUPSTATS_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) viewer(r *http.Request) format.Viewer {
	if s.Viewer == nil {
		return format.Anonymous{}
	}
	if v := s.Viewer(r); v != nil {
		return v
	}
	return format.Anonymous{}
}

// pathParts splits the URL path into its non-empty segments.
func pathParts(r *http.Request) []string {
	return strings.Split(strings.Trim(r.URL.Path, "/"), "/")
}

// parseID parses an entity id from the path. Malformed ids are reported
// as missing entities, never as server errors.
func parseID(w http.ResponseWriter, raw, entity string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, entity+" not found", http.StatusNotFound)
		return 0, false
	}
	return id, true
}

// writeError maps lookup misses to 404 and logs everything else as 500.
func writeError(w http.ResponseWriter, r *http.Request, entity string, err error) {
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, entity+" not found", http.StatusNotFound)
		return
	}
	slog.Error("request failed", "path", r.URL.Path, "request_id", RequestID(r.Context()), "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
