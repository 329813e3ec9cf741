package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/supstats/internal/format"
	"github.com/talgya/supstats/internal/model"
	"github.com/talgya/supstats/internal/overview"
	"github.com/talgya/supstats/internal/persistence"
)

const testAdminKey = "s3cret"

type testEnv struct {
	srv   *Server
	h     http.Handler
	db    *persistence.DB
	game  model.Game
	alice model.Player
	grain model.Resource
}

func newTestEnv(t *testing.T, mutate func(*Server)) *testEnv {
	t.Helper()
	ctx := context.Background()
	db, err := persistence.Open(persistence.DriverSQLite, filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{db: db}
	env.game, err = db.CreateGame(ctx, model.Game{
		GameID:    5550001,
		StartAt:   time.Now().Add(-72 * time.Hour),
		TimeScale: decimal.NewFromInt(1),
		TrackGame: true,
	})
	require.NoError(t, err)
	u, err := db.CreateUser(ctx, model.User{Name: "alice", SiteID: 42, RegistrationAt: time.Now()})
	require.NoError(t, err)
	env.alice, err = db.CreatePlayer(ctx, model.Player{PlayerID: 1, GameID: env.game.ID, UserID: &u.ID,
		Name: "Alice", NationName: "Germany", FlagImageID: model.NoImage, PlayerImageID: model.NoImage})
	require.NoError(t, err)
	_, err = db.CreatePlayer(ctx, model.Player{PlayerID: 2, GameID: env.game.ID,
		Name: "AI", NationName: "Italy", FlagImageID: model.NoImage, PlayerImageID: model.NoImage})
	require.NoError(t, err)
	env.grain, err = db.CreateResource(ctx, model.Resource{Name: "Grain"})
	require.NoError(t, err)

	env.srv = &Server{
		Overview: overview.NewService(db, nil, nil),
		Store:    db,
		AdminKey: testAdminKey,
	}
	if mutate != nil {
		mutate(env.srv)
	}
	env.h = env.srv.Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

var admin = map[string]string{"Authorization": "Bearer " + testAdminKey}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["database"])
	assert.Equal(t, "disabled", body["cache"])
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	tests := []string{
		"/api/v1/game/abc",
		"/api/v1/game/-4",
		"/api/v1/game/999",
		"/api/v1/game/5550001/unknown",
		"/api/v1/game/5550001/market",
		"/api/v1/game/5550001/market?market=x",
		"/api/v1/player/xyz",
		"/api/v1/player/12345",
		"/api/v1/user/0",
		"/api/v1/relations/status/war",
	}
	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, path, "", nil).Code)
		})
	}
}

func TestRelationStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	tests := []struct {
		code  string
		label string
	}{
		{"-2", "war"},
		{"7", "army-command"},
		{"99", "unknown"},
	}
	for _, tt := range tests {
		rec := env.do(t, http.MethodGet, "/api/v1/relations/status/"+tt.code, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var got statusEntry
		decode(t, rec, &got)
		assert.Equal(t, tt.label, got.Label)
	}

	var all []statusEntry
	decode(t, env.do(t, http.MethodGet, "/api/v1/relations/statuses", "", nil), &all)
	require.Len(t, all, 8)
	assert.Equal(t, "army-command", all[0].Label)
	assert.Equal(t, "war", all[7].Label)
}

func TestDaysIngestAuth(t *testing.T) {
	body := `{"day": 3, "scores": [{"player_id": 1, "points": 100}]}`
	path := "/api/v1/game/5550001/days"

	env := newTestEnv(t, nil)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, path, body, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, path, body, map[string]string{"Authorization": "Bearer nope"}).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, env.do(t, http.MethodGet, path, "", admin).Code)

	disabled := newTestEnv(t, func(s *Server) { s.AdminKey = "" })
	assert.Equal(t, http.StatusForbidden, disabled.do(t, http.MethodPost, path, body, admin).Code)
}

func TestDaysIngestAndOverview(t *testing.T) {
	env := newTestEnv(t, nil)
	path := "/api/v1/game/5550001/days"

	rec := env.do(t, http.MethodPost, path, `{"day": 2, "scores": [{"player_id": 1, "points": 100}, {"player_id": 2, "points": 90}]}`, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = env.do(t, http.MethodPost, path, `{"day": 3, "scores": [{"player_id": 1, "points": 150}, {"player_id": 2, "points": 200}]}`, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, path, `{"day": 3, "scores": [{"player_id": 9, "points": 1}]}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, path, `{"day": "three"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	logs, err := env.db.SyncLogs(context.Background(), env.game.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 4)
	assert.False(t, logs[0].Success)
	assert.True(t, logs[3].Success)

	var game overview.GameOverview
	rec = env.do(t, http.MethodGet, "/api/v1/game/5550001", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &game)
	assert.Equal(t, 3, game.LastDay)
	assert.Equal(t, 5, game.Day)
	assert.Contains(t, game.SiteURL, "&mode=guest")
	require.Len(t, game.Standings, 2)
	assert.Equal(t, "Italy", game.Standings[0].Player.NationName)
	assert.Equal(t, 50.0, game.Standings[1].DayTrend)

	var standings struct {
		Source    string                 `json:"source"`
		Standings []overview.StandingRow `json:"standings"`
	}
	rec = env.do(t, http.MethodGet, "/api/v1/game/5550001/standings?limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &standings)
	assert.Equal(t, "db", standings.Source)
	assert.Len(t, standings.Standings, 1)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/game/5550001/standings?limit=0", "", nil).Code)

	var detail overview.PlayerDetail
	rec = env.do(t, http.MethodGet, format.PlayerRoute(env.alice), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &detail)
	assert.Equal(t, 150, detail.Points)
	require.NotNil(t, detail.DayTrend)
	assert.Equal(t, 50.0, *detail.DayTrend)
	assert.Nil(t, detail.WeekTrend)
}

func TestViewerResolution(t *testing.T) {
	env := newTestEnv(t, func(s *Server) {
		s.Viewer = func(r *http.Request) format.Viewer {
			if r.Header.Get("X-Test-User") == "" {
				return nil
			}
			return format.SiteUser{ID: 1, Site: 42}
		}
	})

	var game overview.GameOverview
	decode(t, env.do(t, http.MethodGet, "/api/v1/game/5550001", "", map[string]string{"X-Test-User": "1"}), &game)
	assert.Contains(t, game.SiteURL, "&uid=42")

	decode(t, env.do(t, http.MethodGet, "/api/v1/game/5550001", "", nil), &game)
	assert.Contains(t, game.SiteURL, "&mode=guest")
}

func TestMarketIngest(t *testing.T) {
	env := newTestEnv(t, nil)
	path := "/api/v1/game/5550001/market"
	first := `{"datetime": "2026-03-02T10:00:00Z", "prices": [{"resource_id": %d, "value": "2.0", "buy": true}],
		"orders": [{"order_id": 1, "player_id": 1, "resource_id": %d, "amount": 100, "limit": "1.9", "buy": true}]}`
	second := `{"datetime": "2026-03-02T16:00:00Z", "prices": [{"resource_id": %d, "value": "3.0", "buy": true}]}`

	rec := env.do(t, http.MethodPost, path, sprintf(first, env.grain.ID, env.grain.ID), admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = env.do(t, http.MethodPost, path, sprintf(second, env.grain.ID), admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, path, sprintf(second, env.grain.ID+50), admin).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, path, `{"prices": []}`, admin).Code)

	var detail overview.MarketDetail
	rec = env.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &detail)
	require.NotNil(t, detail.Previous)
	require.Len(t, detail.Prices, 1)
	require.NotNil(t, detail.Prices[0].Change)
	assert.Equal(t, 50.0, detail.Prices[0].Change.Percent)
	assert.Len(t, detail.Markets, 2)

	rec = env.do(t, http.MethodGet, path+"?market="+itoa(detail.Previous.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &detail)
	require.Len(t, detail.Orders, 1)
	require.NotNil(t, detail.Orders[0].PlayerID)
	assert.Equal(t, env.alice.ID, *detail.Orders[0].PlayerID)
}

func TestRateLimitedGets(t *testing.T) {
	env := newTestEnv(t, func(s *Server) { s.RateLimit = 2 })
	h := map[string]string{"X-Forwarded-For": "203.0.113.9"}

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/games", "", h).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/games", "", h).Code)
	rec := env.do(t, http.MethodGet, "/api/v1/games", "", h)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Status is never limited.
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/status", "", h).Code)
	// Another client has its own bucket.
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/games", "", map[string]string{"X-Forwarded-For": "198.51.100.1"}).Code)
}

func TestCORSAndRequestID(t *testing.T) {
	env := newTestEnv(t, func(s *Server) { s.CORSOrigins = []string{"https://stats.example.com"} })

	rec := env.do(t, http.MethodOptions, "/api/v1/games", "", map[string]string{"Origin": "https://stats.example.com"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://stats.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = env.do(t, http.MethodGet, "/api/v1/games", "", map[string]string{"Origin": "https://evil.example.com"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	rec = env.do(t, http.MethodGet, "/api/v1/games", "", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodGet, "/api/v1/games", "", nil)

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `supstats_http_requests_total{code="200",method="GET",route="games"}`)
}
