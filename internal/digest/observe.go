// Package digest watches tracked games through the public API and
// summarizes who is rising, who is falling and how prices moved.
package digest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/talgya/supstats/internal/overview"
)

// ErrNotFound is returned when the API has no such game or market.
var ErrNotFound = errors.New("not found")

// Snapshot holds all data collected for one game.
type Snapshot struct {
	Status Status                 `json:"status"`
	Game   overview.GameOverview  `json:"game"`
	Market *overview.MarketDetail `json:"market,omitempty"` // nil when the game has no market yet
}

// Status mirrors GET /api/v1/status.
type Status struct {
	Name     string `json:"name"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// Observer fetches game state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches the status, game overview and latest market of a game.
func (o *Observer) Observe(ctx context.Context, gameID int64) (*Snapshot, error) {
	snap := &Snapshot{}
	base := "/api/v1/game/" + strconv.FormatInt(gameID, 10)

	if err := o.fetchJSON(ctx, "/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON(ctx, base, &snap.Game); err != nil {
		return nil, fmt.Errorf("fetch game %d: %w", gameID, err)
	}

	var m overview.MarketDetail
	switch err := o.fetchJSON(ctx, base+"/market", &m); {
	case err == nil:
		snap.Market = &m
	case errors.Is(err, ErrNotFound):
	default:
		return nil, fmt.Errorf("fetch market of game %d: %w", gameID, err)
	}
	return snap, nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("GET %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// WaitForAPI polls the status endpoint with exponential backoff until it
// responds, ctx ends or maxWait passes.
func (o *Observer) WaitForAPI(ctx context.Context, backoff, maxBackoff, maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)
	for {
		var st Status
		err := o.fetchJSON(ctx, "/api/v1/status", &st)
		if err == nil {
			slog.Info("supstats API is ready", "database", st.Database)
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("API not ready after %s: %w", maxWait, err)
		}
		slog.Info("API not ready, retrying...", "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
