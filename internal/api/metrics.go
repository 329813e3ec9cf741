package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/talgya/supstats/internal/model"
	"github.com/talgya/supstats/internal/stats"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supstats_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		},
		[]string{"route", "method", "code"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supstats_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supstats_http_rate_limited_total",
		Help: "Requests rejected by the per-IP rate limiter.",
	})

	standingsRefreshed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supstats_standings_refreshed_total",
		Help: "Game standings recomputed and pushed to the cache.",
	})

	standingsPlayers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "supstats_standings_players",
			Help: "Ranked players in the last refresh, by game.",
		},
		[]string{"game_id"},
	)
)

// ObserveRefresh records one refreshed game. It matches the refresh
// engine's OnGame hook.
func ObserveRefresh(game model.Game, rows []stats.Standing) {
	standingsRefreshed.Inc()
	standingsPlayers.WithLabelValues(strconv.FormatInt(game.GameID, 10)).Set(float64(len(rows)))
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument counts and times requests under a fixed route label.
func instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
	}
}
