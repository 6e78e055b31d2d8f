package api

import (
	"fmt"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/AaronLay10/DefusalEngine/internal/events"
	"github.com/AaronLay10/DefusalEngine/internal/session"
	"github.com/AaronLay10/DefusalEngine/internal/version"
)

// Metrics counts session outcomes for the /metrics endpoint. Observe is
// meant to be installed as the runners' observer.
type Metrics struct {
	start   time.Time
	won     atomic.Int64
	lost    atomic.Int64
	strikes atomic.Int64
	solved  atomic.Int64
}

// NewMetrics starts the uptime clock.
func NewMetrics() *Metrics {
	return &Metrics{start: time.Now()}
}

// Observe records one session signal.
func (m *Metrics) Observe(_ string, sig session.Signal) {
	if sig.StrikeOccurred {
		m.strikes.Add(1)
	}
	if sig.ModuleSolved {
		m.solved.Add(1)
	}
	if !sig.Terminal {
		return
	}
	switch sig.State {
	case session.Won:
		m.won.Add(1)
	case session.Lost:
		m.lost.Add(1)
	}
}

// Won returns the number of defused bombs.
func (m *Metrics) Won() int64 { return m.won.Load() }

// Lost returns the number of exploded bombs.
func (m *Metrics) Lost() int64 { return m.lost.Load() }

// Strikes returns the number of strikes across all sessions.
func (m *Metrics) Strikes() int64 { return m.strikes.Load() }

// metricsHandler returns Prometheus-compatible metrics in text format.
func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	writeMetric := func(name, mtype, help string, value interface{}, labels string) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		fmt.Fprintf(w, "%s{%s} %v\n", name, labels, value)
	}

	labels := fmt.Sprintf(`engine="%s",instance="%s",version="%s"`, s.engineID, hostname, version.Version)

	writeMetric("defusal_uptime_seconds", "gauge",
		"Number of seconds since the engine started", time.Since(s.metrics.start).Seconds(), labels)
	writeMetric("defusal_sessions_active", "gauge",
		"Number of sessions with a running timer", s.registry.Active(), labels)
	writeMetric("defusal_sessions_won_total", "counter",
		"Total number of defused bombs", s.metrics.Won(), labels)
	writeMetric("defusal_sessions_lost_total", "counter",
		"Total number of exploded bombs", s.metrics.Lost(), labels)
	writeMetric("defusal_strikes_total", "counter",
		"Total number of strikes", s.metrics.Strikes(), labels)
	writeMetric("defusal_modules_solved_total", "counter",
		"Total number of solved modules", s.metrics.solved.Load(), labels)
	writeMetric("defusal_events_total", "counter",
		"Total number of events emitted since startup", events.TotalCount(), labels)
	writeMetric("defusal_ws_clients", "gauge",
		"Number of active WebSocket client connections", events.SubscriberCount(), labels)
}
