// Package metrics exposes Prometheus counters and gauges over /metrics,
// generalizing the teacher's infrastructure/prometheus/promclient.go from
// two hardcoded per-venue "open order book" gauges into the session and
// book-lifecycle metrics this process actually needs to operate.
package metrics

import (
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var logger = log.New(os.Stdout, "[metrics] ", log.LstdFlags)

var (
	SessionState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "venue_session_state",
			Help: "current session state per venue (domain.SessionState ordinal)",
		},
		[]string{"venue"},
	)

	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_sessions_started_total",
			Help: "number of times a venue session loop attempted to connect",
		},
		[]string{"venue"},
	)

	Desyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_desyncs_total",
			Help: "number of times a venue session ended with a continuity desync",
		},
		[]string{"venue"},
	)

	Disconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_disconnects_total",
			Help: "number of times a venue session ended with a transport disconnect",
		},
		[]string{"venue"},
	)

	SubscriberCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "publisher_subscribers",
			Help: "number of BookSummary RPC subscribers currently attached",
		},
	)

	BookLevels = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aggregated_book_levels",
			Help: "number of price levels currently in the top-N view, per side",
		},
		[]string{"side"},
	)
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(
		SessionState,
		SessionsStarted,
		Desyncs,
		Disconnects,
		SubscriberCount,
		BookLevels,
		collectors.NewGoCollector(),
	)
}

// Serve starts the Prometheus HTTP handler and blocks until the listener
// fails. Call it from its own goroutine.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	logger.Printf("listening at %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Printf("server stopped: %v", err)
	}
}
