// Package metrics registers the service's prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PollCycles counts presenter poll cycles by outcome
	// (ok, error, stale).
	PollCycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aoeboard",
		Name:      "poll_cycles_total",
		Help:      "Stats source poll cycles by result",
	}, []string{"result"})

	// MatchesDisplayed is the size of the current display snapshot.
	MatchesDisplayed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "aoeboard",
		Name:      "matches_displayed",
		Help:      "Matches in the currently displayed snapshot",
	})

	// ReplaysIngested counts replays accepted by /api/parse_replay.
	ReplaysIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "aoeboard",
		Name:      "replays_ingested_total",
		Help:      "Replays stored via the parse endpoint",
	})
)

func init() {
	prometheus.MustRegister(PollCycles, MatchesDisplayed, ReplaysIngested)
}

// Handler exposes the default registry for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
