package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BacktestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pairs_backtests_total", Help: "Backtests run, by outcome"},
		[]string{"status"},
	)
	EpisodesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pairs_episodes_total", Help: "Trade episodes produced, by signal"},
		[]string{"signal"},
	)
	RankDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pairs_rank_duration_seconds",
			Help:    "Wall time of correlation ranking",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(BacktestsTotal, EpisodesTotal, RankDuration)
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Serve starts a standalone metrics endpoint for long-running CLI jobs.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
