// Package metrics exposes the Prometheus counters and histograms the
// resolver, server loop and cmd/overdnsd's config reload loop update. Exposing them for scraping
// (registering an HTTP handler) is left to cmd/overdnsd; this package only
// owns the collectors themselves.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Queries counts every decoded query by how it was answered.
	Queries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "overdns_queries_total", Help: "Total queries handled, by outcome."},
		[]string{"result"}, // local | forwarded | error
	)

	// ForwardDuration measures the time spent contacting upstreams for a
	// single request, across all attempts.
	ForwardDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "overdns_forward_duration_seconds",
			Help:    "Time spent forwarding a query to upstream resolvers.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"}, // success | exhausted
	)

	// UpstreamFailures counts per-upstream send/receive/timeout failures.
	UpstreamFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "overdns_upstream_failures_total", Help: "Per-upstream forwarding failures."},
		[]string{"upstream"},
	)

	// Reloads counts config reload attempts by outcome.
	Reloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "overdns_reloads_total", Help: "Config reload attempts, by outcome."},
		[]string{"result"}, // ok | error
	)
)

func init() {
	prometheus.MustRegister(Queries, ForwardDuration, UpstreamFailures, Reloads)
}

// ObserveForward records the outcome and elapsed time of one forwarding
// attempt chain.
func ObserveForward(outcome string, elapsed time.Duration) {
	ForwardDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
