// Package metrics exposes process-wide Prometheus instrumentation for the
// aggregation pipeline and its upstream clients.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests counts outbound API calls by upstream and outcome.
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "castscope",
		Name:      "upstream_requests_total",
		Help:      "Outbound upstream API requests by upstream and outcome.",
	}, []string{"upstream", "outcome"})

	// FeedBuilds counts comprehensive-feed pipeline runs by result.
	FeedBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "castscope",
		Name:      "feed_builds_total",
		Help:      "Comprehensive feed builds by result (ok, empty, error).",
	}, []string{"result"})

	// FeedBuildDuration observes end-to-end pipeline latency.
	FeedBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "castscope",
		Name:      "feed_build_duration_seconds",
		Help:      "End-to-end comprehensive feed build duration.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	// UpstreamUp reports the last availability probe result per upstream.
	UpstreamUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "castscope",
		Name:      "upstream_up",
		Help:      "Whether the last availability probe of an upstream succeeded.",
	}, []string{"upstream"})
)

// Outcome labels for UpstreamRequests.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)
