// Package metrics holds the prometheus collectors for the reporting engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scopeSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "downline_scope_size",
		Help:    "Members in a resolved team scope",
		Buckets: []float64{1, 5, 25, 100, 500, 1000, 2500},
	})

	scopeTruncatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "downline_scope_truncated_total",
		Help: "Scope resolutions that stopped at the traversal limit",
	})

	aggregateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "downline_aggregate_duration_seconds",
		Help:    "Time to aggregate a team report",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1},
	}, []string{"granularity"})

	dealsScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "downline_deals_scanned_total",
		Help: "Deals read from the store for aggregation",
	})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "downline_store_fetch_duration_seconds",
		Help:    "Time to fetch a snapshot from the store",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"kind"})

	ingestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "downline_ingested_total",
		Help: "Records ingested by kind and outcome",
	}, []string{"kind", "outcome"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "downline_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"route", "status"})
)

// ObserveScope records the size of a resolved scope.
func ObserveScope(size int, truncated bool) {
	scopeSize.Observe(float64(size))
	if truncated {
		scopeTruncatedTotal.Inc()
	}
}

// ObserveAggregate records one aggregation run.
func ObserveAggregate(granularity string, dealsScanned int, elapsed time.Duration) {
	aggregateDuration.WithLabelValues(granularity).Observe(elapsed.Seconds())
	dealsScannedTotal.Add(float64(dealsScanned))
}

// ObserveFetch records a store read for kind ("members" or "deals").
func ObserveFetch(kind string, elapsed time.Duration) {
	fetchDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveIngest counts one ingested record.
func ObserveIngest(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ingestedTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveRequest counts one HTTP request.
func ObserveRequest(route string, status int) {
	httpRequestsTotal.WithLabelValues(route, http.StatusText(status)).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
