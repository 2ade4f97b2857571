// Package metrics exports Prometheus collectors for the HTTP layer, the drug
// catalog build and the automedication evaluator. Everything registers with
// the default registry at init and is served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "automedication"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Number of rate limiter buckets (clients seen recently)",
		},
	)

	CatalogDrugs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_drugs",
			Help:      "Number of drugs in the served catalog",
		},
	)

	CatalogDuplicates = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_discarded_duplicates",
			Help:      "Header rows discarded as duplicates in the last build",
		},
	)

	CatalogBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_build_duration_seconds",
			Help:      "Time spent building the drug catalog",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	CatalogBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_builds_total",
			Help:      "Catalog builds by outcome",
		},
		[]string{"outcome"},
	)

	CatalogLastBuild = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_last_build_timestamp_seconds",
			Help:      "Unix time of the last successful catalog build",
		},
	)

	RiskEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_evaluations_total",
			Help:      "Automedication evaluations by resulting score",
		},
		[]string{"score"},
	)

	StoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Question/tag store failures by operation",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestTotals,
		HTTPRequestDuration,
		HTTPRequestInFlight,
		RateLimiterBucketsTotal,
		CatalogDrugs,
		CatalogDuplicates,
		CatalogBuildDuration,
		CatalogBuildsTotal,
		CatalogLastBuild,
		RiskEvaluationsTotal,
		StoreErrorsTotal,
	)
}
