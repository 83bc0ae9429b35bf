package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics shared across the greencheck service.
// Package-local metrics (store latencies, publisher drops) live next to the
// code that records them.
type Metrics struct {
	ChecksTotal     *prometheus.CounterVec
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	ResolverHops    prometheus.Histogram
	DomainsImported prometheus.Counter
	ClaimsSucceeded prometheus.Counter
	ClaimsFailed    prometheus.Counter
	RequestLatency  *prometheus.HistogramVec
}

// New creates and registers all shared Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "greencheck_checks_total",
			Help: "Total domain checks, labelled by outcome and match type",
		}, []string{"green", "match_type"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "greencheck_cache_hits_total",
			Help: "Green domain cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "greencheck_cache_misses_total",
			Help: "Green domain cache misses",
		}),
		ResolverHops: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "greencheck_resolver_hops",
			Help:    "Delegation hops taken per carbon.txt resolution",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		}),
		DomainsImported: promauto.NewCounter(prometheus.CounterOpts{
			Name: "greencheck_domains_imported_total",
			Help: "Green domains created through manifest import",
		}),
		ClaimsSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "greencheck_claims_succeeded_total",
			Help: "Successful carbon.txt domain claims",
		}),
		ClaimsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "greencheck_claims_failed_total",
			Help: "Domain claims rejected for missing or mismatched hashes",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "greencheck_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
