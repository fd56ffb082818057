package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fxproxy"

// Upstream fetch outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder owns the cache and upstream collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	cacheLookups    *prometheus.CounterVec
	upstreamFetches *prometheus.CounterVec
	upstreamLatency prometheus.Histogram
	degradedReplies prometheus.Counter
	upsertedRows    prometheus.Counter
}

// NewRecorder creates a Recorder on a fresh registry, including Go runtime and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Rate queries answered from the store (hit) or sent upstream (miss).",
		}, []string{"result"}),
		upstreamFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_fetches_total",
			Help:      "Calls to the upstream rate provider by outcome.",
		}, []string{"outcome"}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_fetch_duration_seconds",
			Help:      "Latency of upstream rate provider calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		degradedReplies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_responses_total",
			Help:      "Responses served from cache after the upstream call failed.",
		}),
		upsertedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upserted_rows_total",
			Help:      "Rate rows written to the store.",
		}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.cacheLookups,
		r.upstreamFetches,
		r.upstreamLatency,
		r.degradedReplies,
		r.upsertedRows,
	)
	return r
}

// CacheHit records a query answered from the store.
func (r *Recorder) CacheHit() {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues("hit").Inc()
}

// CacheMiss records a query that needed an upstream fetch.
func (r *Recorder) CacheMiss() {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues("miss").Inc()
}

// UpstreamFetch records one upstream call.
func (r *Recorder) UpstreamFetch(outcome string, took time.Duration) {
	if r == nil {
		return
	}
	r.upstreamFetches.WithLabelValues(outcome).Inc()
	r.upstreamLatency.Observe(took.Seconds())
}

// Degraded records a stale-cache fallback.
func (r *Recorder) Degraded() {
	if r == nil {
		return
	}
	r.degradedReplies.Inc()
}

// Upserted records n rows written.
func (r *Recorder) Upserted(n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.upsertedRows.Add(float64(n))
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
