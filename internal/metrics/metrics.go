// Package metrics implements the process-wide lookup recorder: a
// lock-free counter set plus a single-writer latency EWMA, mirrored
// into Prometheus collectors the way the AleutianFOSS trace-routing
// prefilter mirrors its own atomic counters into promauto metrics.
package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ewmaAlpha is the smoothing factor for the latency moving average.
const ewmaAlpha = 0.1

// Snapshot is the read-only view returned by Recorder.Snapshot, shaped
// to match §4.G exactly.
type Snapshot struct {
	RequestsTotal    uint64
	CacheHits        uint64
	CacheMisses      uint64
	AvgLatencyMs     float64
	SignalsProvided  uint64
	Errors           map[string]uint64
	PatternsReturned PatternsReturned
}

// PatternsReturned summarizes how many patterns lookups actually emit.
type PatternsReturned struct {
	Total        uint64
	AvgPerReq    float64
	MaxPerReq    uint64
}

// Recorder is the process-wide metrics singleton. Use New for tests
// that need an isolated instance to snapshot and reset without
// touching global Prometheus registries, and Global for the one
// instance an orchestrator records against when it is built without
// lookup.WithMetrics.
type Recorder struct {
	requestsTotal   uint64
	cacheHits       uint64
	cacheMisses     uint64
	signalsProvided uint64
	patternsTotal   uint64
	patternsMax     uint64

	errMu  sync.Mutex
	errors map[string]uint64

	latencyMu  sync.Mutex
	avgLatency float64
	hasLatency bool

	promRequestsTotal  prometheus.Counter
	promCacheHits      prometheus.Counter
	promCacheMisses    prometheus.Counter
	promLatency        prometheus.Histogram
	promErrorsByKind   *prometheus.CounterVec
	promPatternsPerReq prometheus.Histogram
}

// New builds an independent Recorder registered against its own
// Prometheus registry, so concurrent tests never collide on metric
// names.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		errors: make(map[string]uint64),
		promRequestsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "apex_lookup_requests_total",
			Help: "Total number of lookup requests handled.",
		}),
		promCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "apex_lookup_cache_hits_total",
			Help: "Total number of singleflight memoization hits.",
		}),
		promCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "apex_lookup_cache_misses_total",
			Help: "Total number of singleflight memoization misses.",
		}),
		promLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "apex_lookup_latency_ms",
			Help:    "Per-request lookup latency in milliseconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		promErrorsByKind: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "apex_lookup_errors_total",
			Help: "Lookup errors by kind.",
		}, []string{"kind"}),
		promPatternsPerReq: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "apex_lookup_patterns_returned",
			Help:    "Number of patterns returned per request.",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		}),
	}
}

var global = New()

// Global returns the process-wide Recorder.
func Global() *Recorder { return global }

// ResetGlobal replaces the process-wide Recorder with a fresh one.
// Tests use this to snapshot and clear without restarting the process,
// per the design's "metrics singleton" note.
func ResetGlobal() {
	global = New()
}

// RecordRequest records one completed, non-cancelled lookup: its
// latency and how many patterns it returned.
func (r *Recorder) RecordRequest(latencyMs float64, patternsReturned int) {
	atomic.AddUint64(&r.requestsTotal, 1)
	atomic.AddUint64(&r.patternsTotal, uint64(patternsReturned))

	for {
		old := atomic.LoadUint64(&r.patternsMax)
		if uint64(patternsReturned) <= old {
			break
		}
		if atomic.CompareAndSwapUint64(&r.patternsMax, old, uint64(patternsReturned)) {
			break
		}
	}

	r.latencyMu.Lock()
	if !r.hasLatency {
		r.avgLatency = latencyMs
		r.hasLatency = true
	} else {
		r.avgLatency = ewmaAlpha*latencyMs + (1-ewmaAlpha)*r.avgLatency
	}
	r.latencyMu.Unlock()

	r.promRequestsTotal.Inc()
	r.promLatency.Observe(latencyMs)
	r.promPatternsPerReq.Observe(float64(patternsReturned))
}

// RecordCacheHit increments the memoization hit counter.
func (r *Recorder) RecordCacheHit() {
	atomic.AddUint64(&r.cacheHits, 1)
	r.promCacheHits.Inc()
}

// RecordCacheMiss increments the memoization miss counter.
func (r *Recorder) RecordCacheMiss() {
	atomic.AddUint64(&r.cacheMisses, 1)
	r.promCacheMisses.Inc()
}

// RecordSignalsProvided increments the count of requests that carried
// at least one signal.
func (r *Recorder) RecordSignalsProvided() {
	atomic.AddUint64(&r.signalsProvided, 1)
}

// RecordError increments the per-kind error counter. Cancelled queries
// must still call this (per §5) even though they skip RecordRequest.
func (r *Recorder) RecordError(kind string) {
	r.errMu.Lock()
	r.errors[kind]++
	r.errMu.Unlock()
	r.promErrorsByKind.WithLabelValues(kind).Inc()
}

// Snapshot returns a consistent point-in-time read of every counter.
func (r *Recorder) Snapshot() Snapshot {
	r.errMu.Lock()
	errs := make(map[string]uint64, len(r.errors))
	for k, v := range r.errors {
		errs[k] = v
	}
	r.errMu.Unlock()

	r.latencyMu.Lock()
	avgLatency := r.avgLatency
	r.latencyMu.Unlock()

	total := atomic.LoadUint64(&r.requestsTotal)
	patternsTotal := atomic.LoadUint64(&r.patternsTotal)
	var avgPerReq float64
	if total > 0 {
		avgPerReq = float64(patternsTotal) / float64(total)
	}

	return Snapshot{
		RequestsTotal:   total,
		CacheHits:       atomic.LoadUint64(&r.cacheHits),
		CacheMisses:     atomic.LoadUint64(&r.cacheMisses),
		AvgLatencyMs:    avgLatency,
		SignalsProvided: atomic.LoadUint64(&r.signalsProvided),
		Errors:          errs,
		PatternsReturned: PatternsReturned{
			Total:     patternsTotal,
			AvgPerReq: avgPerReq,
			MaxPerReq: atomic.LoadUint64(&r.patternsMax),
		},
	}
}

// CacheHitRate returns cache_hits / (cache_hits + cache_misses) as a
// percentage with two decimal places, 0 when no memoized lookups have
// run yet.
func (s Snapshot) CacheHitRate() float64 {
	denom := s.CacheHits + s.CacheMisses
	if denom == 0 {
		return 0
	}
	return round2(100 * float64(s.CacheHits) / float64(denom))
}

// ErrorRate returns total errors / requests_total as a percentage with
// two decimal places, 0 when no requests have run yet.
func (s Snapshot) ErrorRate() float64 {
	if s.RequestsTotal == 0 {
		return 0
	}
	var total uint64
	for _, v := range s.Errors {
		total += v
	}
	return round2(100 * float64(total) / float64(s.RequestsTotal))
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
