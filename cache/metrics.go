package cache

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// globalMetrics holds the process-wide cache counters. All fields are
// mutated with atomic-increment semantics (spec §5 "Global metrics") so
// they may be read without a lock for a best-effort snapshot.
type globalMetrics struct {
	hits               int64
	misses             int64
	sets               int64
	evictions          int64
	cleanups           int64
	preloadsSuccessful int64
	preloadsWasted     int64
	predictionsCorrect int64
	predictionsTotal   int64
}

type categoryMetrics struct {
	hits   int64
	misses int64
	sets   int64
	size   int64
}

// Metrics is the read-only snapshot returned by Engine.Metrics.
type Metrics struct {
	Hits               int64
	Misses             int64
	Sets               int64
	Evictions          int64
	Cleanups           int64
	PreloadsSuccessful int64
	PreloadsWasted     int64
	PredictionsCorrect int64
	PredictionsTotal   int64
	TotalEntries       int64
	HitRate            float64
	ByCategory         map[Category]CategoryMetrics
}

// CategoryMetrics is the per-category portion of a Metrics snapshot.
type CategoryMetrics struct {
	Hits   int64
	Misses int64
	Sets   int64
	Size   int64
}

// promCollectors are the optional Prometheus series exposing the same
// counters (spec §4.A "metrics()" observability), registered once per
// Engine when a non-nil prometheus.Registerer is supplied.
type promCollectors struct {
	hits      *prometheus.CounterVec
	misses    *prometheus.CounterVec
	sets      *prometheus.CounterVec
	evictions prometheus.Counter
	size      *prometheus.GaugeVec
}

func newPromCollectors(reg prometheus.Registerer, namespace string) *promCollectors {
	if reg == nil {
		return nil
	}
	pc := &promCollectors{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "hits_total",
		}, []string{"category"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "misses_total",
		}, []string{"category"}),
		sets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "sets_total",
		}, []string{"category"}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "evictions_total",
		}),
		size: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "cache", Name: "entries",
		}, []string{"category"}),
	}
	reg.MustRegister(pc.hits, pc.misses, pc.sets, pc.evictions, pc.size)
	return pc
}

func incr(p *int64) { atomic.AddInt64(p, 1) }
func addN(p *int64, n int64) { atomic.AddInt64(p, n) }
