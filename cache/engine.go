// Package cache implements the two-tier, category-partitioned, predictive
// in-process cache described in spec §4.A. It is the shared-state substrate
// every other component reads and writes through.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// maintenanceInterval matches the teacher's coarse maintenance cadence and
// the cache's own 5-minute `temporary` category TTL order of magnitude.
const maintenanceInterval = 300 * time.Second

// preloadSafetyMargin caps every preload sleep below TTL regardless of
// prediction (spec §5 "Preload sleeps MUST cap at TTL − 1s").
const preloadSafetyMargin = time.Second

// PreloadHook refreshes the value behind key and is expected to call Set
// itself on success. It is selected by key prefix (spec §4.A, §6).
type PreloadHook func(ctx context.Context, category Category, key string) error

type preloadRoute struct {
	prefix string
	hook   PreloadHook
}

// Engine is the cache engine singleton. Construct one per process and pass
// it as an explicit dependency (spec §9 "Global mutable state") — never
// reach for a package-level variable.
type Engine struct {
	log zerolog.Logger

	entries sync.Map // string -> *entry
	keys    *keyedLocks

	global     globalMetrics
	byCategory map[Category]*categoryMetrics
	prom       *promCollectors

	preloadRoutes []preloadRoute
	preloadMu     sync.Mutex
	activePreload map[string]context.CancelFunc

	wg sync.WaitGroup
}

// NewEngine constructs an empty cache engine. reg may be nil to skip
// Prometheus registration.
func NewEngine(log zerolog.Logger, reg prometheus.Registerer, namespace string) *Engine {
	byCategory := make(map[Category]*categoryMetrics, len(allCategories))
	for _, c := range allCategories {
		byCategory[c] = &categoryMetrics{}
	}
	return &Engine{
		log:           log.With().Str("component", "cache").Logger(),
		keys:          newKeyedLocks(),
		byCategory:    byCategory,
		prom:          newPromCollectors(reg, namespace),
		activePreload: make(map[string]context.CancelFunc),
	}
}

// Get returns the cached value for (category, args...), or a miss. An
// expired hit is dropped and counted as a miss plus an eviction.
func (e *Engine) Get(category Category, args ...interface{}) (interface{}, bool) {
	key := BuildKey(category, args...)
	unlock := e.keys.Lock(key)
	defer unlock()

	v, ok := e.entries.Load(key)
	if !ok {
		incr(&e.global.misses)
		incr(&e.byCategory[category].misses)
		e.observeMiss(category)
		return nil, false
	}
	ent := v.(*entry)
	now := time.Now()

	if ent.isExpired(now) {
		e.entries.Delete(key)
		incr(&e.global.misses)
		incr(&e.global.evictions)
		incr(&e.byCategory[category].misses)
		addN(&e.byCategory[category].size, -1)
		e.observeMiss(category)
		e.observeSize(category)
		if e.prom != nil {
			e.prom.evictions.Inc()
		}
		return nil, false
	}

	ent.recordAccess(now)
	incr(&e.global.hits)
	incr(&e.byCategory[category].hits)
	e.observeHit(category)
	return ent.value, true
}

// Set inserts or replaces a value using the category's default TTL.
func (e *Engine) Set(category Category, value interface{}, args ...interface{}) {
	e.SetWithTTL(category, value, category.defaultTTL(), args...)
}

// SetWithTTL inserts or replaces a value with an explicit TTL override.
func (e *Engine) SetWithTTL(category Category, value interface{}, ttl time.Duration, args ...interface{}) {
	key := BuildKey(category, args...)
	unlock := e.keys.Lock(key)
	defer unlock()

	now := time.Now()
	_, existed := e.entries.Load(key)
	e.entries.Store(key, newEntry(category, value, ttl, now))

	incr(&e.global.sets)
	incr(&e.byCategory[category].sets)
	if !existed {
		addN(&e.byCategory[category].size, 1)
	}
	e.observeSet(category)
	e.observeSize(category)
}

// Delete removes a specific entry if present.
func (e *Engine) Delete(category Category, args ...interface{}) bool {
	key := BuildKey(category, args...)
	unlock := e.keys.Lock(key)
	defer unlock()

	v, ok := e.entries.Load(key)
	if !ok {
		return false
	}
	ent := v.(*entry)
	e.entries.Delete(key)
	addN(&e.byCategory[ent.category].size, -1)
	e.observeSize(ent.category)
	return true
}

// InvalidateCategory removes every entry tagged with category and zeroes
// its size counter.
func (e *Engine) InvalidateCategory(category Category) int {
	var keysToRemove []string
	e.entries.Range(func(k, v interface{}) bool {
		if v.(*entry).category == category {
			keysToRemove = append(keysToRemove, k.(string))
		}
		return true
	})

	for _, key := range keysToRemove {
		unlock := e.keys.Lock(key)
		e.entries.Delete(key)
		unlock()
	}

	e.byCategory[category].size = 0
	e.observeSize(category)
	e.log.Info().Str("category", string(category)).Int("count", len(keysToRemove)).Msg("invalidated category")
	return len(keysToRemove)
}

// InvalidateRelated walks the one-hop invalidation rule graph from category
// and invalidates every category it points to (spec §3, §4.A).
func (e *Engine) InvalidateRelated(category Category) int {
	total := 0
	for _, affected := range invalidationRules[category] {
		total += e.InvalidateCategory(affected)
	}
	return total
}

// CleanupExpired sweeps every entry and removes expired ones. Intended for
// periodic background use; races safely with writers (spec §5).
func (e *Engine) CleanupExpired() int {
	now := time.Now()
	type victim struct {
		key      string
		category Category
	}
	var victims []victim
	e.entries.Range(func(k, v interface{}) bool {
		ent := v.(*entry)
		if ent.isExpired(now) {
			victims = append(victims, victim{k.(string), ent.category})
		}
		return true
	})

	removed := 0
	for _, vi := range victims {
		unlock := e.keys.Lock(vi.key)
		if v, ok := e.entries.Load(vi.key); ok && v.(*entry).isExpired(time.Now()) {
			e.entries.Delete(vi.key)
			addN(&e.byCategory[vi.category].size, -1)
			removed++
		}
		unlock()
	}

	if removed > 0 {
		incr(&e.global.cleanups)
		e.log.Debug().Int("count", removed).Msg("cleaned up expired entries")
	}
	return removed
}

// Metrics returns a best-effort snapshot (spec §4.A "metrics()").
func (e *Engine) Metrics() Metrics {
	total := e.global.hits + e.global.misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(e.global.hits) / float64(total) * 100
	}

	m := Metrics{
		Hits:               e.global.hits,
		Misses:             e.global.misses,
		Sets:               e.global.sets,
		Evictions:          e.global.evictions,
		Cleanups:           e.global.cleanups,
		PreloadsSuccessful: e.global.preloadsSuccessful,
		PreloadsWasted:     e.global.preloadsWasted,
		PredictionsCorrect: e.global.predictionsCorrect,
		PredictionsTotal:   e.global.predictionsTotal,
		HitRate:            hitRate,
		ByCategory:         make(map[Category]CategoryMetrics, len(e.byCategory)),
	}

	var total64 int64
	e.entries.Range(func(_, _ interface{}) bool { total64++; return true })
	m.TotalEntries = total64

	for cat, cm := range e.byCategory {
		m.ByCategory[cat] = CategoryMetrics{
			Hits:   cm.hits,
			Misses: cm.misses,
			Sets:   cm.sets,
			Size:   cm.size,
		}
	}
	return m
}

// RegisterPreloadHook wires a refresh function for keys with the given
// prefix (spec §6 "selected by key prefix").
func (e *Engine) RegisterPreloadHook(prefix string, hook PreloadHook) {
	e.preloadMu.Lock()
	defer e.preloadMu.Unlock()
	e.preloadRoutes = append(e.preloadRoutes, preloadRoute{prefix, hook})
}

// RunMaintenance runs cleanup + smart maintenance on a ticker until ctx is
// cancelled. Callers should launch it as a goroutine and wait on Shutdown.
func (e *Engine) RunMaintenance(ctx context.Context) {
	e.wg.Add(1)
	defer e.wg.Done()

	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.safeTick(ctx)
		}
	}
}

func (e *Engine) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("cache maintenance panic recovered")
		}
	}()
	e.Maintain(ctx)
}

// Maintain runs one cleanup + preload-scheduling pass. RunMaintenance calls
// this on its own ticker; an external scheduler (scheduler.Scheduler) can
// also call it directly as a single-shot callback instead of starting the
// long-lived loop.
func (e *Engine) Maintain(ctx context.Context) {
	e.CleanupExpired()
	e.scheduleEligiblePreloads(ctx)
}

// scheduleEligiblePreloads iterates entries and schedules a preload task
// for every should_preload()-eligible entry not already scheduled.
func (e *Engine) scheduleEligiblePreloads(ctx context.Context) {
	now := time.Now()
	e.entries.Range(func(k, v interface{}) bool {
		key := k.(string)
		ent := v.(*entry)
		if !ent.shouldPreload(now) {
			return true
		}
		e.preloadMu.Lock()
		_, active := e.activePreload[key]
		e.preloadMu.Unlock()
		if active {
			return true
		}
		e.schedulePreload(ctx, key, ent)
		return true
	})
}

func (e *Engine) schedulePreload(parent context.Context, key string, ent *entry) {
	hook := e.findPreloadHook(key)
	if hook == nil {
		return
	}

	ctx, cancel := context.WithCancel(parent)
	e.preloadMu.Lock()
	e.activePreload[key] = cancel
	e.preloadMu.Unlock()

	originalExpiry := ent.created.Add(ent.ttl)
	delay := ent.predictedNext.Sub(time.Now()) - time.Duration(float64(ent.ttl)*0.1)
	if ceiling := ent.ttl - preloadSafetyMargin; delay > ceiling {
		delay = ceiling
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				e.log.Error().Interface("panic", r).Str("key", key).Msg("preload task panic recovered")
			}
			e.preloadMu.Lock()
			delete(e.activePreload, key)
			e.preloadMu.Unlock()
			cancel()
		}()

		if delay > 0 {
			t := time.NewTimer(delay)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}

		err := hook(ctx, ent.category, key)
		if err == nil && time.Now().Before(originalExpiry) {
			incr(&e.global.preloadsSuccessful)
		} else {
			incr(&e.global.preloadsWasted)
			if err != nil {
				e.log.Debug().Err(err).Str("key", key).Msg("preload failed")
			}
		}
	}()
}

func (e *Engine) findPreloadHook(key string) PreloadHook {
	e.preloadMu.Lock()
	defer e.preloadMu.Unlock()
	for _, r := range e.preloadRoutes {
		if len(key) >= len(r.prefix) && key[:len(r.prefix)] == r.prefix {
			return r.hook
		}
	}
	return nil
}

// Shutdown cancels background preload tasks and waits for them to exit.
// Callers should cancel the context passed to RunMaintenance first.
func (e *Engine) Shutdown() {
	e.preloadMu.Lock()
	for _, cancel := range e.activePreload {
		cancel()
	}
	e.preloadMu.Unlock()
	e.wg.Wait()
}

func (e *Engine) observeHit(c Category) {
	if e.prom == nil {
		return
	}
	e.prom.hits.WithLabelValues(string(c)).Inc()
}

func (e *Engine) observeMiss(c Category) {
	if e.prom == nil {
		return
	}
	e.prom.misses.WithLabelValues(string(c)).Inc()
}

func (e *Engine) observeSet(c Category) {
	if e.prom == nil {
		return
	}
	e.prom.sets.WithLabelValues(string(c)).Inc()
}

func (e *Engine) observeSize(c Category) {
	if e.prom == nil {
		return
	}
	e.prom.size.WithLabelValues(string(c)).Set(float64(e.byCategory[c].size))
}
