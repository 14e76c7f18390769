package store

import (
	"sync"
	"time"
)

// QueryKind classifies a query for per-kind observability (spec §4.C).
type QueryKind int

const (
	kindSelect QueryKind = iota
	kindInsert
	kindUpdate
	kindDelete
	kindTransaction
)

// KindSelect etc. are exported aliases for callers issuing raw Exec calls.
const (
	KindSelect      = kindSelect
	KindInsert      = kindInsert
	KindUpdate      = kindUpdate
	KindDelete      = kindDelete
	KindTransaction = kindTransaction
)

func (k QueryKind) String() string {
	switch k {
	case kindSelect:
		return "select"
	case kindInsert:
		return "insert"
	case kindUpdate:
		return "update"
	case kindDelete:
		return "delete"
	case kindTransaction:
		return "transaction"
	default:
		return "unknown"
	}
}

type kindCounters struct {
	count      int64
	errors     int64
	totalNanos int64
	slow       int64
}

type queryMetrics struct {
	mu     sync.Mutex
	kinds  map[QueryKind]*kindCounters
}

func newQueryMetrics() *queryMetrics {
	m := &queryMetrics{kinds: make(map[QueryKind]*kindCounters)}
	for _, k := range []QueryKind{kindSelect, kindInsert, kindUpdate, kindDelete, kindTransaction} {
		m.kinds[k] = &kindCounters{}
	}
	return m
}

func (m *queryMetrics) observe(kind QueryKind, d time.Duration, slowThreshold time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.kinds[kind]
	c.count++
	c.totalNanos += d.Nanoseconds()
	if err != nil {
		c.errors++
	}
	if slowThreshold > 0 && d >= slowThreshold {
		c.slow++
	}
}

// KindMetrics is the observability snapshot for one query kind.
type KindMetrics struct {
	Count       int64
	Errors      int64
	AvgDuration time.Duration
	SlowCount   int64
}

// Metrics is the full observability snapshot (spec §4.C "Observability").
type Metrics struct {
	ByKind map[string]KindMetrics
}

func (m *queryMetrics) snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := Metrics{ByKind: make(map[string]KindMetrics, len(m.kinds))}
	for kind, c := range m.kinds {
		var avg time.Duration
		if c.count > 0 {
			avg = time.Duration(c.totalNanos / c.count)
		}
		out.ByKind[kind.String()] = KindMetrics{
			Count:       c.count,
			Errors:      c.errors,
			AvgDuration: avg,
			SlowCount:   c.slow,
		}
	}
	return out
}
