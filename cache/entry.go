package cache

import "time"

// accessRingCap is the bounded ring of recent access instants (spec §3).
const accessRingCap = 20

// hotThreshold is the access count after which an entry is sticky-hot.
const hotThreshold = 5

// predictionMinSamples is the minimum ring length before a prediction exists.
const predictionMinSamples = 3

// entry is an individual cache entry (spec §3 "Cache Entry"). All mutation
// happens while the owning per-key lock is held; entry itself holds no lock.
type entry struct {
	value    interface{}
	category Category
	created  time.Time
	ttl      time.Duration

	accessCount int
	lastAccess  time.Time
	accessRing  []time.Time

	predictedNext time.Time
	hasPrediction bool
	hot           bool
}

func newEntry(category Category, value interface{}, ttl time.Duration, now time.Time) *entry {
	e := &entry{
		value:       value,
		category:    category,
		created:     now,
		ttl:         ttl,
		accessCount: 1,
		lastAccess:  now,
		accessRing:  make([]time.Time, 0, accessRingCap),
	}
	e.accessRing = append(e.accessRing, now)
	return e
}

func (e *entry) isExpired(now time.Time) bool {
	return now.Sub(e.created) >= e.ttl
}

// recordAccess appends now to the ring, bumps counters, recomputes the
// prediction and hot flag.
func (e *entry) recordAccess(now time.Time) {
	e.accessCount++
	e.lastAccess = now

	if len(e.accessRing) == accessRingCap {
		e.accessRing = append(e.accessRing[1:], now)
	} else {
		e.accessRing = append(e.accessRing, now)
	}

	if len(e.accessRing) >= predictionMinSamples {
		e.updatePrediction(now)
	}

	if e.accessCount > hotThreshold {
		e.hot = true // sticky for the entry's life
	}
}

func (e *entry) updatePrediction(now time.Time) {
	intervals := make([]time.Duration, 0, len(e.accessRing)-1)
	for i := 1; i < len(e.accessRing); i++ {
		intervals = append(intervals, e.accessRing[i].Sub(e.accessRing[i-1]))
	}
	if len(intervals) == 0 {
		return
	}
	var sum time.Duration
	for _, iv := range intervals {
		sum += iv
	}
	avg := sum / time.Duration(len(intervals))
	e.predictedNext = now.Add(avg)
	e.hasPrediction = true
}

func (e *entry) age(now time.Time) time.Duration {
	return now.Sub(e.created)
}

// shouldPreload implements the preload-eligible predicate from spec §3.
func (e *entry) shouldPreload(now time.Time) bool {
	if !e.hot || !e.hasPrediction {
		return false
	}
	until := e.predictedNext.Sub(now)
	return until > 0 && until < time.Duration(float64(e.ttl)*0.2)
}
