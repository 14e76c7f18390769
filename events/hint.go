package events

import (
	"strconv"
	"sync"
	"time"
)

// ignoreRemovalTTL is the window during which a reaction-remove echo
// produced by ApplyReaction's own set-clearing is suppressed (spec §4.F
// "ignore-removal hint"; spec §9 "replace the hint map with a bounded TTL
// map guarded by the same per-event lock").
const ignoreRemovalTTL = 3 * time.Second

// hintMap is a bounded, per-event TTL map: entries older than
// ignoreRemovalTTL are treated as expired and lazily evicted on read.
type hintMap struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

func newHintMap() *hintMap {
	return &hintMap{expires: make(map[string]time.Time)}
}

func hintKey(userID int64, marker Marker) string {
	return string(marker) + ":" + strconv.FormatInt(userID, 10)
}

// Record marks (userID, marker) as an expected echo for ignoreRemovalTTL.
func (h *hintMap) Record(userID int64, marker Marker, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.expires[hintKey(userID, marker)] = now.Add(ignoreRemovalTTL)
}

// Active reports whether (userID, marker) has a live suppression hint,
// evicting it (and any other expired entries) as a side effect.
func (h *hintMap) Active(userID int64, marker Marker, now time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for k, exp := range h.expires {
		if now.After(exp) {
			delete(h.expires, k)
		}
	}
	key := hintKey(userID, marker)
	expiry, ok := h.expires[key]
	if !ok {
		return false
	}
	if now.After(expiry) {
		delete(h.expires, key)
		return false
	}
	delete(h.expires, key)
	return true
}

