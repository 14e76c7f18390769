package store

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

// TestCircuitBreakerOpensAfterConsecutiveFailures exercises the breaker in
// isolation (no real DB), matching spec §8 property 10 and scenario S6.
func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	threshold := uint32(3)
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "test",
		Timeout: 20 * time.Millisecond,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})

	failing := func() (interface{}, error) { return nil, errors.New("boom") }

	for i := 0; i < int(threshold); i++ {
		_, err := breaker.Execute(failing)
		assert.Error(t, err)
	}

	_, err := breaker.Execute(failing)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	time.Sleep(30 * time.Millisecond)

	succeeded := false
	_, err = breaker.Execute(func() (interface{}, error) { succeeded = true; return nil, nil })
	assert.NoError(t, err)
	assert.True(t, succeeded, "half-open trial should reach the underlying call")
	assert.Equal(t, gobreaker.StateClosed, breaker.State())
}

func TestQueryMetricsTracksSlowQueries(t *testing.T) {
	m := newQueryMetrics()
	m.observe(kindSelect, 5*time.Millisecond, DefaultSlowQueryThreshold, nil)
	m.observe(kindSelect, 150*time.Millisecond, DefaultSlowQueryThreshold, nil)

	snap := m.snapshot()
	assert.EqualValues(t, 2, snap.ByKind["select"].Count)
	assert.EqualValues(t, 1, snap.ByKind["select"].SlowCount)
}
