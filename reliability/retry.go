// Package reliability wraps the store and external-API calls with the
// retry/backoff and graceful-degradation envelope described in spec §4.D.
package reliability

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/romaingrosos/myguildmanager-core/errkind"
)

// IsTransient classifies whether err is retryable for a given service. The
// set of transient errors is per-service (spec §4.D), so callers supply
// their own predicate.
type IsTransient func(error) bool

// DefaultTransient is the fallback predicate used when a service's policy
// does not set Transient: it retries the store/reliability taxonomy kinds
// that are inherently recoverable (spec §7) and propagates everything else
// immediately.
func DefaultTransient(err error) bool {
	switch errkind.KindOf(err) {
	case errkind.CircuitOpen, errkind.StoreTimeout, errkind.TransientNetwork:
		return true
	default:
		return false
	}
}

// RetryPolicy configures a resilient-call wrapper for one service.
type RetryPolicy struct {
	Service      string
	MaxRetries   int
	BaseDelay    time.Duration
	BackoffFactor float64
	Jitter       float64
	Transient    IsTransient
}

// Envelope is the reliability envelope singleton: retry policies keyed by
// service name, plus the degradation registry (see degradation.go).
type Envelope struct {
	log        zerolog.Logger
	policies   map[string]RetryPolicy
	degradation *DegradationRegistry
}

// NewEnvelope constructs an empty envelope.
func NewEnvelope(log zerolog.Logger) *Envelope {
	return &Envelope{
		log:         log.With().Str("component", "reliability").Logger(),
		policies:    make(map[string]RetryPolicy),
		degradation: newDegradationRegistry(),
	}
}

// RegisterPolicy installs (or replaces) the retry policy for a service.
func (env *Envelope) RegisterPolicy(p RetryPolicy) {
	env.policies[p.Service] = p
}

// Degradation exposes the graceful-degradation registry.
func (env *Envelope) Degradation() *DegradationRegistry {
	return env.degradation
}

// Call retries fn according to the registered policy for service,
// exponentially increasing the sleep between attempts. Non-transient
// errors propagate immediately (spec §4.D).
func (env *Envelope) Call(ctx context.Context, service string, fn func(context.Context) error) error {
	p, ok := env.policies[service]
	if !ok {
		// No policy registered: run once, uninstrumented.
		return fn(ctx)
	}

	transient := p.Transient
	if transient == nil {
		transient = DefaultTransient
	}

	var lastErr error
	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.BaseDelay,
		RandomizationFactor: p.Jitter,
		Multiplier:          p.BackoffFactor,
		MaxInterval:         time.Duration(math.MaxInt64),
		MaxElapsedTime:      0,
		Clock:               backoff.SystemClock,
	}
	b.Reset()

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !transient(lastErr) {
			return lastErr
		}
		if attempt == p.MaxRetries {
			break
		}
		delay := b.NextBackOff()
		if delay == backoff.Stop {
			break
		}
		env.log.Warn().
			Str("service", service).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Err(lastErr).
			Msg("transient failure, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}
