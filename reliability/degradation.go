package reliability

import (
	"context"
	"sync"
)

// Fallback is invoked in place of a degraded primary call.
type Fallback func(ctx context.Context) error

// Signal lets a primary call itself request the fallback without being an
// error the transient-retry logic would otherwise swallow (spec §4.D
// "the primary itself signals degradation").
type Signal struct{ error }

// Degraded wraps err so ExecuteWithFallback treats it as a degradation
// signal regardless of the service's registered state.
func Degraded(err error) error { return Signal{err} }

type serviceState struct {
	mu       sync.RWMutex
	fallback Fallback
	degraded bool
}

// DegradationRegistry stores, per service name, a fallback callable and a
// degraded flag (spec §4.D "Graceful degradation registry").
type DegradationRegistry struct {
	mu       sync.Mutex
	services map[string]*serviceState
}

func newDegradationRegistry() *DegradationRegistry {
	return &DegradationRegistry{services: make(map[string]*serviceState)}
}

func (r *DegradationRegistry) state(service string) *serviceState {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.services[service]
	if !ok {
		s = &serviceState{}
		r.services[service] = s
	}
	return s
}

// RegisterFallback installs the fallback callable for service.
func (r *DegradationRegistry) RegisterFallback(service string, fb Fallback) {
	s := r.state(service)
	s.mu.Lock()
	s.fallback = fb
	s.mu.Unlock()
}

// SetDegraded explicitly marks service as degraded or restored.
func (r *DegradationRegistry) SetDegraded(service string, degraded bool) {
	s := r.state(service)
	s.mu.Lock()
	s.degraded = degraded
	s.mu.Unlock()
}

// IsDegraded reports whether service is currently marked degraded.
func (r *DegradationRegistry) IsDegraded(service string) bool {
	s := r.state(service)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// ExecuteWithFallback invokes primary; if it errors and the service is
// degraded (or the error is itself a degradation Signal), the registered
// fallback runs instead (spec §4.D "execute_with_fallback").
func (r *DegradationRegistry) ExecuteWithFallback(ctx context.Context, service string, primary func(ctx context.Context) error) error {
	s := r.state(service)

	err := primary(ctx)
	if err == nil {
		return nil
	}

	_, isSignal := err.(Signal)
	s.mu.RLock()
	degraded := s.degraded
	fb := s.fallback
	s.mu.RUnlock()

	if (degraded || isSignal) && fb != nil {
		return fb(ctx)
	}
	return err
}
