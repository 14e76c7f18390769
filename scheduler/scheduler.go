// Package scheduler is the coarse periodic driver (spec §4.H): registered
// callbacks are checked at second-granularity, fire once their own interval
// has elapsed since their last fire, and never overlap per callback.
// Invocations are not aligned to or deduplicated on minute boundaries.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Callback is one scheduled procedure, given the instant it fired for.
type Callback func(ctx context.Context, firedAt time.Time)

type registration struct {
	name     string
	interval time.Duration
	fn       Callback
	mu       sync.Mutex // one callback instance at a time
	lastTick time.Time
}

// Scheduler ticks every tickInterval, invoking any registered callback
// whose interval has elapsed since its last fire.
type Scheduler struct {
	log          zerolog.Logger
	tickInterval time.Duration

	mu    sync.Mutex
	regs  []*registration
	wg    sync.WaitGroup
	clock func() time.Time
}

// New constructs a Scheduler ticking every tickInterval (spec §4.H
// "second-granularity").
func New(tickInterval time.Duration, log zerolog.Logger) *Scheduler {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	return &Scheduler{
		log:          log.With().Str("component", "scheduler").Logger(),
		tickInterval: tickInterval,
		clock:        time.Now,
	}
}

// Register adds a named callback to fire every interval. The well-known
// names from spec §4.H are close, remind, delete, roster_maintenance,
// cache_maintenance, create_daily_events — but Register accepts any name.
func (s *Scheduler) Register(name string, interval time.Duration, fn Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs = append(s.regs, &registration{name: name, interval: interval, fn: fn})
}

// Run blocks ticking until ctx is cancelled, firing due callbacks on their
// own goroutine so a slow callback cannot delay others (spec §4.H
// "overlapping runs of the same callback MUST NOT execute concurrently (a
// mutex per callback)" — the mutex is per-registration, not global).
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

// tick fires every registration whose interval has elapsed. A registration
// more than one period late (drift > one period) skips straight to the
// current period instead of firing once per missed period (spec §4.H
// "Late fires (drift > one period) skip to current period").
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	due := make([]*registration, 0, len(s.regs))
	for _, r := range s.regs {
		if now.Sub(r.lastTick) >= r.interval {
			due = append(due, r)
		}
	}
	s.mu.Unlock()

	for _, r := range due {
		r := r
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if !r.mu.TryLock() {
				s.log.Debug().Str("callback", r.name).Msg("previous invocation still running, skipping tick")
				return
			}
			defer r.mu.Unlock()

			r.lastTick = now
			defer func() {
				if rec := recover(); rec != nil {
					s.log.Error().Interface("panic", rec).Str("callback", r.name).Msg("scheduled callback panicked")
				}
			}()
			r.fn(ctx, now)
		}()
	}
}
