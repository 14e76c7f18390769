// Package ratelimit bounds command invocation throughput (spec §4.J): a
// process-global leaky bucket plus a per-user cooldown map for admin
// commands.
package ratelimit

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrCooldown is returned when either the global bucket or a per-user
// cooldown rejects an invocation (spec §4.J "Exceeding either yields a
// cooldown error").
var ErrCooldown = errors.New("ratelimit: cooldown")

// DefaultCooldown is the default per-user admin-command cooldown.
const DefaultCooldown = 300 * time.Second

// Limiter admits command invocations per minute globally, and enforces a
// per-user cooldown on admin commands.
type Limiter struct {
	global *rate.Limiter

	mu       sync.Mutex
	cooldown time.Duration
	lastUsed map[string]time.Time // "guildID:userID:command" -> last use
}

// New constructs a Limiter admitting perMinute invocations globally, with
// the given per-user admin-command cooldown (0 uses DefaultCooldown).
func New(perMinute int, cooldown time.Duration) *Limiter {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Limiter{
		global:   rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		cooldown: cooldown,
		lastUsed: make(map[string]time.Time),
	}
}

// Allow admits a plain (non-cooldown) command invocation against the
// global bucket only.
func (l *Limiter) Allow() error {
	if !l.global.Allow() {
		return ErrCooldown
	}
	return nil
}

// AllowAdmin admits an admin-command invocation: it must pass the global
// bucket AND the caller's per-user cooldown for this command.
func (l *Limiter) AllowAdmin(guildID, userID int64, command string, now time.Time) error {
	if !l.global.Allow() {
		return ErrCooldown
	}

	key := cooldownKey(guildID, userID, command)

	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastUsed[key]; ok && now.Sub(last) < l.cooldown {
		return ErrCooldown
	}
	l.lastUsed[key] = now
	return nil
}

// RemainingCooldown returns how long until the caller may retry command,
// or zero if they currently may.
func (l *Limiter) RemainingCooldown(guildID, userID int64, command string, now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	last, ok := l.lastUsed[cooldownKey(guildID, userID, command)]
	if !ok {
		return 0
	}
	elapsed := now.Sub(last)
	if elapsed >= l.cooldown {
		return 0
	}
	return l.cooldown - elapsed
}

func cooldownKey(guildID, userID int64, command string) string {
	return strconv.FormatInt(guildID, 10) + ":" + strconv.FormatInt(userID, 10) + ":" + command
}
