package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowAdminEnforcesPerUserCooldown(t *testing.T) {
	l := New(1000, 2*time.Second)
	now := time.Now()

	assert.NoError(t, l.AllowAdmin(1, 1, "kick", now))
	assert.ErrorIs(t, l.AllowAdmin(1, 1, "kick", now.Add(time.Second)), ErrCooldown)
	assert.NoError(t, l.AllowAdmin(1, 1, "kick", now.Add(3*time.Second)))
}

func TestAllowAdminCooldownIsPerCommandAndPerUser(t *testing.T) {
	l := New(1000, 2*time.Second)
	now := time.Now()

	assert.NoError(t, l.AllowAdmin(1, 1, "kick", now))
	assert.NoError(t, l.AllowAdmin(1, 2, "kick", now))
	assert.NoError(t, l.AllowAdmin(1, 1, "ban", now))
}

func TestRemainingCooldownCountsDown(t *testing.T) {
	l := New(1000, 10*time.Second)
	now := time.Now()
	l.AllowAdmin(1, 1, "kick", now)

	remaining := l.RemainingCooldown(1, 1, "kick", now.Add(4*time.Second))
	assert.Equal(t, 6*time.Second, remaining)
}

func TestAllowRejectsWhenGlobalBucketExhausted(t *testing.T) {
	l := New(1, time.Second)
	assert.NoError(t, l.Allow())
	assert.ErrorIs(t, l.Allow(), ErrCooldown)
}
