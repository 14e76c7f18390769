package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLifecycleTransitions(t *testing.T) {
	ev := NewEvent(1, 1, "Raid", time.Now(), time.Now().Add(time.Hour))
	assert.Equal(t, StatusPlanned, ev.Status)

	require.NoError(t, ev.Confirm())
	assert.Equal(t, StatusConfirmed, ev.Status)

	require.NoError(t, ev.Close())
	assert.Equal(t, StatusClosed, ev.Status)
}

func TestCancelFromClosedIsRejected(t *testing.T) {
	ev := NewEvent(1, 1, "Raid", time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, ev.Close())
	assert.Error(t, ev.Cancel())
}

func TestApplyReactionIsExclusive(t *testing.T) {
	ev := NewEvent(1, 1, "Raid", time.Now(), time.Now().Add(time.Hour))

	others, ok := ev.ApplyReaction(42, MarkerTentative)
	require.True(t, ok)
	assert.ElementsMatch(t, []Marker{MarkerPresence, MarkerAbsence}, others)
	assert.True(t, ev.Book.Tentative[42])

	_, ok = ev.ApplyReaction(42, MarkerPresence)
	require.True(t, ok)
	assert.True(t, ev.Book.Presence[42])
	assert.False(t, ev.Book.Tentative[42], "switching markers must clear the prior set")
}

func TestApplyReactionIgnoresUnknownMarker(t *testing.T) {
	ev := NewEvent(1, 1, "Raid", time.Now(), time.Now().Add(time.Hour))
	_, ok := ev.ApplyReaction(42, Marker("shrug"))
	assert.False(t, ok)
}

func TestRemoveReactionRejectedWhenClosed(t *testing.T) {
	ev := NewEvent(1, 1, "Raid", time.Now(), time.Now().Add(time.Hour))
	ev.ApplyReaction(42, MarkerPresence)
	require.NoError(t, ev.Close())

	removed := ev.RemoveReaction(42, MarkerPresence)
	assert.False(t, removed)
	assert.True(t, ev.Book.Presence[42])
}

func TestInCloseWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ev := NewEvent(1, 1, "Raid", now, now.Add(2*time.Hour))

	assert.True(t, ev.InCloseWindow(now.Add(-30*time.Minute)))
	assert.True(t, ev.InCloseWindow(now.Add(10*time.Minute)))
	assert.False(t, ev.InCloseWindow(now.Add(-90*time.Minute)))
	assert.False(t, ev.InCloseWindow(now.Add(30*time.Minute)))
}

func TestHintMapSuppressesWithinTTL(t *testing.T) {
	h := newHintMap()
	now := time.Now()
	h.Record(7, MarkerAbsence, now)

	assert.True(t, h.Active(7, MarkerAbsence, now.Add(time.Second)))
}

func TestHintMapExpiresAfterTTL(t *testing.T) {
	h := newHintMap()
	now := time.Now()
	h.Record(7, MarkerAbsence, now)

	assert.False(t, h.Active(7, MarkerAbsence, now.Add(4*time.Second)))
}
