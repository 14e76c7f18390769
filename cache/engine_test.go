package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine() *Engine {
	return NewEngine(zerolog.Nop(), nil, "test")
}

func TestSetThenGetReturnsValue(t *testing.T) {
	e := testEngine()
	e.Set(CategoryGuildData, "hello", 1, "greeting")

	v, ok := e.Get(CategoryGuildData, 1, "greeting")
	require.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestExpiredEntryIsMissAndDecrementsSize(t *testing.T) {
	e := testEngine()
	e.SetWithTTL(CategoryTemporary, "v", 10*time.Millisecond, "k")

	m := e.Metrics()
	assert.EqualValues(t, 1, m.ByCategory[CategoryTemporary].Size)

	time.Sleep(20 * time.Millisecond)

	_, ok := e.Get(CategoryTemporary, "k")
	assert.False(t, ok)

	m = e.Metrics()
	assert.EqualValues(t, 0, m.ByCategory[CategoryTemporary].Size)
}

func TestInvalidateCategoryRemovesOnlyThatCategory(t *testing.T) {
	e := testEngine()
	e.Set(CategoryGuildData, "g", 1)
	e.Set(CategoryUserData, "u", 1)

	removed := e.InvalidateCategory(CategoryGuildData)
	assert.Equal(t, 1, removed)

	_, ok := e.Get(CategoryGuildData, 1)
	assert.False(t, ok)
	_, ok = e.Get(CategoryUserData, 1)
	assert.True(t, ok)

	m := e.Metrics()
	assert.EqualValues(t, 0, m.ByCategory[CategoryGuildData].Size)
}

func TestInvalidateRelatedFollowsOneHopEdges(t *testing.T) {
	e := testEngine()
	e.Set(CategoryUserData, "u", 1)
	e.Set(CategoryRosterData, "r", 1)
	e.Set(CategoryEventsData, "ev", 1)
	e.Set(CategoryGuildData, "g", 1)

	e.InvalidateRelated(CategoryGuildData)

	for _, c := range []Category{CategoryUserData, CategoryRosterData, CategoryEventsData} {
		_, ok := e.Get(c, 1)
		assert.Falsef(t, ok, "expected %s invalidated", c)
	}
	_, ok := e.Get(CategoryGuildData, 1)
	assert.True(t, ok, "guild_data itself must be untouched")
}

func TestHotKeyAndPredictionAfterSixAccesses(t *testing.T) {
	e := testEngine()
	e.Set(CategoryStaticData, "weapon-table")

	for i := 0; i < 6; i++ {
		_, ok := e.Get(CategoryStaticData)
		require.True(t, ok)
		time.Sleep(time.Millisecond)
	}

	v, _ := e.entries.Load(BuildKey(CategoryStaticData))
	ent := v.(*entry)
	assert.True(t, ent.hot)
	assert.True(t, ent.hasPrediction)
}

func TestCleanupExpiredSweepsEntireMap(t *testing.T) {
	e := testEngine()
	e.SetWithTTL(CategoryTemporary, "v", time.Millisecond, "a")
	time.Sleep(5 * time.Millisecond)

	removed := e.CleanupExpired()
	assert.Equal(t, 1, removed)
}

func TestPreloadHookDispatchByPrefix(t *testing.T) {
	e := testEngine()
	called := make(chan struct{}, 1)
	e.RegisterPreloadHook("guild_roles_", func(ctx context.Context, category Category, key string) error {
		called <- struct{}{}
		return nil
	})

	hook := e.findPreloadHook("guild_roles_42")
	require.NotNil(t, hook)
	_ = hook(context.Background(), CategoryDiscordEntities, "guild_roles_42")

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("hook not invoked")
	}
}
