// Package cacheloader brings each cache category up to date from the
// authoritative relational store (spec §4.B). Each loader is idempotent:
// a category already marked loaded is a no-op unless Reload is called.
package cacheloader

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/romaingrosos/myguildmanager-core/cache"
	"github.com/romaingrosos/myguildmanager-core/store"
)

// Category is the closed set of loadable categories. Kept distinct from
// cache.Category because one cache category can be fed by several loaders
// (e.g. guild_data is populated by settings/roles/channels loaders).
type Category string

const (
	CategoryGuildSettings   Category = "guild_settings"
	CategoryGuildRoles      Category = "guild_roles"
	CategoryGuildChannels   Category = "guild_channels"
	CategoryWelcomeMessages Category = "welcome_messages"
	CategoryStaticGroups    Category = "static_groups"
	CategoryIdealStaff      Category = "ideal_staff"
	CategoryWeapons         Category = "weapons"
	CategoryGamesList       Category = "games_list"
)

var allCategories = []Category{
	CategoryGuildSettings,
	CategoryGuildRoles,
	CategoryGuildChannels,
	CategoryWelcomeMessages,
	CategoryStaticGroups,
	CategoryIdealStaff,
	CategoryWeapons,
	CategoryGamesList,
}

// Loader hydrates the cache engine from the store gateway, one category at
// a time, per spec §4.B.
type Loader struct {
	store *store.Gateway
	cache *cache.Engine
	log   zerolog.Logger

	mu     sync.Mutex
	loaded map[Category]bool
}

// New constructs a Loader bound to gw and ce.
func New(gw *store.Gateway, ce *cache.Engine, log zerolog.Logger) *Loader {
	return &Loader{
		store:  gw,
		cache:  ce,
		log:    log.With().Str("component", "cacheloader").Logger(),
		loaded: make(map[Category]bool, len(allCategories)),
	}
}

// Reload clears the loaded marker for category so the next Ensure call
// re-hydrates it from the store.
func (l *Loader) Reload(category Category) {
	l.mu.Lock()
	delete(l.loaded, category)
	l.mu.Unlock()
}

func (l *Loader) isLoaded(category Category) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded[category]
}

func (l *Loader) markLoaded(category Category) {
	l.mu.Lock()
	l.loaded[category] = true
	l.mu.Unlock()
}

// ensure is the idempotency gate shared by every Ensure<Category> method.
func (l *Loader) ensure(ctx context.Context, category Category, load func(context.Context) error) error {
	if l.isLoaded(category) {
		return nil
	}
	if err := load(ctx); err != nil {
		l.log.Error().Err(err).Str("category", string(category)).Msg("loader failed")
		return fmt.Errorf("cacheloader: %s: %w", category, err)
	}
	l.markLoaded(category)
	return nil
}

// EnsureGuildSettingsLoaded loads guild_settings for every guild.
func (l *Loader) EnsureGuildSettingsLoaded(ctx context.Context) error {
	return l.ensure(ctx, CategoryGuildSettings, l.loadGuildSettings)
}

// EnsureGuildRolesLoaded loads guild_roles for every guild.
func (l *Loader) EnsureGuildRolesLoaded(ctx context.Context) error {
	return l.ensure(ctx, CategoryGuildRoles, l.loadGuildRoles)
}

// EnsureGuildChannelsLoaded loads guild_channels for every guild.
func (l *Loader) EnsureGuildChannelsLoaded(ctx context.Context) error {
	return l.ensure(ctx, CategoryGuildChannels, l.loadGuildChannels)
}

// EnsureWelcomeMessagesLoaded loads welcome_messages for autorole lookups.
func (l *Loader) EnsureWelcomeMessagesLoaded(ctx context.Context) error {
	return l.ensure(ctx, CategoryWelcomeMessages, l.loadWelcomeMessages)
}

// EnsureStaticGroupsLoaded loads guild_static_groups + guild_static_members.
func (l *Loader) EnsureStaticGroupsLoaded(ctx context.Context) error {
	return l.ensure(ctx, CategoryStaticGroups, l.loadStaticGroups)
}

// EnsureIdealStaffLoaded loads guild_ideal_staff.
func (l *Loader) EnsureIdealStaffLoaded(ctx context.Context) error {
	return l.ensure(ctx, CategoryIdealStaff, l.loadIdealStaff)
}

// EnsureWeaponsLoaded loads weapons + weapons_combinations.
func (l *Loader) EnsureWeaponsLoaded(ctx context.Context) error {
	return l.ensure(ctx, CategoryWeapons, l.loadWeapons)
}

// EnsureGamesListLoaded loads games_list.
func (l *Loader) EnsureGamesListLoaded(ctx context.Context) error {
	return l.ensure(ctx, CategoryGamesList, l.loadGamesList)
}

// LoadAll runs every per-category loader in parallel, aggregating errors
// into the log without aborting siblings (spec §4.B "load_all"). Safe to
// call repeatedly: already-loaded categories are no-ops.
func (l *Loader) LoadAll(ctx context.Context) {
	loaders := []func(context.Context) error{
		l.EnsureGuildSettingsLoaded,
		l.EnsureGuildRolesLoaded,
		l.EnsureGuildChannelsLoaded,
		l.EnsureWelcomeMessagesLoaded,
		l.EnsureStaticGroupsLoaded,
		l.EnsureIdealStaffLoaded,
		l.EnsureWeaponsLoaded,
		l.EnsureGamesListLoaded,
	}

	var wg sync.WaitGroup
	for _, ld := range loaders {
		ld := ld
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ld(ctx); err != nil {
				l.log.Error().Err(err).Msg("load_all: loader failed, continuing with siblings")
			}
		}()
	}
	wg.Wait()
}
