package cache

// The following convenience wrappers mirror the specialized accessors of
// the original cache (guild/user/event/static data), grounding call sites
// in roster/events/groupformer on a stable, typed surface instead of raw
// BuildKey plumbing everywhere.

// GetGuildData returns cached per-guild data of dataType.
func (e *Engine) GetGuildData(guildID int64, dataType string) (interface{}, bool) {
	return e.Get(CategoryGuildData, guildID, dataType)
}

// SetGuildData caches per-guild data of dataType.
func (e *Engine) SetGuildData(guildID int64, dataType string, value interface{}) {
	e.Set(CategoryGuildData, value, guildID, dataType)
}

// GetUserData returns cached per-member onboarding data.
func (e *Engine) GetUserData(guildID, userID int64, dataType string) (interface{}, bool) {
	return e.Get(CategoryUserData, guildID, userID, dataType)
}

// SetUserData caches per-member onboarding data.
func (e *Engine) SetUserData(guildID, userID int64, dataType string, value interface{}) {
	e.Set(CategoryUserData, value, guildID, userID, dataType)
}

// GetRosterProjection returns the cached roster projection for a guild.
func (e *Engine) GetRosterProjection(guildID int64) (interface{}, bool) {
	return e.Get(CategoryRosterData, guildID, "members")
}

// SetRosterProjection caches the roster projection for a guild and triggers
// the one-hop invalidation into events_data (spec §3 rule graph).
func (e *Engine) SetRosterProjection(guildID int64, members interface{}) {
	e.Set(CategoryRosterData, members, guildID, "members")
	e.InvalidateRelated(CategoryRosterData)
}

// GetEventData returns cached event data of eventType (e.g. "all").
func (e *Engine) GetEventData(guildID int64, eventType string) (interface{}, bool) {
	return e.Get(CategoryEventsData, guildID, eventType)
}

// SetEventData caches event data of eventType.
func (e *Engine) SetEventData(guildID int64, eventType string, value interface{}) {
	e.Set(CategoryEventsData, value, guildID, eventType)
}

// GetStaticData returns cached static game/weapons metadata.
func (e *Engine) GetStaticData(dataType string, gameID int64) (interface{}, bool) {
	return e.Get(CategoryStaticData, dataType, gameID)
}

// SetStaticData caches static game/weapons metadata.
func (e *Engine) SetStaticData(dataType string, gameID int64, value interface{}) {
	e.Set(CategoryStaticData, value, dataType, gameID)
}
