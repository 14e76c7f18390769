// Package discord defines the chat-platform contracts the core depends on.
// It intentionally contains no gateway, REST, or interaction-dispatch
// implementation: the client and command dispatcher are out of scope
// (spec §1) and are supplied by the host application. Entity field naming
// follows the teacher's discordgo-derived struct conventions (snowflake IDs
// carried as strings, GuildID/ID pairing).
package discord

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound mirrors a platform 404: the entity is already gone.
var ErrNotFound = errors.New("discord: not found")

// ErrForbidden mirrors a platform 403.
var ErrForbidden = errors.New("discord: forbidden")

// CallTimeout is the default per-call timeout (spec §5).
const CallTimeout = 10 * time.Second

// Role membership markers referenced throughout the event/roster components.
const (
	RoleMembers        = "members"
	RoleAbsentMembers  = "absent_members"
)

// Member is the subset of a guild member the core needs.
type Member struct {
	UserID      string
	GuildID     string
	DisplayName string
	Bot         bool
	Roles       []string
}

// HasRole reports whether the member carries the given role id.
func (m Member) HasRole(roleID string) bool {
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// Role is a guild role.
type Role struct {
	ID      string
	GuildID string
	Name    string
}

// Channel is a guild channel.
type Channel struct {
	ID      string
	GuildID string
	Name    string
}

// Embed is a minimal rich-embed payload for announcement messages.
type Embed struct {
	Title       string
	Description string
	Fields      []EmbedField
}

// EmbedField is one field of an Embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// ScheduledEvent describes a platform-native scheduled event to create.
type ScheduledEvent struct {
	GuildID     string
	Name        string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	ChannelID   string
}

// Permission is a coarse permission check requested of Session.HasPermission.
type Permission int

const (
	PermissionViewChannel Permission = iota
	PermissionSendMessages
	PermissionCreateEvents
)

// Session is the contract the core consumes from the chat-platform client.
// Every method is expected to suspend on network I/O (spec §5) and to
// respect ctx cancellation/timeout.
type Session interface {
	SendMessage(ctx context.Context, channelID string, content string, embed *Embed) (messageID string, err error)
	EditMessage(ctx context.Context, channelID, messageID string, content string, embed *Embed) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	FetchMessage(ctx context.Context, channelID, messageID string) error
	ClearReactions(ctx context.Context, channelID, messageID string) error
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error

	FetchMembers(ctx context.Context, guildID string) ([]Member, error)
	FetchMember(ctx context.Context, guildID, userID string) (Member, error)
	RoleMembers(ctx context.Context, guildID, roleID string) ([]Member, error)
	EditMemberNick(ctx context.Context, guildID, userID, nick string) error

	CreateScheduledEvent(ctx context.Context, ev ScheduledEvent) (eventID string, err error)

	FetchRole(ctx context.Context, guildID, roleID string) (Role, error)
	FetchChannel(ctx context.Context, channelID string) (Channel, error)

	HasPermission(ctx context.Context, guildID, channelID string, perm Permission) (bool, error)

	SendDirectMessage(ctx context.Context, userID string, content string) error
}
