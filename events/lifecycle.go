package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/romaingrosos/myguildmanager-core/cache"
	"github.com/romaingrosos/myguildmanager-core/discord"
	"github.com/romaingrosos/myguildmanager-core/groupformer"
	"github.com/romaingrosos/myguildmanager-core/store"
)

var bookJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// defaultEmojiMarkers maps the three configured reaction emoji to their marker.
// Hosts supply their own emoji set via WithEmojiMarkers; this is the
// fallback used if none is configured.
var defaultEmojiMarkers = map[string]Marker{
	"✅": MarkerPresence,
	"❔": MarkerTentative,
	"❌": MarkerAbsence,
}

// AttendanceCollaborator receives the finalized registration book of a
// closed event for DKP accounting (spec §4.F "hand the finalized
// registration book to the attendance collaborator"). Contract only: its
// implementation lives outside this module.
type AttendanceCollaborator interface {
	RecordAttendance(ctx context.Context, guildID, eventID int64, book RegistrationBook, groups []groupformer.Group) error
}

// Lifecycle orchestrates the reaction-registration protocol and the
// close/reminder/delete scheduled procedures (spec §4.F).
type Lifecycle struct {
	store       *store.Gateway
	cache       *cache.Engine
	session     discord.Session
	former      *groupformer.Former
	attendance  AttendanceCollaborator
	log         zerolog.Logger
	emojiMarker map[string]Marker

	mu    sync.Mutex
	hints map[int64]*hintMap // eventID -> hint map, per-event lock granularity
}

// New constructs a Lifecycle bound to its collaborators.
func New(gw *store.Gateway, ce *cache.Engine, session discord.Session, attendance AttendanceCollaborator, log zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		store:       gw,
		cache:       ce,
		session:     session,
		former:      groupformer.New(),
		attendance:  attendance,
		log:         log.With().Str("component", "events").Logger(),
		emojiMarker: defaultEmojiMarkers,
		hints:       make(map[int64]*hintMap),
	}
}

// WithEmojiMarkers overrides the default emoji-to-marker mapping.
func (l *Lifecycle) WithEmojiMarkers(mapping map[string]Marker) {
	l.emojiMarker = mapping
}

func (l *Lifecycle) hintsFor(eventID int64) *hintMap {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.hints[eventID]
	if !ok {
		h = newHintMap()
		l.hints[eventID] = h
	}
	return h
}

// HandleReactionAdd implements the reaction-add protocol (spec §4.F).
func (l *Lifecycle) HandleReactionAdd(ctx context.Context, ev *Event, userID int64, emoji string, now time.Time) error {
	marker, known := l.emojiMarker[emoji]
	if !known {
		return nil
	}

	others, ok := ev.ApplyReaction(userID, marker)
	if !ok {
		return nil
	}

	hints := l.hintsFor(ev.EventID)
	for _, m := range others {
		hints.Record(userID, m, now)
	}

	if err := l.persistBook(ctx, ev); err != nil {
		return err
	}
	return l.refreshEmbed(ctx, ev)
}

// HandleReactionRemove implements user-initiated reaction removal (spec
// §4.F "On reaction remove"). Removals that fall inside an ignore-removal
// hint window are echoes of ApplyReaction's own set-clearing and are
// suppressed.
func (l *Lifecycle) HandleReactionRemove(ctx context.Context, ev *Event, userID int64, emoji string, now time.Time) error {
	marker, known := l.emojiMarker[emoji]
	if !known {
		return nil
	}
	if l.hintsFor(ev.EventID).Active(userID, marker, now) {
		return nil
	}
	if !ev.RemoveReaction(userID, marker) {
		return nil
	}
	return l.persistBook(ctx, ev)
}

func (l *Lifecycle) persistBook(ctx context.Context, ev *Event) error {
	data, err := bookJSON.Marshal(ev.Book)
	if err != nil {
		return fmt.Errorf("events: marshal registration book: %w", err)
	}
	_, err = l.store.Exec(ctx, store.KindUpdate,
		"UPDATE events_data SET registrations = ? WHERE guild_id = ? AND event_id = ?",
		string(data), ev.GuildID, ev.EventID)
	if err != nil {
		return fmt.Errorf("events: persist registration book: %w", err)
	}
	l.cache.SetEventData(ev.GuildID, fmt.Sprintf("event_%d", ev.EventID), ev)
	return nil
}

func (l *Lifecycle) refreshEmbed(ctx context.Context, ev *Event) error {
	embed := renderRegistrationEmbed(ev)
	err := l.session.EditMessage(ctx, ev.ChannelID, ev.MessageID, "", &embed)
	if errors.Is(err, discord.ErrNotFound) {
		l.log.Warn().Int64("event_id", ev.EventID).Msg("announcement message already gone, skipping embed refresh")
		return nil
	}
	return err
}

func renderRegistrationEmbed(ev *Event) discord.Embed {
	return discord.Embed{
		Title: ev.Name,
		Fields: []discord.EmbedField{
			{Name: "Presence", Value: fmt.Sprintf("%d", len(ev.Book.Presence)), Inline: true},
			{Name: "Tentative", Value: fmt.Sprintf("%d", len(ev.Book.Tentative)), Inline: true},
			{Name: "Absence", Value: fmt.Sprintf("%d", len(ev.Book.Absence)), Inline: true},
		},
	}
}

// RunCloseProcedure implements spec §4.F's scheduled close procedure: every
// event whose start falls in the close window and whose status is Planned
// or Confirmed is marked Closed, has its reactions cleared, triggers Group
// Former, and hands its book to the attendance collaborator.
func (l *Lifecycle) RunCloseProcedure(ctx context.Context, candidates []*Event, registrants map[int64][]groupformer.Registrant, staticGroups map[int64][]groupformer.StaticGroup, now time.Time) {
	for _, ev := range candidates {
		if ev.Status != StatusPlanned && ev.Status != StatusConfirmed {
			continue
		}
		if !ev.InCloseWindow(now) {
			continue
		}

		if err := ev.Close(); err != nil {
			l.log.Error().Err(err).Int64("event_id", ev.EventID).Msg("close transition rejected")
			continue
		}

		if err := l.session.ClearReactions(ctx, ev.ChannelID, ev.MessageID); err != nil && !errors.Is(err, discord.ErrNotFound) {
			l.log.Warn().Err(err).Int64("event_id", ev.EventID).Msg("clear reactions failed, will retry next tick")
		}

		groups := l.former.Form(registrants[ev.EventID], staticGroups[ev.EventID])

		if l.attendance != nil {
			if err := l.attendance.RecordAttendance(ctx, ev.GuildID, ev.EventID, ev.Book, groups); err != nil {
				l.log.Error().Err(err).Int64("event_id", ev.EventID).Msg("attendance recording failed")
			}
		}

		if err := l.persistBook(ctx, ev); err != nil {
			l.log.Error().Err(err).Int64("event_id", ev.EventID).Msg("persisting closed event failed")
		}
	}
}

// RunReminderProcedure implements spec §4.F's reminder procedure: for every
// Confirmed event scheduled today, direct-messages every member carrying
// the members role who has not yet registered any of the three markers,
// then posts a summary to notificationsChannelID.
func (l *Lifecycle) RunReminderProcedure(ctx context.Context, todays []*Event, membersWithRole []int64, notificationsChannelID string, now time.Time) {
	for _, ev := range todays {
		if ev.Status != StatusConfirmed {
			continue
		}

		registered := make(map[int64]bool, len(ev.Book.Presence)+len(ev.Book.Tentative)+len(ev.Book.Absence))
		for id := range ev.Book.Presence {
			registered[id] = true
		}
		for id := range ev.Book.Tentative {
			registered[id] = true
		}
		for id := range ev.Book.Absence {
			registered[id] = true
		}

		var toRemind []int64
		for _, id := range membersWithRole {
			if !registered[id] {
				toRemind = append(toRemind, id)
			}
		}
		if len(toRemind) == 0 {
			continue
		}

		for _, userID := range toRemind {
			msg := fmt.Sprintf("Reminder: %s has not yet received your registration.", ev.Name)
			if err := l.session.SendDirectMessage(ctx, fmt.Sprintf("%d", userID), msg); err != nil {
				l.log.Warn().Err(err).Int64("user_id", userID).Msg("reminder DM failed")
			}
		}

		summary := fmt.Sprintf("%d member(s) still need to register for %s.", len(toRemind), ev.Name)
		if _, err := l.session.SendMessage(ctx, notificationsChannelID, summary, nil); err != nil {
			l.log.Warn().Err(err).Int64("event_id", ev.EventID).Msg("reminder summary post failed")
		}
	}
}

// RunDeleteProcedure implements spec §4.F's delete procedure: events whose
// end instant has passed lose their announcement message; the store
// record is deleted only for Canceled events, otherwise it is kept.
func (l *Lifecycle) RunDeleteProcedure(ctx context.Context, candidates []*Event, now time.Time) {
	for _, ev := range candidates {
		if !ev.EndInstantPassed(now) {
			continue
		}

		err := l.session.DeleteMessage(ctx, ev.ChannelID, ev.MessageID)
		if err != nil && !errors.Is(err, discord.ErrNotFound) {
			l.log.Warn().Err(err).Int64("event_id", ev.EventID).Msg("announcement delete failed, retrying next tick")
			continue
		}

		if ev.Status == StatusCanceled {
			if _, err := l.store.Exec(ctx, store.KindDelete,
				"DELETE FROM events_data WHERE guild_id = ? AND event_id = ?", ev.GuildID, ev.EventID); err != nil {
				l.log.Error().Err(err).Int64("event_id", ev.EventID).Msg("canceled event row deletion failed")
			}
		}
	}
}
