// Package events implements the event lifecycle state machine and the
// reaction-registration, close, reminder and delete procedures of spec
// §4.F.
package events

import (
	"fmt"
	"time"
)

// Status is one of the closed states an event can be in.
type Status string

const (
	StatusPlanned   Status = "Planned"
	StatusConfirmed Status = "Confirmed"
	StatusCanceled  Status = "Canceled"
	StatusClosed    Status = "Closed"
)

// Marker is one of the three exclusive reaction emoji roles.
type Marker string

const (
	MarkerPresence  Marker = "presence"
	MarkerTentative Marker = "tentative"
	MarkerAbsence   Marker = "absence"
)

var otherMarkers = map[Marker][]Marker{
	MarkerPresence:  {MarkerTentative, MarkerAbsence},
	MarkerTentative: {MarkerPresence, MarkerAbsence},
	MarkerAbsence:   {MarkerPresence, MarkerTentative},
}

// ErrInvalidTransition is returned when a transition isn't allowed from the
// event's current status.
type ErrInvalidTransition struct {
	From Status
	Verb string
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("events: cannot %s from status %s", e.Verb, e.From)
}

// RegistrationBook tracks which members are in which reaction set.
type RegistrationBook struct {
	Presence  map[int64]bool
	Tentative map[int64]bool
	Absence   map[int64]bool
}

func newRegistrationBook() RegistrationBook {
	return RegistrationBook{
		Presence:  make(map[int64]bool),
		Tentative: make(map[int64]bool),
		Absence:   make(map[int64]bool),
	}
}

func (b RegistrationBook) setFor(m Marker) map[int64]bool {
	switch m {
	case MarkerPresence:
		return b.Presence
	case MarkerTentative:
		return b.Tentative
	case MarkerAbsence:
		return b.Absence
	default:
		return nil
	}
}

// Event is one scheduled guild activity (spec §4.F).
type Event struct {
	GuildID     int64
	EventID     int64
	Name        string
	ChannelID   string
	MessageID   string
	StartTime   time.Time
	EndTime     time.Time
	Status      Status
	Book        RegistrationBook
}

// NewEvent constructs a Planned event (spec §4.F "create... -> Planned").
func NewEvent(guildID, eventID int64, name string, start, end time.Time) *Event {
	return &Event{
		GuildID:   guildID,
		EventID:   eventID,
		Name:      name,
		StartTime: start,
		EndTime:   end,
		Status:    StatusPlanned,
		Book:      newRegistrationBook(),
	}
}

// Confirm transitions Planned -> Confirmed.
func (e *Event) Confirm() error {
	if e.Status != StatusPlanned {
		return ErrInvalidTransition{From: e.Status, Verb: "confirm"}
	}
	e.Status = StatusConfirmed
	return nil
}

// Cancel transitions Planned/Confirmed -> Canceled.
func (e *Event) Cancel() error {
	if e.Status != StatusPlanned && e.Status != StatusConfirmed {
		return ErrInvalidTransition{From: e.Status, Verb: "cancel"}
	}
	e.Status = StatusCanceled
	return nil
}

// Close transitions Planned/Confirmed -> Closed (spec §4.F close procedure).
func (e *Event) Close() error {
	if e.Status != StatusPlanned && e.Status != StatusConfirmed {
		return ErrInvalidTransition{From: e.Status, Verb: "close"}
	}
	e.Status = StatusClosed
	return nil
}

// InCloseWindow reports whether now falls in [-60min, +15min] around the
// event's start (spec §4.F "Close procedure").
func (e *Event) InCloseWindow(now time.Time) bool {
	windowStart := e.StartTime.Add(-60 * time.Minute)
	windowEnd := e.StartTime.Add(15 * time.Minute)
	return !now.Before(windowStart) && !now.After(windowEnd)
}

// EndInstantPassed reports whether now is past the event's end instant
// (spec §4.F "end-instant passes").
func (e *Event) EndInstantPassed(now time.Time) bool {
	return now.After(e.EndTime)
}

// ApplyReaction implements the reaction-add protocol (spec §4.F): remove
// the user from the other two sets, add to the target set. Returns the two
// markers that need an ignore-removal hint, or ok=false if marker is not
// one of the three exclusive markers.
func (e *Event) ApplyReaction(userID int64, marker Marker) (hintMarkers []Marker, ok bool) {
	set := e.Book.setFor(marker)
	if set == nil {
		return nil, false
	}
	others := otherMarkers[marker]
	for _, m := range others {
		delete(e.Book.setFor(m), userID)
	}
	set[userID] = true
	return others, true
}

// RemoveReaction implements user-initiated reaction removal: if the event
// is not Closed, remove the user from the matching set.
func (e *Event) RemoveReaction(userID int64, marker Marker) bool {
	if e.Status == StatusClosed {
		return false
	}
	set := e.Book.setFor(marker)
	if set == nil {
		return false
	}
	delete(set, userID)
	return true
}
