package reader

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/tagdeck/internal/calendar"
	"github.com/teemow/tagdeck/internal/store"
)

// Event is a calendar event joined with its tags.
type Event struct {
	ID          string      `json:"id"`
	Summary     string      `json:"summary"`
	Description string      `json:"description,omitempty"`
	Location    string      `json:"location,omitempty"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	AllDay      bool        `json:"all_day"`
	Status      string      `json:"status"`
	Organizer   string      `json:"organizer,omitempty"`
	Attendees   []string    `json:"attendees,omitempty"`
	HTMLLink    string      `json:"html_link,omitempty"`
	Created     time.Time   `json:"created"`
	Updated     time.Time   `json:"updated"`
	Tags        []store.Tag `json:"tags"`
}

// EventID returns e.ID.
func EventID(e Event) string { return e.ID }

// EventTagIDs returns the ids of e's tags.
func EventTagIDs(e Event) []string { return TagIDs(e.Tags) }

// EventFromCalendar converts a calendar event with no tags attached.
func EventFromCalendar(ev calendar.Event) Event {
	return Event{
		ID:          ev.ID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       ev.Start,
		End:         ev.End,
		AllDay:      ev.AllDay,
		Status:      ev.Status,
		Organizer:   ev.Organizer,
		Attendees:   ev.Attendees,
		HTMLLink:    ev.HTMLLink,
		Created:     ev.Created,
		Updated:     ev.Updated,
		Tags:        []store.Tag{},
	}
}

// EventSource is the part of the Calendar client the event reader needs.
type EventSource interface {
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]calendar.Event, error)
}

// EventReader reads calendar windows with tags.
type EventReader struct {
	store  store.AssociationStore
	logger *slog.Logger
}

// NewEventReader creates an EventReader.
func NewEventReader(s store.AssociationStore, logger *slog.Logger) *EventReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventReader{store: s, logger: logger}
}

// List returns the events of calendarID between timeMin and timeMax in start
// order, each with its tags.
func (r *EventReader) List(ctx context.Context, userID string, src EventSource, calendarID string, timeMin, timeMax time.Time) (*Listing[Event], error) {
	events, err := src.ListEvents(ctx, calendarID, timeMin, timeMax)
	if err != nil {
		return nil, err
	}

	items := make([]Event, len(events))
	for i, ev := range events {
		items[i] = EventFromCalendar(ev)
	}
	merged, degraded := Merge(ctx, r.logger, userID, store.KindCalendar, items, EventID,
		TagLookup(r.store, store.KindCalendar, userID),
		func(e Event, tags []store.Tag) Event {
			e.Tags = nonNil(tags)
			return e
		})
	return &Listing[Event]{Items: merged, TagsDegraded: degraded}, nil
}
