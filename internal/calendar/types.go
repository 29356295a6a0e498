package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"

	apperrors "github.com/teemow/tagdeck/internal/errors"
)

// PrimaryCalendar is the calendar id of the signed-in user's main calendar.
const PrimaryCalendar = "primary"

// StatusCancelled is the event status of deleted events.
const StatusCancelled = "cancelled"

// EventInput represents the input for creating or replacing a calendar event
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	TimeZone    string
	Attendees   []string
}

// Validate checks the fields the API would otherwise reject after a round trip.
func (in EventInput) Validate() error {
	if in.Summary == "" {
		return apperrors.Validation("summary is required")
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return apperrors.Validation("start and end are required")
	}
	if in.End.Before(in.Start) {
		return apperrors.Validation("end must not be before start")
	}
	return nil
}

// Event is a normalized calendar event.
type Event struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Status      string
	Organizer   string
	Attendees   []string
	HTMLLink    string
	Created     time.Time
	Updated     time.Time
}

// Cancelled reports whether the event has been deleted.
func (e Event) Cancelled() bool {
	return e.Status == StatusCancelled
}

// toEvent converts a Google Calendar event to an Event
func toEvent(event *calendar.Event) Event {
	if event == nil {
		return Event{}
	}
	out := Event{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Status:      event.Status,
		HTMLLink:    event.HtmlLink,
		Created:     parseRFC3339(event.Created),
		Updated:     parseRFC3339(event.Updated),
	}

	out.Start, out.AllDay = parseEventTime(event.Start)
	out.End, _ = parseEventTime(event.End)

	if event.Organizer != nil {
		out.Organizer = event.Organizer.Email
	}
	for _, att := range event.Attendees {
		out.Attendees = append(out.Attendees, att.Email)
	}
	return out
}

// parseEventTime returns the instant of an event boundary and whether it is a
// whole-day date.
func parseEventTime(dt *calendar.EventDateTime) (time.Time, bool) {
	if dt == nil {
		return time.Time{}, false
	}
	if dt.DateTime != "" {
		return parseRFC3339(dt.DateTime), false
	}
	if dt.Date != "" {
		if t, err := time.Parse(time.DateOnly, dt.Date); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseRFC3339(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// toGoogleEvent renders input as a full event body.
func toGoogleEvent(input EventInput) *calendar.Event {
	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
	}

	// For all-day events, use Date instead of DateTime
	if input.AllDay {
		event.Start = &calendar.EventDateTime{Date: input.Start.Format(time.DateOnly)}
		event.End = &calendar.EventDateTime{Date: input.End.Format(time.DateOnly)}
	} else {
		tz := input.TimeZone
		if tz == "" {
			tz = "UTC"
		}
		event.Start = &calendar.EventDateTime{DateTime: input.Start.Format(time.RFC3339), TimeZone: tz}
		event.End = &calendar.EventDateTime{DateTime: input.End.Format(time.RFC3339), TimeZone: tz}
	}

	for _, email := range input.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}
	return event
}
