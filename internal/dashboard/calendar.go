package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/teemow/tagdeck/internal/calendar"
	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/instrumentation"
	"github.com/teemow/tagdeck/internal/reader"
	"github.com/teemow/tagdeck/internal/store"
	"github.com/teemow/tagdeck/internal/tagfilter"
)

// DefaultEventWindow is the calendar window listed when no end is given.
const DefaultEventWindow = 7 * 24 * time.Hour

// EventQuery selects calendar events.
type EventQuery struct {
	CalendarID string
	From       time.Time
	To         time.Time
	Filter     tagfilter.Selection
}

// EventInput creates or replaces an event.
type EventInput struct {
	Summary     string    `json:"summary" validate:"notblank,max=1024"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start" validate:"required"`
	End         time.Time `json:"end" validate:"required,gtefield=Start"`
	AllDay      bool      `json:"all_day,omitempty"`
	TimeZone    string    `json:"time_zone,omitempty"`
	Attendees   []string  `json:"attendees,omitempty" validate:"omitempty,dive,email"`
}

func (in EventInput) toCalendar() calendar.EventInput {
	return calendar.EventInput{
		Summary:     in.Summary,
		Description: in.Description,
		Location:    in.Location,
		Start:       in.Start,
		End:         in.End,
		AllDay:      in.AllDay,
		TimeZone:    in.TimeZone,
		Attendees:   in.Attendees,
	}
}

// ListEvents returns the events of a window with their tags, narrowed by the
// tag filter when one is set.
func (s *Service) ListEvents(ctx context.Context, userID string, q EventQuery) (*reader.Listing[reader.Event], error) {
	if q.CalendarID == "" {
		q.CalendarID = calendar.PrimaryCalendar
	}
	if q.From.IsZero() {
		q.From = store.StartOfDay(s.now())
	}
	if q.To.IsZero() {
		q.To = q.From.Add(DefaultEventWindow)
	}
	if !q.To.After(q.From) {
		return nil, apperrors.Validation("to must be after from")
	}

	src, err := s.clients.Calendar(ctx, userID)
	if err != nil {
		return nil, err
	}
	listing, err := s.events.List(ctx, userID, src, q.CalendarID, q.From, q.To)
	if err != nil {
		return nil, err
	}
	if !q.Filter.Empty() {
		s.metrics.RecordFilterEvaluation(ctx, string(store.KindCalendar), string(q.Filter.Mode()), instrumentation.EvaluationClient)
		listing.Items = tagfilter.Filter(listing.Items, reader.EventTagIDs, q.Filter)
	}
	return listing, nil
}

// CreateEvent creates an event on the user's primary calendar.
func (s *Service) CreateEvent(ctx context.Context, userID string, in EventInput) (*reader.Event, error) {
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}
	src, err := s.clients.Calendar(ctx, userID)
	if err != nil {
		return nil, err
	}
	ev, err := src.CreateEvent(ctx, calendar.PrimaryCalendar, in.toCalendar())
	if err != nil {
		return nil, err
	}
	out := reader.EventFromCalendar(*ev)
	return &out, nil
}

// UpdateEvent replaces an event. Its tags are kept.
func (s *Service) UpdateEvent(ctx context.Context, userID, eventID string, in EventInput) (*reader.Event, error) {
	if eventID == "" {
		return nil, apperrors.Validation("event id is required")
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}
	src, err := s.clients.Calendar(ctx, userID)
	if err != nil {
		return nil, err
	}
	ev, err := src.UpdateEvent(ctx, calendar.PrimaryCalendar, eventID, in.toCalendar())
	if err != nil {
		return nil, err
	}

	out := reader.EventFromCalendar(*ev)
	if tags, err := s.store.TagsForItems(ctx, store.KindCalendar, userID, []string{eventID}); err == nil && tags[eventID] != nil {
		out.Tags = tags[eventID]
	}
	return &out, nil
}

// DeleteEvent deletes an event. Its tag associations stay so the activity
// feed can still name them.
func (s *Service) DeleteEvent(ctx context.Context, userID, eventID string) error {
	if eventID == "" {
		return apperrors.Validation("event id is required")
	}
	src, err := s.clients.Calendar(ctx, userID)
	if err != nil {
		return err
	}
	if err := src.DeleteEvent(ctx, calendar.PrimaryCalendar, eventID); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// ToggleEventTag flips a tag on an event and reports whether it is now attached.
func (s *Service) ToggleEventTag(ctx context.Context, userID, eventID, tagID string) (bool, error) {
	if eventID == "" || tagID == "" {
		return false, apperrors.Validation("event id and tag id are required")
	}
	return s.toggleTag(ctx, store.KindCalendar, userID, eventID, tagID)
}
