package calendar

import (
	"context"
	"fmt"
	"slices"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/instrumentation"
)

// maxPageSize is the largest page events.list accepts.
const maxPageSize = 2500

// Config tunes a Client.
type Config struct {
	Metrics *instrumentation.Metrics
}

// Client wraps the Google Calendar service
type Client struct {
	svc     *calendar.Service
	metrics *instrumentation.Metrics
}

// NewClient creates a Calendar client. Authentication comes from opts, normally
// option.WithHTTPClient with a per-user OAuth client.
func NewClient(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Client{svc: svc, metrics: cfg.Metrics}, nil
}

func (c *Client) call(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, operation)
	defer span.End()

	start := time.Now()
	err := apperrors.FromGoogle(fn(ctx), "calendar."+operation)
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, operation, instrumentation.StatusOf(err), time.Since(start))

	if err != nil {
		instrumentation.SetSpanError(span, err)
		return err
	}
	instrumentation.SetSpanSuccess(span)
	return nil
}

// ListEvents lists events in a calendar within a time range, recurring events
// expanded into instances and ordered by start time.
func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error) {
	if !timeMax.After(timeMin) {
		return nil, apperrors.Validation("time window end must be after its start")
	}

	call := c.svc.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxPageSize)

	var events []Event
	err := c.call(ctx, instrumentation.OperationList, func(ctx context.Context) error {
		return call.Pages(ctx, func(page *calendar.Events) error {
			for _, e := range page.Items {
				events = append(events, toEvent(e))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListUpdatedSince lists the limit most recently modified events changed at
// or after since, newest first, cancelled events included. Every page is read
// since Google orders by ascending modification time.
func (c *Client) ListUpdatedSince(ctx context.Context, calendarID string, since time.Time, limit int) ([]Event, error) {
	call := c.svc.Events.List(calendarID).
		UpdatedMin(since.Format(time.RFC3339)).
		ShowDeleted(true).
		SingleEvents(true).
		OrderBy("updated").
		MaxResults(maxPageSize)

	var events []Event
	err := c.call(ctx, instrumentation.OperationList, func(ctx context.Context) error {
		return call.Pages(ctx, func(page *calendar.Events) error {
			for _, e := range page.Items {
				events = append(events, toEvent(e))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(events, func(a, b Event) int { return b.Updated.Compare(a.Updated) })
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// GetEvent retrieves a specific event by ID
func (c *Client) GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error) {
	var res *calendar.Event
	err := c.call(ctx, instrumentation.OperationGet, func(ctx context.Context) error {
		var err error
		res, err = c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	event := toEvent(res)
	return &event, nil
}

// CreateEvent creates a new calendar event
func (c *Client) CreateEvent(ctx context.Context, calendarID string, input EventInput) (*Event, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var res *calendar.Event
	err := c.call(ctx, instrumentation.OperationCreate, func(ctx context.Context) error {
		var err error
		res, err = c.svc.Events.Insert(calendarID, toGoogleEvent(input)).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	event := toEvent(res)
	return &event, nil
}

// UpdateEvent replaces an event with input. Fields absent from input are cleared.
func (c *Client) UpdateEvent(ctx context.Context, calendarID, eventID string, input EventInput) (*Event, error) {
	if eventID == "" {
		return nil, apperrors.Validation("event id is required")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var res *calendar.Event
	err := c.call(ctx, instrumentation.OperationUpdate, func(ctx context.Context) error {
		var err error
		res, err = c.svc.Events.Update(calendarID, eventID, toGoogleEvent(input)).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	event := toEvent(res)
	return &event, nil
}

// DeleteEvent deletes a calendar event
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if eventID == "" {
		return apperrors.Validation("event id is required")
	}
	return c.call(ctx, instrumentation.OperationDelete, func(ctx context.Context) error {
		return c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
	})
}
