package activity

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/tagdeck/internal/calendar"
	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/instrumentation"
	"github.com/teemow/tagdeck/internal/logging"
	"github.com/teemow/tagdeck/internal/store"
)

// Type is the kind of an activity entry.
type Type string

const (
	EmailTagAdded        Type = "EMAIL_TAG_ADDED"
	EmailTagRemoved      Type = "EMAIL_TAG_REMOVED"
	CardCreated          Type = "CARD_CREATED"
	CardUpdated          Type = "CARD_UPDATED"
	CardDeleted          Type = "CARD_DELETED"
	CalendarEventCreated Type = "CALENDAR_EVENT_CREATED"
	CalendarEventUpdated Type = "CALENDAR_EVENT_UPDATED"
	CalendarEventDeleted Type = "CALENDAR_EVENT_DELETED"
)

// Source names where an entry came from. The declaration order is the
// tie-break order for entries with equal timestamps.
type Source int

const (
	SourceTagAdded Source = iota
	SourceTagRemoved
	SourceCardLog
	SourceCalendar
)

func (s Source) String() string {
	switch s {
	case SourceTagAdded:
		return "email_tag_added"
	case SourceTagRemoved:
		return "email_tag_removed"
	case SourceCardLog:
		return "card_log"
	case SourceCalendar:
		return "calendar"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// CreatedThreshold is how close an event's update time must be to its creation
// time for the event to count as newly created. The Calendar API reports no
// creation events, so this is a heuristic: an event edited within this window
// of being created shows up as created.
const CreatedThreshold = 5 * time.Second

// DefaultWindow is how far back the feed reaches when no start time is given.
const DefaultWindow = 7 * 24 * time.Hour

// Entry is one item of the activity feed.
type Entry struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Source    Source    `json:"-"`
	Timestamp time.Time `json:"timestamp"`
	// ItemID is the email, card or event the entry is about.
	ItemID   string `json:"item_id"`
	Title    string `json:"title,omitempty"`
	TagID    string `json:"tag_id,omitempty"`
	TagName  string `json:"tag_name,omitempty"`
	TagColor string `json:"tag_color,omitempty"`
}

// EventLister is the part of the Calendar client the aggregator needs.
type EventLister interface {
	ListUpdatedSince(ctx context.Context, calendarID string, since time.Time, limit int) ([]calendar.Event, error)
}

// Aggregator builds activity feeds.
type Aggregator struct {
	store   store.ActivityStore
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	now     func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithMetrics records feed sizes on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator creates an Aggregator reading the store's activity sources.
func NewAggregator(s store.ActivityStore, logger *slog.Logger, opts ...Option) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Aggregator{store: s, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Feed returns the user's activity since the given time, newest first.
//
// Each source contributes at most limit entries, so the merged feed may hold up
// to four times limit; use Truncate for a global cap. Sources are read
// concurrently. A failing source is logged and contributes nothing, except a
// credential-expired calendar source, which fails the feed. A nil cal skips
// the calendar source.
func (a *Aggregator) Feed(ctx context.Context, userID string, cal EventLister, since time.Time, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, apperrors.Validation("limit must be positive")
	}
	if since.IsZero() {
		since = a.now().Add(-DefaultWindow)
	}

	logger := logging.WithOperation(a.logger, "activity.feed")
	results := make([][]Entry, SourceCalendar+1)

	g, gctx := errgroup.WithContext(ctx)
	read := func(src Source, fn func(ctx context.Context) ([]Entry, error)) {
		g.Go(func() error {
			entries, err := fn(gctx)
			if err != nil {
				if src == SourceCalendar && apperrors.IsCredentialExpired(err) {
					return err
				}
				logger.WarnContext(gctx, "activity source failed, continuing without it",
					logging.Source(src.String()),
					logging.UserHash(userID),
					logging.Err(err))
				return nil
			}
			results[src] = capped(entries, limit)
			return nil
		})
	}

	read(SourceTagAdded, func(ctx context.Context) ([]Entry, error) {
		events, err := a.store.TagAddedEvents(ctx, userID, since, limit)
		if err != nil {
			return nil, err
		}
		return fromTagEvents(events, EmailTagAdded, SourceTagAdded), nil
	})
	read(SourceTagRemoved, func(ctx context.Context) ([]Entry, error) {
		events, err := a.store.TagRemovedEvents(ctx, userID, since, limit)
		if err != nil {
			return nil, err
		}
		return fromTagEvents(events, EmailTagRemoved, SourceTagRemoved), nil
	})
	read(SourceCardLog, func(ctx context.Context) ([]Entry, error) {
		log, err := a.store.CardLog(ctx, userID, since, limit)
		if err != nil {
			return nil, err
		}
		return fromCardLog(log), nil
	})
	if cal != nil {
		read(SourceCalendar, func(ctx context.Context) ([]Entry, error) {
			events, err := cal.ListUpdatedSince(ctx, calendar.PrimaryCalendar, since, limit)
			if err != nil {
				return nil, err
			}
			return fromCalendar(events), nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := Merge(results...)
	a.metrics.RecordActivityFeed(ctx, len(merged))
	return merged, nil
}

// Merge interleaves per-source entries newest first. Entries with equal
// timestamps keep source order, then id order.
func Merge(sources ...[]Entry) []Entry {
	n := 0
	for _, s := range sources {
		n += len(s)
	}
	out := make([]Entry, 0, n)
	for _, s := range sources {
		out = append(out, s...)
	}
	slices.SortStableFunc(out, func(a, b Entry) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Truncate returns at most n entries of a merged feed.
func Truncate(entries []Entry, n int) []Entry {
	if n < 0 || len(entries) <= n {
		return entries
	}
	return entries[:n]
}

// Classify infers what happened to a calendar event and when. Cancelled events
// are deletions at their update time; events updated within CreatedThreshold
// of creation are creations at their creation time; anything else is an update
// at its update time.
func Classify(ev calendar.Event) (Type, time.Time) {
	switch {
	case ev.Cancelled():
		return CalendarEventDeleted, ev.Updated
	case ev.Updated.Sub(ev.Created) < CreatedThreshold:
		return CalendarEventCreated, ev.Created
	default:
		return CalendarEventUpdated, ev.Updated
	}
}

func capped(entries []Entry, limit int) []Entry {
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func fromTagEvents(events []store.TagEvent, typ Type, src Source) []Entry {
	out := make([]Entry, len(events))
	for i, e := range events {
		out[i] = Entry{
			ID:        fmt.Sprintf("%s:%s:%s:%d", src, e.EmailID, e.TagID, e.At.UnixNano()),
			Type:      typ,
			Source:    src,
			Timestamp: e.At,
			ItemID:    e.EmailID,
			Title:     e.TagName,
			TagID:     e.TagID,
			TagName:   e.TagName,
			TagColor:  e.TagColor,
		}
	}
	return out
}

func fromCardLog(log []store.CardLogEntry) []Entry {
	out := make([]Entry, 0, len(log))
	for _, e := range log {
		var typ Type
		switch e.Type {
		case store.CardCreated:
			typ = CardCreated
		case store.CardUpdated:
			typ = CardUpdated
		case store.CardDeleted:
			typ = CardDeleted
		default:
			continue
		}
		out = append(out, Entry{
			ID:        e.ID,
			Type:      typ,
			Source:    SourceCardLog,
			Timestamp: e.Timestamp,
			ItemID:    e.CardID,
			Title:     e.Title,
		})
	}
	return out
}

func fromCalendar(events []calendar.Event) []Entry {
	out := make([]Entry, len(events))
	for i, ev := range events {
		typ, at := Classify(ev)
		out[i] = Entry{
			ID:        ev.ID,
			Type:      typ,
			Source:    SourceCalendar,
			Timestamp: at,
			ItemID:    ev.ID,
			Title:     ev.Summary,
		}
	}
	return out
}
