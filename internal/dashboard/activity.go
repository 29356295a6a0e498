package dashboard

import (
	"context"
	"time"

	"github.com/teemow/tagdeck/internal/activity"
	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/session"
)

// ActivityQuery selects an activity feed.
type ActivityQuery struct {
	Since time.Time
	// Limit caps each source; zero means the configured default.
	Limit int
	// Max caps the merged feed; zero leaves it uncapped.
	Max int
}

// Activity returns the user's activity feed. The calendar source is read only
// when the session has a calendar connection.
func (s *Service) Activity(ctx context.Context, st *session.State, q ActivityQuery) ([]activity.Entry, error) {
	limit := q.Limit
	if limit == 0 {
		limit = s.activityLimit
	}
	if limit < 0 || q.Max < 0 {
		return nil, apperrors.Validation("limit must not be negative")
	}

	var cal activity.EventLister
	if st.CalendarConnected {
		c, err := s.clients.Calendar(ctx, st.UserID)
		if err != nil {
			return nil, err
		}
		cal = c
	}

	feed, err := s.feed.Feed(ctx, st.UserID, cal, q.Since, limit)
	if err != nil {
		return nil, err
	}
	if q.Max > 0 {
		feed = activity.Truncate(feed, q.Max)
	}
	return feed, nil
}
