package sqlite

import (
	"context"
	"time"

	"github.com/teemow/tagdeck/internal/store"
)

// TagAddedEvents returns email tag attachments at or after since, newest first.
func (s *Store) TagAddedEvents(ctx context.Context, userID string, since time.Time, limit int) ([]store.TagEvent, error) {
	return s.queryTagEvents(ctx, `
		SELECT et.email_id, t.id, t.name, t.color, et.created_at
		FROM email_tags et
		JOIN tags t ON t.id = et.tag_id
		WHERE et.user_id = ? AND et.created_at >= ?
		ORDER BY et.created_at DESC, et.email_id
		LIMIT ?`, userID, formatTime(since), limit)
}

// TagRemovedEvents returns logged email tag detachments at or after since, newest first.
func (s *Store) TagRemovedEvents(ctx context.Context, userID string, since time.Time, limit int) ([]store.TagEvent, error) {
	return s.queryTagEvents(ctx, `
		SELECT email_id, tag_id, tag_name, tag_color, removed_at
		FROM removed_email_tags_log
		WHERE user_id = ? AND removed_at >= ?
		ORDER BY removed_at DESC, id
		LIMIT ?`, userID, formatTime(since), limit)
}

func (s *Store) queryTagEvents(ctx context.Context, query string, args ...any) ([]store.TagEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err, "failed to query tag events")
	}
	defer rows.Close()

	events := []store.TagEvent{}
	for rows.Next() {
		var (
			e  store.TagEvent
			at string
		)
		if err := rows.Scan(&e.EmailID, &e.TagID, &e.TagName, &e.TagColor, &at); err != nil {
			return nil, storeErr(err, "failed to scan tag event")
		}
		if e.At, err = parseTime(at); err != nil {
			return nil, storeErr(err, "failed to parse tag event timestamp")
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "failed to query tag events")
	}
	return events, nil
}

// CardLog returns custom card log entries at or after since, newest first.
func (s *Store) CardLog(ctx context.Context, userID string, since time.Time, limit int) ([]store.CardLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, card_id, user_id, activity_type, title, activity_timestamp
		FROM custom_cards_log
		WHERE user_id = ? AND activity_timestamp >= ?
		ORDER BY activity_timestamp DESC, id
		LIMIT ?`, userID, formatTime(since), limit)
	if err != nil {
		return nil, storeErr(err, "failed to query card log")
	}
	defer rows.Close()

	entries := []store.CardLogEntry{}
	for rows.Next() {
		var (
			e            store.CardLogEntry
			activityType string
			at           string
		)
		if err := rows.Scan(&e.ID, &e.CardID, &e.UserID, &activityType, &e.Title, &at); err != nil {
			return nil, storeErr(err, "failed to scan card log entry")
		}
		e.Type = store.CardActivity(activityType)
		if e.Timestamp, err = parseTime(at); err != nil {
			return nil, storeErr(err, "failed to parse card log timestamp")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "failed to query card log")
	}
	return entries, nil
}
