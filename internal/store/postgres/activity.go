package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/teemow/tagdeck/internal/store"
)

// TagAddedEvents returns email tag attachments at or after since, newest first.
func (s *Store) TagAddedEvents(ctx context.Context, userID string, since time.Time, limit int) ([]store.TagEvent, error) {
	return s.queryTagEvents(ctx, userID, `
		SELECT et.email_id, t.id, t.name, t.color, et.created_at
		FROM email_tags et
		JOIN tags t ON t.id = et.tag_id
		WHERE et.user_id = $1 AND et.created_at >= $2
		ORDER BY et.created_at DESC, et.email_id
		LIMIT $3`, userID, since, limit)
}

// TagRemovedEvents returns logged email tag detachments at or after since, newest first.
func (s *Store) TagRemovedEvents(ctx context.Context, userID string, since time.Time, limit int) ([]store.TagEvent, error) {
	return s.queryTagEvents(ctx, userID, `
		SELECT email_id, tag_id, tag_name, tag_color, removed_at
		FROM removed_email_tags_log
		WHERE user_id = $1 AND removed_at >= $2
		ORDER BY removed_at DESC, id
		LIMIT $3`, userID, since, limit)
}

func (s *Store) queryTagEvents(ctx context.Context, userID, query string, args ...any) ([]store.TagEvent, error) {
	events := []store.TagEvent{}
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return storeErr(err, "failed to query tag events")
		}
		defer rows.Close()
		for rows.Next() {
			var e store.TagEvent
			if err := rows.Scan(&e.EmailID, &e.TagID, &e.TagName, &e.TagColor, &e.At); err != nil {
				return storeErr(err, "failed to scan tag event")
			}
			events = append(events, e)
		}
		return storeErr(rows.Err(), "failed to query tag events")
	})
	return events, err
}

// CardLog returns custom card log entries at or after since, newest first.
func (s *Store) CardLog(ctx context.Context, userID string, since time.Time, limit int) ([]store.CardLogEntry, error) {
	entries := []store.CardLogEntry{}
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, card_id, user_id, activity_type, title, activity_timestamp
			FROM custom_cards_log
			WHERE user_id = $1 AND activity_timestamp >= $2
			ORDER BY activity_timestamp DESC, id
			LIMIT $3`, userID, since, limit)
		if err != nil {
			return storeErr(err, "failed to query card log")
		}
		defer rows.Close()
		for rows.Next() {
			var (
				e            store.CardLogEntry
				activityType string
			)
			if err := rows.Scan(&e.ID, &e.CardID, &e.UserID, &activityType, &e.Title, &e.Timestamp); err != nil {
				return storeErr(err, "failed to scan card log entry")
			}
			e.Type = store.CardActivity(activityType)
			entries = append(entries, e)
		}
		return storeErr(rows.Err(), "failed to query card log")
	})
	return entries, err
}
