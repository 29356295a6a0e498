package sqlite

import (
	"context"
	"time"

	"github.com/teemow/tagdeck/internal/store"
)

// UpsertEmail creates the email row if missing and records the thread id when known.
func (s *Store) UpsertEmail(ctx context.Context, userID, emailID, threadID string) error {
	now := formatTime(s.now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO emails (user_id, email_id, thread_id, is_starred, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)
		ON CONFLICT (user_id, email_id) DO UPDATE SET
			thread_id = CASE WHEN excluded.thread_id <> '' THEN excluded.thread_id ELSE emails.thread_id END`,
		userID, emailID, threadID, now, now)
	if err != nil {
		return storeErr(err, "failed to upsert email")
	}
	return nil
}

// SetStarred records the star state, creating the email row if needed.
func (s *Store) SetStarred(ctx context.Context, userID, emailID, threadID string, starred bool) error {
	now := formatTime(s.now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO emails (user_id, email_id, thread_id, is_starred, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, email_id) DO UPDATE SET
			is_starred = excluded.is_starred,
			thread_id = CASE WHEN excluded.thread_id <> '' THEN excluded.thread_id ELSE emails.thread_id END,
			updated_at = excluded.updated_at`,
		userID, emailID, threadID, starred, now, now)
	if err != nil {
		return storeErr(err, "failed to set star")
	}
	return nil
}

// EmailMetas returns stored metadata for the ids that have a row.
func (s *Store) EmailMetas(ctx context.Context, userID string, emailIDs []string) (map[string]store.EmailMeta, error) {
	emailIDs = store.Dedupe(emailIDs)
	out := make(map[string]store.EmailMeta, len(emailIDs))
	if len(emailIDs) == 0 {
		return out, nil
	}

	marks, args := inArgs(emailIDs, userID)
	rows, err := s.db.QueryContext(ctx, `
		SELECT email_id, user_id, thread_id, is_starred, created_at, updated_at
		FROM emails WHERE user_id = ? AND email_id IN (`+marks+`)`, args...)
	if err != nil {
		return nil, storeErr(err, "failed to load emails")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m                    store.EmailMeta
			createdAt, updatedAt string
		)
		if err := rows.Scan(&m.EmailID, &m.UserID, &m.ThreadID, &m.Starred, &createdAt, &updatedAt); err != nil {
			return nil, storeErr(err, "failed to scan email")
		}
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, storeErr(err, "failed to parse email timestamp")
		}
		if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, storeErr(err, "failed to parse email timestamp")
		}
		m.Tags = []store.Tag{}
		out[m.EmailID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "failed to load emails")
	}

	tags, err := s.TagsForItems(ctx, store.KindEmail, userID, emailIDs)
	if err != nil {
		return nil, err
	}
	for id, ts := range tags {
		if m, ok := out[id]; ok {
			m.Tags = ts
			out[id] = m
		}
	}
	return out, nil
}

// EmailIDsByTagName returns the ids of emails carrying a tag with the given name.
func (s *Store) EmailIDsByTagName(ctx context.Context, userID, tagName string) ([]string, error) {
	return s.queryIDs(ctx, `
		SELECT et.email_id
		FROM email_tags et
		JOIN tags t ON t.id = et.tag_id
		WHERE et.user_id = ? AND t.name = ?
		GROUP BY et.email_id
		ORDER BY MAX(et.created_at) DESC, et.email_id`, userID, tagName)
}

// EmailIDsTaggedSince returns emails that received a tag at or after since, most
// recently tagged first.
func (s *Store) EmailIDsTaggedSince(ctx context.Context, userID string, since time.Time) ([]string, error) {
	return s.queryIDs(ctx, `
		SELECT email_id
		FROM email_tags
		WHERE user_id = ? AND created_at >= ?
		GROUP BY email_id
		ORDER BY MAX(created_at) DESC, email_id`, userID, formatTime(since))
}

func (s *Store) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err, "failed to query email ids")
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr(err, "failed to scan email id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "failed to query email ids")
	}
	return ids, nil
}
