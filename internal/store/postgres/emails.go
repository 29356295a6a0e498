package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/teemow/tagdeck/internal/store"
)

// UpsertEmail creates the email row if missing and records the thread id when known.
func (s *Store) UpsertEmail(ctx context.Context, userID, emailID, threadID string) error {
	now := s.now().UTC()
	return s.withUser(ctx, userID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO emails (user_id, email_id, thread_id, is_starred, created_at, updated_at)
			VALUES ($1, $2, $3, FALSE, $4, $4)
			ON CONFLICT (user_id, email_id) DO UPDATE SET
				thread_id = CASE WHEN EXCLUDED.thread_id <> '' THEN EXCLUDED.thread_id ELSE emails.thread_id END`,
			userID, emailID, threadID, now)
		return storeErr(err, "failed to upsert email")
	})
}

// SetStarred records the star state, creating the email row if needed.
func (s *Store) SetStarred(ctx context.Context, userID, emailID, threadID string, starred bool) error {
	now := s.now().UTC()
	return s.withUser(ctx, userID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO emails (user_id, email_id, thread_id, is_starred, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (user_id, email_id) DO UPDATE SET
				is_starred = EXCLUDED.is_starred,
				thread_id = CASE WHEN EXCLUDED.thread_id <> '' THEN EXCLUDED.thread_id ELSE emails.thread_id END,
				updated_at = EXCLUDED.updated_at`,
			userID, emailID, threadID, starred, now)
		return storeErr(err, "failed to set star")
	})
}

// EmailMetas returns stored metadata with tags for the ids that have a row.
func (s *Store) EmailMetas(ctx context.Context, userID string, emailIDs []string) (map[string]store.EmailMeta, error) {
	emailIDs = store.Dedupe(emailIDs)
	out := make(map[string]store.EmailMeta, len(emailIDs))
	if len(emailIDs) == 0 {
		return out, nil
	}

	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT email_id, user_id, thread_id, is_starred, created_at, updated_at
			FROM emails WHERE user_id = $1 AND email_id = ANY($2)`, userID, emailIDs)
		if err != nil {
			return storeErr(err, "failed to load emails")
		}
		for rows.Next() {
			var m store.EmailMeta
			if err := rows.Scan(&m.EmailID, &m.UserID, &m.ThreadID, &m.Starred, &m.CreatedAt, &m.UpdatedAt); err != nil {
				rows.Close()
				return storeErr(err, "failed to scan email")
			}
			m.Tags = []store.Tag{}
			out[m.EmailID] = m
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return storeErr(err, "failed to load emails")
		}

		tags := make(map[string][]store.Tag)
		if err := tagsForItems(ctx, tx, "email_tags", "email_id", userID, emailIDs, tags); err != nil {
			return err
		}
		for id, ts := range tags {
			if m, ok := out[id]; ok {
				m.Tags = ts
				out[id] = m
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EmailIDsByTagName returns the ids of emails carrying a tag with the given name.
func (s *Store) EmailIDsByTagName(ctx context.Context, userID, tagName string) ([]string, error) {
	return s.queryIDs(ctx, userID, `
		SELECT et.email_id
		FROM email_tags et
		JOIN tags t ON t.id = et.tag_id
		WHERE et.user_id = $1 AND t.name = $2
		GROUP BY et.email_id
		ORDER BY MAX(et.created_at) DESC, et.email_id`, userID, tagName)
}

// EmailIDsTaggedSince returns emails that received a tag at or after since.
func (s *Store) EmailIDsTaggedSince(ctx context.Context, userID string, since time.Time) ([]string, error) {
	return s.queryIDs(ctx, userID, `
		SELECT email_id
		FROM email_tags
		WHERE user_id = $1 AND created_at >= $2
		GROUP BY email_id
		ORDER BY MAX(created_at) DESC, email_id`, userID, since)
}

func (s *Store) queryIDs(ctx context.Context, userID, query string, args ...any) ([]string, error) {
	var ids []string
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return storeErr(err, "failed to query email ids")
		}
		ids, err = collectStrings(rows)
		return storeErr(err, "failed to query email ids")
	})
	return ids, err
}
