package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/teemow/tagdeck/internal/store"
)

const tagColumns = `id, user_id, name, type, color, created_at`

func scanTag(row pgx.Row) (store.Tag, error) {
	var (
		t       store.Tag
		tagType string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &tagType, &t.Color, &t.CreatedAt)
	t.Type = store.TagType(tagType)
	return t, err
}

// ListTags returns the user's tags ordered by type, then creation.
func (s *Store) ListTags(ctx context.Context, userID string) ([]store.Tag, error) {
	tags := []store.Tag{}
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT `+tagColumns+` FROM tags WHERE user_id = $1 ORDER BY type, created_at, id`, userID)
		if err != nil {
			return storeErr(err, "failed to list tags")
		}
		defer rows.Close()
		for rows.Next() {
			t, err := scanTag(rows)
			if err != nil {
				return storeErr(err, "failed to scan tag")
			}
			tags = append(tags, t)
		}
		return storeErr(rows.Err(), "failed to list tags")
	})
	return tags, err
}

// GetTag retrieves one tag.
func (s *Store) GetTag(ctx context.Context, userID, tagID string) (*store.Tag, error) {
	var t store.Tag
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		t, err = scanTag(tx.QueryRow(ctx,
			`SELECT `+tagColumns+` FROM tags WHERE user_id = $1 AND id = $2`, userID, tagID))
		if isNoRows(err) {
			return store.NotFound("tag", tagID)
		}
		return storeErr(err, "failed to get tag")
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTag inserts a tag after checking the per-type cap in the same transaction.
func (s *Store) CreateTag(ctx context.Context, t *store.Tag) error {
	return s.withUser(ctx, t.UserID, func(tx pgx.Tx) error {
		return s.insertTag(ctx, tx, t)
	})
}

func (s *Store) insertTag(ctx context.Context, tx pgx.Tx, t *store.Tag) error {
	// Serialize concurrent creates for one user so the cap check holds.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, t.UserID); err != nil {
		return storeErr(err, "failed to lock tag set")
	}
	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM tags WHERE user_id = $1 AND type = $2`, t.UserID, string(t.Type)).Scan(&count); err != nil {
		return storeErr(err, "failed to count tags")
	}
	if count >= store.MaxTagsPerType {
		return store.ErrTagLimit(t.Type)
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = s.now().UTC()
	_, err := tx.Exec(ctx,
		`INSERT INTO tags (`+tagColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.UserID, t.Name, string(t.Type), t.Color, t.CreatedAt)
	return storeErr(err, "failed to create tag")
}

// UpdateTag changes name and color.
func (s *Store) UpdateTag(ctx context.Context, t *store.Tag) error {
	return s.withUser(ctx, t.UserID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE tags SET name = $1, color = $2 WHERE user_id = $3 AND id = $4`,
			t.Name, t.Color, t.UserID, t.ID)
		if err != nil {
			return storeErr(err, "failed to update tag")
		}
		if tag.RowsAffected() == 0 {
			return store.NotFound("tag", t.ID)
		}
		return nil
	})
}

// DeleteTag removes the tag; foreign keys cascade to every association table.
func (s *Store) DeleteTag(ctx context.Context, userID, tagID string) error {
	return s.withUser(ctx, userID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM tags WHERE user_id = $1 AND id = $2`, userID, tagID)
		if err != nil {
			return storeErr(err, "failed to delete tag")
		}
		if tag.RowsAffected() == 0 {
			return store.NotFound("tag", tagID)
		}
		return nil
	})
}

// EnsureDefaultTags seeds store.DefaultTags for a user without tags.
func (s *Store) EnsureDefaultTags(ctx context.Context, userID string) (bool, error) {
	seeded := false
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
			return storeErr(err, "failed to lock tag set")
		}
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM tags WHERE user_id = $1)`, userID).Scan(&exists); err != nil {
			return storeErr(err, "failed to count tags")
		}
		if exists {
			return nil
		}
		for _, d := range store.DefaultTags {
			t := &store.Tag{UserID: userID, Name: d.Name, Type: d.Type, Color: d.Color}
			if err := s.insertTag(ctx, tx, t); err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	return seeded, err
}
