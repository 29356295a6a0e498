package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/teemow/tagdeck/internal/store"
)

// tagColumns must match the scan order in scanTag.
const tagColumns = `id, user_id, name, type, color, created_at`

func scanTag(scanner interface{ Scan(dest ...any) error }) (store.Tag, error) {
	var (
		t         store.Tag
		tagType   string
		createdAt string
	)
	if err := scanner.Scan(&t.ID, &t.UserID, &t.Name, &tagType, &t.Color, &createdAt); err != nil {
		return store.Tag{}, err
	}
	t.Type = store.TagType(tagType)
	var err error
	t.CreatedAt, err = parseTime(createdAt)
	return t, err
}

// ListTags returns the user's tags ordered by type, then creation.
func (s *Store) ListTags(ctx context.Context, userID string) ([]store.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? ORDER BY type, created_at, id`, userID)
	if err != nil {
		return nil, storeErr(err, "failed to list tags")
	}
	defer rows.Close()

	tags := []store.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, storeErr(err, "failed to scan tag")
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "failed to list tags")
	}
	return tags, nil
}

// GetTag retrieves one tag.
func (s *Store) GetTag(ctx context.Context, userID, tagID string) (*store.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? AND id = ?`, userID, tagID)
	t, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("tag", tagID)
	}
	if err != nil {
		return nil, storeErr(err, "failed to get tag")
	}
	return &t, nil
}

// CreateTag inserts a tag after checking the per-type cap inside the same transaction.
func (s *Store) CreateTag(ctx context.Context, t *store.Tag) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.insertTag(ctx, tx, t)
	})
}

func (s *Store) insertTag(ctx context.Context, tx *sql.Tx, t *store.Tag) error {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tags WHERE user_id = ? AND type = ?`, t.UserID, string(t.Type)).Scan(&count)
	if err != nil {
		return storeErr(err, "failed to count tags")
	}
	if count >= store.MaxTagsPerType {
		return store.ErrTagLimit(t.Type)
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = s.now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO tags (`+tagColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Name, string(t.Type), t.Color, formatTime(t.CreatedAt))
	if err != nil {
		return storeErr(err, "failed to create tag")
	}
	return nil
}

// UpdateTag changes name and color. The type of a tag is fixed at creation.
func (s *Store) UpdateTag(ctx context.Context, t *store.Tag) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tags SET name = ?, color = ? WHERE user_id = ? AND id = ?`,
		t.Name, t.Color, t.UserID, t.ID)
	if err != nil {
		return storeErr(err, "failed to update tag")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.NotFound("tag", t.ID)
	}
	return nil
}

// DeleteTag removes the tag; foreign keys cascade to every association table.
func (s *Store) DeleteTag(ctx context.Context, userID, tagID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE user_id = ? AND id = ?`, userID, tagID)
	if err != nil {
		return storeErr(err, "failed to delete tag")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.NotFound("tag", tagID)
	}
	return nil
}

// EnsureDefaultTags seeds store.DefaultTags for a user without tags.
func (s *Store) EnsureDefaultTags(ctx context.Context, userID string) (bool, error) {
	seeded := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags WHERE user_id = ?`, userID).Scan(&count); err != nil {
			return storeErr(err, "failed to count tags")
		}
		if count > 0 {
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
