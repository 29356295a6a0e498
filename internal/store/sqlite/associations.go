package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/teemow/tagdeck/internal/store"
)

// TagsForItems returns tags per item for the requested ids.
func (s *Store) TagsForItems(ctx context.Context, kind store.Kind, userID string, itemIDs []string) (map[string][]store.Tag, error) {
	table, col, err := store.AssociationTable(kind)
	if err != nil {
		return nil, err
	}
	itemIDs = store.Dedupe(itemIDs)
	out := make(map[string][]store.Tag, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	marks, args := inArgs(itemIDs, userID)
	query := fmt.Sprintf(`
		SELECT a.%[2]s, t.id, t.user_id, t.name, t.type, t.color, t.created_at
		FROM %[1]s a
		JOIN tags t ON t.id = a.tag_id
		WHERE a.user_id = ? AND a.%[2]s IN (%[3]s)
		ORDER BY a.created_at, t.id`, table, col, marks)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err, "failed to load %s tags", kind)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			itemID, tagType, createdAt string
			t                          store.Tag
		)
		if err := rows.Scan(&itemID, &t.ID, &t.UserID, &t.Name, &tagType, &t.Color, &createdAt); err != nil {
			return nil, storeErr(err, "failed to scan %s tag", kind)
		}
		t.Type = store.TagType(tagType)
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, storeErr(err, "failed to parse tag timestamp")
		}
		out[itemID] = append(out[itemID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "failed to load %s tags", kind)
	}
	return out, nil
}

// AssociationsForTags returns the raw association rows for the selected tags,
// newest first.
func (s *Store) AssociationsForTags(ctx context.Context, kind store.Kind, userID string, tagIDs []string) ([]store.Association, error) {
	table, col, err := store.AssociationTable(kind)
	if err != nil {
		return nil, err
	}
	tagIDs = store.Dedupe(tagIDs)
	if len(tagIDs) == 0 {
		return []store.Association{}, nil
	}

	marks, args := inArgs(tagIDs, userID)
	query := fmt.Sprintf(`
		SELECT %[2]s, tag_id FROM %[1]s
		WHERE user_id = ? AND tag_id IN (%[3]s)
		ORDER BY created_at DESC, %[2]s, tag_id`, table, col, marks)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err, "failed to load %s associations", kind)
	}
	defer rows.Close()

	out := []store.Association{}
	for rows.Next() {
		var a store.Association
		if err := rows.Scan(&a.ItemID, &a.TagID); err != nil {
			return nil, storeErr(err, "failed to scan association")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "failed to load %s associations", kind)
	}
	return out, nil
}

// ItemIDsMatchingAll groups association rows in SQL and keeps items carrying
// every tag, ordered by their newest association.
func (s *Store) ItemIDsMatchingAll(ctx context.Context, kind store.Kind, userID string, tagIDs []string) ([]string, error) {
	table, col, err := store.AssociationTable(kind)
	if err != nil {
		return nil, err
	}
	tagIDs = store.Dedupe(tagIDs)
	if len(tagIDs) == 0 {
		return []string{}, nil
	}

	marks, args := inArgs(tagIDs, userID)
	args = append(args, len(tagIDs))
	query := fmt.Sprintf(`
		SELECT %[2]s FROM %[1]s
		WHERE user_id = ? AND tag_id IN (%[3]s)
		GROUP BY %[2]s
		HAVING COUNT(DISTINCT tag_id) = ?
		ORDER BY MAX(created_at) DESC, %[2]s`, table, col, marks)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err, "failed to match %s items", kind)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr(err, "failed to scan item id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "failed to match %s items", kind)
	}
	return ids, nil
}

// AttachTag associates a tag with an item. Attaching to an email lazily creates
// its row.
func (s *Store) AttachTag(ctx context.Context, kind store.Kind, userID, itemID, tagID string) error {
	table, col, err := store.AssociationTable(kind)
	if err != nil {
		return err
	}
	now := formatTime(s.now())

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireOwned(ctx, tx, "tags", "tag", userID, tagID); err != nil {
			return err
		}

		switch kind {
		case store.KindEmail:
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO emails (user_id, email_id, thread_id, is_starred, created_at, updated_at)
				VALUES (?, ?, '', 0, ?, ?)
				ON CONFLICT (user_id, email_id) DO NOTHING`, userID, itemID, now, now); err != nil {
				return storeErr(err, "failed to create email row")
			}
		case store.KindTimeline:
			if err := requireOwned(ctx, tx, "timeline_cards", "timeline card", userID, itemID); err != nil {
				return err
			}
		case store.KindCustom:
			if err := requireOwned(ctx, tx, "custom_cards", "custom card", userID, itemID); err != nil {
				return err
			}
		}

		var execErr error
		if kind == store.KindCalendar {
			_, execErr = tx.ExecContext(ctx, `
				INSERT INTO calendar_event_tags (id, user_id, event_id, tag_id, created_at)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (user_id, event_id, tag_id) DO NOTHING`,
				uuid.NewString(), userID, itemID, tagID, now)
		} else {
			_, execErr = tx.ExecContext(ctx, fmt.Sprintf(`
				INSERT INTO %[1]s (user_id, %[2]s, tag_id, created_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (user_id, %[2]s, tag_id) DO NOTHING`, table, col),
				userID, itemID, tagID, now)
		}
		if execErr != nil {
			return storeErr(execErr, "failed to attach tag to %s", kind)
		}
		if kind == store.KindEmail {
			if _, err := tx.ExecContext(ctx,
				`UPDATE emails SET updated_at = ? WHERE user_id = ? AND email_id = ?`, now, userID, itemID); err != nil {
				return storeErr(err, "failed to touch email row")
			}
		}
		return nil
	})
}

// DetachTag removes an association. Email detachments are logged.
func (s *Store) DetachTag(ctx context.Context, kind store.Kind, userID, itemID, tagID string) error {
	table, col, err := store.AssociationTable(kind)
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE user_id = ? AND %s = ? AND tag_id = ?`, table, col),
			userID, itemID, tagID)
		if err != nil {
			return storeErr(err, "failed to detach tag from %s", kind)
		}
		if kind != store.KindEmail {
			return nil
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}

		var name, color string
		err = tx.QueryRowContext(ctx,
			`SELECT name, color FROM tags WHERE user_id = ? AND id = ?`, userID, tagID).Scan(&name, &color)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return storeErr(err, "failed to read detached tag")
		}

		now := formatTime(s.now())
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO removed_email_tags_log (id, email_id, tag_id, tag_name, tag_color, user_id, removed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), itemID, tagID, name, color, userID, now); err != nil {
			return storeErr(err, "failed to log removed tag")
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE emails SET updated_at = ? WHERE user_id = ? AND email_id = ?`, now, userID, itemID); err != nil {
			return storeErr(err, "failed to touch email row")
		}
		return nil
	})
}

// requireOwned returns a not found error unless table has a row with id owned by userID.
func requireOwned(ctx context.Context, tx *sql.Tx, table, entity, userID, id string) error {
	var one int
	err := tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT 1 FROM %s WHERE user_id = ? AND id = ?`, table), userID, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return store.NotFound(entity, id)
	}
	if err != nil {
		return storeErr(err, "failed to look up %s", entity)
	}
	return nil
}
