package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

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

	err = s.withUser(ctx, userID, func(tx pgx.Tx) error {
		return tagsForItems(ctx, tx, table, col, userID, itemIDs, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func tagsForItems(ctx context.Context, tx pgx.Tx, table, col, userID string, itemIDs []string, out map[string][]store.Tag) error {
	rows, err := tx.Query(ctx, fmt.Sprintf(`
		SELECT a.%[2]s, t.id, t.user_id, t.name, t.type, t.color, t.created_at
		FROM %[1]s a
		JOIN tags t ON t.id = a.tag_id
		WHERE a.user_id = $1 AND a.%[2]s = ANY($2)
		ORDER BY a.created_at, t.id`, table, col), userID, itemIDs)
	if err != nil {
		return storeErr(err, "failed to load %s tags", table)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			itemID, tagType string
			t               store.Tag
		)
		if err := rows.Scan(&itemID, &t.ID, &t.UserID, &t.Name, &tagType, &t.Color, &t.CreatedAt); err != nil {
			return storeErr(err, "failed to scan tag")
		}
		t.Type = store.TagType(tagType)
		out[itemID] = append(out[itemID], t)
	}
	return storeErr(rows.Err(), "failed to load %s tags", table)
}

// AssociationsForTags returns the raw association rows for the selected tags,
// newest first.
func (s *Store) AssociationsForTags(ctx context.Context, kind store.Kind, userID string, tagIDs []string) ([]store.Association, error) {
	table, col, err := store.AssociationTable(kind)
	if err != nil {
		return nil, err
	}
	tagIDs = store.Dedupe(tagIDs)
	out := []store.Association{}
	if len(tagIDs) == 0 {
		return out, nil
	}

	err = s.withUser(ctx, userID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			fmt.Sprintf(`
				SELECT %[2]s, tag_id FROM %[1]s
				WHERE user_id = $1 AND tag_id = ANY($2)
				ORDER BY created_at DESC, %[2]s, tag_id`, table, col),
			userID, tagIDs)
		if err != nil {
			return storeErr(err, "failed to load %s associations", kind)
		}
		defer rows.Close()
		for rows.Next() {
			var a store.Association
			if err := rows.Scan(&a.ItemID, &a.TagID); err != nil {
				return storeErr(err, "failed to scan association")
			}
			out = append(out, a)
		}
		return storeErr(rows.Err(), "failed to load %s associations", kind)
	})
	if err != nil {
		return nil, err
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

	var ids []string
	err = s.withUser(ctx, userID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, fmt.Sprintf(`
			SELECT %[2]s FROM %[1]s
			WHERE user_id = $1 AND tag_id = ANY($2)
			GROUP BY %[2]s
			HAVING COUNT(DISTINCT tag_id) = $3
			ORDER BY MAX(created_at) DESC, %[2]s`, table, col), userID, tagIDs, len(tagIDs))
		if err != nil {
			return storeErr(err, "failed to match %s items", kind)
		}
		ids, err = collectStrings(rows)
		return storeErr(err, "failed to match %s items", kind)
	})
	return ids, err
}

// AttachTag associates a tag with an item. Attaching to an email lazily creates its row.
func (s *Store) AttachTag(ctx context.Context, kind store.Kind, userID, itemID, tagID string) error {
	table, col, err := store.AssociationTable(kind)
	if err != nil {
		return err
	}
	now := s.now().UTC()

	return s.withUser(ctx, userID, func(tx pgx.Tx) error {
		if err := requireOwned(ctx, tx, "tags", "tag", userID, tagID); err != nil {
			return err
		}

		switch kind {
		case store.KindEmail:
			if _, err := tx.Exec(ctx, `
				INSERT INTO emails (user_id, email_id, thread_id, is_starred, created_at, updated_at)
				VALUES ($1, $2, '', FALSE, $3, $3)
				ON CONFLICT (user_id, email_id) DO UPDATE SET updated_at = EXCLUDED.updated_at`,
				userID, itemID, now); err != nil {
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

		if kind == store.KindCalendar {
			_, err = tx.Exec(ctx, `
				INSERT INTO calendar_event_tags (id, user_id, event_id, tag_id, created_at)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (user_id, event_id, tag_id) DO NOTHING`,
				uuid.NewString(), userID, itemID, tagID, now)
		} else {
			_, err = tx.Exec(ctx, fmt.Sprintf(`
				INSERT INTO %[1]s (user_id, %[2]s, tag_id, created_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (user_id, %[2]s, tag_id) DO NOTHING`, table, col),
				userID, itemID, tagID, now)
		}
		return storeErr(err, "failed to attach tag to %s", kind)
	})
}

// DetachTag removes an association. Email detachments are logged.
func (s *Store) DetachTag(ctx context.Context, kind store.Kind, userID, itemID, tagID string) error {
	table, col, err := store.AssociationTable(kind)
	if err != nil {
		return err
	}

	return s.withUser(ctx, userID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND %s = $2 AND tag_id = $3`, table, col),
			userID, itemID, tagID)
		if err != nil {
			return storeErr(err, "failed to detach tag from %s", kind)
		}
		if kind != store.KindEmail || tag.RowsAffected() == 0 {
			return nil
		}

		var name, color string
		err = tx.QueryRow(ctx,
			`SELECT name, color FROM tags WHERE user_id = $1 AND id = $2`, userID, tagID).Scan(&name, &color)
		if err != nil && !isNoRows(err) {
			return storeErr(err, "failed to read detached tag")
		}

		now := s.now().UTC()
		_, err = tx.Exec(ctx, `
			INSERT INTO removed_email_tags_log (id, email_id, tag_id, tag_name, tag_color, user_id, removed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.NewString(), itemID, tagID, name, color, userID, now)
		if err != nil {
			return storeErr(err, "failed to log removed tag")
		}
		_, err = tx.Exec(ctx,
			`UPDATE emails SET updated_at = $1 WHERE user_id = $2 AND email_id = $3`, now, userID, itemID)
		return storeErr(err, "failed to touch email row")
	})
}

func requireOwned(ctx context.Context, tx pgx.Tx, table, entity, userID, id string) error {
	var exists bool
	err := tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE user_id = $1 AND id = $2)`, table),
		userID, id).Scan(&exists)
	if err != nil {
		return storeErr(err, "failed to look up %s", entity)
	}
	if !exists {
		return store.NotFound(entity, id)
	}
	return nil
}
