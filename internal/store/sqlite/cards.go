package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/tagdeck/internal/store"
)

const timelineColumns = `id, user_id, title, description, start_date, end_date, created_at`

func scanTimelineCard(scanner interface{ Scan(dest ...any) error }) (store.TimelineCard, error) {
	var (
		c                    store.TimelineCard
		description, endDate sql.NullString
		startDate, createdAt string
	)
	if err := scanner.Scan(&c.ID, &c.UserID, &c.Title, &description, &startDate, &endDate, &createdAt); err != nil {
		return store.TimelineCard{}, err
	}
	c.Description = description.String
	var err error
	if c.StartDate, err = parseTime(startDate); err != nil {
		return store.TimelineCard{}, err
	}
	if c.EndDate, err = parseNullableTime(endDate); err != nil {
		return store.TimelineCard{}, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return store.TimelineCard{}, err
	}
	c.Tags = []store.Tag{}
	return c, nil
}

// ListTimelineCards returns the user's project cards by start date, with tags.
func (s *Store) ListTimelineCards(ctx context.Context, userID string) ([]store.TimelineCard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+timelineColumns+` FROM timeline_cards WHERE user_id = ? ORDER BY start_date, created_at, id`, userID)
	if err != nil {
		return nil, storeErr(err, "failed to list timeline cards")
	}
	defer rows.Close()

	cards := []store.TimelineCard{}
	for rows.Next() {
		c, err := scanTimelineCard(rows)
		if err != nil {
			return nil, storeErr(err, "failed to scan timeline card")
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "failed to list timeline cards")
	}
	return cards, nil
}

// GetTimelineCard retrieves one project card with its tags.
func (s *Store) GetTimelineCard(ctx context.Context, userID, cardID string) (*store.TimelineCard, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+timelineColumns+` FROM timeline_cards WHERE user_id = ? AND id = ?`, userID, cardID)
	c, err := scanTimelineCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("timeline card", cardID)
	}
	if err != nil {
		return nil, storeErr(err, "failed to get timeline card")
	}
	tags, err := s.TagsForItems(ctx, store.KindTimeline, userID, []string{cardID})
	if err != nil {
		return nil, err
	}
	if ts, ok := tags[cardID]; ok {
		c.Tags = ts
	}
	return &c, nil
}

// CreateTimelineCard inserts a project card, assigning ID and CreatedAt.
func (s *Store) CreateTimelineCard(ctx context.Context, c *store.TimelineCard) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = s.now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO timeline_cards (`+timelineColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Title, nullString(c.Description), formatTime(c.StartDate),
		nullTimeString(c.EndDate), formatTime(c.CreatedAt))
	if err != nil {
		return storeErr(err, "failed to create timeline card")
	}
	return nil
}

// UpdateTimelineCard replaces title, description and dates.
func (s *Store) UpdateTimelineCard(ctx context.Context, c *store.TimelineCard) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE timeline_cards SET title = ?, description = ?, start_date = ?, end_date = ?
		WHERE user_id = ? AND id = ?`,
		c.Title, nullString(c.Description), formatTime(c.StartDate), nullTimeString(c.EndDate), c.UserID, c.ID)
	if err != nil {
		return storeErr(err, "failed to update timeline card")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.NotFound("timeline card", c.ID)
	}
	return nil
}

// DeleteTimelineCard removes a project card and its tag associations.
func (s *Store) DeleteTimelineCard(ctx context.Context, userID, cardID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM timeline_cards WHERE user_id = ? AND id = ?`, userID, cardID)
	if err != nil {
		return storeErr(err, "failed to delete timeline card")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.NotFound("timeline card", cardID)
	}
	return nil
}

const customColumns = `id, user_id, title, content, created_at, updated_at`

func scanCustomCard(scanner interface{ Scan(dest ...any) error }) (store.CustomCard, error) {
	var (
		c                    store.CustomCard
		createdAt, updatedAt string
	)
	if err := scanner.Scan(&c.ID, &c.UserID, &c.Title, &c.Content, &createdAt, &updatedAt); err != nil {
		return store.CustomCard{}, err
	}
	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return store.CustomCard{}, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return store.CustomCard{}, err
	}
	c.Tags = []store.Tag{}
	return c, nil
}

// ListCustomCards returns the user's dashboard cards, most recently updated first.
func (s *Store) ListCustomCards(ctx context.Context, userID string) ([]store.CustomCard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+customColumns+` FROM custom_cards WHERE user_id = ? ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, storeErr(err, "failed to list custom cards")
	}
	defer rows.Close()

	cards := []store.CustomCard{}
	for rows.Next() {
		c, err := scanCustomCard(rows)
		if err != nil {
			return nil, storeErr(err, "failed to scan custom card")
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "failed to list custom cards")
	}
	return cards, nil
}

// GetCustomCard retrieves one dashboard card with its tags.
func (s *Store) GetCustomCard(ctx context.Context, userID, cardID string) (*store.CustomCard, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+customColumns+` FROM custom_cards WHERE user_id = ? AND id = ?`, userID, cardID)
	c, err := scanCustomCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("custom card", cardID)
	}
	if err != nil {
		return nil, storeErr(err, "failed to get custom card")
	}
	tags, err := s.TagsForItems(ctx, store.KindCustom, userID, []string{cardID})
	if err != nil {
		return nil, err
	}
	if ts, ok := tags[cardID]; ok {
		c.Tags = ts
	}
	return &c, nil
}

// CreateCustomCard inserts a dashboard card and logs CREATED.
func (s *Store) CreateCustomCard(ctx context.Context, c *store.CustomCard) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := s.now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO custom_cards (`+customColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, c.UserID, c.Title, c.Content, formatTime(now), formatTime(now))
		if err != nil {
			return storeErr(err, "failed to create custom card")
		}
		return appendCardLog(ctx, tx, c.UserID, c.ID, store.CardCreated, c.Title, now)
	})
}

// UpdateCustomCard replaces title and content and logs UPDATED.
func (s *Store) UpdateCustomCard(ctx context.Context, c *store.CustomCard) error {
	now := s.now().UTC()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE custom_cards SET title = ?, content = ?, updated_at = ? WHERE user_id = ? AND id = ?`,
			c.Title, c.Content, formatTime(now), c.UserID, c.ID)
		if err != nil {
			return storeErr(err, "failed to update custom card")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.NotFound("custom card", c.ID)
		}
		c.UpdatedAt = now
		return appendCardLog(ctx, tx, c.UserID, c.ID, store.CardUpdated, c.Title, now)
	})
}

// DeleteCustomCard removes a dashboard card and logs DELETED with its last title.
func (s *Store) DeleteCustomCard(ctx context.Context, userID, cardID string) error {
	now := s.now().UTC()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var title string
		err := tx.QueryRowContext(ctx,
			`SELECT title FROM custom_cards WHERE user_id = ? AND id = ?`, userID, cardID).Scan(&title)
		if errors.Is(err, sql.ErrNoRows) {
			return store.NotFound("custom card", cardID)
		}
		if err != nil {
			return storeErr(err, "failed to get custom card")
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM custom_cards WHERE user_id = ? AND id = ?`, userID, cardID); err != nil {
			return storeErr(err, "failed to delete custom card")
		}
		return appendCardLog(ctx, tx, userID, cardID, store.CardDeleted, title, now)
	})
}

func appendCardLog(ctx context.Context, tx *sql.Tx, userID, cardID string, activity store.CardActivity, title string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO custom_cards_log (id, card_id, user_id, activity_type, title, activity_timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), cardID, userID, string(activity), title, formatTime(at))
	if err != nil {
		return storeErr(err, "failed to append card log")
	}
	return nil
}
