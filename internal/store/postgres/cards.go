package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/teemow/tagdeck/internal/store"
)

const timelineColumns = `id, user_id, title, COALESCE(description, ''), start_date, end_date, created_at`

func scanTimelineCard(row pgx.Row) (store.TimelineCard, error) {
	var c store.TimelineCard
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.Description, &c.StartDate, &c.EndDate, &c.CreatedAt)
	c.Tags = []store.Tag{}
	return c, err
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ListTimelineCards returns the user's project cards by start date.
func (s *Store) ListTimelineCards(ctx context.Context, userID string) ([]store.TimelineCard, error) {
	cards := []store.TimelineCard{}
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT `+timelineColumns+` FROM timeline_cards WHERE user_id = $1 ORDER BY start_date, created_at, id`, userID)
		if err != nil {
			return storeErr(err, "failed to list timeline cards")
		}
		defer rows.Close()
		for rows.Next() {
			c, err := scanTimelineCard(rows)
			if err != nil {
				return storeErr(err, "failed to scan timeline card")
			}
			cards = append(cards, c)
		}
		return storeErr(rows.Err(), "failed to list timeline cards")
	})
	return cards, err
}

// GetTimelineCard retrieves one project card with its tags.
func (s *Store) GetTimelineCard(ctx context.Context, userID, cardID string) (*store.TimelineCard, error) {
	var c store.TimelineCard
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		c, err = scanTimelineCard(tx.QueryRow(ctx,
			`SELECT `+timelineColumns+` FROM timeline_cards WHERE user_id = $1 AND id = $2`, userID, cardID))
		if isNoRows(err) {
			return store.NotFound("timeline card", cardID)
		}
		if err != nil {
			return storeErr(err, "failed to get timeline card")
		}
		tags := make(map[string][]store.Tag)
		if err := tagsForItems(ctx, tx, "timeline_card_tags", "card_id", userID, []string{cardID}, tags); err != nil {
			return err
		}
		if ts, ok := tags[cardID]; ok {
			c.Tags = ts
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateTimelineCard inserts a project card, assigning ID and CreatedAt.
func (s *Store) CreateTimelineCard(ctx context.Context, c *store.TimelineCard) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = s.now().UTC()
	return s.withUser(ctx, c.UserID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO timeline_cards (id, user_id, title, description, start_date, end_date, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			c.ID, c.UserID, c.Title, nullIfEmpty(c.Description), c.StartDate, c.EndDate, c.CreatedAt)
		return storeErr(err, "failed to create timeline card")
	})
}

// UpdateTimelineCard replaces title, description and dates.
func (s *Store) UpdateTimelineCard(ctx context.Context, c *store.TimelineCard) error {
	return s.withUser(ctx, c.UserID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE timeline_cards SET title = $1, description = $2, start_date = $3, end_date = $4
			WHERE user_id = $5 AND id = $6`,
			c.Title, nullIfEmpty(c.Description), c.StartDate, c.EndDate, c.UserID, c.ID)
		if err != nil {
			return storeErr(err, "failed to update timeline card")
		}
		if tag.RowsAffected() == 0 {
			return store.NotFound("timeline card", c.ID)
		}
		return nil
	})
}

// DeleteTimelineCard removes a project card and its tag associations.
func (s *Store) DeleteTimelineCard(ctx context.Context, userID, cardID string) error {
	return s.withUser(ctx, userID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM timeline_cards WHERE user_id = $1 AND id = $2`, userID, cardID)
		if err != nil {
			return storeErr(err, "failed to delete timeline card")
		}
		if tag.RowsAffected() == 0 {
			return store.NotFound("timeline card", cardID)
		}
		return nil
	})
}

const customColumns = `id, user_id, title, content, created_at, updated_at`

func scanCustomCard(row pgx.Row) (store.CustomCard, error) {
	var c store.CustomCard
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	c.Tags = []store.Tag{}
	return c, err
}

// ListCustomCards returns the user's dashboard cards, most recently updated first.
func (s *Store) ListCustomCards(ctx context.Context, userID string) ([]store.CustomCard, error) {
	cards := []store.CustomCard{}
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT `+customColumns+` FROM custom_cards WHERE user_id = $1 ORDER BY updated_at DESC, id`, userID)
		if err != nil {
			return storeErr(err, "failed to list custom cards")
		}
		defer rows.Close()
		for rows.Next() {
			c, err := scanCustomCard(rows)
			if err != nil {
				return storeErr(err, "failed to scan custom card")
			}
			cards = append(cards, c)
		}
		return storeErr(rows.Err(), "failed to list custom cards")
	})
	return cards, err
}

// GetCustomCard retrieves one dashboard card with its tags.
func (s *Store) GetCustomCard(ctx context.Context, userID, cardID string) (*store.CustomCard, error) {
	var c store.CustomCard
	err := s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		c, err = scanCustomCard(tx.QueryRow(ctx,
			`SELECT `+customColumns+` FROM custom_cards WHERE user_id = $1 AND id = $2`, userID, cardID))
		if isNoRows(err) {
			return store.NotFound("custom card", cardID)
		}
		if err != nil {
			return storeErr(err, "failed to get custom card")
		}
		tags := make(map[string][]store.Tag)
		if err := tagsForItems(ctx, tx, "custom_card_tags", "card_id", userID, []string{cardID}, tags); err != nil {
			return err
		}
		if ts, ok := tags[cardID]; ok {
			c.Tags = ts
		}
		return nil
	})
	if err != nil {
		return nil, err
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
	return s.withUser(ctx, c.UserID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO custom_cards (`+customColumns+`) VALUES ($1, $2, $3, $4, $5, $5)`,
			c.ID, c.UserID, c.Title, c.Content, now)
		if err != nil {
			return storeErr(err, "failed to create custom card")
		}
		return appendCardLog(ctx, tx, c.UserID, c.ID, store.CardCreated, c.Title, now)
	})
}

// UpdateCustomCard replaces title and content and logs UPDATED.
func (s *Store) UpdateCustomCard(ctx context.Context, c *store.CustomCard) error {
	now := s.now().UTC()
	return s.withUser(ctx, c.UserID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE custom_cards SET title = $1, content = $2, updated_at = $3 WHERE user_id = $4 AND id = $5`,
			c.Title, c.Content, now, c.UserID, c.ID)
		if err != nil {
			return storeErr(err, "failed to update custom card")
		}
		if tag.RowsAffected() == 0 {
			return store.NotFound("custom card", c.ID)
		}
		c.UpdatedAt = now
		return appendCardLog(ctx, tx, c.UserID, c.ID, store.CardUpdated, c.Title, now)
	})
}

// DeleteCustomCard removes a dashboard card and logs DELETED with its last title.
func (s *Store) DeleteCustomCard(ctx context.Context, userID, cardID string) error {
	now := s.now().UTC()
	return s.withUser(ctx, userID, func(tx pgx.Tx) error {
		var title string
		err := tx.QueryRow(ctx,
			`DELETE FROM custom_cards WHERE user_id = $1 AND id = $2 RETURNING title`, userID, cardID).Scan(&title)
		if isNoRows(err) {
			return store.NotFound("custom card", cardID)
		}
		if err != nil {
			return storeErr(err, "failed to delete custom card")
		}
		return appendCardLog(ctx, tx, userID, cardID, store.CardDeleted, title, now)
	})
}

func appendCardLog(ctx context.Context, tx pgx.Tx, userID, cardID string, activity store.CardActivity, title string, at time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO custom_cards_log (id, card_id, user_id, activity_type, title, activity_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), cardID, userID, string(activity), title, at)
	return storeErr(err, "failed to append card log")
}
