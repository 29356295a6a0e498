package reader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teemow/tagdeck/internal/store"
)

// TimelineCardID returns c.ID.
func TimelineCardID(c store.TimelineCard) string { return c.ID }

// TimelineCardTagIDs returns the ids of c's tags.
func TimelineCardTagIDs(c store.TimelineCard) []string { return TagIDs(c.Tags) }

// CustomCardID returns c.ID.
func CustomCardID(c store.CustomCard) string { return c.ID }

// CustomCardTagIDs returns the ids of c's tags.
func CustomCardTagIDs(c store.CustomCard) []string { return TagIDs(c.Tags) }

// CardStore is the part of the tag store the card reader needs.
type CardStore interface {
	store.CardStore
	store.AssociationStore
}

// CardReader reads project and custom cards with tags. The cards come from the
// store, and the tag lookup is still a separate step so a failing lookup
// degrades the same way it does for mail and calendar.
type CardReader struct {
	store  CardStore
	logger *slog.Logger
}

// NewCardReader creates a CardReader.
func NewCardReader(s CardStore, logger *slog.Logger) *CardReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &CardReader{store: s, logger: logger}
}

// Timeline returns the user's project cards with tags.
func (r *CardReader) Timeline(ctx context.Context, userID string) (*Listing[store.TimelineCard], error) {
	cards, err := r.store.ListTimelineCards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline cards: %w", err)
	}
	merged, degraded := Merge(ctx, r.logger, userID, store.KindTimeline, cards, TimelineCardID,
		TagLookup(r.store, store.KindTimeline, userID),
		func(c store.TimelineCard, tags []store.Tag) store.TimelineCard {
			c.Tags = nonNil(tags)
			return c
		})
	return &Listing[store.TimelineCard]{Items: merged, TagsDegraded: degraded}, nil
}

// Custom returns the user's custom cards with tags.
func (r *CardReader) Custom(ctx context.Context, userID string) (*Listing[store.CustomCard], error) {
	cards, err := r.store.ListCustomCards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom cards: %w", err)
	}
	merged, degraded := Merge(ctx, r.logger, userID, store.KindCustom, cards, CustomCardID,
		TagLookup(r.store, store.KindCustom, userID),
		func(c store.CustomCard, tags []store.Tag) store.CustomCard {
			c.Tags = nonNil(tags)
			return c
		})
	return &Listing[store.CustomCard]{Items: merged, TagsDegraded: degraded}, nil
}
