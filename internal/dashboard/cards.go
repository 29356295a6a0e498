package dashboard

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/instrumentation"
	"github.com/teemow/tagdeck/internal/reader"
	"github.com/teemow/tagdeck/internal/store"
	"github.com/teemow/tagdeck/internal/tagfilter"
)

// TimelineCardInput creates or replaces a project card.
type TimelineCardInput struct {
	Title       string     `json:"title" validate:"notblank,max=256"`
	Description string     `json:"description,omitempty" validate:"max=4096"`
	StartDate   time.Time  `json:"start_date" validate:"required"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// validate checks the input. The end date, when set, must not precede the start.
func (in TimelineCardInput) validate(s *Service) error {
	if err := s.validate.Validate(in); err != nil {
		return err
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return apperrors.ValidationWithDetails("invalid end_date",
			map[string]string{"end_date": "must not be before start_date"})
	}
	return nil
}

// CustomCardInput creates or replaces a custom card.
type CustomCardInput struct {
	Title   string `json:"title" validate:"notblank,max=256"`
	Content string `json:"content" validate:"max=65536"`
}

// ListTimelineCards returns the user's project cards, narrowed by sel.
func (s *Service) ListTimelineCards(ctx context.Context, userID string, sel tagfilter.Selection) (*reader.Listing[store.TimelineCard], error) {
	listing, err := s.cards.Timeline(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !sel.Empty() {
		s.metrics.RecordFilterEvaluation(ctx, string(store.KindTimeline), string(sel.Mode()), instrumentation.EvaluationClient)
		listing.Items = tagfilter.Filter(listing.Items, reader.TimelineCardTagIDs, sel)
	}
	return listing, nil
}

// CreateTimelineCard creates a project card.
func (s *Service) CreateTimelineCard(ctx context.Context, userID string, in TimelineCardInput) (*store.TimelineCard, error) {
	if err := in.validate(s); err != nil {
		return nil, err
	}
	card := &store.TimelineCard{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Tags:        []store.Tag{},
	}
	if err := s.store.CreateTimelineCard(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to create timeline card: %w", err)
	}
	return card, nil
}

// UpdateTimelineCard replaces a project card's fields.
func (s *Service) UpdateTimelineCard(ctx context.Context, userID, cardID string, in TimelineCardInput) (*store.TimelineCard, error) {
	if err := in.validate(s); err != nil {
		return nil, err
	}
	card, err := s.store.GetTimelineCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	card.Title = in.Title
	card.Description = in.Description
	card.StartDate = in.StartDate
	card.EndDate = in.EndDate
	if err := s.store.UpdateTimelineCard(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to update timeline card: %w", err)
	}
	return card, nil
}

// DeleteTimelineCard deletes a project card and its tag associations.
func (s *Service) DeleteTimelineCard(ctx context.Context, userID, cardID string) error {
	return s.store.DeleteTimelineCard(ctx, userID, cardID)
}

// ToggleTimelineCardTag flips a tag on a project card.
func (s *Service) ToggleTimelineCardTag(ctx context.Context, userID, cardID, tagID string) (bool, error) {
	return s.toggleTag(ctx, store.KindTimeline, userID, cardID, tagID)
}

// ListCustomCards returns the user's custom cards, narrowed by sel.
func (s *Service) ListCustomCards(ctx context.Context, userID string, sel tagfilter.Selection) (*reader.Listing[store.CustomCard], error) {
	listing, err := s.cards.Custom(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !sel.Empty() {
		s.metrics.RecordFilterEvaluation(ctx, string(store.KindCustom), string(sel.Mode()), instrumentation.EvaluationClient)
		listing.Items = tagfilter.Filter(listing.Items, reader.CustomCardTagIDs, sel)
	}
	return listing, nil
}

// CreateCustomCard creates a custom card and logs it.
func (s *Service) CreateCustomCard(ctx context.Context, userID string, in CustomCardInput) (*store.CustomCard, error) {
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}
	card := &store.CustomCard{UserID: userID, Title: in.Title, Content: in.Content, Tags: []store.Tag{}}
	if err := s.store.CreateCustomCard(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to create custom card: %w", err)
	}
	return card, nil
}

// UpdateCustomCard replaces a custom card's fields and logs it.
func (s *Service) UpdateCustomCard(ctx context.Context, userID, cardID string, in CustomCardInput) (*store.CustomCard, error) {
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}
	card, err := s.store.GetCustomCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	card.Title = in.Title
	card.Content = in.Content
	if err := s.store.UpdateCustomCard(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to update custom card: %w", err)
	}
	return card, nil
}

// DeleteCustomCard deletes a custom card and logs it.
func (s *Service) DeleteCustomCard(ctx context.Context, userID, cardID string) error {
	return s.store.DeleteCustomCard(ctx, userID, cardID)
}

// ToggleCustomCardTag flips a tag on a custom card.
func (s *Service) ToggleCustomCardTag(ctx context.Context, userID, cardID, tagID string) (bool, error) {
	return s.toggleTag(ctx, store.KindCustom, userID, cardID, tagID)
}
