package dashboard

import (
	"context"
	"fmt"
	"slices"

	"github.com/teemow/tagdeck/internal/reader"
	"github.com/teemow/tagdeck/internal/store"
)

// TagInput creates a tag.
type TagInput struct {
	Name  string `json:"name" validate:"notblank,max=64"`
	Type  string `json:"type" validate:"tagtype"`
	Color string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// TagPatch renames or recolors a tag. Nil fields are left unchanged.
type TagPatch struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,notblank,max=64"`
	Color *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// defaultColors is used when a tag is created without a color.
var defaultColors = map[store.TagType]string{
	store.TagTypePin:      "#4285F4",
	store.TagTypePriority: "#EA4335",
}

// ListTags returns the user's tags, seeding the starter set for a user that
// has none.
func (s *Service) ListTags(ctx context.Context, userID string) ([]store.Tag, error) {
	if _, err := s.store.EnsureDefaultTags(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to seed default tags: %w", err)
	}
	tags, err := s.store.ListTags(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// CreateTag creates a tag. The store rejects it once the user owns
// store.MaxTagsPerType tags of its type.
func (s *Service) CreateTag(ctx context.Context, userID string, in TagInput) (*store.Tag, error) {
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	tag := &store.Tag{
		UserID: userID,
		Name:   in.Name,
		Type:   store.TagType(in.Type),
		Color:  in.Color,
	}
	if tag.Color == "" {
		tag.Color = defaultColors[tag.Type]
	}
	if err := s.store.CreateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return tag, nil
}

// UpdateTag applies patch and updates cached emails carrying the tag.
func (s *Service) UpdateTag(ctx context.Context, userID, tagID string, patch TagPatch) (*store.Tag, error) {
	if err := s.validate.Validate(patch); err != nil {
		return nil, err
	}

	tag, err := s.store.GetTag(ctx, userID, tagID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		tag.Name = *patch.Name
	}
	if patch.Color != nil {
		tag.Color = *patch.Color
	}
	if err := s.store.UpdateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("failed to update tag: %w", err)
	}

	updated := *tag
	s.patchCachedTags(userID, func(tags []store.Tag) []store.Tag {
		for i := range tags {
			if tags[i].ID == updated.ID {
				tags[i] = updated
			}
		}
		return tags
	})
	return tag, nil
}

// DeleteTag deletes a tag and every association to it, and removes it from
// cached emails.
func (s *Service) DeleteTag(ctx context.Context, userID, tagID string) error {
	if err := s.store.DeleteTag(ctx, userID, tagID); err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	s.patchCachedTags(userID, func(tags []store.Tag) []store.Tag {
		return slices.DeleteFunc(tags, func(t store.Tag) bool { return t.ID == tagID })
	})
	return nil
}

func (s *Service) patchCachedTags(userID string, fn func([]store.Tag) []store.Tag) {
	for _, v := range s.views.Views(viewPrefix(userID)) {
		v.PatchEach(func(e *reader.Email) {
			e.Tags = fn(cloneTags(e.Tags))
		})
	}
}

func cloneTags(tags []store.Tag) []store.Tag {
	if tags == nil {
		return []store.Tag{}
	}
	return slices.Clone(tags)
}

func hasTag(tags []store.Tag, tagID string) bool {
	return slices.ContainsFunc(tags, func(t store.Tag) bool { return t.ID == tagID })
}

// toggleTag flips tagID on an item that is not held in a list cache and
// reports whether the tag is now attached.
func (s *Service) toggleTag(ctx context.Context, kind store.Kind, userID, itemID, tagID string) (bool, error) {
	if _, err := s.store.GetTag(ctx, userID, tagID); err != nil {
		return false, err
	}
	current, err := s.store.TagsForItems(ctx, kind, userID, []string{itemID})
	if err != nil {
		return false, fmt.Errorf("failed to read %s tags: %w", kind, err)
	}

	if hasTag(current[itemID], tagID) {
		if err := s.store.DetachTag(ctx, kind, userID, itemID, tagID); err != nil {
			return false, fmt.Errorf("failed to detach tag: %w", err)
		}
		return false, nil
	}
	if err := s.store.AttachTag(ctx, kind, userID, itemID, tagID); err != nil {
		return false, fmt.Errorf("failed to attach tag: %w", err)
	}
	return true, nil
}
