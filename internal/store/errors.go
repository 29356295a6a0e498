package store

import (
	apperrors "github.com/teemow/tagdeck/internal/errors"
)

// ErrTagLimit creates the validation error returned once a user owns
// MaxTagsPerType tags of one type.
func ErrTagLimit(t TagType) error {
	return apperrors.Validationf("at most %d %s tags are allowed", MaxTagsPerType, t)
}

// NotFound creates the error returned for a missing row.
func NotFound(entity, id string) error {
	return apperrors.NotFoundf("%s %s not found", entity, id)
}

// Dedupe returns ids with duplicates and empty strings removed, keeping first-seen order.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

