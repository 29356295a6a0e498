package reader

import (
	"context"
	"log/slog"

	"github.com/teemow/tagdeck/internal/instrumentation"
	"github.com/teemow/tagdeck/internal/logging"
	"github.com/teemow/tagdeck/internal/store"
)

// Lookup batch-fetches the locally stored association value for ids. Ids
// without a value are absent from the map.
type Lookup[A any] func(ctx context.Context, ids []string) (map[string]A, error)

// Listing is the merged result of one read.
type Listing[T any] struct {
	Items         []T
	NextPageToken string
	// TagsDegraded is set when the tag lookup failed and every item carries
	// an empty tag list.
	TagsDegraded bool
}

// Merge left-joins items with the values lookup returns for their ids.
//
// Items are deduplicated by id, keeping the first occurrence, and come back in
// their input order. The lookup is issued once, for exactly the surviving ids.
// attach receives the zero A for items without a stored value. When the lookup
// fails every item is attached to the zero A, a warning is logged and the
// second return value is true.
func Merge[T, A any](
	ctx context.Context,
	logger *slog.Logger,
	userID string,
	kind store.Kind,
	items []T,
	id func(T) string,
	lookup Lookup[A],
	attach func(T, A) T,
) ([]T, bool) {
	unique := make([]T, 0, len(items))
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		key := id(it)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, it)
		ids = append(ids, key)
	}
	if len(unique) == 0 {
		return unique, false
	}

	lookupCtx, span := instrumentation.StartStoreSpan(ctx, "tag_lookup",
		instrumentation.NewSpanAttributeBuilder().
			WithResource(string(kind), "").
			WithUser(logging.AnonymizeEmail(userID)).
			WithItemCount(len(ids)).
			Build()...)
	values, err := lookup(lookupCtx, ids)
	if err != nil {
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	span.End()

	degraded := false
	if err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "tag lookup failed, continuing without tags",
				logging.UserHash(userID),
				logging.Kind(string(kind)),
				logging.Count(len(ids)),
				logging.Err(err))
		}
		values = nil
		degraded = true
	}

	out := make([]T, len(unique))
	for i, it := range unique {
		out[i] = attach(it, values[ids[i]])
	}
	return out, degraded
}

// TagLookup adapts the store's per-kind association read to a Lookup.
func TagLookup(s store.AssociationStore, kind store.Kind, userID string) Lookup[[]store.Tag] {
	return func(ctx context.Context, ids []string) (map[string][]store.Tag, error) {
		return s.TagsForItems(ctx, kind, userID, ids)
	}
}

// TagIDs returns the ids of tags, in order.
func TagIDs(tags []store.Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.ID
	}
	return out
}

// nonNil returns tags, or an empty list when tags is nil, so every merged item
// serializes with a tag array.
func nonNil(tags []store.Tag) []store.Tag {
	if tags == nil {
		return []store.Tag{}
	}
	return tags
}
