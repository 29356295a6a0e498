// Package store defines tagdeck's persistence contract: tag definitions, the four
// per-kind tag association tables, locally owned email metadata, project and custom
// cards, and the two append-only logs.
//
// Every method is scoped to one user. Backends live in the sqlite and postgres
// subpackages. Errors returned by a Store carry a code from internal/errors:
// NOT_FOUND for missing rows, VALIDATION_ERROR for the tag cap, STORE_ERROR for
// everything else.
package store

import (
	"context"
	"time"
)

// Store is the tag store.
type Store interface {
	TagStore
	AssociationStore
	EmailStore
	CardStore
	ActivityStore

	Ping(ctx context.Context) error
	Close() error
}

// TagStore manages tag definitions.
type TagStore interface {
	ListTags(ctx context.Context, userID string) ([]Tag, error)
	GetTag(ctx context.Context, userID, tagID string) (*Tag, error)
	// CreateTag assigns ID and CreatedAt. It fails with a validation error once
	// the user owns MaxTagsPerType tags of t.Type.
	CreateTag(ctx context.Context, t *Tag) error
	UpdateTag(ctx context.Context, t *Tag) error
	// DeleteTag removes the tag and every association row referencing it.
	DeleteTag(ctx context.Context, userID, tagID string) error
	// EnsureDefaultTags seeds the starter pin and priority sets for a user that
	// owns no tags yet. It reports whether seeding happened.
	EnsureDefaultTags(ctx context.Context, userID string) (bool, error)
}

// AssociationStore reads and writes the per-kind tag join tables.
type AssociationStore interface {
	// TagsForItems returns the tags attached to each of itemIDs. Items without
	// associations are absent from the map.
	TagsForItems(ctx context.Context, kind Kind, userID string, itemIDs []string) (map[string][]Tag, error)
	// AssociationsForTags returns every association row whose tag is in tagIDs.
	AssociationsForTags(ctx context.Context, kind Kind, userID string, tagIDs []string) ([]Association, error)
	// ItemIDsMatchingAll returns the items carrying every tag in tagIDs, evaluated
	// with a grouped query.
	ItemIDsMatchingAll(ctx context.Context, kind Kind, userID string, tagIDs []string) ([]string, error)
	// AttachTag is idempotent. For KindEmail the email row is created on first use;
	// card kinds require the card to exist.
	AttachTag(ctx context.Context, kind Kind, userID, itemID, tagID string) error
	// DetachTag is idempotent. Detaching from an email appends to the removed-tag log
	// when a row was actually removed.
	DetachTag(ctx context.Context, kind Kind, userID, itemID, tagID string) error
}

// EmailStore manages locally owned email metadata.
type EmailStore interface {
	// UpsertEmail lazily creates the email row.
	UpsertEmail(ctx context.Context, userID, emailID, threadID string) error
	SetStarred(ctx context.Context, userID, emailID, threadID string, starred bool) error
	// EmailMetas returns metadata with tags for the given ids. Untouched messages are absent.
	EmailMetas(ctx context.Context, userID string, emailIDs []string) (map[string]EmailMeta, error)
	EmailIDsByTagName(ctx context.Context, userID, tagName string) ([]string, error)
	EmailIDsTaggedSince(ctx context.Context, userID string, since time.Time) ([]string, error)
}

// CardStore manages timeline and custom cards.
type CardStore interface {
	ListTimelineCards(ctx context.Context, userID string) ([]TimelineCard, error)
	GetTimelineCard(ctx context.Context, userID, cardID string) (*TimelineCard, error)
	CreateTimelineCard(ctx context.Context, c *TimelineCard) error
	UpdateTimelineCard(ctx context.Context, c *TimelineCard) error
	DeleteTimelineCard(ctx context.Context, userID, cardID string) error

	ListCustomCards(ctx context.Context, userID string) ([]CustomCard, error)
	GetCustomCard(ctx context.Context, userID, cardID string) (*CustomCard, error)
	// Create, update and delete of custom cards append to the card log in the
	// same transaction.
	CreateCustomCard(ctx context.Context, c *CustomCard) error
	UpdateCustomCard(ctx context.Context, c *CustomCard) error
	DeleteCustomCard(ctx context.Context, userID, cardID string) error
}

// ActivityStore reads the timestamped sources of the activity feed, newest first.
type ActivityStore interface {
	TagAddedEvents(ctx context.Context, userID string, since time.Time, limit int) ([]TagEvent, error)
	TagRemovedEvents(ctx context.Context, userID string, since time.Time, limit int) ([]TagEvent, error)
	CardLog(ctx context.Context, userID string, since time.Time, limit int) ([]CardLogEntry, error)
}
