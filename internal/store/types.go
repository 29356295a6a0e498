package store

import (
	"time"
)

// TagType is the category of a tag.
type TagType string

const (
	TagTypePin      TagType = "pin"
	TagTypePriority TagType = "priority"
)

// Valid reports whether t is a known tag type.
func (t TagType) Valid() bool {
	return t == TagTypePin || t == TagTypePriority
}

// MaxTagsPerType caps how many tags of one type a user may own.
const MaxTagsPerType = 12

// Tag is a user-defined label shared by every entity kind.
type Tag struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Type      TagType   `json:"type"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// Kind identifies one of the taggable entity kinds.
type Kind string

const (
	KindEmail    Kind = "email"
	KindCalendar Kind = "calendar"
	KindTimeline Kind = "timeline"
	KindCustom   Kind = "custom"
)

// Kinds lists every taggable entity kind.
var Kinds = []Kind{KindEmail, KindCalendar, KindTimeline, KindCustom}

// Valid reports whether k is a known entity kind.
func (k Kind) Valid() bool {
	_, ok := associationTables[k]
	return ok
}

// Association is one (item, tag) row from a join table.
type Association struct {
	ItemID string
	TagID  string
}

// EmailMeta is the locally owned metadata of a Gmail message. A row exists only
// once a tag or star has been applied to the message.
type EmailMeta struct {
	EmailID   string    `json:"email_id"`
	UserID    string    `json:"user_id"`
	ThreadID  string    `json:"thread_id"`
	Starred   bool      `json:"is_starred"`
	Tags      []Tag     `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TimelineCard is a project card with a date range.
type TimelineCard struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Tags        []Tag      `json:"tags"`
}

// CustomCard is a free-form dashboard card.
type CustomCard struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Tags      []Tag     `json:"tags"`
}

// CardActivity is the lifecycle event recorded in the custom card log.
type CardActivity string

const (
	CardCreated CardActivity = "CREATED"
	CardUpdated CardActivity = "UPDATED"
	CardDeleted CardActivity = "DELETED"
)

// CardLogEntry is one append-only custom card log row.
type CardLogEntry struct {
	ID        string       `json:"id"`
	CardID    string       `json:"card_id"`
	UserID    string       `json:"user_id"`
	Type      CardActivity `json:"activity_type"`
	Title     string       `json:"title"`
	Timestamp time.Time    `json:"activity_timestamp"`
}

// TagEvent records a tag being attached to or detached from an email.
type TagEvent struct {
	EmailID  string    `json:"email_id"`
	TagID    string    `json:"tag_id"`
	TagName  string    `json:"tag_name"`
	TagColor string    `json:"tag_color"`
	At       time.Time `json:"at"`
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
