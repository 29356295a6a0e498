package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// clock returns a controllable time source installed on s.
func clock(s *Store, start time.Time) func(d time.Duration) {
	now := start
	s.now = func() time.Time { return now }
	return func(d time.Duration) { now = now.Add(d) }
}

func mustTag(t *testing.T, s *Store, userID, name string, typ store.TagType) store.Tag {
	t.Helper()
	tag := &store.Tag{UserID: userID, Name: name, Type: typ, Color: "#000000"}
	require.NoError(t, s.CreateTag(context.Background(), tag))
	return *tag
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var fk int
	require.NoError(t, s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	tables := []string{
		"tags", "emails", "email_tags", "calendar_event_tags",
		"timeline_cards", "timeline_card_tags", "custom_cards", "custom_card_tags",
		"custom_cards_log", "removed_email_tags_log",
	}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s not found", table)
	}
}

func TestTags_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := mustTag(t, s, "u1", "Work", store.TagTypePin)
	assert.NotEmpty(t, tag.ID)
	assert.False(t, tag.CreatedAt.IsZero())

	got, err := s.GetTag(ctx, "u1", tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "Work", got.Name)
	assert.Equal(t, store.TagTypePin, got.Type)

	got.Name = "Office"
	got.Color = "#ffffff"
	require.NoError(t, s.UpdateTag(ctx, got))

	tags, err := s.ListTags(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Office", tags[0].Name)

	require.NoError(t, s.DeleteTag(ctx, "u1", tag.ID))
	_, err = s.GetTag(ctx, "u1", tag.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestTags_UserScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := mustTag(t, s, "u1", "Work", store.TagTypePin)

	_, err := s.GetTag(ctx, "u2", tag.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	err = s.DeleteTag(ctx, "u2", tag.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	err = s.AttachTag(ctx, store.KindEmail, "u2", "m1", tag.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	tags, err := s.ListTags(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestTags_CapPerType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < store.MaxTagsPerType; i++ {
		mustTag(t, s, "u1", "pin", store.TagTypePin)
	}

	err := s.CreateTag(ctx, &store.Tag{UserID: "u1", Name: "one too many", Type: store.TagTypePin})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	// The cap is per type and per user.
	mustTag(t, s, "u1", "urgent", store.TagTypePriority)
	mustTag(t, s, "u2", "pin", store.TagTypePin)
}

func TestEnsureDefaultTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seeded, err := s.EnsureDefaultTags(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, seeded)

	tags, err := s.ListTags(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, tags, len(store.DefaultTags))

	seeded, err = s.EnsureDefaultTags(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, seeded)

	tags, err = s.ListTags(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, tags, len(store.DefaultTags))
}

func TestAssociations_AttachDetach(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t1 := mustTag(t, s, "u1", "t1", store.TagTypePin)
	t2 := mustTag(t, s, "u1", "t2", store.TagTypePriority)

	require.NoError(t, s.AttachTag(ctx, store.KindCalendar, "u1", "ev1", t1.ID))
	require.NoError(t, s.AttachTag(ctx, store.KindCalendar, "u1", "ev1", t2.ID))
	require.NoError(t, s.AttachTag(ctx, store.KindCalendar, "u1", "ev1", t2.ID)) // idempotent
	require.NoError(t, s.AttachTag(ctx, store.KindCalendar, "u1", "ev2", t2.ID))

	tags, err := s.TagsForItems(ctx, store.KindCalendar, "u1", []string{"ev1", "ev2", "ev3"})
	require.NoError(t, err)
	assert.Len(t, tags["ev1"], 2)
	assert.Len(t, tags["ev2"], 1)
	_, ok := tags["ev3"]
	assert.False(t, ok)

	require.NoError(t, s.DetachTag(ctx, store.KindCalendar, "u1", "ev1", t1.ID))
	require.NoError(t, s.DetachTag(ctx, store.KindCalendar, "u1", "ev1", t1.ID)) // idempotent

	tags, err = s.TagsForItems(ctx, store.KindCalendar, "u1", []string{"ev1"})
	require.NoError(t, err)
	require.Len(t, tags["ev1"], 1)
	assert.Equal(t, t2.ID, tags["ev1"][0].ID)
}

func TestAssociations_CardOwnership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := mustTag(t, s, "u1", "t1", store.TagTypePin)
	card := &store.TimelineCard{UserID: "u2", Title: "Launch", StartDate: time.Now()}
	require.NoError(t, s.CreateTimelineCard(ctx, card))

	err := s.AttachTag(ctx, store.KindTimeline, "u1", card.ID, tag.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestDeleteTag_CascadesAssociations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := mustTag(t, s, "u1", "t1", store.TagTypePin)
	card := &store.CustomCard{UserID: "u1", Title: "Notes"}
	require.NoError(t, s.CreateCustomCard(ctx, card))

	require.NoError(t, s.AttachTag(ctx, store.KindEmail, "u1", "m1", tag.ID))
	require.NoError(t, s.AttachTag(ctx, store.KindCalendar, "u1", "ev1", tag.ID))
	require.NoError(t, s.AttachTag(ctx, store.KindCustom, "u1", card.ID, tag.ID))

	require.NoError(t, s.DeleteTag(ctx, "u1", tag.ID))

	for _, table := range []string{"email_tags", "calendar_event_tags", "custom_card_tags"} {
		var n int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, "rows left in %s", table)
	}
}

func TestAssociationsForTags_AndMatchingAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t1 := mustTag(t, s, "u1", "t1", store.TagTypePin)
	t2 := mustTag(t, s, "u1", "t2", store.TagTypePin)

	// A={t1}, B={t1,t2}, C={}
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, "u1", "A", t1.ID))
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, "u1", "B", t1.ID))
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, "u1", "B", t2.ID))
	require.NoError(t, s.UpsertEmail(ctx, "u1", "C", "thread-c"))

	rows, err := s.AssociationsForTags(ctx, store.KindEmail, "u1", []string{t1.ID, t2.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []store.Association{
		{ItemID: "A", TagID: t1.ID},
		{ItemID: "B", TagID: t1.ID},
		{ItemID: "B", TagID: t2.ID},
	}, rows)

	ids, err := s.ItemIDsMatchingAll(ctx, store.KindEmail, "u1", []string{t1.ID, t2.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, ids)

	ids, err = s.ItemIDsMatchingAll(ctx, store.KindEmail, "u1", []string{t1.ID, "deleted-tag"})
	require.NoError(t, err)
	assert.Empty(t, ids)

	rows, err = s.AssociationsForTags(ctx, store.KindEmail, "u2", []string{t1.ID})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAssociationsForTags_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	advance := clock(s, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	work := mustTag(t, s, "u1", "Work", store.TagTypePin)
	home := mustTag(t, s, "u1", "Home", store.TagTypePin)

	// Tag ids are random, so the insertion order below is unrelated to any index order.
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, "u1", "old", home.ID))
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, "u1", "old", work.ID))
	advance(time.Minute)
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, "u1", "mid", work.ID))
	advance(time.Minute)
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, "u1", "new", home.ID))
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, "u1", "b-same", work.ID))
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, "u1", "a-same", home.ID))
	advance(time.Minute)
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, "u1", "mid", home.ID))

	rows, err := s.AssociationsForTags(ctx, store.KindEmail, "u1", []string{work.ID, home.ID})
	require.NoError(t, err)
	items := make([]string, 0, len(rows))
	for _, r := range rows {
		if len(items) == 0 || items[len(items)-1] != r.ItemID {
			items = append(items, r.ItemID)
		}
	}
	assert.Equal(t, []string{"mid", "a-same", "b-same", "new", "mid", "old"}, items)

	ids, err := s.ItemIDsMatchingAll(ctx, store.KindEmail, "u1", []string{work.ID, home.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"mid", "old"}, ids)
}

func TestEmails_StarAndMetas(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := mustTag(t, s, "u1", "t1", store.TagTypePin)

	require.NoError(t, s.SetStarred(ctx, "u1", "m1", "th1", true))
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, "u1", "m2", tag.ID))
	require.NoError(t, s.UpsertEmail(ctx, "u1", "m2", "th2"))
	require.NoError(t, s.UpsertEmail(ctx, "u1", "m2", "")) // keeps the known thread

	metas, err := s.EmailMetas(ctx, "u1", []string{"m1", "m2", "m3"})
	require.NoError(t, err)
	require.Len(t, metas, 2)

	assert.True(t, metas["m1"].Starred)
	assert.Equal(t, "th1", metas["m1"].ThreadID)
	assert.Empty(t, metas["m1"].Tags)
	assert.NotNil(t, metas["m1"].Tags)

	assert.False(t, metas["m2"].Starred)
	assert.Equal(t, "th2", metas["m2"].ThreadID)
	require.Len(t, metas["m2"].Tags, 1)
	assert.Equal(t, tag.ID, metas["m2"].Tags[0].ID)

	require.NoError(t, s.SetStarred(ctx, "u1", "m1", "", false))
	metas, err = s.EmailMetas(ctx, "u1", []string{"m1"})
	require.NoError(t, err)
	assert.False(t, metas["m1"].Starred)
	assert.Equal(t, "th1", metas["m1"].ThreadID)
}

func TestEmailIDsByTagName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	advance := clock(s, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	work := mustTag(t, s, "u1", "Work", store.TagTypePin)
	home := mustTag(t, s, "u1", "Home", store.TagTypePin)

	require.NoError(t, s.AttachTag(ctx, store.KindEmail, "u1", "m1", work.ID))
	advance(time.Minute)
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, "u1", "m2", work.ID))
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, "u1", "m3", home.ID))

	ids, err := s.EmailIDsByTagName(ctx, "u1", "Work")
	require.NoError(t, err)
	assert.Equal(t, []string{"m2", "m1"}, ids)

	ids, err = s.EmailIDsByTagName(ctx, "u1", "Missing")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestEmailIDsTaggedSince(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	yesterday := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
	advance := clock(s, yesterday)

	tag := mustTag(t, s, "u1", "t1", store.TagTypePin)
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, "u1", "old", tag.ID))

	advance(4 * time.Hour) // 02:00 the next day
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, "u1", "new", tag.ID))

	today := store.StartOfDay(yesterday.Add(4 * time.Hour))
	ids, err := s.EmailIDsTaggedSince(ctx, "u1", today)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids)
}

func TestDetachEmailTag_LogsRemoval(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	advance := clock(s, start)

	tag := mustTag(t, s, "u1", "Work", store.TagTypePin)
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, "u1", "m1", tag.ID))
	advance(time.Minute)
	require.NoError(t, s.DetachTag(ctx, store.KindEmail, "u1", "m1", tag.ID))
	// Detaching again removes nothing and must not log.
	require.NoError(t, s.DetachTag(ctx, store.KindEmail, "u1", "m1", tag.ID))

	removed, err := s.TagRemovedEvents(ctx, "u1", time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "m1", removed[0].EmailID)
	assert.Equal(t, "Work", removed[0].TagName)
	assert.True(t, removed[0].At.Equal(start.Add(time.Minute)))

	added, err := s.TagAddedEvents(ctx, "u1", time.Time{}, 10)
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestTimelineCards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(72 * time.Hour)
	card := &store.TimelineCard{UserID: "u1", Title: "Launch", Description: "v1", StartDate: start, EndDate: &end}
	require.NoError(t, s.CreateTimelineCard(ctx, card))

	tag := mustTag(t, s, "u1", "t1", store.TagTypePin)
	require.NoError(t, s.AttachTag(ctx, store.KindTimeline, "u1", card.ID, tag.ID))

	got, err := s.GetTimelineCard(ctx, "u1", card.ID)
	require.NoError(t, err)
	assert.Equal(t, "Launch", got.Title)
	assert.True(t, got.StartDate.Equal(start))
	require.NotNil(t, got.EndDate)
	assert.True(t, got.EndDate.Equal(end))
	require.Len(t, got.Tags, 1)

	got.EndDate = nil
	got.Description = ""
	require.NoError(t, s.UpdateTimelineCard(ctx, got))

	cards, err := s.ListTimelineCards(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Nil(t, cards[0].EndDate)
	assert.Empty(t, cards[0].Description)

	require.NoError(t, s.DeleteTimelineCard(ctx, "u1", card.ID))
	_, err = s.GetTimelineCard(ctx, "u1", card.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestCustomCards_LogEveryMutation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	advance := clock(s, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	card := &store.CustomCard{UserID: "u1", Title: "Draft", Content: "..."}
	require.NoError(t, s.CreateCustomCard(ctx, card))

	advance(time.Minute)
	card.Title = "Final"
	require.NoError(t, s.UpdateCustomCard(ctx, card))

	advance(time.Minute)
	require.NoError(t, s.DeleteCustomCard(ctx, "u1", card.ID))

	entries, err := s.CardLog(ctx, "u1", time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, store.CardDeleted, entries[0].Type)
	assert.Equal(t, "Final", entries[0].Title)
	assert.Equal(t, store.CardUpdated, entries[1].Type)
	assert.Equal(t, store.CardCreated, entries[2].Type)
	assert.Equal(t, "Draft", entries[2].Title)

	// A failed mutation must not log.
	err = s.UpdateCustomCard(ctx, &store.CustomCard{ID: "missing", UserID: "u1", Title: "x"})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	entries, err = s.CardLog(ctx, "u1", time.Time{}, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	limited, err := s.CardLog(ctx, "u1", time.Time{}, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestUnknownKind(t *testing.T) {
	s := newTestStore(t)
	_, err := s.TagsForItems(context.Background(), store.Kind("notes"), "u1", []string{"x"})
	assert.Error(t, err)
}
