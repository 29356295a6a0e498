package reader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/tagdeck/internal/calendar"
	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/gmail"
	"github.com/teemow/tagdeck/internal/listcache"
	"github.com/teemow/tagdeck/internal/store"
	"github.com/teemow/tagdeck/internal/store/sqlite"
	"github.com/teemow/tagdeck/internal/tagfilter"
)

const testUser = "user-1"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustTag(t *testing.T, s store.TagStore, name string) store.Tag {
	t.Helper()
	tag := &store.Tag{UserID: testUser, Name: name, Type: store.TagTypePin, Color: "#000000"}
	require.NoError(t, s.CreateTag(context.Background(), tag))
	return *tag
}

// failingStore fails every tag lookup.
type failingStore struct {
	*sqlite.Store
}

func (failingStore) EmailMetas(context.Context, string, []string) (map[string]store.EmailMeta, error) {
	return nil, errors.New("database is locked")
}

func (failingStore) TagsForItems(context.Context, store.Kind, string, []string) (map[string][]store.Tag, error) {
	return nil, errors.New("database is locked")
}

// fakeMailbox serves messages from memory and counts detail fetches.
type fakeMailbox struct {
	mu       sync.Mutex
	pages    map[string]*gmail.Page
	listErr  error
	queries  []gmail.ListOptions
	fetched  []string
	fetchErr error
	// deleted ids come back as nil messages.
	deleted  []string
}

func (f *fakeMailbox) ListMessageIDs(_ context.Context, opts gmail.ListOptions) (*gmail.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, opts)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if p, ok := f.pages[opts.PageToken]; ok {
		return p, nil
	}
	return &gmail.Page{}, nil
}

func (f *fakeMailbox) GetMessages(_ context.Context, ids []string) ([]*gmail.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]*gmail.Message, len(ids))
	for i, id := range ids {
		f.fetched = append(f.fetched, id)
		if slices.Contains(f.deleted, id) {
			continue
		}
		out[i] = &gmail.Message{ID: id, ThreadID: "t-" + id, Subject: "subject " + id}
	}
	return out, nil
}

func (f *fakeMailbox) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

type item struct {
	id   string
	tags []store.Tag
}

func TestMerge_TotalityAndOrder(t *testing.T) {
	items := []item{{id: "c"}, {id: "a"}, {id: "b"}, {id: "a"}}
	var lookedUp []string
	lookup := func(_ context.Context, ids []string) (map[string][]store.Tag, error) {
		lookedUp = ids
		return map[string][]store.Tag{"a": {{ID: "t1"}}}, nil
	}

	merged, degraded := Merge(context.Background(), quietLogger(), testUser, store.KindTimeline, items,
		func(it item) string { return it.id }, lookup,
		func(it item, tags []store.Tag) item { it.tags = nonNil(tags); return it })

	assert.False(t, degraded)
	assert.Equal(t, []string{"c", "a", "b"}, lookedUp)
	require.Len(t, merged, 3)
	assert.Equal(t, "c", merged[0].id)
	assert.Equal(t, "a", merged[1].id)
	assert.Equal(t, "b", merged[2].id)
	assert.Empty(t, merged[0].tags)
	assert.NotNil(t, merged[0].tags)
	assert.Equal(t, []string{"t1"}, TagIDs(merged[1].tags))
}

func TestMerge_LookupFailureDegrades(t *testing.T) {
	items := []item{{id: "a"}, {id: "b"}}
	lookup := func(context.Context, []string) (map[string][]store.Tag, error) {
		return nil, errors.New("boom")
	}

	merged, degraded := Merge(context.Background(), quietLogger(), testUser, store.KindCalendar, items,
		func(it item) string { return it.id }, lookup,
		func(it item, tags []store.Tag) item { it.tags = nonNil(tags); return it })

	assert.True(t, degraded)
	require.Len(t, merged, 2)
	for _, it := range merged {
		assert.NotNil(t, it.tags)
		assert.Empty(t, it.tags)
	}
}

func TestMerge_EmptyInputSkipsLookup(t *testing.T) {
	called := false
	lookup := func(context.Context, []string) (map[string][]store.Tag, error) {
		called = true
		return nil, nil
	}
	merged, degraded := Merge(context.Background(), nil, testUser, store.KindEmail, []item{},
		func(it item) string { return it.id }, lookup,
		func(it item, _ []store.Tag) item { return it })

	assert.False(t, called)
	assert.False(t, degraded)
	assert.Empty(t, merged)
}

func TestEmailReader_PagedLoadMergesStarAndTags(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	work := mustTag(t, s, "Work")
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, testUser, "m2", work.ID))
	require.NoError(t, s.SetStarred(ctx, testUser, "m2", "t-m2", true))

	box := &fakeMailbox{pages: map[string]*gmail.Page{
		"": {IDs: []string{"m1", "m2", "m1"}, NextPageToken: "p2"},
	}}
	r := NewEmailReader(EmailReaderConfig{Store: s, Logger: quietLogger(), PageSize: 25})
	view := listcache.New[Email](listcache.Options{})

	snap, err := view.Reload(ctx, r.Loader(testUser, box))
	require.NoError(t, err)

	require.Len(t, snap.Items, 2)
	assert.Equal(t, "m1", snap.Items[0].ID)
	assert.False(t, snap.Items[0].Starred)
	assert.Empty(t, snap.Items[0].Tags)
	assert.Equal(t, "m2", snap.Items[1].ID)
	assert.True(t, snap.Items[1].Starred)
	assert.Equal(t, []string{work.ID}, EmailTagIDs(snap.Items[1]))
	assert.True(t, snap.HasNext)
	assert.False(t, snap.TagsDegraded)

	require.Len(t, box.queries, 1)
	assert.Equal(t, []string{gmail.LabelInbox}, box.queries[0].LabelIDs)
	assert.Equal(t, int64(25), box.queries[0].MaxResults)
}

func TestEmailReader_CachedIDsAreNotRefetched(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	box := &fakeMailbox{pages: map[string]*gmail.Page{
		"": {IDs: []string{"m1", "m2"}},
	}}
	r := NewEmailReader(EmailReaderConfig{Store: s, Logger: quietLogger()})
	view := listcache.New[Email](listcache.Options{})
	load := r.Loader(testUser, box)

	first, err := view.Reload(ctx, load)
	require.NoError(t, err)
	assert.Equal(t, 2, box.fetchCount())

	second, err := view.Reload(ctx, load)
	require.NoError(t, err)
	assert.Equal(t, 2, box.fetchCount())
	assert.Equal(t, first.Items, second.Items)
}

func TestEmailReader_CredentialExpiredOnList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	box := &fakeMailbox{listErr: apperrors.CredentialExpired("gmail.list: credential expired")}
	r := NewEmailReader(EmailReaderConfig{Store: s, Logger: quietLogger()})
	view := listcache.New[Email](listcache.Options{})

	_, err := view.Reload(ctx, r.Loader(testUser, box))
	require.Error(t, err)
	assert.True(t, apperrors.IsCredentialExpired(err))
	assert.Zero(t, box.fetchCount())

	snap := view.Snapshot()
	assert.True(t, snap.ReauthRequired)
	assert.Zero(t, view.Len())
	assert.Empty(t, snap.Items)
}

func TestEmailReader_DetailFailureFailsWholeLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	box := &fakeMailbox{
		pages:    map[string]*gmail.Page{"": {IDs: []string{"m1", "m2"}}},
		fetchErr: apperrors.Wrap(errors.New("502"), apperrors.CodeRemote, "gmail.get: backend error"),
	}
	r := NewEmailReader(EmailReaderConfig{Store: s, Logger: quietLogger()})
	view := listcache.New[Email](listcache.Options{})

	_, err := view.Reload(ctx, r.Loader(testUser, box))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeRemote, apperrors.CodeOf(err))
	assert.Zero(t, view.Len())
	assert.False(t, view.Snapshot().Loaded)
}

func TestEmailReader_TagLookupFailureDegrades(t *testing.T) {
	ctx := context.Background()
	s := failingStore{newTestStore(t)}
	box := &fakeMailbox{pages: map[string]*gmail.Page{"": {IDs: []string{"m1"}}}}
	r := NewEmailReader(EmailReaderConfig{Store: s, Logger: quietLogger()})
	view := listcache.New[Email](listcache.Options{})

	snap, err := view.Reload(ctx, r.Loader(testUser, box))
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Empty(t, snap.Items[0].Tags)
	assert.True(t, snap.TagsDegraded)
}

func TestEmailReader_SearchIgnoresNextPage(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	box := &fakeMailbox{pages: map[string]*gmail.Page{
		"": {IDs: []string{"m9"}, NextPageToken: "more"},
	}}
	r := NewEmailReader(EmailReaderConfig{Store: s, Logger: quietLogger()})
	view := listcache.New[Email](listcache.Options{})

	snap, err := view.SetParams(ctx, listcache.Params{Mode: listcache.ModeSearching, Query: "from:bob"}, r.Loader(testUser, box))
	require.NoError(t, err)
	assert.False(t, snap.HasNext)
	require.Len(t, box.queries, 1)
	assert.Equal(t, "from:bob", box.queries[0].Query)
	assert.Empty(t, box.queries[0].LabelIDs)
}

func TestEmailReader_LegacyTagView(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	work := mustTag(t, s, "Work")
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, testUser, "m5", work.ID))

	box := &fakeMailbox{}
	r := NewEmailReader(EmailReaderConfig{Store: s, Logger: quietLogger()})
	view := listcache.New[Email](listcache.Options{})

	snap, err := view.SetParams(ctx, listcache.Params{Mode: listcache.ModeLegacyTagView, Tag: "Work"}, r.Loader(testUser, box))
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "m5", snap.Items[0].ID)
	assert.Empty(t, box.queries)
}

func TestEmailReader_TagViewSkipsDeletedEmails(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	work := mustTag(t, s, "Work")
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, testUser, "m1", work.ID))
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, testUser, "m2", work.ID))

	box := &fakeMailbox{deleted: []string{"m1"}}
	r := NewEmailReader(EmailReaderConfig{Store: s, Logger: quietLogger()})
	view := listcache.New[Email](listcache.Options{})

	snap, err := view.SetParams(ctx, listcache.Params{
		Mode:   listcache.ModeMultiTagView,
		Filter: tagfilter.NewSelection([]string{work.ID}, tagfilter.ModeAny),
	}, r.Loader(testUser, box))
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "m2", snap.Items[0].ID)
	assert.Nil(t, snap.Banner)
}

func TestEmailReader_MultiTagView(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	t1 := mustTag(t, s, "t1")
	t2 := mustTag(t, s, "t2")
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, testUser, "A", t1.ID))
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, testUser, "B", t1.ID))
	require.NoError(t, s.AttachTag(ctx, store.KindEmail, testUser, "B", t2.ID))
	require.NoError(t, s.UpsertEmail(ctx, testUser, "C", "t-C"))

	tests := []struct {
		name          string
		mode          tagfilter.Mode
		serverSideAll bool
		want          []string
	}{
		{name: "any", mode: tagfilter.ModeAny, want: []string{"A", "B"}},
		{name: "all by row grouping", mode: tagfilter.ModeAll, want: []string{"B"}},
		{name: "all by grouped query", mode: tagfilter.ModeAll, serverSideAll: true, want: []string{"B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewEmailReader(EmailReaderConfig{Store: s, Logger: quietLogger(), ServerSideAll: tt.serverSideAll})
			view := listcache.New[Email](listcache.Options{})
			sel := tagfilter.NewSelection([]string{t1.ID, t2.ID}, tt.mode)

			snap, err := view.SetParams(ctx, listcache.Params{Mode: listcache.ModeMultiTagView, Filter: sel}, r.Loader(testUser, &fakeMailbox{}))
			require.NoError(t, err)

			got := make([]string, len(snap.Items))
			for i, e := range snap.Items {
				got[i] = e.ID
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

type fakeCalendar struct {
	events []calendar.Event
	err    error
}

func (f fakeCalendar) ListEvents(context.Context, string, time.Time, time.Time) ([]calendar.Event, error) {
	return f.events, f.err
}

func TestEventReader_List(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tag := mustTag(t, s, "Travel")
	require.NoError(t, s.AttachTag(ctx, store.KindCalendar, testUser, "ev2", tag.ID))

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	src := fakeCalendar{events: []calendar.Event{
		{ID: "ev1", Summary: "Standup", Start: start, End: start.Add(15 * time.Minute)},
		{ID: "ev2", Summary: "Flight", Start: start.Add(time.Hour), End: start.Add(3 * time.Hour)},
	}}

	r := NewEventReader(s, quietLogger())
	got, err := r.List(ctx, testUser, src, calendar.PrimaryCalendar, start, start.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "ev1", got.Items[0].ID)
	assert.Empty(t, got.Items[0].Tags)
	assert.Equal(t, []string{tag.ID}, EventTagIDs(got.Items[1]))
	assert.False(t, got.TagsDegraded)
}

func TestEventReader_SourceFailure(t *testing.T) {
	s := newTestStore(t)
	r := NewEventReader(s, quietLogger())
	_, err := r.List(context.Background(), testUser, fakeCalendar{err: apperrors.CredentialExpired("calendar.list: credential expired")},
		calendar.PrimaryCalendar, time.Now(), time.Now().Add(time.Hour))
	assert.True(t, apperrors.IsCredentialExpired(err))
}

func TestCardReader(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tag := mustTag(t, s, "Launch")

	card := &store.TimelineCard{UserID: testUser, Title: "Beta", StartDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, s.CreateTimelineCard(ctx, card))
	require.NoError(t, s.AttachTag(ctx, store.KindTimeline, testUser, card.ID, tag.ID))

	custom := &store.CustomCard{UserID: testUser, Title: "Notes", Content: "hello"}
	require.NoError(t, s.CreateCustomCard(ctx, custom))

	r := NewCardReader(s, quietLogger())

	timeline, err := r.Timeline(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, timeline.Items, 1)
	assert.Equal(t, []string{tag.ID}, TimelineCardTagIDs(timeline.Items[0]))

	customs, err := r.Custom(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, customs.Items, 1)
	assert.NotNil(t, customs.Items[0].Tags)
	assert.Empty(t, customs.Items[0].Tags)

	degraded, err := NewCardReader(failingStore{s}, quietLogger()).Timeline(ctx, testUser)
	require.NoError(t, err)
	assert.True(t, degraded.TagsDegraded)
	assert.Empty(t, degraded.Items[0].Tags)
}
