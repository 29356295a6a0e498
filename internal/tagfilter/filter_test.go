package tagfilter

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/tagdeck/internal/store"
)

type item struct {
	id   string
	tags []string
}

func itemTags(it item) []string { return it.tags }
func itemID(it item) string     { return it.id }

func ids(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeAny, false},
		{"any", ModeAny, false},
		{"ANY", ModeAny, false},
		{" all ", ModeAll, false},
		{"and", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_Scenario(t *testing.T) {
	items := []item{
		{id: "A", tags: []string{"t1"}},
		{id: "B", tags: []string{"t1", "t2"}},
		{id: "C", tags: nil},
	}

	tests := []struct {
		name string
		mode Mode
		want []string
	}{
		{"any", ModeAny, []string{"A", "B"}},
		{"all", ModeAll, []string{"B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := NewSelection([]string{"t1", "t2"}, tt.mode)
			assert.Equal(t, tt.want, ids(Filter(items, itemTags, sel)))
		})
	}
}

func TestFilter_EmptySelectionPassesAll(t *testing.T) {
	items := []item{{id: "C"}, {id: "A", tags: []string{"t1"}}, {id: "B"}}
	for _, mode := range []Mode{ModeAny, ModeAll} {
		sel := NewSelection(nil, mode)
		assert.True(t, sel.Empty())
		assert.Equal(t, items, Filter(items, itemTags, sel))
		assert.Equal(t, items, FilterByAssociations(items, itemID, nil, sel))
	}
	assert.True(t, NewSelection([]string{""}, ModeAll).Empty())
}

func TestFilter_UnknownTagNeverMatches(t *testing.T) {
	items := []item{{id: "A", tags: []string{"t1"}}}

	any := NewSelection([]string{"t1", "deleted"}, ModeAny)
	assert.Equal(t, []string{"A"}, ids(Filter(items, itemTags, any)))

	all := NewSelection([]string{"t1", "deleted"}, ModeAll)
	assert.Empty(t, Filter(items, itemTags, all))

	only := NewSelection([]string{"deleted"}, ModeAny)
	assert.Empty(t, Filter(items, itemTags, only))
}

func TestSelection_Key(t *testing.T) {
	a := NewSelection([]string{"t2", "t1", "t1"}, ModeAll)
	b := NewSelection([]string{"t1", "t2"}, ModeAll)
	c := NewSelection([]string{"t1", "t2"}, ModeAny)

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, "", NewSelection(nil, ModeAll).Key())
	assert.Equal(t, []string{"t1", "t2"}, a.TagIDs())
	assert.Equal(t, ModeAny, NewSelection([]string{"x"}, "bogus").Mode())
}

func TestMatchingItemIDs_GroupsBeforeFiltering(t *testing.T) {
	// Rows for B are interleaved with rows for other items. Judging B on its
	// first row alone would wrongly reject it in ALL mode.
	rows := []store.Association{
		{ItemID: "B", TagID: "t1"},
		{ItemID: "A", TagID: "t1"},
		{ItemID: "D", TagID: "t2"},
		{ItemID: "B", TagID: "t2"},
		{ItemID: "A", TagID: "t1"},
	}

	all := MatchingItemIDs(rows, NewSelection([]string{"t1", "t2"}, ModeAll))
	assert.Equal(t, map[string]struct{}{"B": {}}, all)

	any := MatchingItemIDs(rows, NewSelection([]string{"t1", "t2"}, ModeAny))
	assert.Len(t, any, 3)

	assert.Nil(t, MatchingItemIDs(rows, NewSelection(nil, ModeAll)))
}

func TestFilterByAssociations_PreservesOrder(t *testing.T) {
	items := []item{{id: "C"}, {id: "B"}, {id: "A"}}
	rows := []store.Association{
		{ItemID: "A", TagID: "t1"},
		{ItemID: "C", TagID: "t1"},
	}
	got := FilterByAssociations(items, itemID, rows, NewSelection([]string{"t1"}, ModeAny))
	assert.Equal(t, []string{"C", "A"}, ids(got))
}

func TestOrderedIDs(t *testing.T) {
	matched := map[string]struct{}{"a": {}, "b": {}, "z": {}, "y": {}}
	got := OrderedIDs(matched, []string{"b", "x", "a", "b"})
	assert.Equal(t, []string{"b", "a", "y", "z"}, got)
}

// TestFilter_Property checks both evaluation paths against the set definitions
// on random tag assignments.
func TestFilter_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	universe := []string{"t0", "t1", "t2", "t3", "t4", "t5"}

	randomSubset := func() []string {
		var out []string
		for _, tag := range universe {
			if rng.Intn(3) == 0 {
				out = append(out, tag)
			}
		}
		return out
	}

	for round := 0; round < 500; round++ {
		items := make([]item, 1+rng.Intn(12))
		var rows []store.Association
		for i := range items {
			items[i] = item{id: fmt.Sprintf("i%d", i), tags: randomSubset()}
			for _, tag := range items[i].tags {
				rows = append(rows, store.Association{ItemID: items[i].id, TagID: tag})
			}
		}
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

		selected := randomSubset()
		if len(selected) == 0 {
			selected = []string{universe[rng.Intn(len(universe))]}
		}

		for _, mode := range []Mode{ModeAny, ModeAll} {
			sel := NewSelection(selected, mode)

			var want []string
			for _, it := range items {
				have := map[string]bool{}
				for _, tag := range it.tags {
					have[tag] = true
				}
				hits := 0
				for _, s := range selected {
					if have[s] {
						hits++
					}
				}
				if (mode == ModeAny && hits > 0) || (mode == ModeAll && hits == len(selected)) {
					want = append(want, it.id)
				}
			}

			got := ids(Filter(items, itemTags, sel))
			gotRows := ids(FilterByAssociations(items, itemID, rows, sel))
			if want == nil {
				want = []string{}
			}
			require.Equal(t, want, got, "round %d mode %s selection %v", round, mode, selected)
			require.Equal(t, want, gotRows, "round %d mode %s selection %v (rows)", round, mode, selected)
		}
	}
}
