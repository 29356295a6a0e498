package tagfilter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/teemow/tagdeck/internal/store"
)

// Mode is the match mode of a selection.
type Mode string

const (
	ModeAny Mode = "any"
	ModeAll Mode = "all"
)

// ParseMode parses "any" or "all", case-insensitively. Empty means ModeAny.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAny:
		return ModeAny, nil
	case ModeAll:
		return ModeAll, nil
	default:
		return "", fmt.Errorf("invalid match mode %q (must be %q or %q)", s, ModeAny, ModeAll)
	}
}

// Selection is a set of selected tag ids plus a match mode.
type Selection struct {
	tags map[string]struct{}
	mode Mode
}

// NewSelection builds a selection. Empty ids are ignored and duplicates collapse.
func NewSelection(tagIDs []string, mode Mode) Selection {
	tags := make(map[string]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		if id != "" {
			tags[id] = struct{}{}
		}
	}
	if mode != ModeAll {
		mode = ModeAny
	}
	return Selection{tags: tags, mode: mode}
}

// Empty reports whether no tag is selected.
func (s Selection) Empty() bool {
	return len(s.tags) == 0
}

// Mode returns the match mode.
func (s Selection) Mode() Mode {
	if s.mode == "" {
		return ModeAny
	}
	return s.mode
}

// TagIDs returns the selected ids in sorted order.
func (s Selection) TagIDs() []string {
	ids := make([]string, 0, len(s.tags))
	for id := range s.tags {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Key is a canonical string for the selection; equal selections have equal keys.
func (s Selection) Key() string {
	if s.Empty() {
		return ""
	}
	return string(s.Mode()) + ":" + strings.Join(s.TagIDs(), ",")
}

// Matches evaluates the predicate against one item's tag ids.
func (s Selection) Matches(itemTags []string) bool {
	if s.Empty() {
		return true
	}
	set := make(map[string]struct{}, len(itemTags))
	for _, id := range itemTags {
		set[id] = struct{}{}
	}
	return s.matchesSet(set)
}

func (s Selection) matchesSet(itemTags map[string]struct{}) bool {
	if s.Empty() {
		return true
	}
	if s.Mode() == ModeAll {
		for id := range s.tags {
			if _, ok := itemTags[id]; !ok {
				return false
			}
		}
		return true
	}
	for id := range s.tags {
		if _, ok := itemTags[id]; ok {
			return true
		}
	}
	return false
}

// Filter returns the items passing sel, in their original order. An empty
// selection returns items unchanged.
func Filter[T any](items []T, tagIDs func(T) []string, sel Selection) []T {
	if sel.Empty() {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if sel.Matches(tagIDs(it)) {
			out = append(out, it)
		}
	}
	return out
}

// Group collects association rows into one tag set per item id. Rows for the same
// item may arrive in any order and interleaved with other items.
func Group(rows []store.Association) map[string]map[string]struct{} {
	groups := make(map[string]map[string]struct{})
	for _, r := range rows {
		g, ok := groups[r.ItemID]
		if !ok {
			g = make(map[string]struct{})
			groups[r.ItemID] = g
		}
		g[r.TagID] = struct{}{}
	}
	return groups
}

// MatchingItemIDs returns the set of item ids whose complete group of association
// rows passes sel. Rows should cover every selected tag for the candidate items;
// items without rows cannot be judged and are excluded. An empty selection
// yields nil, meaning no restriction.
func MatchingItemIDs(rows []store.Association, sel Selection) map[string]struct{} {
	if sel.Empty() {
		return nil
	}
	out := make(map[string]struct{})
	for itemID, tags := range Group(rows) {
		if sel.matchesSet(tags) {
			out[itemID] = struct{}{}
		}
	}
	return out
}

// OrderedIDs returns the ids in matched, keeping the order of order and appending
// any remaining matched ids in sorted order.
func OrderedIDs(matched map[string]struct{}, order []string) []string {
	out := make([]string, 0, len(matched))
	seen := make(map[string]struct{}, len(matched))
	for _, id := range order {
		if _, ok := matched[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	rest := make([]string, 0, len(matched)-len(out))
	for id := range matched {
		if _, ok := seen[id]; !ok {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// FilterByAssociations keeps the items whose ids are in MatchingItemIDs(rows, sel),
// preserving item order. An empty selection returns items unchanged.
func FilterByAssociations[T any](items []T, id func(T) string, rows []store.Association, sel Selection) []T {
	if sel.Empty() {
		return items
	}
	matched := MatchingItemIDs(rows, sel)
	out := make([]T, 0, len(matched))
	for _, it := range items {
		if _, ok := matched[id(it)]; ok {
			out = append(out, it)
		}
	}
	return out
}
