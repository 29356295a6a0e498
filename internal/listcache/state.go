package listcache

import (
	"slices"
	"strings"

	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/tagfilter"
)

// Mode is the kind of list a view shows.
type Mode string

const (
	// ModePaged walks the mailbox page by page with a cursor chain.
	ModePaged Mode = "paged"
	// ModeSearching shows the results of one search query, unpaged.
	ModeSearching Mode = "search"
	// ModeLegacyTagView shows the items carrying one tag, looked up by name, unpaged.
	ModeLegacyTagView Mode = "tag"
	// ModeMultiTagView shows the items passing the tag filter engine, unpaged.
	ModeMultiTagView Mode = "filter"
)

// ParseMode parses a mode name. The empty string is ModePaged.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModePaged, nil
	case ModePaged, ModeSearching, ModeLegacyTagView, ModeMultiTagView:
		return m, nil
	default:
		return "", apperrors.Validationf("unknown view mode %q", s)
	}
}

// Params are the inputs that define what a view lists.
type Params struct {
	Mode   Mode
	Query  string
	Tag    string
	Filter tagfilter.Selection
}

// Normalize fills in defaults. A search without a query or a filter without
// selected tags falls back to the paged view.
func (p Params) Normalize() Params {
	switch p.Mode {
	case ModeSearching:
		if strings.TrimSpace(p.Query) == "" {
			return Params{Mode: ModePaged}
		}
		return Params{Mode: ModeSearching, Query: strings.TrimSpace(p.Query)}
	case ModeLegacyTagView:
		if strings.TrimSpace(p.Tag) == "" {
			return Params{Mode: ModePaged}
		}
		return Params{Mode: ModeLegacyTagView, Tag: strings.TrimSpace(p.Tag)}
	case ModeMultiTagView:
		if p.Filter.Empty() {
			return Params{Mode: ModePaged}
		}
		return Params{Mode: ModeMultiTagView, Filter: p.Filter}
	default:
		return Params{Mode: ModePaged}
	}
}

// Equal reports whether p and o list the same content once normalized.
func (p Params) Equal(o Params) bool {
	return p.Normalize().key() == o.Normalize().key()
}

func (p Params) key() string {
	switch p.Mode {
	case ModeSearching:
		return string(p.Mode) + ":" + p.Query
	case ModeLegacyTagView:
		return string(p.Mode) + ":" + p.Tag
	case ModeMultiTagView:
		return string(p.Mode) + ":" + p.Filter.Key()
	default:
		return string(p.Mode)
	}
}

// State is the position of a view: its params and, in paged mode, the cursor
// and the stack of cursors of previous pages.
type State struct {
	Params Params
	Cursor string
	Prior  []string
}

// Key identifies the listed content. Two loads with equal keys show the same list.
func (s State) Key() string {
	return s.Params.key() + "|" + s.Cursor
}

// withParams returns the state a view moves to when its params change. Entering
// any mode, including returning to paged mode, starts from the first page.
func withParams(p Params) State {
	return State{Params: p.Normalize()}
}

func (s State) next(token string) State {
	return State{
		Params: s.Params,
		Cursor: token,
		Prior:  append(slices.Clone(s.Prior), s.Cursor),
	}
}

func (s State) prev() State {
	last := len(s.Prior) - 1
	return State{
		Params: s.Params,
		Cursor: s.Prior[last],
		Prior:  slices.Clone(s.Prior[:last]),
	}
}
