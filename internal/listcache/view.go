package listcache

import (
	"context"
	"slices"
	"sync"
	"time"

	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/instrumentation"
)

// Request is what a Loader gets for one load.
type Request struct {
	State State
	// Missing returns the subset of ids not yet in the cache, in input order.
	// Only these need a detail fetch.
	Missing func(ids []string) []string
}

// Result is what a Loader returns: the ids of the list in display order, the
// token of the following page (paged mode only) and the items fetched for the
// ids Missing reported.
type Result[T any] struct {
	IDs           []string
	NextPageToken string
	Fetched       map[string]T
	// TagsDegraded is set when the tag lookup for Fetched failed and the
	// items carry empty tag lists.
	TagsDegraded bool
}

// Loader fetches one list. It must honor ctx cancellation.
type Loader[T any] func(ctx context.Context, req Request) (*Result[T], error)

// Banner is the error shown above the list after a failed load.
type Banner struct {
	Message   string `json:"message"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}

// Snapshot is a consistent copy of a view's visible state.
type Snapshot[T any] struct {
	State          State
	Items          []T
	Selection      []string
	HasNext        bool
	HasPrev        bool
	Banner         *Banner
	ReauthRequired bool
	TagsDegraded   bool
	Loaded         bool
}

// Options configure a View.
type Options struct {
	Metrics *instrumentation.Metrics
	Now     func() time.Time
}

// View is the state of one list view session. It is safe for concurrent use.
type View[T any] struct {
	metrics *instrumentation.Metrics
	now     func() time.Time

	mu        sync.Mutex
	state     State
	nextToken string
	pageIDs   []string
	loaded    bool
	cache     map[string]T
	selection map[string]struct{}
	banner    *Banner
	reauth    bool
	degraded  bool

	generation uint64
	cancel     context.CancelFunc
	lastUsed   time.Time
}

// New creates an empty view on the first page of the paged mode.
func New[T any](opts Options) *View[T] {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &View[T]{
		metrics:   opts.Metrics,
		now:       now,
		state:     withParams(Params{Mode: ModePaged}),
		cache:     make(map[string]T),
		selection: make(map[string]struct{}),
		lastUsed:  now(),
	}
}

// Reload loads the current state again. Cached items are reused and the
// selection is kept.
func (v *View[T]) Reload(ctx context.Context, load Loader[T]) (*Snapshot[T], error) {
	return v.load(ctx, v.State(), false, load)
}

// SetParams switches the view to p, starting from its first page.
func (v *View[T]) SetParams(ctx context.Context, p Params, load Loader[T]) (*Snapshot[T], error) {
	return v.load(ctx, withParams(p), false, load)
}

// NextPage moves to the page after the current one.
func (v *View[T]) NextPage(ctx context.Context, load Loader[T]) (*Snapshot[T], error) {
	v.mu.Lock()
	if !v.hasNextLocked() {
		v.mu.Unlock()
		return nil, apperrors.Validation("there is no next page")
	}
	target := v.state.next(v.nextToken)
	v.mu.Unlock()

	return v.load(ctx, target, false, load)
}

// PrevPage moves back to the page before the current one.
func (v *View[T]) PrevPage(ctx context.Context, load Loader[T]) (*Snapshot[T], error) {
	v.mu.Lock()
	if !v.hasPrevLocked() {
		v.mu.Unlock()
		return nil, apperrors.Validation("there is no previous page")
	}
	target := v.state.prev()
	v.mu.Unlock()

	return v.load(ctx, target, false, load)
}

// Refresh drops every cached item and reloads the first page of the current
// mode. Nothing is dropped unless the reload succeeds.
func (v *View[T]) Refresh(ctx context.Context, load Loader[T]) (*Snapshot[T], error) {
	return v.load(ctx, withParams(v.State().Params), true, load)
}

// load runs one load generation. Starting it cancels the previous load.
func (v *View[T]) load(ctx context.Context, target State, reset bool, load Loader[T]) (*Snapshot[T], error) {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.generation++
	gen := v.generation
	ctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.lastUsed = v.now()
	v.mu.Unlock()
	defer cancel()

	req := Request{
		State:   target,
		Missing: func(ids []string) []string { return v.missing(ctx, ids, reset) },
	}
	res, err := load(ctx, req)

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.generation {
		v.metrics.RecordLoadSuperseded(ctx, string(target.Params.Mode))
		return nil, apperrors.ErrSuperseded
	}
	v.cancel = nil

	if err != nil {
		v.failLocked(err)
		return nil, err
	}

	v.commitLocked(target, reset, res)
	return v.snapshotLocked(), nil
}

// missing reports which ids need a detail fetch. During a refresh every id does.
func (v *View[T]) missing(ctx context.Context, ids []string, reset bool) []string {
	if reset {
		v.metrics.RecordCacheLookups(ctx, 0, len(ids))
		return slices.Clone(ids)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := v.cache[id]; !ok {
			out = append(out, id)
		}
	}
	v.metrics.RecordCacheLookups(ctx, len(ids)-len(out), len(out))
	return out
}

func (v *View[T]) failLocked(err error) {
	v.banner = &Banner{
		Message:   err.Error(),
		Code:      string(apperrors.CodeOf(err)),
		Retryable: true,
	}
	if apperrors.IsCredentialExpired(err) {
		v.reauth = true
	}
}

func (v *View[T]) commitLocked(target State, reset bool, res *Result[T]) {
	if reset {
		v.cache = make(map[string]T, len(res.Fetched))
	}
	for id, item := range res.Fetched {
		if _, ok := v.cache[id]; !ok || reset {
			v.cache[id] = item
		}
	}

	if target.Key() != v.state.Key() {
		v.selection = make(map[string]struct{})
	}

	v.state = target
	v.pageIDs = slices.Clone(res.IDs)
	v.nextToken = ""
	if target.Params.Mode == ModePaged {
		v.nextToken = res.NextPageToken
	}
	v.loaded = true
	v.degraded = res.TagsDegraded
	v.banner = nil
	v.reauth = false
}

// State returns the committed state.
func (v *View[T]) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.state
	s.Prior = slices.Clone(s.Prior)
	return s
}

// Snapshot returns the visible state without loading.
func (v *View[T]) Snapshot() *Snapshot[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *View[T]) snapshotLocked() *Snapshot[T] {
	items := make([]T, 0, len(v.pageIDs))
	for _, id := range v.pageIDs {
		if item, ok := v.cache[id]; ok {
			items = append(items, item)
		}
	}

	state := v.state
	state.Prior = slices.Clone(state.Prior)

	var banner *Banner
	if v.banner != nil {
		b := *v.banner
		banner = &b
	}

	return &Snapshot[T]{
		State:          state,
		Items:          items,
		Selection:      v.selectionLocked(),
		HasNext:        v.hasNextLocked(),
		HasPrev:        v.hasPrevLocked(),
		Banner:         banner,
		ReauthRequired: v.reauth,
		TagsDegraded:   v.degraded,
		Loaded:         v.loaded,
	}
}

func (v *View[T]) hasNextLocked() bool {
	return v.state.Params.Mode == ModePaged && v.nextToken != ""
}

func (v *View[T]) hasPrevLocked() bool {
	return v.state.Params.Mode == ModePaged && len(v.state.Prior) > 0
}

// Get returns the cached item for id.
func (v *View[T]) Get(id string) (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	item, ok := v.cache[id]
	return item, ok
}

// Patch applies fn to the cached item for id. It reports whether the item was cached.
func (v *View[T]) Patch(id string, fn func(*T)) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	item, ok := v.cache[id]
	if !ok {
		return false
	}
	fn(&item)
	v.cache[id] = item
	return true
}

// PatchEach applies fn to every cached item.
func (v *View[T]) PatchEach(fn func(*T)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, item := range v.cache {
		fn(&item)
		v.cache[id] = item
	}
}

// Len returns the number of cached items.
func (v *View[T]) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.cache)
}

// SetSelection replaces the selection with ids.
func (v *View[T]) SetSelection(ids []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selection = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			v.selection[id] = struct{}{}
		}
	}
}

// ToggleSelected flips whether id is selected and reports the new state.
func (v *View[T]) ToggleSelected(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.selection[id]; ok {
		delete(v.selection, id)
		return false
	}
	v.selection[id] = struct{}{}
	return true
}

// Selection returns the selected ids, sorted.
func (v *View[T]) Selection() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selectionLocked()
}

func (v *View[T]) selectionLocked() []string {
	out := make([]string, 0, len(v.selection))
	for id := range v.selection {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Close cancels an in-flight load.
func (v *View[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.generation++
}

// LastUsed returns when the last load started.
func (v *View[T]) LastUsed() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastUsed
}
