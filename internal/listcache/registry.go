package listcache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Registry keeps one View per key (a user id, or a user id plus a list name)
// and evicts views that have not loaded for longer than the TTL.
type Registry[T any] struct {
	opts Options
	ttl  time.Duration

	mu    sync.Mutex
	views map[string]*View[T]
}

// NewRegistry creates a registry. A ttl of zero disables eviction.
func NewRegistry[T any](ttl time.Duration, opts Options) *Registry[T] {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry[T]{
		opts:  opts,
		ttl:   ttl,
		views: make(map[string]*View[T]),
	}
}

// Get returns the view for key, creating it on first use.
func (r *Registry[T]) Get(key string) *View[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.views[key]; ok {
		return v
	}
	v := New[T](r.opts)
	r.views[key] = v
	r.opts.Metrics.IncrementActiveViews(context.Background())
	return v
}

// GetCapped returns the view for key like Get. When creating it would leave
// more than limit views under prefix, the least recently used of them is
// dropped first.
func (r *Registry[T]) GetCapped(key, prefix string, limit int) *View[T] {
	r.mu.Lock()
	if v, ok := r.views[key]; ok {
		r.mu.Unlock()
		return v
	}

	var (
		siblings  int
		oldestKey string
		oldest    time.Time
	)
	for k, v := range r.views {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		siblings++
		if used := v.LastUsed(); oldestKey == "" || used.Before(oldest) {
			oldestKey, oldest = k, used
		}
	}
	var evicted *View[T]
	if limit > 0 && siblings >= limit {
		evicted = r.views[oldestKey]
		delete(r.views, oldestKey)
	}

	v := New[T](r.opts)
	r.views[key] = v
	r.mu.Unlock()

	r.opts.Metrics.IncrementActiveViews(context.Background())
	if evicted != nil {
		evicted.Close()
		r.opts.Metrics.DecrementActiveViews(context.Background())
	}
	return v
}

// Views returns the live views whose key starts with prefix.
func (r *Registry[T]) Views(prefix string) []*View[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*View[T]
	for key, v := range r.views {
		if strings.HasPrefix(key, prefix) {
			out = append(out, v)
		}
	}
	return out
}

// Drop closes and forgets the view for key.
func (r *Registry[T]) Drop(key string) {
	r.mu.Lock()
	v, ok := r.views[key]
	delete(r.views, key)
	r.mu.Unlock()

	if ok {
		v.Close()
		r.opts.Metrics.DecrementActiveViews(context.Background())
	}
}

// DropPrefix closes and forgets every view whose key starts with prefix.
func (r *Registry[T]) DropPrefix(prefix string) int {
	r.mu.Lock()
	var dropped []*View[T]
	for key, v := range r.views {
		if strings.HasPrefix(key, prefix) {
			dropped = append(dropped, v)
			delete(r.views, key)
		}
	}
	r.mu.Unlock()

	for _, v := range dropped {
		v.Close()
		r.opts.Metrics.DecrementActiveViews(context.Background())
	}
	return len(dropped)
}

// Sweep evicts views idle for longer than the TTL and returns how many it evicted.
func (r *Registry[T]) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.opts.Now().Add(-r.ttl)

	r.mu.Lock()
	var idle []*View[T]
	for key, v := range r.views {
		if v.LastUsed().Before(cutoff) {
			idle = append(idle, v)
			delete(r.views, key)
		}
	}
	r.mu.Unlock()

	for _, v := range idle {
		v.Close()
		r.opts.Metrics.DecrementActiveViews(context.Background())
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done.
func (r *Registry[T]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Len returns the number of live views.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}
