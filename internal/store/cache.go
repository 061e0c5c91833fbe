// Package store holds the client-side domain caches. Each cache mirrors a
// backend collection together with a current item, loading and error flags,
// and client-side filters.
//
// Every operation follows the same bookkeeping: the error is cleared and the
// cache marked loading; on success the result is applied; on failure the
// server message (or a per-operation fallback) is recorded and the original
// error returned. A result arriving after its context was cancelled is
// dropped without touching the cache.
package store

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/homeservices/internal/errs"
)

// Ptr returns a pointer to v. Filter patches use nil for "keep".
func Ptr[T any](v T) *T { return &v }

// Cache is the state shared by every domain cache.
type Cache[T any, F any] struct {
	name     string
	id       func(T) int64
	defaults F
	filter   func(T, F) bool
	log      *zap.Logger

	mu       sync.RWMutex
	items    []T
	current  *T
	inflight int
	gen      uint64 // bumped by Reset
	err      string
	filters  F
}

func newCache[T any, F any](name string, id func(T) int64, defaults F, filter func(T, F) bool, log *zap.Logger) *Cache[T, F] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache[T, F]{
		name:     name,
		id:       id,
		defaults: defaults,
		filter:   filter,
		log:      log.With(zap.String("cache", name)),
		filters:  defaults,
	}
}

// Items returns a copy of the cached collection.
func (c *Cache[T, F]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Len returns the number of cached items.
func (c *Cache[T, F]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// ByID finds a cached item.
func (c *Cache[T, F]) ByID(id int64) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Current returns the item last fetched by id.
func (c *Cache[T, F]) Current() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		var zero T
		return zero, false
	}
	return *c.current, true
}

// Loading reports whether any operation is in flight.
func (c *Cache[T, F]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inflight > 0
}

// Error returns the message of the last failed operation, or "".
func (c *Cache[T, F]) Error() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Filters returns the active filters.
func (c *Cache[T, F]) Filters() F {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filters
}

// ClearFilters restores the default filters.
func (c *Cache[T, F]) ClearFilters() {
	c.mu.Lock()
	c.filters = c.defaults
	c.mu.Unlock()
}

func (c *Cache[T, F]) updateFilters(fn func(*F)) {
	c.mu.Lock()
	fn(&c.filters)
	c.mu.Unlock()
}

// Filtered applies the active filters to the items, keeping their order.
func (c *Cache[T, F]) Filtered() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.items))
	if len(c.items) == 0 {
		return out
	}
	for _, it := range c.items {
		if c.filter(it, c.filters) {
			out = append(out, it)
		}
	}
	return out
}

// Reset drops all state, including filters. Operations in flight at that
// moment finish but their results are discarded.
func (c *Cache[T, F]) Reset() {
	c.mu.Lock()
	c.gen++
	c.items = nil
	c.current = nil
	c.err = ""
	c.filters = c.defaults
	c.mu.Unlock()
}

// index must be called with mu held.
func (c *Cache[T, F]) index(id int64) int {
	return slices.IndexFunc(c.items, func(it T) bool { return c.id(it) == id })
}

// The helpers below must be called with mu held.

func (c *Cache[T, F]) replaceAll(items []T) {
	c.items = slices.Clone(items)
}

func (c *Cache[T, F]) setCurrent(it T) {
	c.current = &it
}

func (c *Cache[T, F]) isCurrent(id int64) bool {
	return c.current != nil && c.id(*c.current) == id
}

// replace swaps the item with id in items and current. Unknown ids are ignored.
func (c *Cache[T, F]) replace(id int64, it T) {
	if i := c.index(id); i >= 0 {
		c.items[i] = it
	}
	if c.isCurrent(id) {
		c.current = &it
	}
}

// modify edits the item with id in place in items and current.
func (c *Cache[T, F]) modify(id int64, fn func(*T)) {
	if i := c.index(id); i >= 0 {
		fn(&c.items[i])
	}
	if c.isCurrent(id) {
		cur := *c.current
		fn(&cur)
		c.current = &cur
	}
}

func (c *Cache[T, F]) remove(id int64) {
	c.items = slices.DeleteFunc(c.items, func(it T) bool { return c.id(it) == id })
	if c.isCurrent(id) {
		c.current = nil
	}
}

// run performs call with the shared bookkeeping. apply runs under the write
// lock only when call succeeded and ctx is still live.
func run[T any, F any, R any](ctx context.Context, c *Cache[T, F], op, fallback string, call func(context.Context) (R, error), apply func(R)) (R, error) {
	c.mu.Lock()
	c.inflight++
	c.err = ""
	gen := c.gen
	c.mu.Unlock()

	res, err := call(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--

	// the caller still gets the outcome; the cache is left alone
	if cerr := ctx.Err(); cerr != nil {
		c.log.Debug("result dropped", zap.String("op", op), zap.Error(cerr))
		if err != nil {
			var zero R
			return zero, err
		}
		return res, nil
	}
	if gen != c.gen {
		c.log.Debug("result dropped after reset", zap.String("op", op))
		return res, err
	}
	if err != nil {
		c.err = errs.Message(err, fallback)
		c.log.Debug("operation failed", zap.String("op", op), zap.String("message", c.err), zap.Error(err))
		var zero R
		return zero, err
	}
	if apply != nil {
		apply(res)
	}
	return res, nil
}

// exec is run for calls without a result.
func exec[T any, F any](ctx context.Context, c *Cache[T, F], op, fallback string, call func(context.Context) error, apply func()) error {
	_, err := run(ctx, c, op, fallback,
		func(ctx context.Context) (struct{}, error) { return struct{}{}, call(ctx) },
		func(struct{}) {
			if apply != nil {
				apply()
			}
		})
	return err
}

// fail records a local failure, such as invalid input, without a backend call.
func (c *Cache[T, F]) fail(err error, fallback string) error {
	c.mu.Lock()
	c.err = errs.Message(err, fallback)
	c.mu.Unlock()
	return err
}
