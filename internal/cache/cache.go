// Package cache is the query layer between UI-facing callers and the domain
// services. Every fetch goes through a stable key; per key there is at most
// one network call in flight, fresh results are served without refetching,
// and stale results are served immediately while a background refetch runs.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Key identifies one cached query: an entity family plus its scoping ids,
// e.g. NewKey("clients", coachID) or NewKey("client", id, "progress").
type Key string

// NewKey builds a key from a family and its scope ids.
func NewKey(family string, scope ...string) Key {
	parts := append([]string{family}, scope...)
	return Key(strings.Join(parts, "/"))
}

// Family returns the key's entity family.
func (k Key) Family() string {
	s := string(k)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return s[:i]
	}
	return s
}

// Freshness windows per entity family, differentiated by volatility.
// Sessions change under a user's fingers; nutrition aggregates barely move.
var defaultFreshness = map[string]time.Duration{
	"sessions":  30 * time.Second,
	"clients":   2 * time.Minute,
	"client":    2 * time.Minute,
	"workouts":  2 * time.Minute,
	"workout":   2 * time.Minute,
	"nutrition": 5 * time.Minute,
}

const fallbackFreshness = time.Minute

// FetchFunc loads the value for a key.
type FetchFunc func(ctx context.Context) (any, error)

type inflight struct {
	done chan struct{}
	val  any
	err  error
}

type entry struct {
	val       any
	hasVal    bool
	fetchedAt time.Time
	pending   *inflight
}

// Cache is the process-wide query cache.
type Cache struct {
	mu        sync.Mutex
	entries   map[Key]*entry
	freshness map[string]time.Duration
	retry     RetryPolicy
}

// New creates a cache with the default freshness windows and retry policy.
func New() *Cache {
	fresh := make(map[string]time.Duration, len(defaultFreshness))
	for k, v := range defaultFreshness {
		fresh[k] = v
	}
	return &Cache{
		entries:   make(map[Key]*entry),
		freshness: fresh,
		retry:     DefaultRetryPolicy(),
	}
}

// SetFreshness overrides the freshness window for a family.
func (c *Cache) SetFreshness(family string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.freshness[family] = d
}

// SetRetryPolicy overrides the retry policy.
func (c *Cache) SetRetryPolicy(p RetryPolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retry = p
}

func (c *Cache) ttl(k Key) time.Duration {
	if d, ok := c.freshness[k.Family()]; ok {
		return d
	}
	return fallbackFreshness
}

// Fetch returns the cached value for key, loading it with fn as needed.
//
//   - Fresh hit: served from cache, no call.
//   - Stale hit: the stale value is returned immediately and one background
//     refetch is started (detached from the caller's cancellation).
//   - Miss with a fetch already in flight: waits for that call instead of
//     issuing a second one.
//   - Miss: fetches with retry/backoff.
func (c *Cache) Fetch(ctx context.Context, key Key, fn FetchFunc) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}

	if e.hasVal && time.Since(e.fetchedAt) < c.ttl(key) {
		val := e.val
		c.mu.Unlock()
		return val, nil
	}

	if e.pending != nil {
		p := e.pending
		if e.hasVal {
			// A refetch is already running; serve the last known value.
			val := e.val
			c.mu.Unlock()
			return val, nil
		}
		c.mu.Unlock()
		select {
		case <-p.done:
			return p.val, p.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p := &inflight{done: make(chan struct{})}
	e.pending = p

	if e.hasVal {
		stale := e.val
		c.mu.Unlock()
		// Background refetch must not die with the triggering caller.
		go c.run(context.WithoutCancel(ctx), key, p, fn)
		return stale, nil
	}
	c.mu.Unlock()

	c.run(ctx, key, p, fn)
	return p.val, p.err
}

// Prefetch warms the cache for key without blocking the caller. Errors are
// dropped; the next Fetch will retry.
func (c *Cache) Prefetch(ctx context.Context, key Key, fn FetchFunc) {
	go func() {
		_, _ = c.Fetch(context.WithoutCancel(ctx), key, fn)
	}()
}

// Invalidate marks a key stale. The last known value is kept so the next
// consumer still gets a stale-while-revalidate read.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.fetchedAt = time.Time{}
	}
}

// InvalidateFamily marks stale every key of a family, optionally narrowed to
// a scope prefix. Mutations call this for every family that could contain
// the mutated entity.
func (c *Cache) InvalidateFamily(family string, scope ...string) {
	prefix := string(NewKey(family, scope...))
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		s := string(k)
		if s == prefix || strings.HasPrefix(s, prefix+"/") {
			e.fetchedAt = time.Time{}
		}
	}
}

// Drop removes a key entirely (no stale value survives).
func (c *Cache) Drop(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache) run(ctx context.Context, key Key, p *inflight, fn FetchFunc) {
	val, err := c.retry.Do(ctx, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})

	c.mu.Lock()
	e := c.entries[key]
	if e != nil {
		if err == nil {
			e.val = val
			e.hasVal = true
			e.fetchedAt = time.Now()
		}
		if e.pending == p {
			e.pending = nil
		}
	}
	c.mu.Unlock()

	p.val = val
	p.err = err
	close(p.done)
}

// Get is the typed wrapper around Cache.Fetch.
func Get[T any](ctx context.Context, c *Cache, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	val, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := val.(T)
	if !ok {
		// Two call sites sharing a key with different types is a wiring bug;
		// surfacing it beats handing back a zero value.
		var zero T
		return zero, fmt.Errorf("cache: value for key %q is %T, want %T", key, val, zero)
	}
	return typed, nil
}
