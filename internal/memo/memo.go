// Package memo deduplicates resolver calls within one request.
//
// A Cache lives in the request context. Each memoized resolver owns a
// Memoizer; results are keyed by the memoizer, the response position of
// the call and the JSON form of the arguments. Successful results are kept
// for the lifetime of the context.
// Concurrent calls with the same key share one invocation and its outcome.
// Failures are not kept, so a later call runs the resolver again.
package memo

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	json "github.com/json-iterator/go"
	"golang.org/x/sync/singleflight"

	eventbus "github.com/hanpama/graphql-component/internal/eventbus"
	events "github.com/hanpama/graphql-component/internal/events"
)

// keyJSON sorts map keys so equal arguments always produce the same key.
var keyJSON = json.ConfigCompatibleWithStandardLibrary

var memoizerSeq atomic.Uint64

// Memoizer identifies one memoized function.
type Memoizer struct {
	id   uint64
	name string
}

// New returns a Memoizer with a process-unique identity. name is used in events.
func New(name string) *Memoizer {
	return &Memoizer{id: memoizerSeq.Add(1), name: name}
}

// Name returns the name given to New.
func (m *Memoizer) Name() string { return m.name }

// Cache holds settled results for one request.
type Cache struct {
	mu     sync.Mutex
	values map[string]any
	group  singleflight.Group
}

// NewCache returns an empty cache.
func NewCache() *Cache { return &Cache{values: make(map[string]any)} }

type ctxKey struct{}

// NewContext returns a copy of ctx carrying a new cache.
func NewContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, NewCache())
}

// FromContext returns the cache carried by ctx, if any.
func FromContext(ctx context.Context) (*Cache, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Cache)
	return c, ok
}

// Ensure returns ctx unchanged when it carries a cache, and a context with a
// new cache otherwise.
func Ensure(ctx context.Context) context.Context {
	if _, ok := FromContext(ctx); ok {
		return ctx
	}
	return NewContext(ctx)
}

// Len returns the number of settled entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

// Do returns the cached result of fn for args at position, calling fn when
// there is none. position tells apart calls of the same resolver at
// different places of one response, such as aliased fields. Without a cache
// in ctx, or when args cannot be encoded, fn is called directly.
func Do(ctx context.Context, m *Memoizer, position string, args any, fn func() (any, error)) (any, error) {
	c, ok := FromContext(ctx)
	if !ok {
		return fn()
	}
	encoded, err := keyJSON.Marshal(args)
	if err != nil {
		return fn()
	}
	key := strconv.FormatUint(m.id, 10) + ":" + position + ":" + string(encoded)

	c.mu.Lock()
	v, hit := c.values[key]
	c.mu.Unlock()
	if hit {
		eventbus.Publish(ctx, events.MemoLookup{Resolver: m.name, Hit: true})
		return v, nil
	}

	// Only the caller leading the flight runs the closure; callers joining it
	// share its outcome and count as hits.
	called := false
	v, err, _ = c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		if v, ok := c.values[key]; ok {
			c.mu.Unlock()
			return v, nil
		}
		c.mu.Unlock()

		called = true
		v, err := call(m, fn)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.values[key] = v
		c.mu.Unlock()
		return v, nil
	})
	eventbus.Publish(ctx, events.MemoLookup{Resolver: m.name, Hit: !called})
	return v, err
}

// call runs fn, reporting a panic as an error so every caller sharing the
// flight sees the same failure.
func call(m *Memoizer, fn func() (any, error)) (v any, err error) {
	defer func() {
		if p := recover(); p != nil {
			v, err = nil, fmt.Errorf("%s panicked: %v", m.name, p)
		}
	}()
	return fn()
}
