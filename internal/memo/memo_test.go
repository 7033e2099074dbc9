package memo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	eventbus "github.com/hanpama/graphql-component/internal/eventbus"
	events "github.com/hanpama/graphql-component/internal/events"
)

func TestDo(t *testing.T) {
	t.Run("Same args resolve once per context", func(t *testing.T) {
		m := New("Query.book")
		ctx := NewContext(context.Background())
		var calls int
		fn := func() (any, error) { calls++; return calls, nil }

		a, err := Do(ctx, m, "book", map[string]any{"id": "1", "lang": "en"}, fn)
		require.NoError(t, err)
		b, err := Do(ctx, m, "book", map[string]any{"lang": "en", "id": "1"}, fn)
		require.NoError(t, err)
		c, err := Do(ctx, m, "book", map[string]any{"id": "2"}, fn)
		require.NoError(t, err)

		require.Equal(t, 1, a)
		require.Equal(t, 1, b)
		require.Equal(t, 2, c)
		require.Equal(t, 2, calls)
	})

	t.Run("Memoizers do not share entries", func(t *testing.T) {
		ctx := NewContext(context.Background())
		a, _ := Do(ctx, New("a"), "book", nil, func() (any, error) { return "a", nil })
		b, _ := Do(ctx, New("b"), "book", nil, func() (any, error) { return "b", nil })
		require.Equal(t, "a", a)
		require.Equal(t, "b", b)
	})

	t.Run("Positions do not share entries", func(t *testing.T) {
		m := New("Mutation.inc")
		ctx := NewContext(context.Background())
		var calls int
		fn := func() (any, error) { calls++; return calls, nil }
		a, _ := Do(ctx, m, "a", map[string]any{"by": 1}, fn)
		b, _ := Do(ctx, m, "b", map[string]any{"by": 1}, fn)
		again, _ := Do(ctx, m, "a", map[string]any{"by": 1}, fn)
		require.Equal(t, 1, a)
		require.Equal(t, 2, b)
		require.Equal(t, 1, again)
		require.Equal(t, 2, calls)
	})

	t.Run("Separate contexts do not share entries", func(t *testing.T) {
		m := New("Query.book")
		var calls int
		fn := func() (any, error) { calls++; return nil, nil }
		Do(NewContext(context.Background()), m, "book", nil, fn)
		Do(NewContext(context.Background()), m, "book", nil, fn)
		require.Equal(t, 2, calls)
	})

	t.Run("Without cache", func(t *testing.T) {
		m := New("Query.book")
		var calls int
		fn := func() (any, error) { calls++; return nil, nil }
		Do(context.Background(), m, "book", nil, fn)
		Do(context.Background(), m, "book", nil, fn)
		require.Equal(t, 2, calls)
	})

	t.Run("Failures are retried", func(t *testing.T) {
		m := New("Query.book")
		ctx := NewContext(context.Background())
		var calls int
		fn := func() (any, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("unavailable")
			}
			return "ok", nil
		}

		_, err := Do(ctx, m, "book", nil, fn)
		require.EqualError(t, err, "unavailable")
		v, err := Do(ctx, m, "book", nil, fn)
		require.NoError(t, err)
		require.Equal(t, "ok", v)
		require.Equal(t, 2, calls)

		cache, _ := FromContext(ctx)
		require.Equal(t, 1, cache.Len())
	})
}

func TestDo_ConcurrentCallsCollapse(t *testing.T) {
	m := New("Query.book")
	ctx := NewContext(context.Background())
	var calls atomic.Int32
	release := make(chan struct{})
	fn := func() (any, error) {
		calls.Add(1)
		<-release
		return "book", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Do(ctx, m, "book", map[string]any{"id": "1"}, fn)
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
	for _, r := range results {
		require.Equal(t, "book", r)
	}
}

func TestDo_PublishesLookups(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })
	var lookups []events.MemoLookup
	eventbus.Subscribe(func(ctx context.Context, e events.MemoLookup) { lookups = append(lookups, e) })

	m := New("Query.book")
	ctx := NewContext(context.Background())
	fn := func() (any, error) { return 1, nil }
	Do(ctx, m, "book", nil, fn)
	Do(ctx, m, "book", nil, fn)

	require.Equal(t, []events.MemoLookup{
		{Resolver: "Query.book", Hit: false},
		{Resolver: "Query.book", Hit: true},
	}, lookups)
}

func TestDo_JoinedCallsCountAsHits(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })
	var (
		mu           sync.Mutex
		hits, misses int
	)
	eventbus.Subscribe(func(ctx context.Context, e events.MemoLookup) {
		mu.Lock()
		defer mu.Unlock()
		if e.Hit {
			hits++
		} else {
			misses++
		}
	})

	m := New("Query.book")
	ctx := NewContext(context.Background())
	release := make(chan struct{})
	fn := func() (any, error) {
		<-release
		return "book", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Do(ctx, m, "book", nil, fn)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, 1, misses)
	require.Equal(t, 7, hits)
}

func TestDo_PanicIsAFailure(t *testing.T) {
	m := New("Query.book")
	ctx := NewContext(context.Background())

	_, err := Do(ctx, m, "book", nil, func() (any, error) { panic("boom") })
	require.EqualError(t, err, "Query.book panicked: boom")

	v, err := Do(ctx, m, "book", nil, func() (any, error) { return "ok", nil })
	require.NoError(t, err)
	require.Equal(t, "ok", v)
}
