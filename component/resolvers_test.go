package component

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	memo "github.com/hanpama/graphql-component/internal/memo"
)

func countingBooks(t *testing.T, calls *atomic.Int32) *Component {
	t.Helper()
	c, err := New(
		WithName("books"),
		WithTypes(booksSDL),
		WithResolvers(ResolverMap{"Query": Fields{
			"book": func(ctx context.Context, p ResolveParams) (any, error) {
				calls.Add(1)
				return bookResolver(ctx, p)
			},
		}}),
	)
	require.NoError(t, err)
	return c
}

func TestMemoization_IdenticalRootCallsRunOnce(t *testing.T) {
	const query = `{ a: book(id: "1") { id } b: book(id: "1") { title } c: book(id: "2") { id } }`

	t.Run("direct", func(t *testing.T) {
		var calls atomic.Int32
		c := countingBooks(t, &calls)
		res := c.Execute(context.Background(), query)
		require.Nil(t, res.Errors)
		require.Equal(t, int32(3), calls.Load())
	})

	t.Run("same position within a request", func(t *testing.T) {
		var calls atomic.Int32
		c := countingBooks(t, &calls)
		ctx := memo.NewContext(context.Background())
		requireData(t, map[string]any{"book": map[string]any{"id": "1"}}, c.Execute(ctx, `{ book(id: "1") { id } }`))
		requireData(t, map[string]any{"book": map[string]any{"title": "Title 1"}}, c.Execute(ctx, `{ book(id: "1") { title } }`))
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("through delegation", func(t *testing.T) {
		var calls atomic.Int32
		books := countingBooks(t, &calls)
		gateway, err := New(WithImports(books))
		require.NoError(t, err)
		res := gateway.Execute(context.Background(), query)
		require.Nil(t, res.Errors)
		require.Equal(t, int32(3), calls.Load())

		ctx := memo.NewContext(context.Background())
		gateway.Execute(ctx, `{ book(id: "1") { id } }`)
		gateway.Execute(ctx, `{ book(id: "1") { title } }`)
		require.Equal(t, int32(4), calls.Load())
	})

	t.Run("separate requests", func(t *testing.T) {
		var calls atomic.Int32
		c := countingBooks(t, &calls)
		c.Execute(context.Background(), `{ book(id: "1") { id } }`)
		c.Execute(context.Background(), `{ book(id: "1") { id } }`)
		require.Equal(t, int32(2), calls.Load())
	})
}

func TestMemoization_AliasedMutationsRunEach(t *testing.T) {
	var counter atomic.Int32
	c, err := New(
		WithTypes(`type Query { count: Int } type Mutation { inc(by: Int!): Int }`),
		WithResolvers(ResolverMap{"Mutation": Fields{
			"inc": func(ctx context.Context, p ResolveParams) (any, error) {
				return int(counter.Add(int32(p.Args["by"].(int)))), nil
			},
		}}),
	)
	require.NoError(t, err)

	res := c.Execute(context.Background(), `mutation { a: inc(by: 1) b: inc(by: 1) }`)
	requireData(t, map[string]any{"a": 1, "b": 2}, res)
	require.Equal(t, int32(2), counter.Load())
}

func TestMemoization_FailuresAreRetried(t *testing.T) {
	var calls atomic.Int32
	c, err := New(
		WithTypes(`type Query { flaky: String }`),
		WithResolvers(ResolverMap{"Query": Fields{
			"flaky": func(ctx context.Context, p ResolveParams) (any, error) {
				if calls.Add(1) == 1 {
					return nil, errors.New("unavailable")
				}
				return "ok", nil
			},
		}}),
	)
	require.NoError(t, err)

	ctx := memo.NewContext(context.Background())
	res := c.Execute(ctx, `{ flaky }`)
	require.Len(t, res.Errors, 1)

	requireData(t, map[string]any{"flaky": "ok"}, c.Execute(ctx, `{ flaky }`))
	requireData(t, map[string]any{"flaky": "ok"}, c.Execute(ctx, `{ flaky }`))
	require.Equal(t, int32(2), calls.Load())
}

func TestMergeResolverMaps(t *testing.T) {
	first := func(ctx context.Context, p ResolveParams) (any, error) { return "first", nil }
	second := func(ctx context.Context, p ResolveParams) (any, error) { return "second", nil }
	scalar := &Scalar{}

	got := mergeResolverMaps(
		ResolverMap{"Query": Fields{"a": first}, "Date": scalar},
		ResolverMap{"Query": Fields{"a": second, "b": second}, "Date": &Scalar{}},
	)
	fields := got["Query"].(Fields)
	v, _ := fields["a"].(func(context.Context, ResolveParams) (any, error))(context.Background(), ResolveParams{})
	require.Equal(t, "first", v)
	require.Contains(t, fields, "b")
	require.Same(t, scalar, got["Date"])
}

func TestWrapResolvers_KeepsNonResolvers(t *testing.T) {
	c, err := New(WithResolvers(ResolverMap{
		"Genre": Fields{"FICTION": 1},
		"Query": Fields{"p": ProxyResolver(nil)},
	}))
	require.NoError(t, err)
	require.Equal(t, 1, c.Resolvers()["Genre"].(Fields)["FICTION"])
	require.IsType(t, &proxyResolver{}, c.Resolvers()["Query"].(Fields)["p"])
}
