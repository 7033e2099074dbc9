package component

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestContextBuilder(t *testing.T) {
	books, err := New(WithName("books"), WithContext("books", func(ctx context.Context, arg map[string]any) (map[string]any, error) {
		return map[string]any{"db": "books-db", "user": arg["user"]}, nil
	}))
	require.NoError(t, err)
	authors, err := New(WithName("authors"), WithContext("shared", func(ctx context.Context, arg map[string]any) (map[string]any, error) {
		return map[string]any{"from": "authors", "authors": true}, nil
	}))
	require.NoError(t, err)
	gateway, err := New(
		WithImports(books, authors),
		WithContext("shared", func(ctx context.Context, arg map[string]any) (map[string]any, error) {
			return map[string]any{"from": "gateway"}, nil
		}),
	)
	require.NoError(t, err)

	var order []string
	gateway.Context().Use("auth", func(ctx context.Context, arg map[string]any) (map[string]any, error) {
		order = append(order, "auth")
		out := map[string]any{"user": "alice"}
		for k, v := range arg {
			out[k] = v
		}
		return out, nil
	})
	gateway.Context().Use("", func(ctx context.Context, arg map[string]any) (map[string]any, error) {
		order = append(order, "unknown")
		return arg, nil
	})

	ctx, err := gateway.Context().Build(context.Background(), map[string]any{"token": "t"})
	require.NoError(t, err)
	require.Equal(t, []string{"auth", "unknown"}, order)

	want := map[string]any{
		"token":  "t",
		"user":   "alice",
		"books":  map[string]any{"db": "books-db", "user": "alice"},
		"shared": map[string]any{"from": "gateway", "authors": true},
	}
	if diff := cmp.Diff(want, ValuesFrom(ctx)); diff != "" {
		t.Fatalf("context values mismatch (-want +got):\n%s", diff)
	}
}

func TestContextBuilder_Errors(t *testing.T) {
	failing := errors.New("no session")

	t.Run("middleware", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)
		c.Context().Use("session", func(ctx context.Context, arg map[string]any) (map[string]any, error) {
			return nil, failing
		})
		_, err = c.Context().Build(context.Background(), nil)
		require.ErrorIs(t, err, failing)
	})

	t.Run("imported factory", func(t *testing.T) {
		inner, err := New(WithContext("inner", func(ctx context.Context, arg map[string]any) (map[string]any, error) {
			return nil, failing
		}))
		require.NoError(t, err)
		outer, err := New(WithImports(inner))
		require.NoError(t, err)
		_, err = outer.Context().Build(context.Background(), nil)
		require.ErrorIs(t, err, failing)
	})
}

func TestValuesFrom_Empty(t *testing.T) {
	require.Nil(t, ValuesFrom(context.Background()))
}

func TestContextValuesReachResolvers(t *testing.T) {
	c, err := New(
		WithTypes(`type Query { user: String }`),
		WithContext("auth", func(ctx context.Context, arg map[string]any) (map[string]any, error) {
			return map[string]any{"user": arg["header"]}, nil
		}),
		WithResolvers(ResolverMap{"Query": Fields{
			"user": func(ctx context.Context, p ResolveParams) (any, error) {
				return ValuesFrom(ctx)["auth"].(map[string]any)["user"], nil
			},
		}}),
	)
	require.NoError(t, err)
	ctx, err := c.Context().Build(context.Background(), map[string]any{"header": "bob"})
	require.NoError(t, err)
	requireData(t, map[string]any{"user": "bob"}, c.Execute(ctx, `{ user }`))
}
