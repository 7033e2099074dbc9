package component

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	exclude "github.com/hanpama/graphql-component/internal/exclude"
)

const booksSDL = `
type Book {
	id: ID!
	title: String
	genre: Genre
}

enum Genre { FICTION HISTORY }

type Query {
	book(id: ID!): Book
	secret: String
}
`

func bookResolver(ctx context.Context, p ResolveParams) (any, error) {
	id := p.Args["id"].(string)
	return map[string]any{"id": id, "title": "Title " + id, "genre": "HISTORY"}, nil
}

func newBooks(t *testing.T, opts ...Option) *Component {
	t.Helper()
	c, err := New(append([]Option{
		WithName("books"),
		WithTypes(booksSDL),
		WithResolvers(ResolverMap{
			"Query": Fields{
				"book":   bookResolver,
				"secret": func(ctx context.Context, p ResolveParams) (any, error) { return "hidden", nil },
			},
		}),
	}, opts...)...)
	require.NoError(t, err)
	return c
}

func requireData(t *testing.T, want any, res *Result) {
	t.Helper()
	require.Nil(t, res.Errors)
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_BookRoundTrip(t *testing.T) {
	c := newBooks(t)
	res := c.Execute(context.Background(), `{ book(id: "1") { id title genre } }`)
	requireData(t, map[string]any{
		"book": map[string]any{"id": "1", "title": "Title 1", "genre": "HISTORY"},
	}, res)
}

func TestExecute_Variables(t *testing.T) {
	c := newBooks(t)
	res := c.Execute(context.Background(),
		`query Find($id: ID!) { book(id: $id) { title } } query Other { secret }`,
		WithVariables(map[string]any{"id": "7"}),
		WithOperationName("Find"),
	)
	requireData(t, map[string]any{"book": map[string]any{"title": "Title 7"}}, res)
}

func TestExecute_UnknownFieldReportsErrors(t *testing.T) {
	c := newBooks(t)
	res := c.Execute(context.Background(), `{ nope }`)
	require.Nil(t, res.Data)
	require.NotEmpty(t, res.Errors)
	require.Contains(t, res.Errors[0].Message, "nope")
}

func TestExecute_ParseError(t *testing.T) {
	c := newBooks(t)
	res := c.Execute(context.Background(), `{ book(id: "1") {`)
	require.Nil(t, res.Data)
	require.Len(t, res.Errors, 1)
}

func TestExecute_ResolverErrorsAndPanics(t *testing.T) {
	c, err := New(
		WithTypes(`type Query { fails: String panics: String ok: String }`),
		WithResolvers(ResolverMap{"Query": Fields{
			"fails":  func(ctx context.Context, p ResolveParams) (any, error) { return nil, errors.New("boom") },
			"panics": func(ctx context.Context, p ResolveParams) (any, error) { panic("bad") },
			"ok":     func(ctx context.Context, p ResolveParams) (any, error) { return "fine", nil },
		}}),
	)
	require.NoError(t, err)

	res := c.Execute(context.Background(), `{ fails panics ok }`)
	require.Equal(t, map[string]any{"fails": nil, "panics": nil, "ok": "fine"}, res.Data)
	require.Len(t, res.Errors, 2)
	var msgs []string
	for _, e := range res.Errors {
		msgs = append(msgs, e.Message)
	}
	require.Contains(t, msgs, "boom")
	require.Contains(t, msgs, c.Name()+".Query.panics panicked: bad")
}

func TestResolveParams_Component(t *testing.T) {
	var got Composable
	c, err := New(
		WithName("owner"),
		WithTypes(`type Query { who: String }`),
		WithResolvers(ResolverMap{"Query": Fields{
			"who": func(ctx context.Context, p ResolveParams) (any, error) {
				got = p.Component
				return p.Component.Name(), nil
			},
		}}),
	)
	require.NoError(t, err)
	requireData(t, map[string]any{"who": "owner"}, c.Execute(context.Background(), `{ who }`))
	require.Same(t, c, got)
}

func TestNew_Errors(t *testing.T) {
	books := newBooks(t)

	t.Run("malformed exclusion", func(t *testing.T) {
		_, err := New(WithImport(books, "Query.book.id"))
		require.ErrorIs(t, err, exclude.ErrInvalidPattern)
	})

	t.Run("unparsable types", func(t *testing.T) {
		_, err := New(WithTypes(`type Query {`))
		require.Error(t, err)
	})

	t.Run("default name", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("component%d", c.ID()), c.Name())
	})
}

func TestSchema_ErrorIsSticky(t *testing.T) {
	c, err := New(WithTypes(`type Query { a: Missing }`))
	require.NoError(t, err)

	_, err1 := c.Schema()
	require.Error(t, err1)
	_, err2 := c.Schema()
	require.Same(t, err1, err2)

	res := c.Execute(context.Background(), `{ a }`)
	require.Nil(t, res.Data)
	require.NotEmpty(t, res.Errors)
}

func TestSchema_ConflictingImports(t *testing.T) {
	a, err := New(WithName("a"), WithTypes(`type Shared { v: String } type Query { a: Shared }`))
	require.NoError(t, err)
	b, err := New(WithName("b"), WithTypes(`type Shared { v: Int } type Query { b: Shared }`))
	require.NoError(t, err)
	root, err := New(WithImports(a, b))
	require.NoError(t, err)

	_, err = root.Schema()
	require.Error(t, err)
}

func TestSchema_SDLAndHasField(t *testing.T) {
	s, err := newBooks(t).Schema()
	require.NoError(t, err)
	require.True(t, s.HasField("Query", "book"))
	require.False(t, s.HasField("Query", "nope"))
	require.False(t, s.HasField("Nope", "book"))
	require.Contains(t, s.SDL(), "book(id: ID!): Book")
	require.Contains(t, s.Fragments(), "fragment AllBook on Book")
}

func TestExecute_GeneratedFragments(t *testing.T) {
	c := newBooks(t)
	res := c.Execute(context.Background(), `{ book(id: "2") { ...AllBook } }`)
	requireData(t, map[string]any{
		"book": map[string]any{"id": "2", "title": "Title 2", "genre": "HISTORY"},
	}, res)
}

func TestExecute_Introspection(t *testing.T) {
	c := newBooks(t)
	res := c.Execute(context.Background(), `{ __type(name: "Book") { name fields { name } } }`)
	requireData(t, map[string]any{"__type": map[string]any{
		"name": "Book",
		"fields": []any{
			map[string]any{"name": "id"},
			map[string]any{"name": "title"},
			map[string]any{"name": "genre"},
		},
	}}, res)
}

func TestExecute_EnumRemapAndScalars(t *testing.T) {
	c, err := New(
		WithTypes(`
			enum Genre { FICTION HISTORY }
			scalar Shout
			type Query {
				favorite: Genre
				byGenre(genre: Genre!): String
				loud: Shout
				echo(v: Shout): String
			}
		`),
		WithResolvers(ResolverMap{
			"Genre": Fields{"FICTION": 1, "HISTORY": 2},
			"Shout": &Scalar{
				Serialize:  func(v any) (any, error) { return strings.ToUpper(v.(string)), nil },
				ParseValue: func(v any) (any, error) { return "parsed:" + v.(string), nil },
			},
			"Query": Fields{
				"favorite": func(ctx context.Context, p ResolveParams) (any, error) { return 2, nil },
				"byGenre": func(ctx context.Context, p ResolveParams) (any, error) {
					return fmt.Sprint(p.Args["genre"]), nil
				},
				"loud": func(ctx context.Context, p ResolveParams) (any, error) { return "hey", nil },
				"echo": func(ctx context.Context, p ResolveParams) (any, error) { return p.Args["v"], nil },
			},
		}),
	)
	require.NoError(t, err)

	res := c.Execute(context.Background(), `{ favorite byGenre(genre: FICTION) loud echo(v: "x") }`)
	requireData(t, map[string]any{
		"favorite": "HISTORY",
		"byGenre":  "1",
		"loud":     "HEY",
		"echo":     "parsed:x",
	}, res)
}

func TestExecute_AbstractTypes(t *testing.T) {
	c, err := New(
		WithTypes(`
			interface Node { id: ID! }
			type User implements Node { id: ID! name: String }
			type Post implements Node { id: ID! title: String }
			type Query { nodes: [Node!]! }
		`),
		WithResolvers(ResolverMap{
			"Node": Fields{"__resolveType": func(ctx context.Context, v any) (string, error) {
				if _, ok := v.(map[string]any)["name"]; ok {
					return "User", nil
				}
				return "Post", nil
			}},
			"Query": Fields{"nodes": func(ctx context.Context, p ResolveParams) (any, error) {
				return []any{
					map[string]any{"id": "u1", "name": "Ann"},
					map[string]any{"id": "p1", "title": "Hi"},
				}, nil
			}},
		}),
	)
	require.NoError(t, err)

	res := c.Execute(context.Background(), `{ nodes { __typename id ... on User { name } ... on Post { title } } }`)
	requireData(t, map[string]any{"nodes": []any{
		map[string]any{"__typename": "User", "id": "u1", "name": "Ann"},
		map[string]any{"__typename": "Post", "id": "p1", "title": "Hi"},
	}}, res)
}

type novel struct {
	Title  string `json:"title"`
	Pages  int
	hidden string
}

func TestExecute_DefaultResolverProjectsStructs(t *testing.T) {
	c, err := New(
		WithTypes(`type Novel { title: String pages: Int } type Query { novel: Novel }`),
		WithResolvers(ResolverMap{"Query": Fields{
			"novel": func(ctx context.Context, p ResolveParams) (any, error) {
				return &novel{Title: "Dune", Pages: 412, hidden: "x"}, nil
			},
		}}),
	)
	require.NoError(t, err)
	requireData(t, map[string]any{"novel": map[string]any{"title": "Dune", "pages": 412}},
		c.Execute(context.Background(), `{ novel { title pages } }`))
}

func TestExecute_Directives(t *testing.T) {
	upper := func(next ResolverFunc, args map[string]any) ResolverFunc {
		return func(ctx context.Context, p ResolveParams) (any, error) {
			v, err := next(ctx, p)
			s, _ := v.(string)
			return strings.ToUpper(s), err
		}
	}
	prefix := func(next ResolverFunc, args map[string]any) ResolverFunc {
		return func(ctx context.Context, p ResolveParams) (any, error) {
			v, err := next(ctx, p)
			return fmt.Sprint(args["with"], v), err
		}
	}
	c, err := New(
		WithTypes(`
			directive @upper on FIELD_DEFINITION
			directive @prefix(with: String = "> ") on FIELD_DEFINITION
			type Query {
				hello: String @upper
				greeting: String @prefix
				tagged: String @prefix(with: "# ") @upper
			}
		`),
		WithResolvers(ResolverMap{"Query": Fields{
			"hello":  func(ctx context.Context, p ResolveParams) (any, error) { return "hello", nil },
			"tagged": func(ctx context.Context, p ResolveParams) (any, error) { return "t", nil },
		}}),
		WithDirectives(map[string]DirectiveFunc{"upper": upper, "prefix": prefix}),
	)
	require.NoError(t, err)

	res := c.Execute(context.Background(), `{ hello greeting tagged }`, WithRoot(map[string]any{"greeting": "hi"}))
	requireData(t, map[string]any{"hello": "HELLO", "greeting": "> hi", "tagged": "# T"}, res)
}

func TestExecute_Mocks(t *testing.T) {
	t.Run("generated values", func(t *testing.T) {
		c, err := New(
			WithTypes(booksSDL),
			WithUseMocks(true),
			WithMocks(func(imported MockMap) MockMap {
				imported["Book"] = func() any { return map[string]any{"title": "Mocked"} }
				return imported
			}),
		)
		require.NoError(t, err)
		res := c.Execute(context.Background(), `{ book(id: "1") { title genre } secret }`)
		requireData(t, map[string]any{
			"book":   map[string]any{"title": "Mocked", "genre": "FICTION"},
			"secret": "Hello World",
		}, res)
	})

	t.Run("preserved resolvers", func(t *testing.T) {
		c := newBooks(t, WithUseMocks(true), WithPreserveResolvers(true))
		res := c.Execute(context.Background(), `{ book(id: "3") { title } }`)
		requireData(t, map[string]any{"book": map[string]any{"title": "Title 3"}}, res)
	})

	t.Run("imported mocks", func(t *testing.T) {
		books, err := New(WithName("books"), WithTypes(booksSDL), WithMocks(func(MockMap) MockMap {
			return MockMap{"String": func() any { return "from books" }}
		}))
		require.NoError(t, err)
		root, err := New(WithImports(books), WithUseMocks(true))
		require.NoError(t, err)
		require.Contains(t, root.Mocks(), "String")
		res := root.Execute(context.Background(), `{ secret }`)
		requireData(t, map[string]any{"secret": "from books"}, res)
	})
}

func TestExecute_Mutations(t *testing.T) {
	var order []string
	c, err := New(
		WithTypes(`type Query { noop: String } type Mutation { first: String second: String }`),
		WithResolvers(ResolverMap{"Mutation": Fields{
			"first": func(ctx context.Context, p ResolveParams) (any, error) {
				order = append(order, "first")
				return "1", nil
			},
			"second": func(ctx context.Context, p ResolveParams) (any, error) {
				order = append(order, "second")
				return "2", nil
			},
		}}),
	)
	require.NoError(t, err)
	res := c.Execute(context.Background(), `mutation { second first }`)
	requireData(t, map[string]any{"second": "2", "first": "1"}, res)
	require.Equal(t, []string{"second", "first"}, order)
}
