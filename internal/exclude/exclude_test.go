package exclude

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"

	language "github.com/hanpama/graphql-component/internal/language"
)

func mustParseSchema(t *testing.T, sdl string) *ast.SchemaDocument {
	t.Helper()
	doc, err := language.ParseSchema("test.graphql", sdl)
	require.NoError(t, err)
	return doc
}

func fieldNames(def *ast.Definition) []string {
	var names []string
	for _, f := range def.Fields {
		names = append(names, f.Name)
	}
	return names
}

func TestParse(t *testing.T) {
	rules, err := Parse([]string{"Query.secret", "Mutation.*", "Subscription", "*", "Query."})
	require.NoError(t, err)
	want := []Rule{
		{Type: "Query", Field: "secret"},
		{Type: "Mutation", Field: "*"},
		{Type: "Subscription"},
		{Type: "*"},
		{Type: "Query"},
	}
	if diff := cmp.Diff(want, rules); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"", ".field", "A.b.c"} {
		t.Run(bad, func(t *testing.T) {
			_, err := Parse([]string{bad})
			require.True(t, errors.Is(err, ErrInvalidPattern), "got %v", err)
		})
	}
}

func TestMatches(t *testing.T) {
	rules := []Rule{{Type: "Query", Field: "secret"}, {Type: "Mutation"}}
	require.True(t, Matches("Query", "secret", rules))
	require.True(t, Matches("Mutation", "wipe", rules))
	require.False(t, Matches("Query", "book", rules))
	require.False(t, Matches("Subscription", "secret", rules))
	require.False(t, Matches("Query", "secret", nil))

	t.Run("Wildcard type matches every field", func(t *testing.T) {
		rules := []Rule{{Type: "*", Field: "internal"}}
		require.True(t, Matches("Query", "internal", rules))
		require.True(t, Matches("Query", "book", rules))
		require.True(t, Matches("Mutation", "wipe", rules))
	})
}

func TestApplyToTypes(t *testing.T) {
	doc := mustParseSchema(t, `
		type Query { book: Book secret: String }
		extend type Query { audit: String }
		type Mutation { wipe: Boolean }
		type Book { secret: String }
	`)

	t.Run("No rules is the identity", func(t *testing.T) {
		docs := []*ast.SchemaDocument{doc}
		got := ApplyToTypes(docs, nil)
		require.Equal(t, 1, len(got))
		require.Same(t, doc, got[0])
	})

	t.Run("Single field", func(t *testing.T) {
		got := ApplyToTypes([]*ast.SchemaDocument{doc}, []Rule{{Type: "Query", Field: "secret"}})
		require.Equal(t, []string{"book"}, fieldNames(got[0].Definitions.ForName("Query")))
		require.Equal(t, []string{"secret"}, fieldNames(got[0].Definitions.ForName("Book")))
		require.Equal(t, []string{"book", "secret"}, fieldNames(doc.Definitions.ForName("Query")), "input modified")
	})

	t.Run("Whole type drops the definition and its extensions", func(t *testing.T) {
		got := ApplyToTypes([]*ast.SchemaDocument{doc}, []Rule{{Type: "Query"}})
		require.Nil(t, got[0].Definitions.ForName("Query"))
		require.Empty(t, got[0].Extensions)
		require.NotNil(t, got[0].Definitions.ForName("Mutation"))
	})

	t.Run("Everything", func(t *testing.T) {
		got := ApplyToTypes([]*ast.SchemaDocument{doc}, []Rule{{Type: "*", Field: "*"}})
		require.Nil(t, got[0].Definitions.ForName("Query"))
		require.Nil(t, got[0].Definitions.ForName("Mutation"))
		require.NotNil(t, got[0].Definitions.ForName("Book"))
	})

	t.Run("Wildcard type with a field is everything", func(t *testing.T) {
		got := ApplyToTypes([]*ast.SchemaDocument{doc}, []Rule{{Type: "*", Field: "secret"}})
		require.Nil(t, got[0].Definitions.ForName("Query"))
		require.Nil(t, got[0].Definitions.ForName("Mutation"))
		require.Empty(t, got[0].Extensions)
		require.Equal(t, []string{"secret"}, fieldNames(got[0].Definitions.ForName("Book")))
	})
}

func TestApplyToResolvers(t *testing.T) {
	enumRemap := map[string]any{"RED": 1}
	m := map[string]any{
		"Query":    map[string]any{"book": 1, "secret": 2},
		"Mutation": map[string]any{"wipe": 3},
		"Color":    enumRemap,
		"Date":     "scalar",
	}

	t.Run("Single field", func(t *testing.T) {
		got := ApplyToResolvers(m, []Rule{{Type: "Query", Field: "secret"}})
		require.Equal(t, map[string]any{"book": 1}, got["Query"])
		require.Equal(t, map[string]any{"wipe": 3}, got["Mutation"])
		require.Equal(t, "scalar", got["Date"])
		require.Len(t, m["Query"], 2, "input modified")
	})

	t.Run("Whole type", func(t *testing.T) {
		got := ApplyToResolvers(m, []Rule{{Type: "Mutation", Field: "*"}})
		require.NotContains(t, got, "Mutation")
		require.Contains(t, got, "Query")
	})

	t.Run("Everything", func(t *testing.T) {
		require.Empty(t, ApplyToResolvers(m, []Rule{{Type: "*"}}))
		require.Empty(t, ApplyToResolvers(m, []Rule{{Type: "*", Field: "secret"}}))
	})
}
