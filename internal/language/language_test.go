package language

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatSchemaRoundTrip(t *testing.T) {
	doc, err := ParseSchema("books.graphql", `type Book { id: ID! title: String } type Query { book(id: ID!): Book }`)
	require.NoError(t, err)

	out := FormatSchema(doc)
	require.True(t, strings.Contains(out, "type Book"), out)

	again, err := ParseSchema("again.graphql", out)
	require.NoError(t, err)
	require.Len(t, again.Definitions, 2)
	require.Equal(t, "Book", again.Definitions[0].Name)
	require.Equal(t, "Query", again.Definitions[1].Name)
}

func TestFormatQueryRoundTrip(t *testing.T) {
	doc, err := ParseQuery(`query Q($id: ID!) { book(id: $id) { title } } fragment F on Book { id }`)
	require.NoError(t, err)

	again, err := ParseQuery(FormatQuery(doc))
	require.NoError(t, err)
	require.Len(t, again.Operations, 1)
	require.Equal(t, "Q", again.Operations[0].Name)
	require.NotNil(t, again.Fragments.ForName("F"))
}

func TestIsRootTypeName(t *testing.T) {
	require.True(t, IsRootTypeName("Query"))
	require.True(t, IsRootTypeName("Subscription"))
	require.False(t, IsRootTypeName("Book"))
}
