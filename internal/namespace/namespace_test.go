package namespace

import (
	"testing"

	"github.com/stretchr/testify/require"

	language "github.com/hanpama/graphql-component/internal/language"
)

func TestSuffix(t *testing.T) {
	require.Equal(t, "book_service_7", Suffix("book-service", 7))
	require.Equal(t, "_0", Suffix("", 0))
}

func TestDirectives(t *testing.T) {
	doc, err := language.ParseSchema("books.graphql", `
		directive @auth(role: String @auth) on FIELD_DEFINITION | ARGUMENT_DEFINITION
		directive @cache on OBJECT
		type Query @cache {
			book(id: ID @auth): Book @auth(role: "reader")
		}
		type Book { title: String @deprecated }
		enum Color { RED @auth }
		extend type Query { secret: String @auth }
	`)
	require.NoError(t, err)

	got := Directives(map[string]bool{"auth": true}, "books_1", doc)

	require.Equal(t, "auth_books_1", got.Directives[0].Name)
	require.Equal(t, "auth_books_1", got.Directives[0].Arguments[0].Directives[0].Name)
	require.Equal(t, "cache", got.Directives[1].Name)

	query := got.Definitions.ForName("Query")
	require.Equal(t, "cache", query.Directives[0].Name)
	book := query.Fields.ForName("book")
	require.Equal(t, "auth_books_1", book.Directives[0].Name)
	require.Equal(t, "auth_books_1", book.Arguments[0].Directives[0].Name)
	require.Equal(t, "deprecated", got.Definitions.ForName("Book").Fields[0].Directives[0].Name)
	require.Equal(t, "auth_books_1", got.Definitions.ForName("Color").EnumValues[0].Directives[0].Name)
	require.Equal(t, "auth_books_1", got.Extensions[0].Fields[0].Directives[0].Name)

	// the source document is untouched
	require.Equal(t, "auth", doc.Directives[0].Name)
	require.Equal(t, "auth", doc.Definitions.ForName("Query").Fields[0].Directives[0].Name)
}
