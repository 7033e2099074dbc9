// Package component composes GraphQL schemas out of independent components.
//
// A component owns SDL types, resolvers, directive implementations, mocks and
// a context factory. It may import other components; their root fields are
// exposed on the importing component's schema and resolved by delegating the
// selected sub-operation back to the component that owns them:
//
//	books, _ := component.New(
//		component.WithName("books"),
//		component.WithTypes(`type Book { id: ID! title: String } type Query { book(id: ID!): Book }`),
//		component.WithResolvers(component.ResolverMap{
//			"Query": component.Fields{"book": findBook},
//		}),
//	)
//	gateway, _ := component.New(component.WithImport(books, "Query.secret"))
//	res := gateway.Execute(ctx, `{ book(id: "1") { title } }`)
//
// Root resolvers are memoized per request: identical calls made while
// executing one operation, including calls arriving through delegation, run
// once.
package component
