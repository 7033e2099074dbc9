package component

import (
	"context"

	"github.com/vektah/gqlparser/v2/ast"

	delegate "github.com/hanpama/graphql-component/internal/delegate"
	executor "github.com/hanpama/graphql-component/internal/executor"
	mock "github.com/hanpama/graphql-component/internal/mock"
)

type (
	Source         = ast.Source
	SchemaDocument = ast.SchemaDocument
	QueryDocument  = ast.QueryDocument
)

// ResolverMap holds resolvers by type name. A value is either Fields or a
// type-level definition such as *Scalar.
type ResolverMap = map[string]any

// Fields holds the entries of one type. For object types a value is a
// resolver: a ResolverFunc, a func with the same signature, or a Resolver.
// The "__resolveType" entry of an interface or union is a TypeResolverFunc.
// For enum types a value is the internal value of the enum value named by
// the key.
type Fields = map[string]any

// ResolveInfo describes the field being resolved.
type ResolveInfo = executor.ResolveInfo

// Result is the outcome of an execution.
type Result = executor.ExecutionResult

// Error is a located execution error.
type Error = executor.GraphQLError

// DelegatedObject is an object value returned by delegation. Its entries are
// keyed by response key and carry __typename.
type DelegatedObject = delegate.Object

// ResolveParams are the inputs of a resolver.
type ResolveParams struct {
	// Source is the parent value, or the root value for root fields.
	Source any
	// Args are the coerced field arguments.
	Args map[string]any
	// Info describes the field and the operation being executed.
	Info *ResolveInfo
	// Component is the component that owns the resolver.
	Component Composable
}

// ResolverFunc resolves one field.
type ResolverFunc func(ctx context.Context, p ResolveParams) (any, error)

// Resolver is implemented by values that resolve a field.
type Resolver interface {
	Resolve(ctx context.Context, p ResolveParams) (any, error)
}

// TypeResolverFunc returns the concrete object type name of a value of an
// interface or union.
type TypeResolverFunc func(ctx context.Context, value any) (string, error)

// Scalar customizes a scalar type. Serialize converts internal values for
// responses; ParseValue converts argument values for resolvers.
type Scalar struct {
	Serialize  func(value any) (any, error)
	ParseValue func(value any) (any, error)
}

// DirectiveFunc wraps the resolver of a field carrying the directive. args
// are the arguments of the directive application.
type DirectiveFunc func(next ResolverFunc, args map[string]any) ResolverFunc

// MockFunc produces the mock value of a type. Object mocks return a
// map[string]any of field values.
type MockFunc = mock.Func

// MockMap holds mocks by type name.
type MockMap = mock.Map

// ContextFactory produces the values a component contributes to the request
// context under its namespace.
type ContextFactory func(ctx context.Context, arg map[string]any) (map[string]any, error)

// Middleware transforms the context argument before factories run.
type Middleware func(ctx context.Context, arg map[string]any) (map[string]any, error)

// Import is an edge of the import graph.
type Import struct {
	Component Composable
	// Exclude lists root fields not re-exposed: "Type.field", "Type.*", "Type" or "*".
	Exclude []string
}

// Composable is the capability set shared by every component.
type Composable interface {
	ID() uint64
	Name() string
	Types() []*Source
	Resolvers() ResolverMap
	Imports() []Import
	Directives() map[string]DirectiveFunc
	Mocks() MockMap
	Context() *ContextBuilder
	Schema() (*Schema, error)
	Execute(ctx context.Context, query string, opts ...ExecOption) *Result
	ExecuteDocument(ctx context.Context, doc *QueryDocument, root any, variables map[string]any) *Result
}
