package component

import (
	"go.uber.org/zap"

	language "github.com/hanpama/graphql-component/internal/language"
)

// Option configures a Component.
type Option func(*options)

type options struct {
	name           string
	types          []*Source
	resolvers      ResolverMap
	imports        []Import
	directives     map[string]DirectiveFunc
	namespace      string
	factory        ContextFactory
	mocks          func(MockMap) MockMap
	useMocks       bool
	preserve       bool
	logger         *zap.Logger
	maxConcurrency int
}

// WithName sets the component name used in logs, events and directive suffixes.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithTypes adds SDL sources.
func WithTypes(sdl ...string) Option {
	return func(o *options) {
		for _, s := range sdl {
			o.types = append(o.types, &Source{Input: s})
		}
	}
}

// WithTypeDocuments adds parsed schema documents.
func WithTypeDocuments(docs ...*SchemaDocument) Option {
	return func(o *options) {
		for _, d := range docs {
			o.types = append(o.types, &Source{Input: language.FormatSchema(d)})
		}
	}
}

// WithResolvers sets the component's own resolvers.
func WithResolvers(m ResolverMap) Option {
	return func(o *options) { o.resolvers = m }
}

// WithImports imports components without exclusions.
func WithImports(cs ...Composable) Option {
	return func(o *options) {
		for _, c := range cs {
			o.imports = append(o.imports, Import{Component: c})
		}
	}
}

// WithImport imports c without the root fields matched by exclude.
func WithImport(c Composable, exclude ...string) Option {
	return func(o *options) {
		o.imports = append(o.imports, Import{Component: c, Exclude: exclude})
	}
}

// WithDirectives sets the directive implementations applied to the schema.
func WithDirectives(d map[string]DirectiveFunc) Option {
	return func(o *options) { o.directives = d }
}

// WithContext sets the factory whose output is placed under namespace in
// the request context.
func WithContext(namespace string, factory ContextFactory) Option {
	return func(o *options) {
		o.namespace = namespace
		o.factory = factory
	}
}

// WithMocks derives the component's mocks from the mocks of its imports.
func WithMocks(fn func(imported MockMap) MockMap) Option {
	return func(o *options) { o.mocks = fn }
}

// WithUseMocks resolves operations with mock data.
func WithUseMocks(use bool) Option {
	return func(o *options) { o.useMocks = use }
}

// WithPreserveResolvers keeps real resolvers in mocks mode.
func WithPreserveResolvers(preserve bool) Option {
	return func(o *options) { o.preserve = preserve }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMaxConcurrency bounds the resolvers running at once per depth.
// Zero means unbounded.
func WithMaxConcurrency(n int) Option {
	return func(o *options) { o.maxConcurrency = n }
}

// ExecOption configures one execution.
type ExecOption func(*execOptions)

type execOptions struct {
	root          any
	variables     map[string]any
	operationName string
}

// WithRoot sets the root value passed to root resolvers.
func WithRoot(root any) ExecOption {
	return func(o *execOptions) { o.root = root }
}

// WithVariables sets the operation variables.
func WithVariables(vars map[string]any) ExecOption {
	return func(o *execOptions) { o.variables = vars }
}

// WithOperationName selects the operation to execute.
func WithOperationName(name string) ExecOption {
	return func(o *execOptions) { o.operationName = name }
}
