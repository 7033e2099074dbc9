package component

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	exclude "github.com/hanpama/graphql-component/internal/exclude"
	language "github.com/hanpama/graphql-component/internal/language"
)

var idSeq atomic.Uint64

// Component is a unit of schema composition: its own types and resolvers plus
// the root fields of the components it imports, which are delegated back to
// their owners at execution time.
type Component struct {
	id             uint64
	name           string
	types          []*Source
	resolvers      ResolverMap
	imports        []Import
	directives     map[string]DirectiveFunc
	importedMocks  MockMap
	mocks          MockMap
	useMocks       bool
	preserve       bool
	context        *ContextBuilder
	logger         *zap.Logger
	maxConcurrency int

	once      sync.Once
	schema    *Schema
	schemaErr error
}

var _ Composable = (*Component)(nil)

// New creates a component. It fails when a type source does not parse or an
// import carries a malformed exclusion pattern. The schema is built on first use.
func New(opts ...Option) (*Component, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	c := &Component{
		id:             idSeq.Add(1),
		name:           o.name,
		imports:        o.imports,
		directives:     o.directives,
		useMocks:       o.useMocks,
		preserve:       o.preserve,
		maxConcurrency: o.maxConcurrency,
	}
	if c.name == "" {
		c.name = fmt.Sprintf("component%d", c.id)
	}
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger.Named("graphql-component").With(zap.String("component", c.name), zap.Uint64("id", c.id))
	c.logger.Debug("creating component")

	for i, src := range o.types {
		cp := *src
		if cp.Name == "" {
			cp.Name = fmt.Sprintf("%s/%d.graphql", c.name, i)
		}
		if _, err := language.ParseSchema(cp.Name, cp.Input); err != nil {
			return nil, fmt.Errorf("component %s: parse types: %w", c.name, err)
		}
		c.types = append(c.types, &cp)
	}

	for _, imp := range c.imports {
		if imp.Component == nil {
			return nil, fmt.Errorf("component %s: nil import", c.name)
		}
		if _, err := exclude.Parse(imp.Exclude); err != nil {
			return nil, fmt.Errorf("component %s: import %s: %w", c.name, imp.Component.Name(), err)
		}
	}

	c.resolvers = c.wrapResolvers(o.resolvers)

	c.importedMocks = make(MockMap)
	for _, imp := range c.imports {
		for k, v := range imp.Component.Mocks() {
			c.importedMocks[k] = v
		}
	}
	if o.mocks != nil {
		c.mocks = o.mocks(copyMocks(c.importedMocks))
	} else {
		c.mocks = copyMocks(c.importedMocks)
	}

	c.context = newContextBuilder(c, o.namespace, o.factory)
	return c, nil
}

// ID returns the process-unique component id.
func (c *Component) ID() uint64 { return c.id }

// Name returns the component name.
func (c *Component) Name() string { return c.name }

// Types returns the component's own type sources.
func (c *Component) Types() []*Source { return c.types }

// Resolvers returns the component's own resolvers, bound to the component.
func (c *Component) Resolvers() ResolverMap { return c.resolvers }

// Imports returns the direct import edges.
func (c *Component) Imports() []Import { return c.imports }

// Directives returns the directive implementations of the component.
func (c *Component) Directives() map[string]DirectiveFunc { return c.directives }

// Mocks returns the component's mocks.
func (c *Component) Mocks() MockMap { return c.mocks }

// Context returns the component's context builder.
func (c *Component) Context() *ContextBuilder { return c.context }

func copyMocks(m MockMap) MockMap {
	out := make(MockMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
