package component

import (
	"fmt"
	"sort"

	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"

	executor "github.com/hanpama/graphql-component/internal/executor"
	fragments "github.com/hanpama/graphql-component/internal/fragments"
	introspection "github.com/hanpama/graphql-component/internal/introspection"
	language "github.com/hanpama/graphql-component/internal/language"
	mock "github.com/hanpama/graphql-component/internal/mock"
	schema "github.com/hanpama/graphql-component/internal/schema"
)

// Schema is the executable schema of a component: its own declarations
// merged with everything it imports.
type Schema struct {
	document  *ast.SchemaDocument
	ast       *ast.Schema
	model     *schema.Schema
	executor  *executor.Executor
	runtime   *runtime
	fragments *fragments.Set
}

// AST returns the validated gqlparser schema.
func (s *Schema) AST() *ast.Schema { return s.ast }

// Document returns the merged schema document the schema was loaded from.
func (s *Schema) Document() *ast.SchemaDocument { return s.document }

// SDL renders the schema.
func (s *Schema) SDL() string { return schema.Render(s.model) }

// HasField reports whether the named type declares the field.
func (s *Schema) HasField(typeName, fieldName string) bool {
	t := s.model.Types[typeName]
	return t != nil && t.Field(fieldName) != nil
}

// Fragments returns the source of the generated AllX fragments.
func (s *Schema) Fragments() string { return s.fragments.String() }

// Schema builds the component's schema on first call and returns the same
// schema, or the same error, on every call.
func (c *Component) Schema() (*Schema, error) {
	c.once.Do(func() {
		c.schema, c.schemaErr = c.buildSchema()
		if c.schemaErr != nil {
			c.logger.Debug("schema build failed", zap.Error(c.schemaErr))
		}
	})
	return c.schema, c.schemaErr
}

func (c *Component) buildSchema() (*Schema, error) {
	tree, err := c.buildDependencyTree()
	if err != nil {
		return nil, fmt.Errorf("component %s: %w", c.name, err)
	}

	var docs []*ast.SchemaDocument
	for _, src := range c.types {
		doc, err := language.ParseSchema(src.Name, src.Input)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", c.name, err)
		}
		docs = append(docs, doc)
	}
	docs = append(docs, tree.Types...)

	merged, err := schema.Merge(docs...)
	if err != nil {
		return nil, fmt.Errorf("component %s: %w", c.name, err)
	}
	loaded, err := schema.Load(c.name, merged)
	if err != nil {
		return nil, fmt.Errorf("component %s: %w", c.name, err)
	}

	resolvers := mergeResolverMaps(append([]ResolverMap{c.resolvers}, tree.Resolvers...)...)
	rt, err := newRuntime(c, loaded, resolvers)
	if err != nil {
		return nil, fmt.Errorf("component %s: %w", c.name, err)
	}
	model := schema.Build(loaded, rt.HasResolver)
	rt.schema = model

	var base executor.Runtime = rt
	if c.useMocks {
		mocks := copyMocks(c.importedMocks)
		for k, v := range c.mocks {
			mocks[k] = v
		}
		c.logger.Debug("adding mocks", zap.Bool("preserveResolvers", c.preserve), zap.Strings("types", mockNames(mocks)))
		base = mock.Wrap(rt, model, mocks, c.preserve)
	}
	wrapped := introspection.Wrap(base, model)

	c.logger.Debug("created schema", zap.Int("types", len(model.Types)))
	return &Schema{
		document:  merged,
		ast:       loaded,
		model:     model,
		executor:  executor.NewExecutor(wrapped.Runtime, wrapped.Schema),
		runtime:   rt,
		fragments: fragments.Generate(loaded),
	}, nil
}

func mockNames(m MockMap) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
