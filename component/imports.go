package component

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"

	exclude "github.com/hanpama/graphql-component/internal/exclude"
	language "github.com/hanpama/graphql-component/internal/language"
	namespace "github.com/hanpama/graphql-component/internal/namespace"
)

// dependencyTree is what a component inherits from its imports, in
// breadth-first import order.
type dependencyTree struct {
	Types     []*ast.SchemaDocument
	Resolvers []ResolverMap
}

// buildDependencyTree walks the import graph of c breadth first. Each
// component is visited once; when it is reachable through several edges the
// first edge met decides its exclusions. Imported documents get colliding
// directives renamed and excluded root fields removed; imported root fields
// resolve through proxies to their owner.
func (c *Component) buildDependencyTree() (*dependencyTree, error) {
	tree := &dependencyTree{}
	rootDirectives := make(map[string]bool, len(c.directives))
	for name := range c.directives {
		rootDirectives[name] = true
	}

	visited := map[uint64]bool{c.id: true}
	queue := append([]Import(nil), c.imports...)
	for len(queue) > 0 {
		edge := queue[0]
		queue = queue[1:]
		imp := edge.Component
		if visited[imp.ID()] {
			continue
		}
		visited[imp.ID()] = true

		rules, err := exclude.Parse(edge.Exclude)
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", imp.Name(), err)
		}
		log := c.logger.With(zap.String("import", imp.Name()))

		suffix := namespace.Suffix(imp.Name(), imp.ID())
		var docs []*ast.SchemaDocument
		for _, src := range imp.Types() {
			doc, err := language.ParseSchema(src.Name, src.Input)
			if err != nil {
				return nil, fmt.Errorf("import %s: %w", imp.Name(), err)
			}
			docs = append(docs, namespace.Directives(rootDirectives, suffix, doc))
		}
		if len(rootDirectives) > 0 {
			log.Debug("namespaced directives", zap.String("suffix", suffix))
		}
		if len(rules) > 0 {
			log.Debug("excluding fields", zap.Strings("exclude", edge.Exclude))
			docs = exclude.ApplyToTypes(docs, rules)
		}
		tree.Types = append(tree.Types, docs...)

		resolvers := exclude.ApplyToResolvers(imp.Resolvers(), rules)
		tree.Resolvers = append(tree.Resolvers, c.proxies(imp, docs, resolvers))

		queue = append(queue, imp.Imports()...)
	}
	return tree, nil
}

// proxies returns a resolver map delegating every root field imp declares
// in docs or resolves in resolvers. Existing proxies are reused.
func (c *Component) proxies(imp Composable, docs []*ast.SchemaDocument, resolvers ResolverMap) ResolverMap {
	proxy := &proxyResolver{target: imp, logger: c.logger}
	out := make(ResolverMap)
	add := func(typeName, field string, existing any) {
		fields, _ := out[typeName].(Fields)
		if fields == nil {
			fields = make(Fields)
			out[typeName] = fields
		}
		if _, ok := fields[field]; ok {
			return
		}
		if p, ok := existing.(*proxyResolver); ok {
			fields[field] = p
			return
		}
		fields[field] = proxy
	}

	for _, typeName := range language.RootTypeNames {
		fields, _ := resolvers[typeName].(Fields)
		for name, entry := range fields {
			add(typeName, name, entry)
		}
	}
	for _, doc := range docs {
		for _, list := range []ast.DefinitionList{doc.Definitions, doc.Extensions} {
			for _, def := range list {
				if def.Kind != ast.Object || !language.IsRootTypeName(def.Name) {
					continue
				}
				for _, f := range def.Fields {
					add(def.Name, f.Name, nil)
				}
			}
		}
	}
	return out
}
