// Package fragments derives a fragment per object type selecting everything
// that can be selected without arguments, so queries can spread ...AllBook
// instead of listing fields by hand.
package fragments

import (
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// Prefix is prepended to the type name to form the fragment name.
const Prefix = "All"

// Name returns the fragment name for typeName.
func Name(typeName string) string { return Prefix + typeName }

// Set holds generated fragments by name.
type Set struct {
	names   []string
	source  map[string]string
	spreads map[string][]string
}

// Generate derives the fragments of every non-root object type of s.
// Fields with required arguments are left out; fields of abstract or root
// types, and fields that would make fragments spread each other in a cycle,
// select only __typename.
func Generate(s *ast.Schema) *Set {
	g := &generator{
		schema: s,
		state:  make(map[string]int),
		set:    &Set{source: make(map[string]string), spreads: make(map[string][]string)},
	}
	var types []string
	for name, def := range s.Types {
		if g.eligible(def) {
			types = append(types, name)
		}
	}
	sort.Strings(types)
	for _, name := range types {
		g.visit(name)
	}
	for _, name := range types {
		if _, ok := g.set.source[Name(name)]; ok {
			g.set.names = append(g.set.names, Name(name))
		}
	}
	return g.set
}

// Names returns the fragment names in type name order.
func (s *Set) Names() []string { return s.names }

// Source returns the GraphQL source of one fragment.
func (s *Set) Source(name string) (string, bool) {
	src, ok := s.source[name]
	return src, ok
}

// String renders every fragment.
func (s *Set) String() string {
	var b strings.Builder
	for _, name := range s.names {
		b.WriteString(s.source[name])
		b.WriteString("\n")
	}
	return b.String()
}

// Needed returns the generated fragments doc spreads without defining them,
// including the fragments those spread in turn.
func (s *Set) Needed(doc *ast.QueryDocument) []string {
	var queue []string
	for _, op := range doc.Operations {
		queue = appendSpreads(queue, op.SelectionSet)
	}
	for _, f := range doc.Fragments {
		queue = appendSpreads(queue, f.SelectionSet)
	}
	seen := make(map[string]bool)
	var out []string
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] || doc.Fragments.ForName(name) != nil {
			continue
		}
		seen[name] = true
		if _, ok := s.source[name]; !ok {
			continue
		}
		out = append(out, name)
		queue = append(queue, s.spreads[name]...)
	}
	return out
}

// Append returns query followed by the fragments doc, its parsed form, needs.
func (s *Set) Append(query string, doc *ast.QueryDocument) string {
	needed := s.Needed(doc)
	if len(needed) == 0 {
		return query
	}
	var b strings.Builder
	b.WriteString(query)
	for _, name := range needed {
		b.WriteString("\n")
		b.WriteString(s.source[name])
	}
	return b.String()
}

const (
	unvisited = iota
	visiting
	done
)

type generator struct {
	schema *ast.Schema
	state  map[string]int
	set    *Set
}

func (g *generator) eligible(def *ast.Definition) bool {
	return def.Kind == ast.Object && !def.BuiltIn && !strings.HasPrefix(def.Name, "__") && !g.isRoot(def.Name)
}

func (g *generator) isRoot(name string) bool {
	s := g.schema
	for _, root := range []*ast.Definition{s.Query, s.Mutation, s.Subscription} {
		if root != nil && root.Name == name {
			return true
		}
	}
	return false
}

func (g *generator) visit(name string) {
	if g.state[name] != unvisited {
		return
	}
	g.state[name] = visiting
	def := g.schema.Types[name]

	var parts, spreads []string
	for _, f := range def.Fields {
		if strings.HasPrefix(f.Name, "__") || hasRequiredArguments(f) {
			continue
		}
		target := g.schema.Types[f.Type.Name()]
		if target == nil {
			continue
		}
		switch {
		case target.Kind == ast.Scalar || target.Kind == ast.Enum:
			parts = append(parts, f.Name)
		case g.eligible(target) && g.state[target.Name] != visiting:
			g.visit(target.Name)
			if _, ok := g.set.source[Name(target.Name)]; ok {
				parts = append(parts, f.Name+" { ..."+Name(target.Name)+" }")
				spreads = append(spreads, Name(target.Name))
			} else {
				parts = append(parts, f.Name+" { __typename }")
			}
		case target.Kind == ast.Object || target.Kind == ast.Interface || target.Kind == ast.Union:
			parts = append(parts, f.Name+" { __typename }")
		}
	}
	if len(parts) > 0 {
		g.set.source[Name(name)] = "fragment " + Name(name) + " on " + name + " { " + strings.Join(parts, " ") + " }"
		g.set.spreads[Name(name)] = spreads
	}
	g.state[name] = done
}

func hasRequiredArguments(f *ast.FieldDefinition) bool {
	for _, arg := range f.Arguments {
		if arg.Type.NonNull && arg.DefaultValue == nil {
			return true
		}
	}
	return false
}

func appendSpreads(names []string, set ast.SelectionSet) []string {
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			names = appendSpreads(names, s.SelectionSet)
		case *ast.InlineFragment:
			names = appendSpreads(names, s.SelectionSet)
		case *ast.FragmentSpread:
			names = append(names, s.Name)
		}
	}
	return names
}
