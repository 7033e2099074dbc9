// Package delegate re-executes a field against the component that owns it.
//
// The field's selection is cut out of the running operation with its
// ancestor chain intact, executed against the owner's schema, and the value
// found at the field's path is handed back to the caller. Errors reported by
// the owner are folded into the returned data at their paths so they surface
// where the parent response reads them.
package delegate

import (
	"context"
	"errors"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	executor "github.com/hanpama/graphql-component/internal/executor"
)

// Target executes a prepared document against its own schema.
type Target interface {
	ExecuteDocument(ctx context.Context, doc *ast.QueryDocument, root any, variables map[string]any) *executor.ExecutionResult
}

// Object is an object value produced by a delegated execution. Entries are
// keyed by response key, so an aliased field is found under its alias.
type Object map[string]any

// Typename returns the __typename entry of a delegated or plain map value.
func Typename(v any) (string, bool) {
	var name any
	switch m := v.(type) {
	case Object:
		name = m["__typename"]
	case map[string]any:
		name = m["__typename"]
	}
	s, ok := name.(string)
	return s, ok && s != ""
}

// KeepFunc reports whether the target knows the field of the named type.
type KeepFunc func(typeName, fieldName string) bool

// Delegate executes the field described by info against target and returns
// its value. Fields that keep rejects are left out of the delegated
// selection; a nil keep selects everything. Errors without a path fail the
// whole delegation; an error that replaced the field itself is returned as
// the field's error.
func Delegate(ctx context.Context, target Target, info *executor.ResolveInfo, keep KeepFunc) (any, error) {
	doc := SubOperation(info)
	if keep != nil {
		doc = Prune(doc, keep)
	}
	doc = WithTypename(doc)
	res := target.ExecuteDocument(ctx, doc, info.RootValue, info.VariableValues)
	data, rest := FoldErrors(res.Data, res.Errors)
	if len(rest) > 0 {
		return nil, joinErrors(rest)
	}
	v := Reroot(data, info.Path)
	if err, ok := v.(error); ok {
		return nil, err
	}
	return mark(v), nil
}

// mark turns every object in v into an Object.
func mark(v any) any {
	switch c := v.(type) {
	case map[string]any:
		obj := make(Object, len(c))
		for k, e := range c {
			obj[k] = mark(e)
		}
		return obj
	case []any:
		for i, e := range c {
			c[i] = mark(e)
		}
		return c
	}
	return v
}

// SubOperation builds a document selecting only the field described by info,
// wrapped in the fields of its ancestors. Operation type, name, variable
// definitions and every fragment definition are kept.
func SubOperation(info *executor.ResolveInfo) *ast.QueryDocument {
	op := info.Operation
	keys := responseKeys(info.Path)

	field := mergeFields(info.Fields)
	var selection ast.SelectionSet
	if len(keys) > 1 {
		if chain := descend(op.SelectionSet, keys, info.Fragments, field); chain != nil {
			selection = chain
		}
	}
	if selection == nil {
		selection = ast.SelectionSet{field}
	}

	sub := &ast.OperationDefinition{
		Operation:           op.Operation,
		Name:                op.Name,
		VariableDefinitions: op.VariableDefinitions,
		Directives:          op.Directives,
		SelectionSet:        selection,
		Position:            op.Position,
	}
	return &ast.QueryDocument{
		Operations: ast.OperationList{sub},
		Fragments:  info.Fragments,
	}
}

// descend follows keys[:len-1] through selections and returns a selection set
// that reaches leaf through copies of the matched ancestor fields.
func descend(selections ast.SelectionSet, keys []string, fragments ast.FragmentDefinitionList, leaf *ast.Field) ast.SelectionSet {
	matches := matchingFields(selections, keys[0], fragments)
	if len(matches) == 0 {
		return nil
	}
	cp := mergeFields(matches)
	if len(keys) == 2 {
		cp.SelectionSet = ast.SelectionSet{leaf}
		return ast.SelectionSet{cp}
	}
	inner := descend(cp.SelectionSet, keys[1:], fragments, leaf)
	if inner == nil {
		return nil
	}
	cp.SelectionSet = inner
	return ast.SelectionSet{cp}
}

// matchingFields returns the fields answering to key, by alias first and then
// by name, looking through inline fragments and fragment spreads.
func matchingFields(selections ast.SelectionSet, key string, fragments ast.FragmentDefinitionList) []*ast.Field {
	var byAlias, byName []*ast.Field
	var walk func(ast.SelectionSet, map[string]bool)
	walk = func(set ast.SelectionSet, seen map[string]bool) {
		for _, sel := range set {
			switch s := sel.(type) {
			case *ast.Field:
				switch {
				case s.Alias == key:
					byAlias = append(byAlias, s)
				case s.Alias == "" && s.Name == key:
					byName = append(byName, s)
				}
			case *ast.InlineFragment:
				walk(s.SelectionSet, seen)
			case *ast.FragmentSpread:
				if seen[s.Name] {
					continue
				}
				seen[s.Name] = true
				if def := fragments.ForName(s.Name); def != nil {
					walk(def.SelectionSet, seen)
				}
			}
		}
	}
	walk(selections, make(map[string]bool))
	if len(byAlias) > 0 {
		return byAlias
	}
	return byName
}

// mergeFields returns a copy of the first field whose selection set is the
// union of every field's selection set.
func mergeFields(fields []*ast.Field) *ast.Field {
	cp := *fields[0]
	var merged ast.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	cp.SelectionSet = merged
	return &cp
}

// Prune returns a copy of doc without the fields keep rejects. Fields are
// identified by the type that declares them in the validated document;
// fields without that information and __typename are kept.
func Prune(doc *ast.QueryDocument, keep KeepFunc) *ast.QueryDocument {
	out := &ast.QueryDocument{}
	for _, op := range doc.Operations {
		cp := *op
		cp.SelectionSet = pruneSet(op.SelectionSet, keep)
		out.Operations = append(out.Operations, &cp)
	}
	for _, f := range doc.Fragments {
		cp := *f
		cp.SelectionSet = pruneSet(f.SelectionSet, keep)
		out.Fragments = append(out.Fragments, &cp)
	}
	return out
}

func pruneSet(set ast.SelectionSet, keep KeepFunc) ast.SelectionSet {
	if set == nil {
		return nil
	}
	out := make(ast.SelectionSet, 0, len(set))
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			if s.ObjectDefinition != nil && s.Name != "__typename" && !keep(s.ObjectDefinition.Name, s.Name) {
				continue
			}
			cp := *s
			cp.SelectionSet = pruneSet(s.SelectionSet, keep)
			out = append(out, &cp)
		case *ast.InlineFragment:
			cp := *s
			cp.SelectionSet = pruneSet(s.SelectionSet, keep)
			out = append(out, &cp)
		default:
			out = append(out, sel)
		}
	}
	return out
}

// WithTypename returns a copy of doc in which every field with a selection set
// also selects __typename.
func WithTypename(doc *ast.QueryDocument) *ast.QueryDocument {
	out := &ast.QueryDocument{}
	for _, op := range doc.Operations {
		cp := *op
		cp.SelectionSet = typenameSet(op.SelectionSet, false)
		out.Operations = append(out.Operations, &cp)
	}
	for _, f := range doc.Fragments {
		cp := *f
		cp.SelectionSet = typenameSet(f.SelectionSet, false)
		out.Fragments = append(out.Fragments, &cp)
	}
	return out
}

func typenameSet(set ast.SelectionSet, add bool) ast.SelectionSet {
	out := make(ast.SelectionSet, 0, len(set)+1)
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			cp := *s
			if len(s.SelectionSet) > 0 {
				cp.SelectionSet = typenameSet(s.SelectionSet, true)
			}
			out = append(out, &cp)
		case *ast.InlineFragment:
			cp := *s
			cp.SelectionSet = typenameSet(s.SelectionSet, false)
			out = append(out, &cp)
		default:
			out = append(out, sel)
		}
	}
	if add {
		out = append(out, &ast.Field{Alias: "__typename", Name: "__typename"})
	}
	return out
}

// FoldErrors writes every located error into data as an error value at its
// path. When the path runs through a missing or null value the error is placed
// at the deepest reachable position. Errors without a path are returned.
func FoldErrors(data any, errs []executor.GraphQLError) (any, []executor.GraphQLError) {
	var rest []executor.GraphQLError
	for _, e := range errs {
		if len(e.Path) == 0 {
			rest = append(rest, e)
			continue
		}
		if !place(data, e.Path, e) {
			rest = append(rest, e)
		}
	}
	return data, rest
}

func place(container any, path executor.Path, err error) bool {
	for i, elem := range path {
		last := i == len(path)-1
		switch c := container.(type) {
		case map[string]any:
			key, ok := elem.(string)
			if !ok {
				return false
			}
			next, exists := c[key]
			if last || !exists || next == nil {
				c[key] = err
				return true
			}
			container = next
		case []any:
			idx, ok := elem.(int)
			if !ok || idx < 0 || idx >= len(c) {
				return false
			}
			if last || c[idx] == nil {
				c[idx] = err
				return true
			}
			container = c[idx]
		default:
			return false
		}
	}
	return false
}

// Reroot returns the value at path in data, the result of an operation that
// selected the field together with its ancestors. An error value met on the
// way is returned as the value.
func Reroot(data any, path executor.Path) any {
	cur := data
	for _, elem := range path {
		switch c := cur.(type) {
		case map[string]any:
			key, _ := elem.(string)
			cur = c[key]
		case []any:
			idx, ok := elem.(int)
			if !ok || idx < 0 || idx >= len(c) {
				return nil
			}
			cur = c[idx]
		case error:
			return c
		default:
			return nil
		}
	}
	return cur
}

func responseKeys(path executor.Path) []string {
	var keys []string
	for _, elem := range path {
		if key, ok := elem.(string); ok {
			keys = append(keys, key)
		}
	}
	return keys
}

func joinErrors(errs []executor.GraphQLError) error {
	if len(errs) == 1 {
		return errs[0]
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Message
	}
	return errors.New(strings.Join(msgs, "; "))
}
