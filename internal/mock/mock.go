// Package mock resolves operations with synthetic data shaped by the schema.
//
// Values come from user mocks when there is one for the type, and from
// built-in defaults otherwise: Int 42, Float 4.2, String "Hello World",
// Boolean true, a random UUID for ID, the first value of an enum and lists of
// two items. Object mocks are maps whose entries override generated fields.
package mock

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	delegate "github.com/hanpama/graphql-component/internal/delegate"
	executor "github.com/hanpama/graphql-component/internal/executor"
	schema "github.com/hanpama/graphql-component/internal/schema"
)

// Func produces the mock value of a type. Object and abstract types return a
// map of field values; entries may be values or func() any.
type Func = func() any

// Map holds mocks by type name.
type Map = map[string]Func

// ListLength is the number of items generated for list types.
const ListLength = 2

// Resolvers reports which fields have a real resolver.
type Resolvers interface {
	HasResolver(typeName, fieldName string) bool
}

// Runtime wraps a runtime, answering fields with mock data. With preserve set,
// fields that have a real resolver in base keep resolving through base.
type Runtime struct {
	base     executor.Runtime
	schema   *schema.Schema
	mocks    Map
	preserve bool
}

var _ executor.Runtime = (*Runtime)(nil)

// Wrap returns a mock runtime over base.
func Wrap(base executor.Runtime, sch *schema.Schema, mocks Map, preserve bool) *Runtime {
	return &Runtime{base: base, schema: sch, mocks: mocks, preserve: preserve}
}

func (r *Runtime) real(typeName, fieldName string) bool {
	if !r.preserve {
		return false
	}
	res, ok := r.base.(Resolvers)
	return ok && res.HasResolver(typeName, fieldName)
}

func (r *Runtime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any, info *executor.ResolveInfo) (any, error) {
	if r.real(objectType, field) {
		return r.base.ResolveSync(ctx, objectType, field, source, args, info)
	}
	return r.resolve(objectType, field, source, info), nil
}

func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	var forward []executor.AsyncResolveTask
	var forwardIdx []int
	for i, t := range tasks {
		if r.real(t.ObjectType, t.Field) {
			forward = append(forward, t)
			forwardIdx = append(forwardIdx, i)
			continue
		}
		results[i] = executor.AsyncResolveResult{Value: r.resolve(t.ObjectType, t.Field, t.Source, t.Info)}
	}
	if len(forward) > 0 {
		for j, res := range r.base.BatchResolveAsync(ctx, forward) {
			results[forwardIdx[j]] = res
		}
	}
	return results
}

func (r *Runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	if name, ok := delegate.Typename(value); ok {
		return name, nil
	}
	if r.preserve {
		return r.base.ResolveType(ctx, abstractType, value)
	}
	if name := r.concreteType(abstractType); name != "" {
		return name, nil
	}
	return "", fmt.Errorf("no possible type for %s", abstractType)
}

func (r *Runtime) ResolveUnionConcreteValue(ctx context.Context, unionTypeName string, value any) (any, error) {
	return r.base.ResolveUnionConcreteValue(ctx, unionTypeName, value)
}

func (r *Runtime) ResolveInterfaceConcreteValue(ctx context.Context, interfaceTypeName string, value any) (any, error) {
	return r.base.ResolveInterfaceConcreteValue(ctx, interfaceTypeName, value)
}

func (r *Runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	return r.base.SerializeLeafValue(ctx, typeName, value)
}

// resolve reads the field from the parent mock when present and generates a
// value from the field's type otherwise.
func (r *Runtime) resolve(objectType, field string, source any, info *executor.ResolveInfo) any {
	if obj, ok := source.(delegate.Object); ok && info != nil {
		if v, ok := obj[info.ResponseKey()]; ok {
			return v
		}
	} else if m, ok := source.(map[string]any); ok {
		if v, ok := m[field]; ok {
			return unwrap(v)
		}
	} else if r.isRoot(objectType) {
		if m := r.object(objectType); m != nil {
			if v, ok := m[field]; ok {
				return unwrap(v)
			}
		}
	}
	if info == nil {
		return nil
	}
	return r.Value(info.ReturnType)
}

func (r *Runtime) isRoot(name string) bool {
	for _, root := range r.schema.RootTypeNames() {
		if root == name {
			return true
		}
	}
	return false
}

// Value generates a mock value for t.
func (r *Runtime) Value(t *schema.TypeRef) any {
	if schema.IsNonNull(t) {
		return r.Value(schema.Unwrap(t))
	}
	if schema.IsList(t) {
		items := make([]any, ListLength)
		for i := range items {
			items[i] = r.Value(schema.Unwrap(t))
		}
		return items
	}
	return r.named(schema.GetNamedType(t))
}

func (r *Runtime) named(name string) any {
	typ := r.schema.Types[name]
	if typ == nil {
		return nil
	}
	switch typ.Kind {
	case schema.TypeKindObject:
		m := r.object(name)
		if m == nil {
			m = make(map[string]any)
		}
		return m
	case schema.TypeKindInterface, schema.TypeKindUnion:
		m := r.object(name)
		concrete, _ := m["__typename"].(string)
		if concrete == "" {
			concrete = r.concreteType(name)
		}
		if concrete == "" {
			return nil
		}
		out := r.object(concrete)
		if out == nil {
			out = make(map[string]any)
		}
		for k, v := range m {
			out[k] = v
		}
		out["__typename"] = concrete
		return out
	}
	if fn, ok := r.mocks[name]; ok && fn != nil {
		return fn()
	}
	switch typ.Kind {
	case schema.TypeKindEnum:
		if len(typ.EnumValues) > 0 {
			return typ.EnumValues[0].Name
		}
		return nil
	case schema.TypeKindScalar:
		return scalar(name)
	}
	return nil
}

// object returns a fresh copy of the map produced by the type's mock.
func (r *Runtime) object(name string) map[string]any {
	fn, ok := r.mocks[name]
	if !ok || fn == nil {
		return nil
	}
	m, ok := fn().(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (r *Runtime) concreteType(abstractType string) string {
	typ := r.schema.Types[abstractType]
	if typ == nil || len(typ.PossibleTypes) == 0 {
		return ""
	}
	return typ.PossibleTypes[0]
}

func scalar(name string) any {
	switch name {
	case "Int":
		return 42
	case "Float":
		return 4.2
	case "Boolean":
		return true
	case "ID":
		return uuid.NewString()
	default:
		return "Hello World"
	}
}

func unwrap(v any) any {
	if fn, ok := v.(func() any); ok {
		return fn()
	}
	return v
}
