package component

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	delegate "github.com/hanpama/graphql-component/internal/delegate"
	executor "github.com/hanpama/graphql-component/internal/executor"
	schema "github.com/hanpama/graphql-component/internal/schema"
)

// runtime resolves fields of one component schema with its resolver map.
type runtime struct {
	owner         *Component
	schema        *schema.Schema
	fields        map[string]map[string]ResolverFunc
	typeResolvers map[string]TypeResolverFunc
	enums         map[string]map[string]any
	scalars       map[string]*Scalar
	limit         int
	logger        *zap.Logger
}

var _ executor.Runtime = (*runtime)(nil)

func newRuntime(c *Component, s *ast.Schema, resolvers ResolverMap) (*runtime, error) {
	r := &runtime{
		owner:         c,
		fields:        make(map[string]map[string]ResolverFunc),
		typeResolvers: make(map[string]TypeResolverFunc),
		enums:         make(map[string]map[string]any),
		scalars:       make(map[string]*Scalar),
		limit:         c.maxConcurrency,
		logger:        c.logger,
	}

	for typeName, v := range resolvers {
		def := s.Types[typeName]
		if def == nil {
			r.logger.Debug("skipping resolvers of unknown type", zap.String("type", typeName))
			continue
		}
		if sc, ok := v.(*Scalar); ok {
			if def.Kind != ast.Scalar {
				return nil, fmt.Errorf("%s is not a scalar", typeName)
			}
			r.scalars[typeName] = sc
			continue
		}
		fields, ok := v.(Fields)
		if !ok {
			return nil, fmt.Errorf("resolvers of %s: unsupported value %T", typeName, v)
		}
		switch def.Kind {
		case ast.Enum:
			remap := make(map[string]any, len(fields))
			for name, internal := range fields {
				if def.EnumValues.ForName(name) == nil {
					return nil, fmt.Errorf("enum %s has no value %s", typeName, name)
				}
				remap[name] = internal
			}
			r.enums[typeName] = remap
		case ast.Interface, ast.Union:
			if entry, ok := fields[resolveTypeKey]; ok {
				fn, ok := asTypeResolverFunc(entry)
				if !ok {
					return nil, fmt.Errorf("%s.%s: unsupported value %T", typeName, resolveTypeKey, entry)
				}
				r.typeResolvers[typeName] = fn
			}
		case ast.Object:
			for name, entry := range fields {
				if def.Fields.ForName(name) == nil {
					r.logger.Debug("skipping resolver of unknown field", zap.String("field", typeName+"."+name))
					continue
				}
				fn, ok := asResolverFunc(entry)
				if !ok {
					return nil, fmt.Errorf("%s.%s: unsupported resolver %T", typeName, name, entry)
				}
				r.set(typeName, name, fn)
			}
		default:
			return nil, fmt.Errorf("resolvers of %s: %s types take no resolvers", typeName, def.Kind)
		}
	}

	r.applyDirectives(s)
	return r, nil
}

func (r *runtime) set(typeName, field string, fn ResolverFunc) {
	m := r.fields[typeName]
	if m == nil {
		m = make(map[string]ResolverFunc)
		r.fields[typeName] = m
	}
	m[field] = fn
}

// applyDirectives wraps the resolvers of fields carrying a directive the
// owner implements. Directives on a type apply to each of its fields, before
// the field's own directives.
func (r *runtime) applyDirectives(s *ast.Schema) {
	impls := r.owner.directives
	if len(impls) == 0 {
		return
	}
	for typeName, def := range s.Types {
		if def.Kind != ast.Object || def.BuiltIn {
			continue
		}
		for _, f := range def.Fields {
			if strings.HasPrefix(f.Name, "__") {
				continue
			}
			applied := append(append(ast.DirectiveList(nil), def.Directives...), f.Directives...)
			for _, d := range applied {
				impl := impls[d.Name]
				if impl == nil {
					continue
				}
				next := r.fields[typeName][f.Name]
				if next == nil {
					next = defaultResolver(f.Name)
				}
				r.set(typeName, f.Name, impl(next, directiveArgs(s, d)))
				r.logger.Debug("applied directive", zap.String("directive", d.Name), zap.String("field", typeName+"."+f.Name))
			}
		}
	}
}

func directiveArgs(s *ast.Schema, d *ast.Directive) map[string]any {
	args := make(map[string]any)
	if def := s.Directives[d.Name]; def != nil {
		for _, a := range def.Arguments {
			if a.DefaultValue != nil {
				args[a.Name], _ = a.DefaultValue.Value(nil)
			}
		}
	}
	for _, a := range d.Arguments {
		args[a.Name], _ = a.Value.Value(nil)
	}
	return args
}

// HasResolver reports whether the field is backed by a resolver.
func (r *runtime) HasResolver(typeName, fieldName string) bool {
	return r.fields[typeName][fieldName] != nil
}

func (r *runtime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any, info *executor.ResolveInfo) (any, error) {
	fn := r.fields[objectType][field]
	if fn == nil {
		if obj, ok := source.(delegate.Object); ok && info != nil {
			return obj[info.ResponseKey()], nil
		}
		return project(source, field)
	}
	return r.call(ctx, fn, objectType, field, source, args, info)
}

// BatchResolveAsync runs the tasks of one depth concurrently, bounded by the
// component's concurrency limit. Mutation root fields run one after another
// in task order.
func (r *runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	var g errgroup.Group
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}
	for i, t := range tasks {
		i, t := i, t
		if r.schema != nil && r.schema.MutationType != "" && t.ObjectType == r.schema.MutationType {
			results[i] = r.resolveTask(ctx, t)
			continue
		}
		g.Go(func() error {
			results[i] = r.resolveTask(ctx, t)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *runtime) resolveTask(ctx context.Context, t executor.AsyncResolveTask) executor.AsyncResolveResult {
	v, err := r.ResolveSync(ctx, t.ObjectType, t.Field, t.Source, t.Args, t.Info)
	return executor.AsyncResolveResult{Value: v, Error: err}
}

func (r *runtime) call(ctx context.Context, fn ResolverFunc, objectType, field string, source any, args map[string]any, info *executor.ResolveInfo) (v any, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("resolver panicked", zap.String("field", objectType+"."+field), zap.Any("panic", p))
			v, err = nil, fmt.Errorf("resolver %s.%s panicked: %v", objectType, field, p)
		}
	}()
	return fn(ctx, ResolveParams{
		Source:    source,
		Args:      r.parseArgs(objectType, field, args),
		Info:      info,
		Component: r.owner,
	})
}

func (r *runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	if fn := r.typeResolvers[abstractType]; fn != nil {
		return fn(ctx, value)
	}
	if name, ok := delegate.Typename(value); ok {
		return name, nil
	}
	if value != nil {
		t := reflect.TypeOf(value)
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		if r.schema != nil && r.schema.IsPossibleType(abstractType, t.Name()) {
			return t.Name(), nil
		}
	}
	return "", fmt.Errorf("cannot resolve the concrete type of %s for value %T", abstractType, value)
}

func (r *runtime) ResolveUnionConcreteValue(ctx context.Context, unionTypeName string, value any) (any, error) {
	return value, nil
}

func (r *runtime) ResolveInterfaceConcreteValue(ctx context.Context, interfaceTypeName string, value any) (any, error) {
	return value, nil
}

func (r *runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if sc := r.scalars[typeName]; sc != nil && sc.Serialize != nil {
		return sc.Serialize(value)
	}
	if remap, ok := r.enums[typeName]; ok {
		for name, internal := range remap {
			if reflect.DeepEqual(internal, value) {
				return name, nil
			}
		}
	}
	switch typeName {
	case "Int":
		return serializeInt(value)
	case "Float":
		return serializeFloat(value)
	case "String":
		return serializeString(value)
	case "Boolean":
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("Boolean cannot represent a non boolean value: %v", value)
	case "ID":
		switch v := value.(type) {
		case string:
			return v, nil
		case int, int32, int64, uint, uint32, uint64:
			return fmt.Sprint(v), nil
		}
		return nil, fmt.Errorf("ID cannot represent value: %v", value)
	}
	if t := r.schema.Types[typeName]; t != nil && t.Kind == schema.TypeKindEnum {
		name := fmt.Sprint(value)
		for _, ev := range t.EnumValues {
			if ev.Name == name {
				return name, nil
			}
		}
		return nil, fmt.Errorf("enum %s cannot represent value: %v", typeName, value)
	}
	return value, nil
}

// parseArgs converts argument values of custom scalars and remapped enums
// to their internal form. args is not modified.
func (r *runtime) parseArgs(objectType, field string, args map[string]any) map[string]any {
	if len(args) == 0 || (len(r.scalars) == 0 && len(r.enums) == 0) || r.schema == nil {
		return args
	}
	t := r.schema.Types[objectType]
	if t == nil {
		return args
	}
	f := t.Field(field)
	if f == nil {
		return args
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	for _, arg := range f.Arguments {
		if v, ok := out[arg.Name]; ok {
			out[arg.Name] = r.parseInput(arg.Type, v)
		}
	}
	return out
}

func (r *runtime) parseInput(t *schema.TypeRef, v any) any {
	if v == nil {
		return nil
	}
	if schema.IsNonNull(t) {
		return r.parseInput(schema.Unwrap(t), v)
	}
	if schema.IsList(t) {
		items, ok := v.([]any)
		if !ok {
			return v
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = r.parseInput(schema.Unwrap(t), item)
		}
		return out
	}
	name := schema.GetNamedType(t)
	if sc := r.scalars[name]; sc != nil && sc.ParseValue != nil {
		if parsed, err := sc.ParseValue(v); err == nil {
			return parsed
		}
		return v
	}
	if remap, ok := r.enums[name]; ok {
		if s, ok := v.(string); ok {
			if internal, ok := remap[s]; ok {
				return internal
			}
		}
		return v
	}
	typ := r.schema.Types[name]
	if typ == nil || typ.Kind != schema.TypeKindInputObject {
		return v
	}
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for k, fv := range m {
		out[k] = fv
	}
	for _, field := range typ.InputFields {
		if fv, ok := out[field.Name]; ok {
			out[field.Name] = r.parseInput(field.Type, fv)
		}
	}
	return out
}

// defaultResolver reads field from the parent value.
func defaultResolver(field string) ResolverFunc {
	return func(ctx context.Context, p ResolveParams) (any, error) {
		return project(p.Source, field)
	}
}

// project returns the entry of a map or the field of a struct named field.
// Struct fields match their json tag name first and their Go name otherwise,
// ignoring case.
func project(source any, field string) (any, error) {
	if source == nil {
		return nil, nil
	}
	if m, ok := source.(map[string]any); ok {
		return m[field], nil
	}
	v := reflect.ValueOf(source)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, nil
		}
		e := v.MapIndex(reflect.ValueOf(field).Convert(v.Type().Key()))
		if !e.IsValid() {
			return nil, nil
		}
		return e.Interface(), nil
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			if tag, _, _ := strings.Cut(sf.Tag.Get("json"), ","); tag == field {
				return v.Field(i).Interface(), nil
			}
		}
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if sf.IsExported() && strings.EqualFold(sf.Name, field) {
				return v.Field(i).Interface(), nil
			}
		}
	}
	return nil, nil
}

func serializeInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return int(v), nil
		}
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		if v <= math.MaxInt32 {
			return int(v), nil
		}
	case float32:
		if float64(v) == math.Trunc(float64(v)) {
			return int(v), nil
		}
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt32 && v <= math.MaxInt32 {
			return int(v), nil
		}
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	return nil, fmt.Errorf("Int cannot represent value: %v", value)
}

func serializeFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return nil, fmt.Errorf("Float cannot represent value: %v", value)
}

func serializeString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int, int32, int64, float32, float64:
		return fmt.Sprint(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return nil, fmt.Errorf("String cannot represent value: %v", value)
}
