package component

import (
	"context"

	"go.uber.org/zap"

	language "github.com/hanpama/graphql-component/internal/language"
	memo "github.com/hanpama/graphql-component/internal/memo"
)

// resolveTypeKey is the Fields entry holding an abstract type's TypeResolverFunc.
const resolveTypeKey = "__resolveType"

// wrapResolvers binds every resolver of m to c. Root resolvers are memoized
// per request. Other entries are kept as they are.
func (c *Component) wrapResolvers(m ResolverMap) ResolverMap {
	out := make(ResolverMap, len(m))
	for typeName, v := range m {
		fields, ok := v.(Fields)
		if !ok {
			out[typeName] = v
			continue
		}
		wrapped := make(Fields, len(fields))
		for name, entry := range fields {
			if _, ok := entry.(*proxyResolver); ok || name == resolveTypeKey {
				wrapped[name] = entry
				continue
			}
			fn, ok := asResolverFunc(entry)
			if !ok {
				wrapped[name] = entry
				continue
			}
			fn = c.bind(fn)
			if language.IsRootTypeName(typeName) {
				fn = memoize(memo.New(c.name+"."+typeName+"."+name), fn)
				c.logger.Debug("memoized resolver", zap.String("field", typeName+"."+name))
			}
			wrapped[name] = fn
		}
		out[typeName] = wrapped
	}
	return out
}

func (c *Component) bind(fn ResolverFunc) ResolverFunc {
	return func(ctx context.Context, p ResolveParams) (any, error) {
		p.Component = c
		return fn(ctx, p)
	}
}

// memoize shares results of fn between calls with equal arguments made with
// the same request context at the same response key.
func memoize(m *memo.Memoizer, fn ResolverFunc) ResolverFunc {
	return func(ctx context.Context, p ResolveParams) (any, error) {
		var position string
		if p.Info != nil {
			position = p.Info.ResponseKey()
		}
		return memo.Do(ctx, m, position, p.Args, func() (any, error) {
			return fn(ctx, p)
		})
	}
}

// asResolverFunc reports whether entry is a resolver and returns it as a ResolverFunc.
func asResolverFunc(entry any) (ResolverFunc, bool) {
	switch fn := entry.(type) {
	case ResolverFunc:
		return fn, fn != nil
	case func(context.Context, ResolveParams) (any, error):
		return fn, fn != nil
	case Resolver:
		return fn.Resolve, fn != nil
	}
	return nil, false
}

// asTypeResolverFunc converts an __resolveType entry.
func asTypeResolverFunc(entry any) (TypeResolverFunc, bool) {
	switch fn := entry.(type) {
	case TypeResolverFunc:
		return fn, fn != nil
	case func(context.Context, any) (string, error):
		return fn, fn != nil
	}
	return nil, false
}

// mergeResolverMaps merges maps in order. For field maps the first entry of
// a field wins; any other type entry is taken from the first map holding it.
func mergeResolverMaps(maps ...ResolverMap) ResolverMap {
	out := make(ResolverMap)
	for _, m := range maps {
		for typeName, v := range m {
			existing, ok := out[typeName]
			if !ok {
				if fields, ok := v.(Fields); ok {
					cp := make(Fields, len(fields))
					for k, f := range fields {
						cp[k] = f
					}
					out[typeName] = cp
				} else {
					out[typeName] = v
				}
				continue
			}
			into, ok := existing.(Fields)
			if !ok {
				continue
			}
			fields, ok := v.(Fields)
			if !ok {
				continue
			}
			for k, f := range fields {
				if _, ok := into[k]; !ok {
					into[k] = f
				}
			}
		}
	}
	return out
}
