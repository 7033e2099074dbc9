package component

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type valuesKey struct{}

// ValuesFrom returns the context values attached by ContextBuilder.Build.
func ValuesFrom(ctx context.Context) map[string]any {
	v, _ := ctx.Value(valuesKey{}).(map[string]any)
	return v
}

type namedMiddleware struct {
	name string
	fn   Middleware
}

// ContextBuilder assembles the request context values of a component from
// its imports and its own factory.
type ContextBuilder struct {
	owner     *Component
	namespace string
	factory   ContextFactory

	mu         sync.RWMutex
	middleware []namedMiddleware
}

func newContextBuilder(owner *Component, namespace string, factory ContextFactory) *ContextBuilder {
	return &ContextBuilder{owner: owner, namespace: namespace, factory: factory}
}

// Use registers middleware run on the argument, in registration order,
// before any factory. An empty name registers it as "unknown".
func (b *ContextBuilder) Use(name string, fn Middleware) {
	if name == "" {
		name = "unknown"
	}
	b.owner.logger.Debug("adding middleware", zap.String("middleware", name))
	b.mu.Lock()
	b.middleware = append(b.middleware, namedMiddleware{name: name, fn: fn})
	b.mu.Unlock()
}

// Values runs the middleware and the composed factories and returns arg
// overlaid with their output.
func (b *ContextBuilder) Values(ctx context.Context, arg map[string]any) (map[string]any, error) {
	b.owner.logger.Debug("building root context")
	b.mu.RLock()
	middleware := append([]namedMiddleware(nil), b.middleware...)
	b.mu.RUnlock()

	for _, m := range middleware {
		b.owner.logger.Debug("applying middleware", zap.String("middleware", m.name))
		next, err := m.fn(ctx, arg)
		if err != nil {
			return nil, fmt.Errorf("middleware %s: %w", m.name, err)
		}
		arg = next
	}

	composed, err := b.compose(ctx, arg)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(arg)+len(composed))
	for k, v := range arg {
		out[k] = v
	}
	for k, v := range composed {
		out[k] = v
	}
	return out, nil
}

// Build attaches the values for arg to ctx. See ValuesFrom.
func (b *ContextBuilder) Build(ctx context.Context, arg map[string]any) (context.Context, error) {
	values, err := b.Values(ctx, arg)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, valuesKey{}, values), nil
}

// compose merges the composed values of every import, later imports
// overwriting earlier ones, then the factory output under the namespace.
func (b *ContextBuilder) compose(ctx context.Context, arg map[string]any) (map[string]any, error) {
	out := make(map[string]any)
	for _, imp := range b.owner.imports {
		ib := imp.Component.Context()
		if ib == nil {
			continue
		}
		v, err := ib.compose(ctx, arg)
		if err != nil {
			return nil, err
		}
		for k, val := range v {
			out[k] = val
		}
	}

	if b.factory == nil {
		return out, nil
	}
	b.owner.logger.Debug("building context", zap.String("namespace", b.namespace))
	v, err := b.factory(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("context %s: %w", b.namespace, err)
	}
	ns := make(map[string]any, len(v))
	if existing, ok := out[b.namespace].(map[string]any); ok {
		for k, val := range existing {
			ns[k] = val
		}
	}
	for k, val := range v {
		ns[k] = val
	}
	out[b.namespace] = ns
	return out, nil
}
