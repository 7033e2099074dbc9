package component

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	delegate "github.com/hanpama/graphql-component/internal/delegate"
	eventbus "github.com/hanpama/graphql-component/internal/eventbus"
	events "github.com/hanpama/graphql-component/internal/events"
	language "github.com/hanpama/graphql-component/internal/language"
)

// proxyResolver resolves a root field by delegating it to the component
// that owns it.
type proxyResolver struct {
	target Composable
	logger *zap.Logger
}

// ProxyResolver returns a resolver that delegates its field to target. A
// proxy placed in a resolver map is used as is and never wrapped again.
func ProxyResolver(target Composable) Resolver {
	return &proxyResolver{target: target, logger: zap.NewNop()}
}

func (p *proxyResolver) Resolve(ctx context.Context, params ResolveParams) (any, error) {
	return delegateTo(ctx, p.target, params.Info, p.logger)
}

// DelegateToComponent executes the field described by info against target
// as if the operation had been sent to it, and returns the field's value.
// Errors target reports below the field are returned inside the value at
// their paths.
func DelegateToComponent(ctx context.Context, target Composable, info *ResolveInfo) (any, error) {
	return delegateTo(ctx, target, info, zap.NewNop())
}

func delegateTo(ctx context.Context, target Composable, info *ResolveInfo, logger *zap.Logger) (any, error) {
	if info == nil {
		return nil, errors.New("delegation requires resolve info")
	}
	s, err := target.Schema()
	if err != nil {
		return nil, err
	}
	path := info.Path.String()
	logger.Debug("delegating field",
		zap.String("target", target.Name()),
		zap.String("field", info.ParentType+"."+info.FieldName),
		zap.String("path", path))

	eventbus.Publish(ctx, events.DelegateStart{Component: target.Name(), Field: info.FieldName, Path: path})
	start := time.Now()
	res := &countingTarget{Composable: target, logger: logger}
	v, err := delegate.Delegate(ctx, res, info, s.HasField)
	eventbus.Publish(ctx, events.DelegateFinish{
		Component: target.Name(),
		Field:     info.FieldName,
		Path:      path,
		Errors:    res.errors,
		Err:       err,
		Duration:  time.Since(start),
	})
	return v, err
}

// countingTarget records how many errors the delegated execution reported.
type countingTarget struct {
	Composable
	logger *zap.Logger
	errors int
}

func (t *countingTarget) ExecuteDocument(ctx context.Context, doc *QueryDocument, root any, variables map[string]any) *Result {
	if ce := t.logger.Check(zap.DebugLevel, "delegated document"); ce != nil {
		ce.Write(zap.String("target", t.Name()), zap.String("query", language.FormatQuery(doc)))
	}
	res := t.Composable.ExecuteDocument(ctx, doc, root, variables)
	t.errors = len(res.Errors)
	return res
}
