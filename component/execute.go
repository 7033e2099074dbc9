package component

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.uber.org/zap"

	eventbus "github.com/hanpama/graphql-component/internal/eventbus"
	events "github.com/hanpama/graphql-component/internal/events"
	language "github.com/hanpama/graphql-component/internal/language"
	memo "github.com/hanpama/graphql-component/internal/memo"
	reqid "github.com/hanpama/graphql-component/internal/reqid"
)

// Execute parses, validates and executes query against the component schema.
// Every failure, including a schema that does not compose, is reported in the
// result's errors.
func (c *Component) Execute(ctx context.Context, query string, opts ...ExecOption) (res *Result) {
	o := &execOptions{}
	for _, opt := range opts {
		opt(o)
	}
	ctx, id := reqid.Ensure(ctx)
	ctx = memo.Ensure(ctx)
	logger := c.logger.With(zap.String("request", id))

	start := time.Now()
	opType := ""
	defer func() {
		if p := recover(); p != nil {
			logger.Error("execution panicked", zap.Any("panic", p))
			res = errorResult(fmt.Errorf("execution panicked: %v", p))
		}
		if res.Errors != nil && len(res.Errors) == 0 {
			res.Errors = nil
		}
		errs := make([]error, len(res.Errors))
		for i := range res.Errors {
			errs[i] = res.Errors[i]
		}
		eventbus.Publish(ctx, events.ExecuteFinish{
			Component:     c.name,
			OperationName: o.operationName,
			OperationType: opType,
			Errors:        errs,
			Duration:      time.Since(start),
		})
		logger.Debug("executed", zap.Int("errors", len(errs)), zap.Duration("duration", time.Since(start)))
	}()

	s, err := c.Schema()
	if err != nil {
		return errorResult(err)
	}
	parsed, err := language.ParseQuery(query)
	if err != nil {
		return errorResult(err)
	}
	if op := selectOperation(parsed, o.operationName); op != nil {
		opType = string(op.Operation)
	}
	eventbus.Publish(ctx, events.ExecuteStart{Component: c.name, OperationName: o.operationName, OperationType: opType})

	doc, gerrs := gqlparser.LoadQuery(s.ast, s.fragments.Append(query, parsed))
	if len(gerrs) > 0 {
		return &Result{Errors: convertErrors(gerrs)}
	}
	return s.executor.ExecuteRequest(ctx, doc, o.operationName, o.variables, o.root)
}

// ExecuteDocument executes an already valid document against the component
// schema without validating it.
func (c *Component) ExecuteDocument(ctx context.Context, doc *QueryDocument, root any, variables map[string]any) *Result {
	s, err := c.Schema()
	if err != nil {
		return errorResult(err)
	}
	res := s.executor.ExecuteRequest(ctx, doc, "", variables, root)
	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res
}

func selectOperation(doc *ast.QueryDocument, name string) *ast.OperationDefinition {
	if name == "" {
		if len(doc.Operations) == 1 {
			return doc.Operations[0]
		}
		return nil
	}
	return doc.Operations.ForName(name)
}

func errorResult(err error) *Result {
	var list gqlerror.List
	if errors.As(err, &list) {
		return &Result{Errors: convertErrors(list)}
	}
	var gerr *gqlerror.Error
	if errors.As(err, &gerr) {
		return &Result{Errors: convertErrors(gqlerror.List{gerr})}
	}
	return &Result{Errors: []Error{{Message: err.Error()}}}
}

func convertErrors(list gqlerror.List) []Error {
	out := make([]Error, 0, len(list))
	for _, e := range list {
		ge := Error{Message: e.Message, Extensions: e.Extensions}
		for _, p := range e.Path {
			switch p := p.(type) {
			case ast.PathName:
				ge.Path = append(ge.Path, string(p))
			case ast.PathIndex:
				ge.Path = append(ge.Path, int(p))
			}
		}
		out = append(out, ge)
	}
	return out
}
