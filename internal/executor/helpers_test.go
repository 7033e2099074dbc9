package executor

import (
	"context"
	"sync"
	"testing"

	language "github.com/hanpama/graphql-component/internal/language"
	schema "github.com/hanpama/graphql-component/internal/schema"
)

// mustParseQuery parses a GraphQL query and fails the test on error.
func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

func newSchemaWithQueryType(query *schema.Type, additional ...*schema.Type) *schema.Schema {
	sch := schema.NewSchema("")
	if query != nil {
		sch.SetQueryType(query.Name)
		sch.AddType(query)
	}
	for _, t := range additional {
		sch.AddType(t)
	}
	return sch
}

func newObjectType(name string, fields ...*schema.Field) *schema.Type {
	t := schema.NewType(name, schema.TypeKindObject, "")
	for _, field := range fields {
		t.AddField(field)
	}
	return t
}

func newScalarType(name string) *schema.Type {
	return schema.NewType(name, schema.TypeKindScalar, "")
}

// project returns a resolver reading key from a map source.
func project(key string) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		m, _ := source.(map[string]any)
		return m[key], nil
	}
}

// recordingRuntime captures the ResolveInfo of every async task.
type recordingRuntime struct {
	*MockRuntime
	mu    sync.Mutex
	infos []*ResolveInfo
}

func (r *recordingRuntime) BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult {
	r.mu.Lock()
	for _, task := range tasks {
		r.infos = append(r.infos, task.Info)
	}
	r.mu.Unlock()
	return r.MockRuntime.BatchResolveAsync(ctx, tasks)
}
