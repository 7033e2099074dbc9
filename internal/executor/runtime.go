package executor

import (
	"context"
)

// Runtime is the host integration surface the Executor resolves fields through.
//
// General contract
//   - Execution is breadth-first. At each depth the Executor drains synchronous
//     fields via ResolveSync, then calls BatchResolveAsync once with every
//     async task collected at that depth. The next depth starts only after the
//     batch returns and its results are completed.
//   - ResolveSync is never invoked for fields marked async, and
//     BatchResolveAsync is only invoked with at least one task.
//   - Errors returned from any method become located GraphQL errors. For a
//     Non-Null field the null propagates to the nearest nullable ancestor.
//   - A value that is itself an error is completed as a located error at the
//     field's path. Runtimes may return such values inside objects and lists to
//     report partial failures.
//   - Implementations must be safe for concurrent use and must not mutate
//     source or args.
//
// Identifiers
//   - objectType is the parent GraphQL type name; field is the field name.
//   - source is the parent value (the root value for root fields).
//   - args are the field arguments, already coerced to Go values.
//   - info describes the selection being resolved and is shared read-only state.
//
// Ordering
//   - BatchResolveAsync returns exactly one result per task and results[i]
//     corresponds to tasks[i]. Elements fail independently. The order in which
//     an implementation actually runs the tasks is unspecified.
type Runtime interface {
	// ResolveSync resolves a field not marked async and returns the raw value
	// to be completed. Return (nil, nil) for a GraphQL null.
	ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any, info *ResolveInfo) (any, error)

	// BatchResolveAsync resolves one depth of async field tasks.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// ResolveType returns the concrete object type name of a value of an
	// interface or union type. The name must be a possible type of abstractType.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// ResolveUnionConcreteValue converts a union envelope value into its concrete
	// representation prior to completion.
	ResolveUnionConcreteValue(ctx context.Context, unionTypeName string, value any) (any, error)

	// ResolveInterfaceConcreteValue converts an interface envelope value into its
	// concrete representation prior to completion.
	ResolveInterfaceConcreteValue(ctx context.Context, interfaceTypeName string, value any) (any, error)

	// SerializeLeafValue serializes a scalar or enum value to a JSON-safe Go value.
	// Enums serialize to their symbolic name.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

type AsyncResolveTask struct {
	// ObjectType is the parent GraphQL object type name for the field.
	ObjectType string
	// Field is the GraphQL field name to resolve.
	Field string
	// Source is the parent object value (the root value for root fields).
	Source any
	// Args are the field arguments, coerced to Go values per the schema.
	Args map[string]any
	// Info describes the field's position and selection in the operation.
	Info *ResolveInfo
}

type AsyncResolveResult struct {
	// Value is the resolved raw value prior to completion, or nil on error.
	Value any
	// Error contains a failure specific to this element; other elements in the
	// same batch are unaffected.
	Error error
}
