// Package executor implements a breadth-first GraphQL executor with explicit
// runtime hooks for synchronous resolution, depth-wise batching of
// resolver-backed fields, abstract-type resolution and leaf serialization.
//
// # Overview
//
// Execution proceeds level by level:
//   - Fields marked schema.Field.Async == false are projections of their parent
//     value. They are resolved immediately through Runtime.ResolveSync and
//     expanded without adding depth.
//   - Fields marked Async are queued. Once the current depth has been expanded,
//     the queue is handed to Runtime.BatchResolveAsync in a single call, and
//     the results are completed. Async children found while completing are
//     queued for the following batch.
//
// For an operation whose deepest chain of resolver-backed fields has length d,
// BatchResolveAsync is invoked exactly d times.
//
// # Preparation
//
// The operation is selected by name, or by uniqueness when no name is given.
// Variables are coerced against the operation's variable definitions
// (input objects, enums and the built-in scalars are checked; custom scalars
// pass through). A coercion failure stops execution with a single error.
//
// # Resolve info
//
// Every resolution receives a ResolveInfo carrying the response path, the
// merged field nodes, the operation, the document's fragments, the root value
// and the coerced variables. This is enough to rebuild the selection rooted at
// the field and re-execute it elsewhere.
//
// # Value completion
//
//   - Non-Null: complete the inner type; a null result records a violation and
//     nulls the top-level field that contains it.
//   - List: complete each element with an index-aware path. A null element of a
//     Non-Null item type nulls the whole list.
//   - Leaf: Runtime.SerializeLeafValue.
//   - Abstract: Runtime.ResolveType picks the concrete type, which must be a
//     possible type of the abstract type.
//   - Object: collect subfields. Fragment type conditions naming an interface or
//     union apply to their possible types.
//   - A value that is an error is reported as a located error at its path.
//
// # Errors and partial success
//
// Errors accumulate as located errors (message and path); the rest of the
// response keeps resolving. Tasks queued below a nulled path are dropped before
// the next batch.
package executor
