// Package events defines the payloads published on the event bus while
// components execute operations.
package events

import "time"

// ExecuteStart is emitted before a component executes an operation.
type ExecuteStart struct {
	Component     string
	OperationName string
	OperationType string
}

// ExecuteFinish is emitted after a component executed an operation.
type ExecuteFinish struct {
	Component     string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// DelegateStart is emitted before a root field is delegated to the component
// that owns it. Path is the response path of the field in the calling operation.
type DelegateStart struct {
	Component string
	Field     string
	Path      string
}

// DelegateFinish is emitted after a delegation returned.
type DelegateFinish struct {
	Component string
	Field     string
	Path      string
	// Errors counts the errors reported by the delegated execution.
	Errors   int
	Err      error
	Duration time.Duration
}

// MemoLookup is emitted for every memoized root resolver call.
type MemoLookup struct {
	Resolver string
	Hit      bool
}
