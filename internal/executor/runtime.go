package executor

import (
	"context"

	language "github.com/hanpama/gramps/internal/language"
	schema "github.com/hanpama/gramps/internal/schema"
)

// Runtime is the resolver surface the Executor drives.
//
// General contract
//   - The Executor performs a breadth-first execution. At each depth it drains all
//     synchronous fields first via ResolveSync, then calls BatchResolveAsync ONCE
//     with all async tasks collected at that depth. The next depth does not begin
//     until BatchResolveAsync returns and those results are completed.
//   - ResolveSync is never invoked for fields marked async, and BatchResolveAsync
//     is only invoked when there is at least one async field at the current depth.
//   - Errors returned from any method are converted into located GraphQL errors.
//     If the field's return type is Non-Null, the null propagates up to the
//     nearest nullable ancestor.
//   - The Executor may call these methods concurrently for different operations.
//     Implementations must not mutate task sources or arguments.
//
// Abstract types and leaf values
//   - ResolveType must return the concrete object type name for an interface or
//     union value.
//   - SerializeLeafValue must turn scalars and enums into JSON-safe Go values.
//     Enums serialize to their symbolic name.
//
// Partial success
//   - BatchResolveAsync returns one FieldResult per task, in task order. A
//     failure in one element leaves the others untouched.
//   - Tasks whose response paths were nullified by a Non-Null violation are
//     filtered out before the batch is handed over.
//   - Once ctx is done, queued batches are not handed over; their fields fail
//     with ctx.Err().
type Runtime interface {
	// ResolveSync resolves a field declared sync (Async == false). Return
	// (nil, nil) to produce a GraphQL null for nullable fields.
	ResolveSync(ctx context.Context, task FieldTask) (any, error)

	// BatchResolveAsync resolves one execution depth of async field tasks.
	// len(results) must equal len(tasks) and results[i] answers tasks[i].
	BatchResolveAsync(ctx context.Context, tasks []FieldTask) []FieldResult

	// ResolveType determines the concrete type name for a value of an abstract
	// type. The name must be a possible type of abstractType.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue serializes a scalar or enum value.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

// FieldTask describes a single field instance to resolve.
type FieldTask struct {
	// ObjectType is the parent GraphQL object type name for the field.
	ObjectType string
	// Field is the GraphQL field name to resolve.
	Field string
	// Source is the parent object value (the root value for root fields).
	Source any
	// Args are the field arguments, coerced to Go values per the schema.
	Args map[string]any
	// Path is the response path of this field instance.
	Path Path
	// ReturnType is the declared type of the field.
	ReturnType *schema.TypeRef
	// Nodes are the merged AST field nodes sharing this response name.
	Nodes []*language.Field
}

type FieldResult struct {
	// Value is the resolved raw value prior to completion, or nil on error.
	Value any
	// Error contains a failure specific to this element.
	Error error
}
