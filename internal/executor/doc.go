// Package executor implements a breadth-first, batch-friendly GraphQL executor
// driven by a Runtime: synchronous resolution, depth-wise batches of
// asynchronous work, abstract-type resolution and leaf serialization.
//
// # Preparation
//
// Before execution, the executor:
//  1. Chooses the operation (by name, or by uniqueness when unnamed).
//  2. Coerces variables against the operation's variable definitions,
//     including input objects and enums known to the schema. Errors here stop
//     execution.
//  3. Determines the root object type (Query/Mutation/Subscription) and
//     collects the root selection set.
//
// Document validation is the caller's job; the executable package validates
// every query with gqlparser before it reaches this package.
//
// # Execution Model
//
// Every field instance becomes a FieldTask carrying the parent type, field
// name, source value, coerced arguments, response path, return type and AST
// nodes. schema.Field.Async classifies it:
//
//   - Sync fields are resolved at once via Runtime.ResolveSync and completed in
//     place. Purely synchronous descents do not add depth.
//   - Async fields are queued for the current depth and handed to
//     Runtime.BatchResolveAsync once per depth, after sync expansion.
//
// For a graph with asynchronous depth d, BatchResolveAsync is invoked exactly d
// times.
//
// # Value Completion
//
//   - Non-Null: a null inner result records a violation and propagates null to
//     the nearest nullable ancestor. Queued tasks under that path are dropped.
//   - List: elements complete with index-aware paths.
//   - Leaf: Runtime.SerializeLeafValue.
//   - Abstract: Runtime.ResolveType picks the object type, which must be a
//     possible type of the abstract type.
//   - Object: sub-selections are collected. Fragment type conditions match the
//     object type itself, any interface it implements and any union it belongs
//     to.
//
// # Errors and Partial Success
//
// Errors accumulate as located GraphQL errors (message + path). Extensions
// are kept when the resolver error is, or wraps, a GraphQLError or has an
// Extensions() map. Batch results are independent, so one failing element
// does not fail its siblings.
package executor
