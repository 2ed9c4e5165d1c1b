package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	language "github.com/hanpama/gramps/internal/language"
	schema "github.com/hanpama/gramps/internal/schema"
)

// Path is a response path: field names and list indices.
type Path []PathElement

type PathElement any

// NodeID identifies a queued async field within one request.
type NodeID uint64

// Executor runs validated documents against a schema through a Runtime.
// It holds no per-request state and may be shared between goroutines.
type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

// Schema returns the schema the executor was built over.
func (e *Executor) Schema() *schema.Schema { return e.schema }

// pending marks a response slot whose async field has not been flushed yet.
type pending struct{}

type queuedField struct {
	id   NodeID
	task FieldTask
}

type executionState struct {
	runtime        Runtime
	schema         *schema.Schema
	document       *language.QueryDocument
	variableValues map[string]any
	context        context.Context
	errors         []GraphQLError

	queue  []queuedField
	nextID NodeID
	// nulled holds rendered paths whose subtree was replaced by null.
	nulled map[string]struct{}
}

// ExecuteRequest runs operationName (or the only operation) of document with
// initialValue as the root source. Failures before execution starts produce a
// result with nil Data.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation := selectOperation(document, operationName)
	if operation == nil {
		return requestError("operation not found")
	}
	vars, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return requestError(err.Error())
	}
	rootType, err := e.rootType(operation.Operation)
	if err != nil {
		return requestError(err.Error())
	}

	state := &executionState{
		runtime:        e.runtime,
		schema:         e.schema,
		document:       document,
		variableValues: vars,
		context:        ctx,
		errors:         []GraphQLError{},
		nextID:         1,
		nulled:         map[string]struct{}{},
	}
	data := state.executeFields(rootType, operation.SelectionSet, initialValue, Path{})
	if data == nil {
		data = map[string]any{}
	}
	for len(state.queue) > 0 {
		state.flush(data)
	}
	return &ExecutionResult{Data: data, Errors: state.errors}
}

func requestError(msg string) *ExecutionResult {
	return &ExecutionResult{Errors: []GraphQLError{{Message: msg}}}
}

func (e *Executor) rootType(op language.Operation) (*schema.Type, error) {
	var t *schema.Type
	switch op {
	case language.Query:
		t = e.schema.GetQueryType()
	case language.Mutation:
		t = e.schema.GetMutationType()
	case language.Subscription:
		t = e.schema.GetSubscriptionType()
	default:
		return nil, fmt.Errorf("unsupported operation type: %s", op)
	}
	if t == nil {
		return nil, fmt.Errorf("root type not found for %s operation", op)
	}
	return t, nil
}

func selectOperation(document *language.QueryDocument, name string) *language.OperationDefinition {
	if name == "" {
		if len(document.Operations) == 1 {
			return document.Operations[0]
		}
		return nil
	}
	return document.Operations.ForName(name)
}

// executeFields resolves the selection set against objectType. Sync fields
// complete in place, async ones leave a pending slot. A nil map means a
// non-null child came back null and the whole object must be nulled; the
// root object never nulls itself.
func (s *executionState) executeFields(objectType *schema.Type, selectionSet language.SelectionSet, source any, path Path) map[string]any {
	out := make(map[string]any)
	for _, group := range collectFields(s, objectType, selectionSet).orderedFields() {
		fieldPath := appendPath(path, group.ResponseName)
		name := group.Fields[0].Name

		if name == "__typename" {
			out[group.ResponseName] = objectType.Name
			continue
		}
		def := getFieldDefinition(objectType, name)
		if def == nil {
			s.addError(fmt.Sprintf("Cannot query field '%s' on type '%s'", name, objectType.Name), fieldPath)
			continue
		}

		v := s.executeField(objectType, def, group.Fields, source, fieldPath)
		if isNullish(v) {
			if schema.IsNonNull(def.Type) && len(path) > 0 {
				return nil
			}
			v = nil
		}
		out[group.ResponseName] = v
	}
	return out
}

func (s *executionState) executeField(objectType *schema.Type, def *schema.Field, nodes []*language.Field, source any, path Path) any {
	task := FieldTask{
		ObjectType: objectType.Name,
		Field:      def.Name,
		Source:     source,
		Args:       coerceArgumentValues(def, nodes[0].Arguments, s.variableValues, s, path),
		Path:       path,
		ReturnType: def.Type,
		Nodes:      nodes,
	}
	if def.Async {
		s.queue = append(s.queue, queuedField{id: s.nextID, task: task})
		s.nextID++
		return pending{}
	}
	value, err := s.runtime.ResolveSync(s.context, task)
	if err != nil {
		s.fieldError(err, path)
		value = nil
	}
	return s.complete(def.Type, nodes, value, path)
}

// flush hands the current depth's queue to the runtime in one batch and
// writes the completed values into data. Completion may queue the next depth.
func (s *executionState) flush(data map[string]any) {
	batch := make([]queuedField, 0, len(s.queue))
	for _, q := range s.queue {
		if !s.isNulled(q.task.Path) {
			batch = append(batch, q)
		}
	}
	s.queue = nil

	tasks := make([]FieldTask, len(batch))
	for i, q := range batch {
		tasks[i] = q.task
	}
	for i, res := range s.resolveBatch(tasks) {
		s.completeQueued(batch[i].task, res, data)
	}
}

func (s *executionState) resolveBatch(tasks []FieldTask) []FieldResult {
	if len(tasks) == 0 {
		return nil
	}
	if err := s.context.Err(); err != nil {
		results := make([]FieldResult, len(tasks))
		for i := range results {
			results[i].Error = err
		}
		return results
	}
	results := s.runtime.BatchResolveAsync(s.context, tasks)
	for i := len(results); i < len(tasks); i++ {
		results = append(results, FieldResult{Error: fmt.Errorf("runtime returned no result for %s.%s", tasks[i].ObjectType, tasks[i].Field)})
	}
	return results[:len(tasks)]
}

func (s *executionState) completeQueued(task FieldTask, res FieldResult, data map[string]any) {
	if s.isNulled(task.Path) {
		return
	}
	var v any
	if res.Error != nil {
		s.fieldError(res.Error, task.Path)
	} else {
		v = s.complete(task.ReturnType, task.Nodes, res.Value, task.Path)
	}
	if isNullish(v) {
		if schema.IsNonNull(task.ReturnType) {
			// The parent object has already been written, so the null climbs
			// to the root field that owns this subtree.
			top := rootFieldPath(task.Path)
			setValueAtPath(data, top, nil)
			s.markNulled(top)
			return
		}
		v = nil
	}
	setValueAtPath(data, task.Path, v)
}

// complete turns a resolved value into its response form for fieldType.
func (s *executionState) complete(fieldType *schema.TypeRef, nodes []*language.Field, value any, path Path) any {
	if schema.IsNonNull(fieldType) {
		if isNullish(value) {
			if !s.hasErrorAt(path) {
				s.addError("Cannot return null for non-nullable field "+renderPath(path), path)
			}
			return nil
		}
		v := s.complete(schema.Unwrap(fieldType), nodes, value, path)
		if isNullish(v) {
			return nil
		}
		return v
	}
	if isNullish(value) {
		return nil
	}
	if schema.IsList(fieldType) {
		return s.completeList(fieldType, nodes, value, path)
	}

	name := schema.GetNamedType(fieldType)
	typ := s.schema.Types[name]
	if typ == nil {
		s.addError("Unknown type: "+name, path)
		return nil
	}
	switch typ.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		v, err := s.runtime.SerializeLeafValue(s.context, name, value)
		if err != nil {
			s.fieldError(err, path)
			return nil
		}
		return v
	case schema.TypeKindObject:
		return s.executeFields(typ, subSelections(nodes), value, path)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return s.completeAbstract(name, nodes, value, path)
	default:
		s.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", typ.Kind), path)
		return nil
	}
}

func (s *executionState) completeList(listType *schema.TypeRef, nodes []*language.Field, value any, path Path) any {
	items, ok := value.([]any)
	if !ok {
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			s.addError(fmt.Sprintf("Expected list value, got %T", value), path)
			return nil
		}
		items = make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
	}

	itemType := schema.Unwrap(listType)
	out := make([]any, len(items))
	for i, item := range items {
		v := s.complete(itemType, nodes, item, appendPath(path, i))
		if isNullish(v) {
			if schema.IsNonNull(itemType) {
				return nil
			}
			v = nil
		}
		out[i] = v
	}
	return out
}

func (s *executionState) completeAbstract(abstractType string, nodes []*language.Field, value any, path Path) any {
	typeName, err := s.runtime.ResolveType(s.context, abstractType, value)
	if err != nil {
		s.fieldError(err, path)
		return nil
	}
	typ := s.schema.Types[typeName]
	if typ == nil || typ.Kind != schema.TypeKindObject || !s.schema.IsPossibleType(abstractType, typeName) {
		s.addError(fmt.Sprintf("Abstract type %s must resolve to an Object type at runtime. Got: %s", abstractType, typeName), path)
		return nil
	}
	return s.executeFields(typ, subSelections(nodes), value, path)
}

func (s *executionState) addError(message string, path Path) {
	s.errors = append(s.errors, GraphQLError{Message: message, Path: path})
}

// fieldError records err at path. A GraphQLError returned by a resolver, for
// example from a delegated query, keeps its extensions, as does any error
// exposing Extensions().
func (s *executionState) fieldError(err error, path Path) {
	out := GraphQLError{Message: err.Error(), Path: path}
	var gqlErr GraphQLError
	var ext interface{ Extensions() map[string]any }
	switch {
	case errors.As(err, &gqlErr):
		out.Extensions = gqlErr.Extensions
	case errors.As(err, &ext):
		out.Extensions = ext.Extensions()
	}
	s.errors = append(s.errors, out)
}

func (s *executionState) hasErrorAt(path Path) bool {
	for _, e := range s.errors {
		if reflect.DeepEqual(e.Path, path) {
			return true
		}
	}
	return false
}

func (s *executionState) markNulled(p Path) {
	if len(p) > 0 {
		s.nulled[renderPath(p)] = struct{}{}
	}
}

// isNulled reports whether p or one of its ancestors was nulled.
func (s *executionState) isNulled(p Path) bool {
	if len(s.nulled) == 0 {
		return false
	}
	for i := 1; i <= len(p); i++ {
		if _, ok := s.nulled[renderPath(p[:i])]; ok {
			return true
		}
	}
	return false
}

// renderPath formats p as used in error messages, e.g. "list.[1].name".
func renderPath(p Path) string {
	var b strings.Builder
	for i, elem := range p {
		if i > 0 {
			b.WriteByte('.')
		}
		switch v := elem.(type) {
		case string:
			b.WriteString(v)
		case int:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(v))
			b.WriteByte(']')
		}
	}
	return b.String()
}

func appendPath(p Path, elem PathElement) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, elem)
}

func rootFieldPath(p Path) Path {
	for _, elem := range p {
		if name, ok := elem.(string); ok {
			return Path{name}
		}
	}
	return Path{}
}

// setValueAtPath writes value into the response tree, creating missing
// intermediate objects. Writes below a null are dropped.
func setValueAtPath(root map[string]any, p Path, value any) {
	if len(p) == 0 {
		return
	}
	var cur any = root
	for _, elem := range p[:len(p)-1] {
		switch e := elem.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return
			}
			next, ok := m[e]
			if !ok {
				next = map[string]any{}
				m[e] = next
			}
			cur = next
		case int:
			list, ok := cur.([]any)
			if !ok || e >= len(list) {
				return
			}
			cur = list[e]
		}
	}
	switch e := p[len(p)-1].(type) {
	case string:
		if m, ok := cur.(map[string]any); ok {
			m[e] = value
		}
	case int:
		if list, ok := cur.([]any); ok && e < len(list) {
			list[e] = value
		}
	}
}

func subSelections(nodes []*language.Field) language.SelectionSet {
	var out language.SelectionSet
	for _, f := range nodes {
		out = append(out, f.SelectionSet...)
	}
	return out
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	switch {
	case t == nil:
		return nil
	case t.NonNull:
		return schema.NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	case t.NamedType != "":
		return schema.NamedType(t.NamedType)
	case t.Elem != nil:
		return schema.ListType(typeRefFromAST(t.Elem))
	}
	return nil
}

// isNullish treats typed nils the same as a nil interface.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
