package executor

import (
	"context"
	"errors"
	"strings"
	"sync"

	schema "github.com/hanpama/gramps/internal/schema"
)

// MockResolver resolves one field instance for MockRuntime.
type MockResolver func(ctx context.Context, source any, args map[string]any) (any, error)

const (
	CallKindSync  = "sync"
	CallKindAsync = "async"
)

func NewMockValueResolver(val any) MockResolver {
	return func(context.Context, any, map[string]any) (any, error) { return val, nil }
}

func NewMockErrorResolver(err error) MockResolver {
	return func(context.Context, any, map[string]any) (any, error) { return nil, err }
}

// Call records one resolved field instance. Async calls made in the same
// flush share a BatchID starting at 1; sync calls have BatchID 0.
type Call struct {
	Kind       string
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
	BatchID    int
}

// MockRuntime is a Runtime backed by a map of "Type.field" resolvers that
// records every call it serves. Fields without a resolver resolve to nil.
// Abstract values resolve through their "__typename" key by default.
type MockRuntime struct {
	mu        sync.Mutex
	resolvers map[string]MockResolver
	calls     []Call
	batches   int

	typeResolver func(value any) (string, error)
	serializer   func(val any, t schema.TypeRef) (any, error)
}

var errNoTypename = errors.New("cannot resolve type")

func NewMockRuntime(resolvers map[string]MockResolver) *MockRuntime {
	m := &MockRuntime{
		resolvers: make(map[string]MockResolver, len(resolvers)),
		typeResolver: func(value any) (string, error) {
			if obj, ok := value.(map[string]any); ok {
				if name, ok := obj["__typename"].(string); ok {
					return name, nil
				}
			}
			return "", errNoTypename
		},
	}
	for k, r := range resolvers {
		m.resolvers[k] = r
	}
	return m
}

func (m *MockRuntime) SetResolver(objectType, field string, r MockResolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolvers[objectType+"."+field] = r
}

// SetTypeResolver replaces the abstract type resolver of r if it is a
// *MockRuntime.
func SetTypeResolver(r Runtime, f func(value any) (string, error)) {
	if m, ok := r.(*MockRuntime); ok {
		m.mu.Lock()
		m.typeResolver = f
		m.mu.Unlock()
	}
}

// SetSerializer replaces the leaf serializer of r if it is a *MockRuntime.
// The default passes values through.
func SetSerializer(r Runtime, f func(val any, t schema.TypeRef) (any, error)) {
	if m, ok := r.(*MockRuntime); ok {
		m.mu.Lock()
		m.serializer = f
		m.mu.Unlock()
	}
}

func (m *MockRuntime) resolver(key string) MockResolver {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolvers[key]
}

func (m *MockRuntime) record(c Call) {
	m.mu.Lock()
	m.calls = append(m.calls, c)
	m.mu.Unlock()
}

func (m *MockRuntime) call(ctx context.Context, key string, task FieldTask) FieldResult {
	r := m.resolver(key)
	if r == nil {
		return FieldResult{}
	}
	v, err := r(ctx, task.Source, task.Args)
	return FieldResult{Value: v, Error: err}
}

func (m *MockRuntime) ResolveSync(ctx context.Context, task FieldTask) (any, error) {
	res := m.call(ctx, task.ObjectType+"."+task.Field, task)
	m.record(Call{Kind: CallKindSync, ObjectType: task.ObjectType, Field: task.Field, Source: task.Source, Args: task.Args})
	if res.Error != nil {
		return nil, res.Error
	}
	return res.Value, nil
}

// BatchResolveAsync serves tasks grouped by "Type.field" in order of first
// appearance, so the call log lists each group contiguously.
func (m *MockRuntime) BatchResolveAsync(ctx context.Context, tasks []FieldTask) []FieldResult {
	if len(tasks) == 0 {
		return nil
	}
	var order []string
	groups := map[string][]int{}
	for i, t := range tasks {
		key := t.ObjectType + "." + t.Field
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	m.mu.Lock()
	m.batches++
	batch := m.batches
	m.mu.Unlock()

	results := make([]FieldResult, len(tasks))
	for _, key := range order {
		for _, i := range groups[key] {
			t := tasks[i]
			results[i] = m.call(ctx, key, t)
			m.record(Call{Kind: CallKindAsync, ObjectType: t.ObjectType, Field: t.Field, Source: t.Source, Args: t.Args, BatchID: batch})
		}
	}
	return results
}

func (m *MockRuntime) ResolveType(_ context.Context, _ string, value any) (string, error) {
	m.mu.Lock()
	f := m.typeResolver
	m.mu.Unlock()
	return f(value)
}

func (m *MockRuntime) SerializeLeafValue(_ context.Context, typeName string, value any) (any, error) {
	m.mu.Lock()
	f := m.serializer
	m.mu.Unlock()
	if f == nil {
		return value, nil
	}
	return f(value, *schema.NamedType(typeName))
}

// GetCalls returns a copy of the call log.
func (m *MockRuntime) GetCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Reset clears the call log and batch counter. Resolvers are kept.
func (m *MockRuntime) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.batches = 0
}

func splitKey(key string) (typeName, field string) {
	typeName, field, _ = strings.Cut(key, ".")
	return typeName, field
}
