// Package mock overlays generated field values on an executable schema.
package mock

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	executable "github.com/hanpama/gramps/internal/executable"
	resolver "github.com/hanpama/gramps/internal/resolver"
	schema "github.com/hanpama/gramps/internal/schema"
)

// Func produces a mock value for a type. Object and root type mocks return a
// map[string]any whose keys override individual fields; a value in that map
// may be a resolver.FieldFunc.
type Func func() any

// Map maps type names to mocks.
type Map map[string]Func

// Options configures Add.
type Options struct {
	Mocks Map
	// PreserveResolvers keeps existing resolvers. A nil result falls back to
	// the mock and a map result is merged over it.
	PreserveResolvers bool
	// Rand drives the default mocks. When nil a time-seeded source is used.
	Rand *rand.Rand
}

// ErrNilSchema is returned when Add is given no schema.
var ErrNilSchema = errors.New("mock: nil schema")

// ListLength is the number of items mocked for list fields.
const ListLength = 2

// Add installs a mock resolver on every object field of s.
func Add(s *executable.Schema, opts Options) error {
	if s == nil {
		return ErrNilSchema
	}
	m := &mocker{model: s.Model, mocks: opts.Mocks, rnd: opts.Rand}
	if m.rnd == nil {
		m.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	for _, t := range s.Model.Types {
		if strings.HasPrefix(t.Name, "__") {
			continue
		}
		switch t.Kind {
		case schema.TypeKindObject:
			for _, f := range t.Fields {
				var original resolver.FieldFunc
				if opts.PreserveResolvers {
					original, _ = s.Resolvers.Field(t.Name, f.Name)
				}
				s.SetFieldResolver(t.Name, f.Name, m.field(t.Name, f, original))
			}
		case schema.TypeKindInterface, schema.TypeKindUnion:
			if _, ok := s.Resolvers.TypeResolver(t.Name); ok && opts.PreserveResolvers {
				continue
			}
			s.SetTypeResolver(t.Name, typenameResolver(t.Name))
		}
	}
	return nil
}

type mocker struct {
	model *schema.Schema
	mocks Map

	mu  sync.Mutex
	rnd *rand.Rand
}

func (m *mocker) field(typeName string, f *schema.Field, original resolver.FieldFunc) resolver.FieldFunc {
	return func(source any, args map[string]any, ctx any, info *resolver.Info) (any, error) {
		if original == nil {
			return m.resolve(typeName, f, source, args, ctx, info)
		}
		real, err := original(source, args, ctx, info)
		if err != nil {
			return nil, err
		}
		if real != nil {
			realMap, isMap := real.(map[string]any)
			if !isMap {
				return real, nil
			}
			mocked, err := m.resolve(typeName, f, source, args, ctx, info)
			if mockedMap, ok := mocked.(map[string]any); ok && err == nil {
				return mergeUnder(mockedMap, realMap), nil
			}
			return real, nil
		}
		return m.resolve(typeName, f, source, args, ctx, info)
	}
}

func (m *mocker) resolve(typeName string, f *schema.Field, source any, args map[string]any, ctx any, info *resolver.Info) (any, error) {
	if parent, ok := source.(map[string]any); ok {
		if v, ok := parent[f.Name]; ok {
			return m.fromProvided(f, v, source, args, ctx, info)
		}
	}
	if m.model.IsRootType(typeName) {
		if rootMock, ok := m.mocks[typeName]; ok {
			if values, ok := rootMock().(map[string]any); ok {
				if v, ok := values[f.Name]; ok {
					return m.fromProvided(f, v, source, args, ctx, info)
				}
			}
		}
	}
	return m.value(f.Type)
}

// fromProvided finishes a value supplied by a parent or root mock. A type
// mock for the field's type fills keys the provided map lacks.
func (m *mocker) fromProvided(f *schema.Field, v any, source any, args map[string]any, ctx any, info *resolver.Info) (any, error) {
	if fn, ok := resolver.AsFieldFunc(v); ok {
		var err error
		if v, err = fn(source, args, ctx, info); err != nil {
			return nil, err
		}
	}
	provided, ok := v.(map[string]any)
	if !ok || f.Type.IsList() {
		return v, nil
	}
	typeMock, ok := m.mocks[f.Type.GetNamedType()]
	if !ok {
		return v, nil
	}
	if base, ok := typeMock().(map[string]any); ok {
		return mergeUnder(base, provided), nil
	}
	return v, nil
}

func (m *mocker) value(ref *schema.TypeRef) (any, error) {
	switch {
	case ref.IsNonNull():
		return m.value(ref.OfType)
	case ref.IsList():
		out := make([]any, ListLength)
		for i := range out {
			v, err := m.value(ref.OfType)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	return m.named(ref.Named)
}

func (m *mocker) named(name string) (any, error) {
	t := m.model.Types[name]
	if t == nil {
		return nil, fmt.Errorf("mock: unknown type %q", name)
	}
	if fn, ok := m.mocks[name]; ok {
		v := fn()
		if t.IsAbstract() {
			return m.tagged(t, v)
		}
		return v, nil
	}
	switch t.Kind {
	case schema.TypeKindEnum:
		if len(t.EnumValues) == 0 {
			return nil, nil
		}
		return t.EnumValues[m.intn(len(t.EnumValues))].Name, nil
	case schema.TypeKindObject:
		return map[string]any{}, nil
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return m.tagged(t, nil)
	case schema.TypeKindScalar:
		return m.scalar(name)
	}
	return nil, fmt.Errorf("no mock defined for type %q", name)
}

// tagged picks a concrete type for an abstract value and records it under
// __typename.
func (m *mocker) tagged(t *schema.Type, v any) (any, error) {
	obj, _ := v.(map[string]any)
	if _, ok := obj["__typename"]; ok {
		return obj, nil
	}
	if v != nil && obj == nil {
		return v, nil
	}
	if len(t.PossibleTypes) == 0 {
		return nil, fmt.Errorf("no mock defined for type %q", t.Name)
	}
	concrete := t.PossibleTypes[m.intn(len(t.PossibleTypes))]
	base, err := m.named(concrete)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if baseMap, ok := base.(map[string]any); ok {
		for k, v := range baseMap {
			out[k] = v
		}
	}
	for k, v := range obj {
		out[k] = v
	}
	out["__typename"] = concrete
	return out, nil
}

func (m *mocker) scalar(name string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch name {
	case "String":
		return "Hello World", nil
	case "Int":
		return m.rnd.Intn(201) - 100, nil
	case "Float":
		return m.rnd.Float64()*200 - 100, nil
	case "Boolean":
		return m.rnd.Intn(2) == 1, nil
	case "ID":
		id, err := uuid.NewRandomFromReader(m.rnd)
		if err != nil {
			return nil, err
		}
		return id.String(), nil
	}
	return nil, fmt.Errorf("no mock defined for type %q", name)
}

func (m *mocker) intn(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rnd.Intn(n)
}

func typenameResolver(abstractType string) resolver.TypeFunc {
	return func(value any, _ any, _ *resolver.Info) (string, error) {
		if obj, ok := value.(map[string]any); ok {
			if name, ok := obj["__typename"].(string); ok {
				return name, nil
			}
		}
		return "", fmt.Errorf("mock value for %s carries no __typename", abstractType)
	}
}

// mergeUnder returns base overlaid with top.
func mergeUnder(base, top map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(top))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range top {
		out[k] = v
	}
	return out
}
