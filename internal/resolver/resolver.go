// Package resolver defines the resolver maps data sources contribute and the
// namespacer that confines each source to its own slice of the request
// context.
package resolver

import (
	"context"
	"fmt"
	"reflect"

	schema "github.com/hanpama/gramps/internal/schema"
)

// FieldFunc resolves one field. ctx is the request context as seen by the
// resolver: the full RequestContext at the schema boundary, or a single
// namespace slice once wrapped by Namespace.
type FieldFunc func(source any, args map[string]any, ctx any, info *Info) (any, error)

// TypeFunc names the concrete object type of an interface or union value.
// It is stored under the TypeResolverKey of an abstract type's entry.
type TypeFunc func(value any, ctx any, info *Info) (string, error)

// TypeResolverKey is the reserved Object key holding a TypeFunc.
const TypeResolverKey = "__resolveType"

// Info describes the field being resolved.
type Info struct {
	Context    context.Context
	ParentType string
	FieldName  string
	ReturnType *schema.TypeRef
	Path       []any
	Schema     *schema.Schema
}

// Map maps GraphQL type names to their resolver entries. An entry is an
// Object, a plain map[string]any (treated as an Object) or an Opaque value.
type Map map[string]any

// Object maps field names of one type to FieldFuncs.
type Object map[string]any

// Opaque marks resolver map entries that are not field maps. They are carried
// through namespacing and merging untouched.
type Opaque interface {
	OpaqueResolver()
}

// Scalar defines a custom scalar.
type Scalar struct {
	Name       string
	Serialize  func(value any) (any, error)
	ParseValue func(value any) (any, error)
}

func (*Scalar) OpaqueResolver() {}

// Enum maps enum value names to their internal values.
type Enum map[string]any

func (Enum) OpaqueResolver() {}

// External returns the enum name for an internal value.
func (e Enum) External(internal any) (string, bool) {
	for name, v := range e {
		if reflect.DeepEqual(v, internal) {
			return name, true
		}
	}
	return "", false
}

// AsFieldFunc reports whether v is callable as a field resolver.
func AsFieldFunc(v any) (FieldFunc, bool) {
	switch fn := v.(type) {
	case FieldFunc:
		return fn, fn != nil
	case func(any, map[string]any, any, *Info) (any, error):
		return fn, fn != nil
	default:
		return nil, false
	}
}

// AsTypeFunc reports whether v is callable as a type resolver.
func AsTypeFunc(v any) (TypeFunc, bool) {
	switch fn := v.(type) {
	case TypeFunc:
		return fn, fn != nil
	case func(any, any, *Info) (string, error):
		return fn, fn != nil
	default:
		return nil, false
	}
}

// ObjectOf returns entry as an Object when it is a field map.
func ObjectOf(entry any) (Object, bool) {
	switch o := entry.(type) {
	case Object:
		return o, true
	case map[string]any:
		return Object(o), true
	default:
		return nil, false
	}
}

// Field looks up the resolver for typeName.fieldName.
func (m Map) Field(typeName, fieldName string) (FieldFunc, bool) {
	obj, ok := ObjectOf(m[typeName])
	if !ok {
		return nil, false
	}
	return AsFieldFunc(obj[fieldName])
}

// TypeResolver looks up the TypeFunc registered for an abstract type.
func (m Map) TypeResolver(typeName string) (TypeFunc, bool) {
	obj, ok := ObjectOf(m[typeName])
	if !ok {
		return nil, false
	}
	return AsTypeFunc(obj[TypeResolverKey])
}

// Scalar returns the custom scalar definition registered for typeName.
func (m Map) Scalar(typeName string) (*Scalar, bool) {
	s, ok := m[typeName].(*Scalar)
	return s, ok && s != nil
}

// Enum returns the internal values registered for typeName.
func (m Map) Enum(typeName string) (Enum, bool) {
	e, ok := m[typeName].(Enum)
	return e, ok
}

// Merge folds other into a copy of m. Objects merge field by field with
// other winning on collisions; any other entry is replaced.
func (m Map) Merge(other Map) Map {
	out := make(Map, len(m)+len(other))
	for k, v := range m {
		if obj, ok := ObjectOf(v); ok {
			cp := make(Object, len(obj))
			for f, fn := range obj {
				cp[f] = fn
			}
			out[k] = cp
			continue
		}
		out[k] = v
	}
	for k, v := range other {
		incoming, ok := ObjectOf(v)
		if !ok {
			out[k] = v
			continue
		}
		existing, ok := out[k].(Object)
		if !ok {
			existing = make(Object, len(incoming))
			out[k] = existing
		}
		for f, fn := range incoming {
			existing[f] = fn
		}
	}
	return out
}

// InvalidResolverError reports a resolver map entry that cannot be used.
type InvalidResolverError struct {
	Type  string
	Field string
	Value any
}

func (e *InvalidResolverError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("expected resolver object for %s but received type %T", e.Type, e.Value)
	}
	return fmt.Sprintf("expected function for %s.%s resolver but received type %T", e.Type, e.Field, e.Value)
}
