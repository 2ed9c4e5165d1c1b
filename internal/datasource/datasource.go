// Package datasource describes the units of composition: a namespace, its
// type definitions, resolvers, mocks, request context and stitching
// extensions.
package datasource

import (
	"fmt"
	"net/http"

	executable "github.com/hanpama/gramps/internal/executable"
	mock "github.com/hanpama/gramps/internal/mock"
	resolver "github.com/hanpama/gramps/internal/resolver"
)

// DataSource is one independently authored part of the composite schema.
type DataSource struct {
	// Namespace keys the source's context slice. Required.
	Namespace string
	TypeDefs  TypeDefs
	// Deprecated: Schema is the legacy name of TypeDefs. It is read only when
	// TypeDefs is empty.
	Schema    string
	Resolvers resolver.Map
	Mocks     mock.Map
	Context   Context
	// Deprecated: Model is the legacy name of Context. It is read only when
	// Context is empty.
	Model     Context
	Stitching *Stitching

	// PrefixTypes renames the source's non-base types to Namespace_Type.
	PrefixTypes bool
	// NamespaceQuery nests the source's Query under a root field named after
	// Namespace.
	NamespaceQuery bool
}

// Stitching declares fields a source adds to other sources' types.
type Stitching struct {
	LinkTypeDefs TypeDefs
	Resolvers    func(info *executable.MergeInfo) resolver.Map
}

// UsesLegacySchema reports whether the source relies on the Schema field.
func (ds *DataSource) UsesLegacySchema() bool {
	return ds.Schema != "" && ds.TypeDefs.IsZero()
}

// SourceTypeDefs returns TypeDefs, falling back to the legacy Schema field.
func (ds *DataSource) SourceTypeDefs() TypeDefs {
	if ds.UsesLegacySchema() {
		return Static(ds.Schema)
	}
	return ds.TypeDefs
}

// ContextFor evaluates the source's context for r, falling back to Model.
func (ds *DataSource) ContextFor(r *http.Request) any {
	if !ds.Context.IsZero() {
		return ds.Context.Evaluate(r)
	}
	return ds.Model.Evaluate(r)
}

// TypeDefs holds type definitions as text, a sequence of text, or a factory
// producing either. Resolve flattens it.
type TypeDefs struct {
	value any
}

// Static wraps literal SDL fragments.
func Static(sdl ...string) TypeDefs {
	if len(sdl) == 0 {
		return TypeDefs{}
	}
	return TypeDefs{value: append([]string(nil), sdl...)}
}

// Lazy defers type definitions to fn. fn runs on every Resolve.
func Lazy(fn func() TypeDefs) TypeDefs {
	return TypeDefs{value: fn}
}

// Of accepts any supported form: string, []string, TypeDefs, []TypeDefs,
// []any of those, or a func() returning one of them. Unsupported values
// surface as a TypeDefsError from Resolve.
func Of(v any) TypeDefs {
	if td, ok := v.(TypeDefs); ok {
		return td
	}
	return TypeDefs{value: v}
}

// IsZero reports whether no type definitions were given.
func (td TypeDefs) IsZero() bool {
	return td.value == nil
}

// Resolve returns the flattened, ordered SDL fragments.
func (td TypeDefs) Resolve() ([]string, error) {
	return flatten(td.value)
}

func flatten(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{t}, nil
	case []string:
		return append([]string(nil), t...), nil
	case TypeDefs:
		return flatten(t.value)
	case []TypeDefs:
		var out []string
		for _, item := range t {
			defs, err := flatten(item.value)
			if err != nil {
				return nil, err
			}
			out = append(out, defs...)
		}
		return out, nil
	case []any:
		var out []string
		for _, item := range t {
			if item == nil {
				return nil, &TypeDefsError{Value: item}
			}
			defs, err := flatten(item)
			if err != nil {
				return nil, err
			}
			out = append(out, defs...)
		}
		return out, nil
	case func() TypeDefs:
		return flatten(t())
	case func() string:
		return flatten(t())
	case func() []string:
		return flatten(t())
	case func() any:
		return flatten(t())
	}
	return nil, &TypeDefsError{Value: v}
}

// TypeDefsError reports a type definition element that is not text.
type TypeDefsError struct {
	Value any
}

func (e *TypeDefsError) Error() string {
	return fmt.Sprintf("unexpected type in typeDefs: %T", e.Value)
}

// Context is a source's request context: a static value or a function of
// the request.
type Context struct {
	static any
	fn     func(*http.Request) any
}

// StaticContext returns a Context that always yields v.
func StaticContext(v any) Context {
	return Context{static: v}
}

// ContextFunc returns a Context evaluated per request.
func ContextFunc(fn func(*http.Request) any) Context {
	return Context{fn: fn}
}

// IsZero reports whether the Context was never set.
func (c Context) IsZero() bool {
	return c.static == nil && c.fn == nil
}

// Evaluate produces the context value for r.
func (c Context) Evaluate(r *http.Request) any {
	if c.fn != nil {
		return c.fn(r)
	}
	return c.static
}
