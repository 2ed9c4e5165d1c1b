// Package executable pairs validated type definitions with resolver maps and
// runs queries against them. It is the schema-build and schema-merge
// collaborator of the composition engine.
package executable

import (
	"context"
	"errors"
	"fmt"
	"strings"

	executor "github.com/hanpama/gramps/internal/executor"
	introspection "github.com/hanpama/gramps/internal/introspection"
	language "github.com/hanpama/gramps/internal/language"
	resolver "github.com/hanpama/gramps/internal/resolver"
	schema "github.com/hanpama/gramps/internal/schema"
)

// Schema is an executable schema: validated type definitions plus resolvers.
type Schema struct {
	AST       *language.Schema
	Model     *schema.Schema
	Resolvers resolver.Map

	typeDefs []string
}

// Config is the input of Make.
type Config struct {
	TypeDefs  []string
	Resolvers resolver.Map
	// AllowResolversNotInSchema skips the check that every resolver names an
	// existing type and field.
	AllowResolversNotInSchema bool
}

// ErrNoTypeDefs is returned by Make when no type definitions are given.
var ErrNoTypeDefs = errors.New("executable: no type definitions")

// UnknownResolverError reports a resolver for a type or field the schema does
// not declare.
type UnknownResolverError struct {
	Type  string
	Field string
}

func (e *UnknownResolverError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%q defined in resolvers, but not in schema", e.Type)
	}
	return fmt.Sprintf("%s.%s defined in resolvers, but not in schema", e.Type, e.Field)
}

// Make validates typeDefs and attaches resolvers.
func Make(cfg Config) (*Schema, error) {
	if len(cfg.TypeDefs) == 0 {
		return nil, ErrNoTypeDefs
	}
	src, err := language.LoadSchema(cfg.TypeDefs...)
	if err != nil {
		return nil, fmt.Errorf("executable: %w", err)
	}
	s := &Schema{
		AST:       src,
		Model:     schema.BuildFromAST(src),
		Resolvers: resolver.Map{},
		typeDefs:  append([]string(nil), cfg.TypeDefs...),
	}
	if err := s.attach(cfg.Resolvers, cfg.AllowResolversNotInSchema); err != nil {
		return nil, err
	}
	return s, nil
}

// TypeDefs returns the SDL fragments the schema was built from.
func (s *Schema) TypeDefs() []string {
	return append([]string(nil), s.typeDefs...)
}

// SDL renders the schema.
func (s *Schema) SDL() string {
	return schema.Render(s.Model)
}

// SetFieldResolver installs fn for typeName.fieldName and routes the field
// through the async batch.
func (s *Schema) SetFieldResolver(typeName, fieldName string, fn resolver.FieldFunc) {
	obj, ok := s.Resolvers[typeName].(resolver.Object)
	if !ok {
		obj = resolver.Object{}
		if existing, isObj := resolver.ObjectOf(s.Resolvers[typeName]); isObj {
			for k, v := range existing {
				obj[k] = v
			}
		}
		s.Resolvers[typeName] = obj
	}
	obj[fieldName] = fn
	if t := s.Model.Types[typeName]; t != nil {
		if f := t.Field(fieldName); f != nil {
			f.Async = true
		}
	}
}

// SetTypeResolver installs fn as the type resolver of an interface or union.
func (s *Schema) SetTypeResolver(typeName string, fn resolver.TypeFunc) {
	s.Resolvers = s.Resolvers.Merge(resolver.Map{typeName: resolver.Object{resolver.TypeResolverKey: fn}})
}

func (s *Schema) attach(m resolver.Map, allowUnknown bool) error {
	for typeName, entry := range m {
		t := s.Model.Types[typeName]
		if t == nil {
			if allowUnknown {
				continue
			}
			return &UnknownResolverError{Type: typeName}
		}
		obj, ok := resolver.ObjectOf(entry)
		if !ok {
			if _, opaque := entry.(resolver.Opaque); !opaque {
				return &resolver.InvalidResolverError{Type: typeName, Value: entry}
			}
			continue
		}
		for fieldName, leaf := range obj {
			if fieldName == resolver.TypeResolverKey {
				if _, ok := resolver.AsTypeFunc(leaf); !ok {
					return &resolver.InvalidResolverError{Type: typeName, Field: fieldName, Value: leaf}
				}
				continue
			}
			if strings.HasPrefix(fieldName, "__") {
				continue
			}
			if _, ok := resolver.AsFieldFunc(leaf); !ok {
				return &resolver.InvalidResolverError{Type: typeName, Field: fieldName, Value: leaf}
			}
			if t.Field(fieldName) == nil && !allowUnknown {
				return &UnknownResolverError{Type: typeName, Field: fieldName}
			}
		}
	}
	s.Resolvers = s.Resolvers.Merge(m)
	s.markAsync()
	return nil
}

func (s *Schema) markAsync() {
	for name, t := range s.Model.Types {
		for _, f := range t.Fields {
			if _, ok := s.Resolvers.Field(name, f.Name); ok {
				f.Async = true
			}
		}
	}
}

// Params describes one request.
type Params struct {
	Query         string
	OperationName string
	Variables     map[string]any
	Context       resolver.RequestContext
	Root          any
}

// Validate parses query and validates it against the schema.
func (s *Schema) Validate(query string) (*language.QueryDocument, error) {
	return language.LoadQuery(s.AST, query)
}

// Executor returns an executor bound to this schema's resolvers. The
// introspection fields __schema and __type are answered from the model.
func (s *Schema) Executor() *executor.Executor {
	w := introspection.Wrap(&runtime{s: s}, s.Model)
	return executor.NewExecutor(w.Runtime, w.Schema)
}

// Execute validates and runs a request. A RequestContext already stored on
// ctx is used when p.Context is nil.
func (s *Schema) Execute(ctx context.Context, p Params) *executor.ExecutionResult {
	doc, err := s.Validate(p.Query)
	if err != nil {
		return &executor.ExecutionResult{Errors: GraphQLErrors(err)}
	}
	if p.Context != nil {
		ctx = resolver.WithRequestContext(ctx, p.Context)
	}
	return s.Executor().ExecuteRequest(ctx, doc, p.OperationName, p.Variables, p.Root)
}

// GraphQLErrors converts parse and validation failures into response errors.
func GraphQLErrors(err error) []executor.GraphQLError {
	var list language.ErrorList
	if errors.As(err, &list) {
		out := make([]executor.GraphQLError, 0, len(list))
		for _, e := range list {
			out = append(out, fromLanguageError(e))
		}
		return out
	}
	var single *language.Error
	if errors.As(err, &single) {
		return []executor.GraphQLError{fromLanguageError(single)}
	}
	return []executor.GraphQLError{{Message: err.Error()}}
}

func fromLanguageError(e *language.Error) executor.GraphQLError {
	out := executor.GraphQLError{Message: e.Message}
	for _, loc := range e.Locations {
		out.Locations = append(out.Locations, executor.Location{Line: loc.Line, Column: loc.Column})
	}
	return out
}
