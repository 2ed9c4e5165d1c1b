package introspection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	executor "github.com/hanpama/gramps/internal/executor"
	schema "github.com/hanpama/gramps/internal/schema"
)

// Wrapper pairs a runtime answering introspection fields with the schema
// those fields are declared on.
type Wrapper struct {
	Runtime executor.Runtime
	Schema  *schema.Schema
}

// Wrap returns a runtime that answers __schema, __type and the fields of the
// introspection types, delegating every other field to base. sch is left
// untouched; the returned schema is a copy with the introspection types and
// root fields added.
func Wrap(base executor.Runtime, sch *schema.Schema) *Wrapper {
	extended := extendSchemaWithIntrospection(sch)
	return &Wrapper{
		Runtime: &runtime{base: base, extended: extended, schema: sch},
		Schema:  extended,
	}
}

type runtime struct {
	base     executor.Runtime
	extended *schema.Schema
	schema   *schema.Schema
}

func (r *runtime) ResolveSync(ctx context.Context, task executor.FieldTask) (any, error) {
	if v, ok := r.resolveMeta(task); ok {
		return v, nil
	}
	return r.base.ResolveSync(ctx, task)
}

func (r *runtime) BatchResolveAsync(ctx context.Context, tasks []executor.FieldTask) []executor.FieldResult {
	return r.base.BatchResolveAsync(ctx, tasks)
}

func (r *runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	return r.base.ResolveType(ctx, abstractType, value)
}

func (r *runtime) SerializeLeafValue(ctx context.Context, typ string, value any) (any, error) {
	switch typ {
	case "__TypeKind", "__DirectiveLocation":
		return fmt.Sprint(value), nil
	}
	return r.base.SerializeLeafValue(ctx, typ, value)
}

// resolveMeta answers a field whose source is one of the schema model
// values handed out by __schema and __type.
func (r *runtime) resolveMeta(task executor.FieldTask) (any, bool) {
	switch src := task.Source.(type) {
	case *schema.Schema:
		return r.schemaField(src, task.Field)
	case *schema.Type:
		return r.typeField(src, task.Field, task.Args)
	case *schema.TypeRef:
		return r.typeRefField(src, task.Field, task.Args)
	case *schema.Field:
		return fieldField(src, task.Field, task.Args)
	case *schema.InputValue:
		return inputValueField(src, task.Field)
	case *schema.EnumValue:
		return enumValueField(src, task.Field)
	case *schema.Directive:
		return directiveField(src, task.Field, task.Args)
	}
	if task.ObjectType != r.extended.QueryType {
		return nil, false
	}
	switch task.Field {
	case "__schema":
		return r.schema, true
	case "__type":
		name, _ := task.Args["name"].(string)
		if t := r.lookup(name); t != nil {
			return t, true
		}
		return nil, true
	}
	return nil, false
}

// lookup finds a named type as clients see it: original types plus the
// introspection types, never the extended query root.
func (r *runtime) lookup(name string) *schema.Type {
	if t := r.schema.Types[name]; t != nil {
		return t
	}
	if strings.HasPrefix(name, "__") {
		return r.extended.Types[name]
	}
	return nil
}

func (r *runtime) schemaField(s *schema.Schema, field string) (any, bool) {
	switch field {
	case "types":
		types := make([]*schema.Type, 0, len(s.Types)+len(introspectionTypes))
		for _, t := range s.Types {
			types = append(types, t)
		}
		types = append(types, introspectionTypes...)
		sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
		return types, true
	case "queryType":
		return nullable(s.GetQueryType()), true
	case "mutationType":
		return nullable(s.GetMutationType()), true
	case "subscriptionType":
		return nullable(s.GetSubscriptionType()), true
	case "directives":
		dirs := make([]*schema.Directive, 0, len(s.Directives))
		for _, d := range s.Directives {
			dirs = append(dirs, d)
		}
		sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
		return dirs, true
	case "description":
		return text(s.Description), true
	}
	return nil, false
}

func (r *runtime) typeField(t *schema.Type, field string, args map[string]any) (any, bool) {
	composite := t.Kind == schema.TypeKindObject || t.Kind == schema.TypeKindInterface
	switch field {
	case "kind":
		return string(t.Kind), true
	case "name":
		return t.Name, true
	case "description":
		return text(t.Description), true
	case "specifiedByURL":
		if t.SpecifiedByURL == nil {
			return nil, true
		}
		return *t.SpecifiedByURL, true
	case "fields":
		if !composite {
			return nil, true
		}
		fields := visible(t.Fields, args, func(f *schema.Field) bool { return f.IsDeprecated })
		out := fields[:0]
		for _, f := range fields {
			if !strings.HasPrefix(f.Name, "__") {
				out = append(out, f)
			}
		}
		return out, true
	case "interfaces":
		if !composite {
			return nil, true
		}
		return r.named(t.Interfaces), true
	case "possibleTypes":
		if !t.IsAbstract() {
			return nil, true
		}
		return r.named(t.PossibleTypes), true
	case "enumValues":
		if t.Kind != schema.TypeKindEnum {
			return nil, true
		}
		return visible(t.EnumValues, args, func(v *schema.EnumValue) bool { return v.IsDeprecated }), true
	case "inputFields":
		if t.Kind != schema.TypeKindInputObject {
			return nil, true
		}
		return visible(t.InputFields, args, inputDeprecated), true
	case "isOneOf":
		if t.Kind != schema.TypeKindInputObject {
			return nil, true
		}
		return t.OneOf, true
	case "ofType":
		return nil, true
	}
	return nil, false
}

// typeRefField answers __Type fields for a field or argument type. Wrapping
// references expose only kind and ofType; named ones defer to the definition.
func (r *runtime) typeRefField(ref *schema.TypeRef, field string, args map[string]any) (any, bool) {
	if ref.Kind == schema.TypeRefKindNamed {
		if t := r.lookup(ref.Named); t != nil {
			return r.typeField(t, field, args)
		}
		if field == "name" {
			return ref.Named, true
		}
		return nil, true
	}
	switch field {
	case "kind":
		return string(ref.Kind), true
	case "ofType":
		return ref.OfType, true
	}
	return nil, true
}

func (r *runtime) named(names []string) []*schema.Type {
	out := make([]*schema.Type, 0, len(names))
	for _, name := range names {
		if t := r.lookup(name); t != nil {
			out = append(out, t)
		}
	}
	return out
}

func fieldField(f *schema.Field, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return f.Name, true
	case "description":
		return text(f.Description), true
	case "args":
		return visible(f.Arguments, args, inputDeprecated), true
	case "type":
		return f.Type, true
	case "isDeprecated":
		return f.IsDeprecated, true
	case "deprecationReason":
		return reason(f.IsDeprecated, f.DeprecationReason), true
	}
	return nil, false
}

func inputValueField(v *schema.InputValue, field string) (any, bool) {
	switch field {
	case "name":
		return v.Name, true
	case "description":
		return text(v.Description), true
	case "type":
		return v.Type, true
	case "defaultValue":
		if v.DefaultValue == nil {
			return nil, true
		}
		return schema.ValueLiteral(v.DefaultValue), true
	case "isDeprecated":
		return v.IsDeprecated, true
	case "deprecationReason":
		return reason(v.IsDeprecated, v.DeprecationReason), true
	}
	return nil, false
}

func enumValueField(v *schema.EnumValue, field string) (any, bool) {
	switch field {
	case "name":
		return v.Name, true
	case "description":
		return text(v.Description), true
	case "isDeprecated":
		return v.IsDeprecated, true
	case "deprecationReason":
		return reason(v.IsDeprecated, v.DeprecationReason), true
	}
	return nil, false
}

func directiveField(d *schema.Directive, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return d.Name, true
	case "description":
		return text(d.Description), true
	case "isRepeatable":
		return d.IsRepeatable, true
	case "locations":
		return append([]string(nil), d.Locations...), true
	case "args":
		return visible(d.Arguments, args, inputDeprecated), true
	}
	return nil, false
}

// visible drops deprecated items unless includeDeprecated is true.
func visible[T any](items []T, args map[string]any, deprecated func(T) bool) []T {
	all, _ := args["includeDeprecated"].(bool)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if all || !deprecated(item) {
			out = append(out, item)
		}
	}
	return out
}

func inputDeprecated(v *schema.InputValue) bool { return v.IsDeprecated }

func reason(deprecated bool, why string) any {
	if !deprecated {
		return nil
	}
	return why
}

func text(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullable keeps a missing root type from becoming a typed nil.
func nullable(t *schema.Type) any {
	if t == nil {
		return nil
	}
	return t
}
