package schema

import (
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	language "github.com/hanpama/gramps/internal/language"
)

// BuildFromAST converts a validated gqlparser schema into the runtime model.
// Introspection types and meta fields are left out; the specified scalars
// share the package-level builtin definitions.
func BuildFromAST(src *ast.Schema) *Schema {
	s := NewSchema("")
	if src.Query != nil {
		s.SetQueryType(src.Query.Name)
	}
	if src.Mutation != nil {
		s.SetMutationType(src.Mutation.Name)
	}
	if src.Subscription != nil {
		s.SetSubscriptionType(src.Subscription.Name)
	}
	for name, bt := range builtinScalars {
		if _, ok := src.Types[name]; ok {
			s.AddType(bt)
		}
	}
	for _, d := range builtinDirectives {
		s.AddDirective(d)
	}

	names := make([]string, 0, len(src.Types))
	for name := range src.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		def := src.Types[name]
		if def.BuiltIn || strings.HasPrefix(name, "__") {
			continue
		}
		s.AddType(buildDefinition(src, def))
	}

	for name, dir := range src.Directives {
		if isPreludeDirective(dir) {
			continue
		}
		s.AddDirective(buildDirective(name, dir))
	}
	return s
}

// BuildFromSDL parses and validates SDL fragments and returns the runtime schema.
func BuildFromSDL(sdl ...string) (*Schema, error) {
	src, err := language.LoadSchema(sdl...)
	if err != nil {
		return nil, err
	}
	return BuildFromAST(src), nil
}

// BuildTypes builds the type definitions in sdl on their own, without the
// prelude or schema validation. Unlike BuildFromSDL it keeps types whose
// names start with "__".
func BuildTypes(sdl string) ([]*Type, error) {
	doc, err := language.ParseSchema("types.graphql", sdl)
	if err != nil {
		return nil, err
	}
	src := &ast.Schema{}
	out := make([]*Type, 0, len(doc.Definitions))
	for _, def := range doc.Definitions {
		out = append(out, buildDefinition(src, def))
	}
	return out, nil
}

func buildDefinition(src *ast.Schema, def *ast.Definition) *Type {
	switch def.Kind {
	case ast.Object, ast.Interface:
		kind := TypeKindObject
		if def.Kind == ast.Interface {
			kind = TypeKindInterface
		}
		t := NewType(def.Name, kind, def.Description)
		for _, iface := range def.Interfaces {
			t.AddInterface(iface)
		}
		for _, fd := range def.Fields {
			if strings.HasPrefix(fd.Name, "__") {
				continue
			}
			t.AddField(buildField(fd))
		}
		if kind == TypeKindInterface {
			for _, pt := range src.PossibleTypes[def.Name] {
				if pt.Kind == ast.Object {
					t.AddPossibleType(pt.Name)
				}
			}
		}
		return t
	case ast.Union:
		t := NewType(def.Name, TypeKindUnion, def.Description)
		for _, member := range def.Types {
			t.AddPossibleType(member)
		}
		return t
	case ast.Enum:
		t := NewType(def.Name, TypeKindEnum, def.Description)
		for _, ev := range def.EnumValues {
			v := NewEnumValue(ev.Name, ev.Description)
			if reason, ok := deprecation(ev.Directives); ok {
				v.Deprecate(reason)
			}
			t.AddEnumValue(v)
		}
		return t
	case ast.InputObject:
		t := NewType(def.Name, TypeKindInputObject, def.Description).
			SetOneOf(def.Directives.ForName("oneOf") != nil)
		for _, fd := range def.Fields {
			t.AddInputField(buildInputValue(fd.Name, fd.Description, fd.Type, fd.DefaultValue, fd.Directives))
		}
		return t
	default:
		t := NewType(def.Name, TypeKindScalar, def.Description)
		if sb := def.Directives.ForName("specifiedBy"); sb != nil {
			if url := sb.Arguments.ForName("url"); url != nil && url.Value != nil {
				t.SetSpecifiedByURL(url.Value.Raw)
			}
		}
		return t
	}
}

func buildField(fd *ast.FieldDefinition) *Field {
	f := NewField(fd.Name, fd.Description, buildTypeRef(fd.Type))
	if reason, ok := deprecation(fd.Directives); ok {
		f.Deprecate(reason)
	}
	for _, arg := range fd.Arguments {
		f.AddArgument(buildInputValue(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives))
	}
	return f
}

func buildInputValue(name, description string, typ *ast.Type, def *ast.Value, directives ast.DirectiveList) *InputValue {
	in := NewInputValue(name, description, buildTypeRef(typ))
	if def != nil {
		if v, err := def.Value(nil); err == nil {
			in.SetDefault(v)
		}
	}
	if reason, ok := deprecation(directives); ok {
		in.Deprecate(reason)
	}
	return in
}

func buildTypeRef(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return NonNullType(buildTypeRef(&ast.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.Elem != nil {
		return ListType(buildTypeRef(t.Elem))
	}
	return NamedType(t.NamedType)
}

func buildDirective(name string, dir *ast.DirectiveDefinition) *Directive {
	d := NewDirective(name, dir.Description).SetRepeatable(dir.IsRepeatable)
	for _, loc := range dir.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, arg := range dir.Arguments {
		d.AddArgument(buildInputValue(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives))
	}
	return d
}

func deprecation(directives ast.DirectiveList) (string, bool) {
	d := directives.ForName("deprecated")
	if d == nil {
		return "", false
	}
	if reason := d.Arguments.ForName("reason"); reason != nil && reason.Value != nil {
		return reason.Value.Raw, true
	}
	return "No longer supported", true
}

func isPreludeDirective(d *ast.DirectiveDefinition) bool {
	return d.Position != nil && d.Position.Src != nil && d.Position.Src.BuiltIn
}
