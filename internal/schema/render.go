package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Render prints s as SDL. Types and directives are sorted by name, the
// specified scalars and directives are left out, and a schema block is
// written only when a root type does not use its conventional name.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	p := &printer{}
	p.schemaBlock(s)

	for _, name := range sortedKeys(s.Types, func(t *Type) bool { return !isBuiltinType(t) }) {
		p.typeDef(s.Types[name])
	}
	for _, name := range sortedKeys(s.Directives, func(d *Directive) bool { return !isBuiltinDirective(d) }) {
		p.directiveDef(s.Directives[name])
	}
	return strings.TrimRight(p.String(), "\n") + "\n"
}

func sortedKeys[V any](m map[string]V, keep func(V) bool) []string {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if keep(v) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

type printer struct{ strings.Builder }

func (p *printer) printf(format string, args ...any) { fmt.Fprintf(p, format, args...) }

func (p *printer) schemaBlock(s *Schema) {
	roots := []struct{ op, name, conventional string }{
		{"query", s.QueryType, "Query"},
		{"mutation", s.MutationType, "Mutation"},
		{"subscription", s.SubscriptionType, "Subscription"},
	}
	custom := false
	for _, r := range roots {
		custom = custom || (r.name != "" && r.name != r.conventional)
	}
	if !custom {
		return
	}
	p.WriteString("schema {\n")
	for _, r := range roots {
		if r.name != "" {
			p.printf("  %s: %s\n", r.op, r.name)
		}
	}
	p.WriteString("}\n\n")
}

func (p *printer) typeDef(t *Type) {
	p.description(t.Description)
	switch t.Kind {
	case TypeKindScalar:
		p.printf("scalar %s", t.Name)
		if t.SpecifiedByURL != nil {
			p.printf(" @specifiedBy(url: %s)", strconv.Quote(*t.SpecifiedByURL))
		}
		p.WriteString("\n\n")
	case TypeKindUnion:
		p.printf("union %s = %s\n\n", t.Name, strings.Join(t.PossibleTypes, " | "))
	case TypeKindEnum:
		p.printf("enum %s {\n", t.Name)
		for _, v := range t.EnumValues {
			p.description(v.Description)
			p.printf("  %s%s\n", v.Name, deprecated(v.IsDeprecated, v.DeprecationReason))
		}
		p.WriteString("}\n\n")
	case TypeKindInputObject:
		oneOf := ""
		if t.OneOf {
			oneOf = " @oneOf"
		}
		p.printf("input %s%s {\n", t.Name, oneOf)
		for _, f := range t.InputFields {
			p.description(f.Description)
			p.printf("  %s%s\n", inputValue(f), deprecated(f.IsDeprecated, f.DeprecationReason))
		}
		p.WriteString("}\n\n")
	case TypeKindObject, TypeKindInterface:
		keyword := "type"
		if t.Kind == TypeKindInterface {
			keyword = "interface"
		}
		p.printf("%s %s", keyword, t.Name)
		if len(t.Interfaces) > 0 {
			p.printf(" implements %s", strings.Join(t.Interfaces, " & "))
		}
		p.WriteString(" {\n")
		for _, f := range t.Fields {
			p.description(f.Description)
			p.printf("  %s%s: %s%s\n", f.Name, arguments(f.Arguments), f.Type, deprecated(f.IsDeprecated, f.DeprecationReason))
		}
		p.WriteString("}\n\n")
	}
}

func (p *printer) directiveDef(d *Directive) {
	p.description(d.Description)
	p.printf("directive @%s%s", d.Name, arguments(d.Arguments))
	if d.IsRepeatable {
		p.WriteString(" repeatable")
	}
	p.printf(" on %s\n\n", strings.Join(d.Locations, " | "))
}

func (p *printer) description(desc string) {
	if desc == "" {
		return
	}
	p.printf("\"\"\"\n%s\n\"\"\"\n", strings.ReplaceAll(desc, `"""`, `\"""`))
}

func deprecated(is bool, reason string) string {
	switch {
	case !is:
		return ""
	case reason == "":
		return " @deprecated"
	}
	return " @deprecated(reason: " + strconv.Quote(reason) + ")"
}

func arguments(args []*InputValue) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = inputValue(a)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func inputValue(v *InputValue) string {
	s := v.Name + ": " + v.Type.String()
	if v.DefaultValue != nil {
		s += " = " + ValueLiteral(v.DefaultValue)
	}
	return s
}

func renderTypeRef(ref *TypeRef) string {
	if ref == nil {
		return ""
	}
	switch ref.Kind {
	case TypeRefKindNamed:
		return ref.Named
	case TypeRefKindList:
		return "[" + renderTypeRef(ref.OfType) + "]"
	case TypeRefKindNonNull:
		return renderTypeRef(ref.OfType) + "!"
	}
	return ""
}

// ValueLiteral renders value as a GraphQL input literal with map keys sorted.
// Strings are quoted; values of other types print unquoted, which covers
// enum names held as custom string types.
func ValueLiteral(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = ValueLiteral(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := sortedKeys(v, func(any) bool { return true })
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + ValueLiteral(v[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprint(value)
}
