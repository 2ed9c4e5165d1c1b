package schema

// Specified scalars and directives are shared by every built schema so that
// Render can recognise and omit them by identity.
var (
	stringType  = NewType("String", TypeKindScalar, "The `String` scalar type represents textual data, represented as UTF-8 character sequences.")
	intType     = NewType("Int", TypeKindScalar, "The `Int` scalar type represents non-fractional signed whole numeric values.")
	floatType   = NewType("Float", TypeKindScalar, "The `Float` scalar type represents signed double-precision fractional values.")
	booleanType = NewType("Boolean", TypeKindScalar, "The `Boolean` scalar type represents `true` or `false`.")
	idType      = NewType("ID", TypeKindScalar, "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching.")

	includeDirective = conditionalDirective("include", "Directs the executor to include this field or fragment only when the `if` argument is true.", "Included when true.")
	skipDirective    = conditionalDirective("skip", "Directs the executor to skip this field or fragment when the `if` argument is true.", "Skipped when true.")
)

var builtinScalars = byName(stringType, intType, floatType, booleanType, idType)

var builtinDirectives = map[string]*Directive{
	includeDirective.Name: includeDirective,
	skipDirective.Name:    skipDirective,
}

func conditionalDirective(name, description, ifDescription string) *Directive {
	d := NewDirective(name, description).
		AddArgument(NewInputValue("if", ifDescription, NonNullType(NamedType("Boolean"))))
	d.Locations = []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"}
	return d
}

func byName(types ...*Type) map[string]*Type {
	m := make(map[string]*Type, len(types))
	for _, t := range types {
		m[t.Name] = t
	}
	return m
}

// IsBuiltinScalar reports whether name is one of the five specified scalars.
func IsBuiltinScalar(name string) bool {
	_, ok := builtinScalars[name]
	return ok
}

func isBuiltinType(t *Type) bool { return builtinScalars[t.Name] == t }

func isBuiltinDirective(d *Directive) bool { return builtinDirectives[d.Name] == d }
