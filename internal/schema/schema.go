// Package schema holds the runtime model of a GraphQL schema: named types,
// their fields and the wrapped type references between them. Models are
// built from SDL with BuildFromSDL or by hand with the builder helpers, and
// printed back with Render.
package schema

// Schema is a set of named types and directives plus the names of the
// operation root types.
type Schema struct {
	Description      string
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type
	Directives       map[string]*Directive
}

func (s *Schema) GetQueryType() *Type        { return s.Types[s.QueryType] }
func (s *Schema) GetMutationType() *Type     { return s.Types[s.MutationType] }
func (s *Schema) GetSubscriptionType() *Type { return s.Types[s.SubscriptionType] }

// IsRootType reports whether name is one of the schema's operation types.
func (s *Schema) IsRootType(name string) bool {
	switch name {
	case "":
		return false
	case s.QueryType, s.MutationType, s.SubscriptionType:
		return true
	}
	return false
}

// IsPossibleType reports whether objectType can stand in for abstractType.
// Every type is a possible type of itself.
func (s *Schema) IsPossibleType(abstractType, objectType string) bool {
	if abstractType == objectType {
		return true
	}
	if t := s.Types[abstractType]; t != nil {
		return contains(t.PossibleTypes, objectType)
	}
	return false
}

type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// Type is a named type. Which of the slices are used depends on Kind:
// Fields and Interfaces for objects and interfaces, PossibleTypes for
// interfaces and unions, EnumValues for enums and InputFields for inputs.
type Type struct {
	Kind        TypeKind
	Name        string
	Description string

	Fields        []*Field
	Interfaces    []string
	PossibleTypes []string
	EnumValues    []*EnumValue
	InputFields   []*InputValue

	SpecifiedByURL *string
	OneOf          bool
}

// Field returns the field called name, or nil.
func (t *Type) Field(name string) *Field { return find(t.Fields, name, (*Field).name) }

// InputField returns the input field called name, or nil.
func (t *Type) InputField(name string) *InputValue {
	return find(t.InputFields, name, (*InputValue).name)
}

// IsAbstract reports whether t is an interface or union.
func (t *Type) IsAbstract() bool {
	return t.Kind == TypeKindInterface || t.Kind == TypeKindUnion
}

// Field is a field of an object or interface. Async fields are resolved in
// batches by the executor.
type Field struct {
	Name        string
	Description string
	Arguments   []*InputValue
	Type        *TypeRef
	Async       bool

	IsDeprecated      bool
	DeprecationReason string
}

func (f *Field) name() string { return f.Name }

// InputValue is an argument or an input object field.
type InputValue struct {
	Name         string
	Description  string
	Type         *TypeRef
	DefaultValue any

	IsDeprecated      bool
	DeprecationReason string
}

func (v *InputValue) name() string { return v.Name }

type EnumValue struct {
	Name        string
	Description string

	IsDeprecated      bool
	DeprecationReason string
}

type Directive struct {
	Name         string
	Description  string
	Arguments    []*InputValue
	Locations    []string
	IsRepeatable bool
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

// TypeRef is a use of a type: a name, or a list or non-null wrapper around
// another reference.
type TypeRef struct {
	Kind   TypeRefKind
	Named  string
	OfType *TypeRef
}

func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }

func (t *TypeRef) IsNonNull() bool { return t != nil && t.Kind == TypeRefKindNonNull }

// IsList reports whether t is a list, possibly behind one non-null wrapper.
func (t *TypeRef) IsList() bool {
	if t.IsNonNull() {
		t = t.OfType
	}
	return t != nil && t.Kind == TypeRefKindList
}

// Unwrap strips one wrapper. A named reference is returned as is.
func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNamed {
		return t
	}
	return t.OfType
}

// GetNamedType returns the name at the bottom of the wrappers.
func (t *TypeRef) GetNamedType() string {
	for ; t != nil; t = t.OfType {
		if t.Named != "" {
			return t.Named
		}
	}
	return ""
}

// String renders the reference in SDL notation, e.g. "[User!]!".
func (t *TypeRef) String() string { return renderTypeRef(t) }

// Function forms of the TypeRef methods.
func IsNonNull(t *TypeRef) bool      { return t.IsNonNull() }
func IsList(t *TypeRef) bool         { return t != nil && t.IsList() }
func Unwrap(t *TypeRef) *TypeRef     { return t.Unwrap() }
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }

func find[T any](items []T, name string, nameOf func(T) string) T {
	for _, item := range items {
		if nameOf(item) == name {
			return item
		}
	}
	var zero T
	return zero
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
