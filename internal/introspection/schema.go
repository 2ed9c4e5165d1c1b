package introspection

import (
	schema "github.com/hanpama/gramps/internal/schema"
)

const metaSDL = `
"A GraphQL Schema defines the capabilities of a GraphQL server."
type __Schema {
  "A list of all types supported by this server."
  types: [__Type!]!
  "The type that query operations will be rooted at."
  queryType: __Type!
  "If this server supports mutation, the type that mutation operations will be rooted at."
  mutationType: __Type
  "If this server support subscription, the type that subscription operations will be rooted at."
  subscriptionType: __Type
  "A list of all directives supported by this server."
  directives: [__Directive!]!
  "A description of the schema."
  description: String
}

"The fundamental unit of any GraphQL Schema is the type."
type __Type {
  "The kind of type."
  kind: __TypeKind!
  "The name of the type."
  name: String
  "The description of the type."
  description: String
  fields(includeDeprecated: Boolean = false): [__Field!]
  interfaces: [__Type!]
  possibleTypes: [__Type!]
  enumValues(includeDeprecated: Boolean = false): [__EnumValue!]
  inputFields(includeDeprecated: Boolean = false): [__InputValue!]
  ofType: __Type
  specifiedByURL: String
  isOneOf: Boolean
}

type __Field {
  name: String!
  description: String
  args(includeDeprecated: Boolean = false): [__InputValue!]!
  type: __Type!
  isDeprecated: Boolean!
  deprecationReason: String
}

type __InputValue {
  name: String!
  description: String
  type: __Type!
  defaultValue: String
  isDeprecated: Boolean!
  deprecationReason: String
}

type __EnumValue {
  name: String!
  description: String
  isDeprecated: Boolean!
  deprecationReason: String
}

type __Directive {
  name: String!
  description: String
  isRepeatable: Boolean!
  locations: [__DirectiveLocation!]!
  args(includeDeprecated: Boolean = false): [__InputValue!]!
}

enum __TypeKind { SCALAR OBJECT INTERFACE UNION ENUM INPUT_OBJECT LIST NON_NULL }

enum __DirectiveLocation {
  QUERY MUTATION SUBSCRIPTION FIELD FRAGMENT_DEFINITION FRAGMENT_SPREAD
  INLINE_FRAGMENT VARIABLE_DEFINITION SCHEMA SCALAR OBJECT FIELD_DEFINITION
  ARGUMENT_DEFINITION INTERFACE UNION ENUM ENUM_VALUE INPUT_OBJECT
  INPUT_FIELD_DEFINITION
}
`

var (
	introspectionTypes = mustBuild(metaSDL)
	metaFields         = metaRootFields()
)

func mustBuild(sdl string) []*schema.Type {
	types, err := schema.BuildTypes(sdl)
	if err != nil {
		panic("introspection: " + err.Error())
	}
	return types
}

// metaRootFields builds __schema and __type by hand because the SDL builder
// drops fields named with a "__" prefix.
func metaRootFields() []*schema.Field {
	typeArg := schema.NewInputValue("name", "The name of the type to look up.", schema.NonNullType(schema.NamedType("String")))
	return []*schema.Field{
		schema.NewField("__schema", "Access the current type schema of this server.", schema.NonNullType(schema.NamedType("__Schema"))),
		schema.NewField("__type", "Request the type information of a single type.", schema.NamedType("__Type")).AddArgument(typeArg),
	}
}

// extendSchemaWithIntrospection returns a shallow copy of original that also
// holds the introspection types, with a query root that answers __schema and
// __type. original is not modified.
func extendSchemaWithIntrospection(original *schema.Schema) *schema.Schema {
	extended := *original
	extended.Types = make(map[string]*schema.Type, len(original.Types)+len(introspectionTypes))
	for name, typ := range original.Types {
		extended.Types[name] = typ
	}
	for _, typ := range introspectionTypes {
		extended.Types[typ.Name] = typ
	}

	if query := original.GetQueryType(); query != nil {
		root := *query
		root.Fields = append(append([]*schema.Field(nil), query.Fields...), metaFields...)
		extended.Types[root.Name] = &root
	}
	return &extended
}
