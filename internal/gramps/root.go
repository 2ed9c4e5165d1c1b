package gramps

import (
	datasource "github.com/hanpama/gramps/internal/datasource"
	resolver "github.com/hanpama/gramps/internal/resolver"
)

// Version is reported by the grampsVersion root field. Release builds set it
// with -ldflags "-X github.com/hanpama/gramps/internal/gramps.Version=...".
var Version = "dev"

// RootNamespace is the namespace of the builtin root source.
const RootNamespace = "Root"

const rootQuery = `type Query {
  # Returns the current version of GrAMPS.
  grampsVersion: String!
}
`

const rootMutation = `type Mutation {
  # Diagnostic mutation. Always answers the same.
  grampsPing: String!
}
`

// Ping is the constant answer of the grampsPing mutation.
const Ping = "GET OFF MY LAWN"

func rootSource(withMutation bool) *datasource.DataSource {
	defs := []string{rootQuery}
	schemaDef := "schema {\n  query: Query\n}\n"
	resolvers := resolver.Map{
		"Query": resolver.Object{
			"grampsVersion": resolver.FieldFunc(func(any, map[string]any, any, *resolver.Info) (any, error) {
				return Version, nil
			}),
		},
	}
	if withMutation {
		defs = append(defs, rootMutation)
		schemaDef = "schema {\n  query: Query\n  mutation: Mutation\n}\n"
		resolvers["Mutation"] = resolver.Object{
			"grampsPing": resolver.FieldFunc(func(any, map[string]any, any, *resolver.Info) (any, error) {
				return Ping, nil
			}),
		}
	}
	defs = append(defs, schemaDef)
	return &datasource.DataSource{
		Namespace: RootNamespace,
		TypeDefs:  datasource.Static(defs...),
		Resolvers: resolvers,
	}
}
