// Package language wraps the gqlparser parser and validator behind the
// names the rest of the module uses.
package language

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseQuery parses an executable document without validating it.
func ParseQuery(source string) (*QueryDocument, error) {
	return nonNil(parser.ParseQuery(&ast.Source{Input: source}))
}

func ParseSchema(name, source string) (*SchemaDocument, error) {
	return nonNil(parser.ParseSchema(&ast.Source{Name: name, Input: source}))
}

// ParseSchemas parses every fragment into one document without the prelude.
// Each call returns freshly allocated definitions.
func ParseSchemas(fragments ...string) (*SchemaDocument, error) {
	return nonNil(parser.ParseSchemas(sources(fragments)...))
}

// LoadSchema parses and validates fragments against the GraphQL prelude.
func LoadSchema(fragments ...string) (*Schema, error) {
	return nonNil(gqlparser.LoadSchema(sources(fragments)...))
}

// sources names fragments by position so errors can point at one.
func sources(fragments []string) []*Source {
	out := make([]*Source, len(fragments))
	for i, f := range fragments {
		out[i] = &Source{Name: fmt.Sprintf("fragment_%d.graphql", i), Input: f}
	}
	return out
}

// nonNil drops a partial result that comes with an error.
func nonNil[T any](v *T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

// LoadQuery parses a query and validates it against schema.
func LoadQuery(schema *Schema, query string) (*QueryDocument, error) {
	doc, errs := gqlparser.LoadQuery(schema, query)
	if len(errs) > 0 {
		return nil, errs
	}
	return doc, nil
}

// FormatSchema prints a schema document back to SDL.
func FormatSchema(doc *SchemaDocument) string {
	var b strings.Builder
	formatter.NewFormatter(&b).FormatSchemaDocument(doc)
	return b.String()
}
