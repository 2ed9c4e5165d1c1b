package executable

import (
	"fmt"
	"slices"

	language "github.com/hanpama/gramps/internal/language"
	resolver "github.com/hanpama/gramps/internal/resolver"
	schema "github.com/hanpama/gramps/internal/schema"
)

// StitchFunc builds resolvers that reach across parts of a merged schema.
type StitchFunc func(info *MergeInfo) resolver.Map

// MergeConfig is the input of Merge.
type MergeConfig struct {
	Schemas []*Schema
	// TypeDefs are link definitions applied after every schema part.
	TypeDefs []string
	// Resolvers is called once, after the merged schema is built.
	Resolvers StitchFunc
}

// MergeInfo gives stitching resolvers access to the merged schema.
type MergeInfo struct {
	merged *Schema
}

// Schema returns the merged schema model.
func (m *MergeInfo) Schema() *schema.Schema {
	if m == nil || m.merged == nil {
		return nil
	}
	return m.merged.Model
}

// Delegate resolves a root field of the merged schema with the given
// arguments. ctx is handed to the root resolver unchanged.
func (m *MergeInfo) Delegate(operation language.Operation, fieldName string, args map[string]any, ctx any, info *resolver.Info) (any, error) {
	if m == nil || m.merged == nil {
		return nil, fmt.Errorf("delegate %s.%s: merged schema is not ready", operation, fieldName)
	}
	var root string
	switch operation {
	case language.Query:
		root = m.merged.Model.QueryType
	case language.Mutation:
		root = m.merged.Model.MutationType
	case language.Subscription:
		root = m.merged.Model.SubscriptionType
	}
	if root == "" {
		return nil, fmt.Errorf("delegate: schema has no %s root", operation)
	}
	fn, ok := m.merged.Resolvers.Field(root, fieldName)
	if !ok {
		return nil, fmt.Errorf("delegate: no resolver for %s.%s", root, fieldName)
	}
	next := &resolver.Info{ParentType: root, FieldName: fieldName, Schema: m.merged.Model}
	if info != nil {
		next.Context = info.Context
		next.Path = info.Path
	}
	if t := m.merged.Model.Types[root]; t != nil {
		if f := t.Field(fieldName); f != nil {
			next.ReturnType = f.Type
		}
	}
	return fn(nil, args, ctx, next)
}

var rootKinds = []string{"Query", "Mutation", "Subscription"}

// Merge combines schema parts into one executable schema.
//
// Root types merge field by field, later parts winning on a field collision.
// Any other type defined by more than one part takes the last definition.
// Schema definitions are dropped; roots are inferred from the conventional
// names.
func Merge(cfg MergeConfig) (*Schema, error) {
	doc := &language.SchemaDocument{}
	index := map[string]int{}
	directives := map[string]int{}
	resolvers := resolver.Map{}

	for i, part := range cfg.Schemas {
		if part == nil {
			continue
		}
		// Parse afresh; validation rewrites the definitions of part.AST.
		d, err := language.ParseSchemas(part.typeDefs...)
		if err != nil {
			return nil, fmt.Errorf("merge: schema %d: %w", i, err)
		}
		renames := rootRenames(part)
		mergeDocument(doc, index, directives, d, renames)
		resolvers = resolvers.Merge(renameRoots(part.Resolvers, renames))
	}
	if len(cfg.TypeDefs) > 0 {
		d, err := language.ParseSchemas(cfg.TypeDefs...)
		if err != nil {
			return nil, fmt.Errorf("merge: link type definitions: %w", err)
		}
		mergeDocument(doc, index, directives, d, nil)
	}

	sdl := language.FormatSchema(doc)
	src, err := language.LoadSchema(sdl)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	out := &Schema{
		AST:       src,
		Model:     schema.BuildFromAST(src),
		Resolvers: resolver.Map{},
		typeDefs:  []string{sdl},
	}
	if err := out.attach(resolvers, true); err != nil {
		return nil, err
	}
	if cfg.Resolvers != nil {
		if err := out.attach(cfg.Resolvers(&MergeInfo{merged: out}), true); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func mergeDocument(doc *language.SchemaDocument, index, directives map[string]int, d *language.SchemaDocument, renames map[string]string) {
	for _, def := range d.Definitions {
		if canon, ok := renames[def.Name]; ok {
			def.Name = canon
		}
		at, seen := index[def.Name]
		switch {
		case seen && isRootName(def.Name):
			mergeFields(doc.Definitions[at], def)
		case seen:
			doc.Definitions[at] = def
		default:
			index[def.Name] = len(doc.Definitions)
			doc.Definitions = append(doc.Definitions, def)
		}
	}
	for _, ext := range d.Extensions {
		if canon, ok := renames[ext.Name]; ok {
			ext.Name = canon
		}
		doc.Extensions = append(doc.Extensions, ext)
	}
	for _, dir := range d.Directives {
		if at, ok := directives[dir.Name]; ok {
			doc.Directives[at] = dir
			continue
		}
		directives[dir.Name] = len(doc.Directives)
		doc.Directives = append(doc.Directives, dir)
	}
}

func mergeFields(dst, src *language.Definition) {
	for _, f := range src.Fields {
		replaced := false
		for i, existing := range dst.Fields {
			if existing.Name == f.Name {
				dst.Fields[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			dst.Fields = append(dst.Fields, f)
		}
	}
	for _, iface := range src.Interfaces {
		if !slices.Contains(dst.Interfaces, iface) {
			dst.Interfaces = append(dst.Interfaces, iface)
		}
	}
	if dst.Description == "" {
		dst.Description = src.Description
	}
}

// rootRenames maps custom root type names of part to the conventional ones.
func rootRenames(part *Schema) map[string]string {
	out := map[string]string{}
	roots := []*language.Definition{part.AST.Query, part.AST.Mutation, part.AST.Subscription}
	for i, def := range roots {
		if def != nil && def.Name != rootKinds[i] {
			out[def.Name] = rootKinds[i]
		}
	}
	return out
}

func renameRoots(m resolver.Map, renames map[string]string) resolver.Map {
	if len(renames) == 0 {
		return m
	}
	out := make(resolver.Map, len(m))
	for k, v := range m {
		if canon, ok := renames[k]; ok {
			k = canon
		}
		out[k] = v
	}
	return out
}

func isRootName(name string) bool {
	return slices.Contains(rootKinds, name)
}
