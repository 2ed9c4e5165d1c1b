package datasource

import (
	"fmt"
	"regexp"
	"strings"

	mock "github.com/hanpama/gramps/internal/mock"
	resolver "github.com/hanpama/gramps/internal/resolver"
)

// baseTypes are never prefixed. ID and Subscription are not among them.
var baseTypes = map[string]bool{
	"Query":    true,
	"Mutation": true,
	"String":   true,
	"Int":      true,
	"Float":    true,
	"Boolean":  true,
}

var (
	declaration = regexp.MustCompile(`(type|interface|enum|union|implements|input) (\w+)`)
	fieldType   = regexp.MustCompile(`(\w+\s*:\s*\[?)(\w+)(!?\]?)`)
)

// MapOptions is the input of MapSchema.
type MapOptions struct {
	Namespace      string
	TypeDefs       TypeDefs
	Resolvers      resolver.Map
	Mocks          mock.Map
	PrefixTypes    bool
	NamespaceQuery bool
}

// Mapped is the renamed output of MapSchema.
type Mapped struct {
	TypeDefs  []string
	Resolvers resolver.Map
	// Mocks is keyed by the renamed type names.
	Mocks mock.Map
}

// MapSchema renames a source's types by text substitution and namespaces its
// resolvers to match.
//
// The rewrite is textual: declarations following type, interface, enum,
// union, implements or input, and the type after "name:" in field and
// argument positions. Text in descriptions and comments that has the same
// shape is rewritten too.
func MapSchema(opts MapOptions) (*Mapped, error) {
	defs, err := opts.TypeDefs.Resolve()
	if err != nil {
		return nil, err
	}
	out := &Mapped{TypeDefs: make([]string, 0, len(defs)+1)}
	for _, def := range defs {
		out.TypeDefs = append(out.TypeDefs, mapTypeDefs(def, opts))
	}
	if opts.NamespaceQuery {
		out.TypeDefs = append(out.TypeDefs, fmt.Sprintf("type Query { %s: %s_Query }", opts.Namespace, opts.Namespace))
	}

	if out.Resolvers, err = mapResolvers(opts); err != nil {
		return nil, err
	}
	if opts.Mocks != nil {
		out.Mocks = make(mock.Map, len(opts.Mocks))
		for typeName, fn := range opts.Mocks {
			out.Mocks[renamed(typeName, opts)] = fn
		}
	}
	return out, nil
}

func mapTypeDefs(def string, opts MapOptions) string {
	def = replaceSubmatches(declaration, def, func(m []string) string {
		keyword, name := m[1], m[2]
		if renamesDeclaration(name, opts) {
			return keyword + " " + opts.Namespace + "_" + name
		}
		return m[0]
	})
	return replaceSubmatches(fieldType, def, func(m []string) string {
		prefix, name, suffix := m[1], m[2], m[3]
		if !baseTypes[name] && opts.PrefixTypes {
			return prefix + opts.Namespace + "_" + name + suffix
		}
		return m[0]
	})
}

func renamesDeclaration(name string, opts MapOptions) bool {
	return (!baseTypes[name] && opts.PrefixTypes) || (name == "Query" && opts.NamespaceQuery)
}

func renamed(name string, opts MapOptions) string {
	if renamesDeclaration(name, opts) {
		return opts.Namespace + "_" + name
	}
	return name
}

func mapResolvers(opts MapOptions) (resolver.Map, error) {
	var keyed resolver.Map
	if opts.Resolvers != nil {
		keyed = make(resolver.Map, len(opts.Resolvers))
		for typeName, entry := range opts.Resolvers {
			keyed[renamed(typeName, opts)] = entry
		}
	}
	wrapped, err := resolver.Namespace(opts.Namespace, keyed)
	if err != nil {
		return nil, err
	}
	if opts.NamespaceQuery {
		if wrapped == nil {
			wrapped = resolver.Map{}
		}
		wrapped["Query"] = resolver.Object{
			opts.Namespace: resolver.FieldFunc(func(source any, _ map[string]any, _ any, _ *resolver.Info) (any, error) {
				if source == nil {
					return map[string]any{}, nil
				}
				return source, nil
			}),
		}
	}
	return wrapped, nil
}

// replaceSubmatches replaces every match of re in src with fn(groups),
// where groups[0] is the whole match.
func replaceSubmatches(re *regexp.Regexp, src string, fn func(groups []string) string) string {
	locs := re.FindAllStringSubmatchIndex(src, -1)
	if len(locs) == 0 {
		return src
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(src[last:loc[0]])
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = src[loc[2*i]:loc[2*i+1]]
			}
		}
		b.WriteString(fn(groups))
		last = loc[1]
	}
	b.WriteString(src[last:])
	return b.String()
}
