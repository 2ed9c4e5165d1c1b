package executor

import (
	language "github.com/hanpama/gramps/internal/language"
	schema "github.com/hanpama/gramps/internal/schema"
)

// collectedField is every AST node answering one response name.
type collectedField struct {
	ResponseName string
	Fields       []*language.Field
}

// fieldGroups keeps response names in first-seen order.
type fieldGroups struct {
	groups []collectedField
	byName map[string]int
}

func (g *fieldGroups) add(f *language.Field) {
	name := f.Alias
	if name == "" {
		name = f.Name
	}
	if i, ok := g.byName[name]; ok {
		g.groups[i].Fields = append(g.groups[i].Fields, f)
		return
	}
	g.byName[name] = len(g.groups)
	g.groups = append(g.groups, collectedField{ResponseName: name, Fields: []*language.Field{f}})
}

func (g *fieldGroups) orderedFields() []collectedField { return g.groups }

// collectFields flattens selectionSet for objectType, following fragments
// whose type condition applies and honouring @skip and @include. Each named
// fragment is expanded at most once.
func collectFields(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet) *fieldGroups {
	c := collector{state: state, objectType: objectType, seen: map[string]bool{}}
	c.out = &fieldGroups{byName: map[string]int{}}
	c.walk(selectionSet)
	return c.out
}

type collector struct {
	state      *executionState
	objectType *schema.Type
	seen       map[string]bool
	out        *fieldGroups
}

func (c *collector) walk(selectionSet language.SelectionSet) {
	for _, sel := range selectionSet {
		switch sel := sel.(type) {
		case *language.Field:
			if c.included(sel.Directives) {
				c.out.add(sel)
			}
		case *language.InlineFragment:
			if c.included(sel.Directives) && c.applies(sel.TypeCondition) {
				c.walk(sel.SelectionSet)
			}
		case *language.FragmentSpread:
			if !c.included(sel.Directives) || c.seen[sel.Name] {
				continue
			}
			c.seen[sel.Name] = true
			frag := c.state.document.Fragments.ForName(sel.Name)
			if frag == nil || !c.applies(frag.TypeCondition) || !c.included(frag.Directives) {
				continue
			}
			c.walk(frag.SelectionSet)
		}
	}
}

// applies reports whether a fragment on condition matches the object type:
// the type itself, an interface it implements or a union containing it.
func (c *collector) applies(condition string) bool {
	if condition == "" || condition == c.objectType.Name {
		return true
	}
	if c.state.schema == nil {
		return false
	}
	for _, iface := range c.objectType.Interfaces {
		if iface == condition {
			return true
		}
	}
	return c.state.schema.IsPossibleType(condition, c.objectType.Name)
}

func (c *collector) included(directives language.DirectiveList) bool {
	if skip, ok := c.directiveIf(directives.ForName("skip")); ok && skip {
		return false
	}
	if include, ok := c.directiveIf(directives.ForName("include")); ok && !include {
		return false
	}
	return true
}

// directiveIf reads the boolean "if" argument of d, resolving variables.
// ok is false when d is nil or the argument is missing or not a boolean.
func (c *collector) directiveIf(d *language.Directive) (value, ok bool) {
	if d == nil {
		return false, false
	}
	arg := d.Arguments.ForName("if")
	if arg == nil || arg.Value == nil {
		return false, false
	}
	var v any
	if arg.Value.Kind == language.Variable {
		v = c.state.variableValues[arg.Value.Raw]
	} else {
		v = astValueToGo(arg.Value)
	}
	value, ok = v.(bool)
	return value, ok
}

func getFieldDefinition(objectType *schema.Type, name string) *schema.Field {
	return objectType.Field(name)
}
