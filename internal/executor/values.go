package executor

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	language "github.com/hanpama/gramps/internal/language"
	schema "github.com/hanpama/gramps/internal/schema"
)

// coerceVariableValues checks the supplied variables against the
// operation's definitions, applying defaults. Variable names may be given
// with or without the leading '$'.
func coerceVariableValues(s *schema.Schema, operation *language.OperationDefinition, values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(operation.VariableDefinitions))
	for _, def := range operation.VariableDefinitions {
		name, typ := def.Variable, def.Type
		v, ok := lookupVariable(values, name)
		switch {
		case ok:
		case def.DefaultValue != nil:
			v = astValueToGo(def.DefaultValue)
		case typ.NonNull:
			return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, typ.String())
		default:
			continue
		}
		if v == nil && typ.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s cannot be null", name, typ.String())
		}
		cv, err := coerceInput(s, v, typeRefFromAST(typ))
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s cannot be coerced: %v", name, typ.String(), err)
		}
		out[name] = cv
	}
	return out, nil
}

func lookupVariable(values map[string]any, name string) (any, bool) {
	if v, ok := values[name]; ok {
		return v, true
	}
	v, ok := values[strings.TrimPrefix(name, "$")]
	return v, ok
}

// coerceArgumentValues builds the argument map for one field. Coercion
// failures are recorded at path and leave the argument out.
func coerceArgumentValues(def *schema.Field, arguments language.ArgumentList, vars map[string]any, state *executionState, path Path) map[string]any {
	var s *schema.Schema
	if state != nil {
		s = state.schema
	}
	out := make(map[string]any)
	for _, arg := range arguments {
		argDef := def.Argument(arg.Name)
		if argDef == nil {
			continue
		}
		v, err := coerceInput(s, valueWithVariables(arg.Value, vars), argDef.Type)
		if err != nil {
			state.addError(fmt.Sprintf("argument '%s' cannot be coerced: %v", arg.Name, err), path)
			continue
		}
		out[arg.Name] = v
	}
	for _, argDef := range def.Arguments {
		if _, ok := out[argDef.Name]; ok {
			continue
		}
		switch {
		case argDef.DefaultValue != nil:
			if v, err := coerceInput(s, argDef.DefaultValue, argDef.Type); err == nil {
				out[argDef.Name] = v
			} else {
				out[argDef.Name] = argDef.DefaultValue
			}
		case schema.IsNonNull(argDef.Type):
			state.addError(fmt.Sprintf("argument '%s' of required type was not provided", argDef.Name), path)
		}
	}
	return out
}

func valueWithVariables(value *language.Value, vars map[string]any) any {
	if value != nil && value.Kind == language.Variable {
		v, _ := lookupVariable(vars, value.Raw)
		return v
	}
	return astValueToGo(value)
}

// astValueToGo converts a literal into the Go values JSON decoding would
// produce, except that integers stay int.
func astValueToGo(value *language.Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.IntValue:
		i, _ := strconv.Atoi(value.Raw)
		return i
	case language.FloatValue:
		f, _ := strconv.ParseFloat(value.Raw, 64)
		return f
	case language.StringValue, language.BlockValue, language.EnumValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = astValueToGo(c.Value)
		}
		return out
	case language.ObjectValue:
		out := make(map[string]any, len(value.Children))
		for _, c := range value.Children {
			out[c.Name] = astValueToGo(c.Value)
		}
		return out
	}
	return nil
}

var inputScalars = map[string]func(any) (any, error){
	"Int":     coerceInt,
	"Float":   coerceFloat,
	"String":  coerceString,
	"Boolean": coerceBoolean,
	"ID":      coerceID,
}

// coerceInput coerces value to typ. With a nil schema, named types other
// than the built-in scalars pass through unchanged, as do custom scalars.
func coerceInput(s *schema.Schema, value any, typ *schema.TypeRef) (any, error) {
	if schema.IsNonNull(typ) {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type")
		}
		return coerceInput(s, value, schema.Unwrap(typ))
	}
	if value == nil {
		return nil, nil
	}
	if schema.IsList(typ) {
		return coerceList(s, value, schema.Unwrap(typ))
	}

	name := schema.GetNamedType(typ)
	if scalar, ok := inputScalars[name]; ok {
		return scalar(value)
	}
	if s == nil {
		return value, nil
	}
	switch t := s.Types[name]; {
	case t == nil:
		return value, nil
	case t.Kind == schema.TypeKindInputObject:
		return coerceInputObject(s, t, value)
	case t.Kind == schema.TypeKindEnum:
		return coerceEnum(t, value)
	}
	return value, nil
}

// coerceList accepts a single value as a list of one.
func coerceList(s *schema.Schema, value any, itemType *schema.TypeRef) (any, error) {
	items, ok := value.([]any)
	if !ok {
		items = []any{value}
	}
	out := make([]any, len(items))
	for i, item := range items {
		v, err := coerceInput(s, item, itemType)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func coerceInputObject(s *schema.Schema, typ *schema.Type, value any) (any, error) {
	in, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object for input type %s, got %T", typ.Name, value)
	}
	for key := range in {
		if typ.InputField(key) == nil {
			return nil, fmt.Errorf("field '%s' is not defined by type %s", key, typ.Name)
		}
	}
	out := make(map[string]any, len(typ.InputFields))
	for _, field := range typ.InputFields {
		v, present := in[field.Name]
		if !present {
			if field.DefaultValue != nil {
				out[field.Name] = field.DefaultValue
			} else if schema.IsNonNull(field.Type) {
				return nil, fmt.Errorf("required field '%s' of type %s was not provided", field.Name, typ.Name)
			}
			continue
		}
		cv, err := coerceInput(s, v, field.Type)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", field.Name, err)
		}
		out[field.Name] = cv
	}
	if typ.OneOf {
		var set []string
		for k, v := range out {
			if v != nil {
				set = append(set, k)
			}
		}
		if len(set) != 1 {
			sort.Strings(set)
			return nil, fmt.Errorf("oneOf input %s requires exactly one field, got %v", typ.Name, set)
		}
	}
	return out, nil
}

func coerceEnum(typ *schema.Type, value any) (any, error) {
	name, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("enum %s cannot represent non-string value %v", typ.Name, value)
	}
	for _, ev := range typ.EnumValues {
		if ev.Name == name {
			return name, nil
		}
	}
	return nil, fmt.Errorf("value %q does not exist in enum %s", name, typ.Name)
}

func cannotCoerce(value any, to string) error {
	return fmt.Errorf("cannot coerce %v (%T) to %s", value, value, to)
}

// coerceInt accepts integral numbers within the 32-bit range GraphQL Int
// allows. JSON decoding yields float64, so integral floats are accepted.
func coerceInt(value any) (any, error) {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
			return nil, cannotCoerce(value, "int")
		}
		n = int64(v)
	case float32:
		if f := float64(v); f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
			return nil, cannotCoerce(value, "int")
		}
		n = int64(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return nil, cannotCoerce(value, "int")
		}
		n = i
	default:
		return nil, cannotCoerce(value, "int")
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, cannotCoerce(value, "int")
	}
	return int(n), nil
}

func coerceFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, nil
		}
	}
	return nil, cannotCoerce(value, "float")
}

func coerceString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, cannotCoerce(value, "string")
}

func coerceBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, cannotCoerce(value, "boolean")
}

// coerceID accepts strings and integers; integers become their decimal form.
func coerceID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case json.Number:
		return v.String(), nil
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return strconv.FormatInt(int64(v), 10), nil
		}
	}
	return nil, cannotCoerce(value, "ID")
}
