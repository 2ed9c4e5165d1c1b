package executable

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	executor "github.com/hanpama/gramps/internal/executor"
	resolver "github.com/hanpama/gramps/internal/resolver"
	schema "github.com/hanpama/gramps/internal/schema"
)

// runtime implements executor.Runtime over a resolver map.
//   - Fields with a resolver are async and run in BatchResolveAsync; the rest
//     are read off the parent value by ResolveSync.
//   - Resolvers receive the RequestContext stored on ctx.
//   - A panicking resolver fails only its own field.
type runtime struct {
	s *Schema
}

var _ executor.Runtime = (*runtime)(nil)

func (r *runtime) ResolveSync(ctx context.Context, task executor.FieldTask) (any, error) {
	if fn, ok := r.s.Resolvers.Field(task.ObjectType, task.Field); ok {
		return r.call(ctx, fn, task)
	}
	return defaultResolve(ctx, task.Source, task.Field, task.Args, r.info(ctx, task))
}

func (r *runtime) BatchResolveAsync(ctx context.Context, tasks []executor.FieldTask) []executor.FieldResult {
	results := make([]executor.FieldResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i := range tasks {
		go func(i int) {
			defer wg.Done()
			v, err := r.ResolveSync(ctx, tasks[i])
			results[i] = executor.FieldResult{Value: v, Error: err}
		}(i)
	}
	wg.Wait()
	return results
}

func (r *runtime) call(ctx context.Context, fn resolver.FieldFunc, task executor.FieldTask) (v any, err error) {
	defer func() {
		if p := recover(); p != nil {
			v, err = nil, fmt.Errorf("resolver %s.%s panicked: %v", task.ObjectType, task.Field, p)
		}
	}()
	return fn(task.Source, task.Args, requestContext(ctx), r.info(ctx, task))
}

func (r *runtime) info(ctx context.Context, task executor.FieldTask) *resolver.Info {
	path := make([]any, len(task.Path))
	for i, p := range task.Path {
		path[i] = p
	}
	return &resolver.Info{
		Context:    ctx,
		ParentType: task.ObjectType,
		FieldName:  task.Field,
		ReturnType: task.ReturnType,
		Path:       path,
		Schema:     r.s.Model,
	}
}

func (r *runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	if fn, ok := r.s.Resolvers.TypeResolver(abstractType); ok {
		return fn(value, requestContext(ctx), &resolver.Info{Context: ctx, ParentType: abstractType, Schema: r.s.Model})
	}
	switch v := value.(type) {
	case map[string]any:
		if name, ok := v["__typename"].(string); ok {
			return name, nil
		}
	case interface{ TypeName() string }:
		return v.TypeName(), nil
	}
	if t := r.s.Model.Types[abstractType]; t != nil && len(t.PossibleTypes) == 1 {
		return t.PossibleTypes[0], nil
	}
	return "", fmt.Errorf("abstract type %s must resolve to an object type at runtime: provide %s or a __typename", abstractType, resolver.TypeResolverKey)
}

func (r *runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if sc, ok := r.s.Resolvers.Scalar(typeName); ok && sc.Serialize != nil {
		return sc.Serialize(value)
	}
	t := r.s.Model.Types[typeName]
	if t != nil && t.Kind == schema.TypeKindEnum {
		return r.serializeEnum(t, value)
	}
	switch typeName {
	case "Int":
		return serializeInt(value)
	case "Float":
		return serializeFloat(value)
	case "String":
		return serializeString(value)
	case "Boolean":
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("Boolean cannot represent a non boolean value: %v", value)
	case "ID":
		switch v := value.(type) {
		case string:
			return v, nil
		case int, int32, int64, uint, uint32, uint64:
			return fmt.Sprint(v), nil
		case json.Number:
			return v.String(), nil
		}
		return nil, fmt.Errorf("ID cannot represent value: %v", value)
	}
	return value, nil
}

func (r *runtime) serializeEnum(t *schema.Type, value any) (any, error) {
	if internal, ok := r.s.Resolvers.Enum(t.Name); ok {
		if name, ok := internal.External(value); ok {
			return name, nil
		}
	}
	var name string
	switch v := value.(type) {
	case string:
		name = v
	case fmt.Stringer:
		name = v.String()
	default:
		return nil, fmt.Errorf("Enum %q cannot represent value: %v", t.Name, value)
	}
	for _, ev := range t.EnumValues {
		if ev.Name == name {
			return name, nil
		}
	}
	return nil, fmt.Errorf("Enum %q cannot represent value: %q", t.Name, name)
}

func serializeInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int8, int16, int32, int64, uint8, uint16, uint32:
		return int(reflect.ValueOf(v).Convert(reflect.TypeOf(int64(0))).Int()), nil
	case float32:
		return serializeInt(float64(v))
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || v > math.MaxInt32 || v < math.MinInt32 {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %v", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %s", v)
		}
		return int(n), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	return nil, fmt.Errorf("Int cannot represent non-integer value: %v", value)
}

func serializeFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int, int8, int16, int32, int64, uint8, uint16, uint32, uint64:
		return reflect.ValueOf(v).Convert(reflect.TypeOf(float64(0))).Float(), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("Float cannot represent non numeric value: %s", v)
		}
		return f, nil
	}
	return nil, fmt.Errorf("Float cannot represent non numeric value: %v", value)
}

func serializeString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return fmt.Sprint(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return nil, fmt.Errorf("String cannot represent value: %v", value)
}

func requestContext(ctx context.Context) any {
	rc, _ := resolver.RequestContextFrom(ctx)
	return rc
}

// defaultResolve reads field off source. Maps are indexed by key; structs match
// a json tag or a case-insensitive field name. A callable value is invoked.
func defaultResolve(ctx context.Context, source any, field string, args map[string]any, info *resolver.Info) (any, error) {
	var v any
	switch s := source.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		v = s[field]
	case resolver.Object:
		v = s[field]
	default:
		var ok bool
		if v, ok = reflectField(reflect.ValueOf(source), field); !ok {
			return nil, nil
		}
	}
	if fn, ok := resolver.AsFieldFunc(v); ok {
		return fn(source, args, requestContext(ctx), info)
	}
	return v, nil
}

func reflectField(rv reflect.Value, field string) (any, bool) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(field).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Struct:
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			sf := rt.Field(i)
			if !sf.IsExported() {
				continue
			}
			tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
			if tag == field || (tag == "" && strings.EqualFold(sf.Name, field)) {
				return rv.Field(i).Interface(), true
			}
		}
	}
	return nil, false
}
