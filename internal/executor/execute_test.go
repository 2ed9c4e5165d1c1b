package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	schema "github.com/hanpama/gramps/internal/schema"
)

var errBoom = errors.New("boom")

func echoArg(name string) MockResolver {
	return func(_ context.Context, _ any, args map[string]any) (any, error) { return args[name], nil }
}

func TestOperationSelection(t *testing.T) {
	const sdl = `type Query { a: String b: String }`
	ab := map[string]MockResolver{"Query.a": NewMockValueResolver("A"), "Query.b": NewMockValueResolver("B")}
	notFound := &ExecutionResult{Errors: []GraphQLError{{Message: "operation not found"}}}

	for _, c := range []execCase{
		{name: "anonymous", sdl: sdl, resolvers: ab, query: `{ a }`, want: ok(map[string]any{"a": "A"})},
		{name: "single named without name", sdl: sdl, resolvers: ab, query: `query Foo { a }`, want: ok(map[string]any{"a": "A"})},
		{name: "named", sdl: sdl, resolvers: ab, query: `query Foo { a } query Bar { b }`, operation: "Bar", want: ok(map[string]any{"b": "B"})},
		{name: "fragments only", query: `fragment F on Query { a }`, want: notFound},
		{name: "ambiguous", query: `query Foo { a } query Bar { b }`, want: notFound},
		{name: "unknown name", query: `query Foo { a } query Bar { b }`, operation: "Baz", want: notFound},
	} {
		t.Run(c.name, c.run)
	}
}

func TestVariableCoercion(t *testing.T) {
	const sdl = `type Query { echo(v: Int): Int }`
	echo := map[string]MockResolver{"Query.echo": echoArg("v")}

	for _, c := range []execCase{
		{
			name: "provided", sdl: sdl, resolvers: echo,
			query: `query($v: Int!) { echo(v: $v) }`, variables: map[string]any{"v": 3},
			want: ok(map[string]any{"echo": 3}),
		},
		{
			name: "default", sdl: sdl, resolvers: echo,
			query: `query($v: Int = 5) { echo(v: $v) }`,
			want:  ok(map[string]any{"echo": 5}),
		},
		{
			name:  "missing required",
			query: `query($v: Int!) { echo(v: $v) }`,
			want:  &ExecutionResult{Errors: []GraphQLError{{Message: "variable $v of required type Int! was not provided"}}},
		},
		{
			name:  "null for non-null",
			query: `query($v: Int!) { echo(v: $v) }`, variables: map[string]any{"v": nil},
			want: &ExecutionResult{Errors: []GraphQLError{{Message: "variable $v of type Int! cannot be null"}}},
		},
	} {
		t.Run(c.name, c.run)
	}
}

func TestBatching(t *testing.T) {
	const flat = `type Query { a: String b: String }`
	const tree = `
		type Query { root: Node }
		type Node { child: Node x: String }`
	ab := map[string]MockResolver{"Query.a": NewMockValueResolver("A"), "Query.b": NewMockValueResolver("B")}
	nodes := map[string]MockResolver{
		"Query.root": NewMockValueResolver(map[string]any{"id": "r"}),
		"Node.child": NewMockValueResolver(map[string]any{"id": "c"}),
		"Node.x":     NewMockValueResolver("X"),
	}

	for _, c := range []execCase{
		{
			name: "sync before async", sdl: flat, async: []string{"Query.b"}, resolvers: ab,
			query: `{ a b }`,
			want:  ok(map[string]any{"a": "A", "b": "B"}),
			calls: []Call{syncCall("Query", "a", nil, nil), asyncCall("Query", "b", nil, 1)},
		},
		{
			name: "single async root field", sdl: flat, async: []string{"Query.a"}, resolvers: ab,
			query: `{ a }`,
			want:  ok(map[string]any{"a": "A"}),
			calls: []Call{asyncCall("Query", "a", nil, 1)},
		},
		{
			name: "one batch per depth", sdl: flat, async: []string{"Query.a", "Query.b"}, resolvers: ab,
			query: `{ a b }`,
			want:  ok(map[string]any{"a": "A", "b": "B"}),
			calls: []Call{asyncCall("Query", "a", nil, 1), asyncCall("Query", "b", nil, 1)},
		},
		{
			name: "two levels", sdl: tree, async: []string{"Query.root", "Node.x"}, resolvers: nodes,
			query: `{ root { x } }`,
			want:  ok(map[string]any{"root": map[string]any{"x": "X"}}),
			calls: []Call{
				asyncCall("Query", "root", nil, 1),
				asyncCall("Node", "x", map[string]any{"id": "r"}, 2),
			},
		},
		{
			name: "three levels", sdl: tree, async: []string{"Query.root", "Node.child", "Node.x"}, resolvers: nodes,
			query: `{ root { child { x } } }`,
			want:  ok(map[string]any{"root": map[string]any{"child": map[string]any{"x": "X"}}}),
			calls: []Call{
				asyncCall("Query", "root", nil, 1),
				asyncCall("Node", "child", map[string]any{"id": "r"}, 2),
				asyncCall("Node", "x", map[string]any{"id": "c"}, 3),
			},
		},
		{
			name: "partial batch failure", sdl: flat, async: []string{"Query.a", "Query.b"},
			resolvers: map[string]MockResolver{"Query.a": NewMockErrorResolver(errBoom), "Query.b": NewMockValueResolver("B")},
			query:     `{ a b }`,
			want:      &ExecutionResult{Data: map[string]any{"a": nil, "b": "B"}, Errors: []GraphQLError{{Message: "boom", Path: Path{"a"}}}},
			calls:     []Call{asyncCall("Query", "a", nil, 1), asyncCall("Query", "b", nil, 1)},
		},
		{
			name: "nested mixed",
			sdl: `
				type Query { obj: Obj }
				type Obj { a: String b: String }`,
			async: []string{"Obj.b"},
			resolvers: map[string]MockResolver{
				"Query.obj": NewMockValueResolver(map[string]any{}),
				"Obj.a":     NewMockValueResolver("A"),
				"Obj.b":     NewMockValueResolver("B"),
			},
			query: `{ obj { a b } }`,
			want:  ok(map[string]any{"obj": map[string]any{"a": "A", "b": "B"}}),
			calls: []Call{
				syncCall("Query", "obj", nil, nil),
				syncCall("Obj", "a", map[string]any{}, nil),
				asyncCall("Obj", "b", map[string]any{}, 1),
			},
		},
	} {
		t.Run(c.name, c.run)
	}
}

func TestResolverInputs(t *testing.T) {
	execCase{
		sdl: `
			type Query { obj: Obj }
			type Obj { a(arg: String): String }`,
		resolvers: map[string]MockResolver{
			"Query.obj": NewMockValueResolver(map[string]any{"token": "root"}),
			"Obj.a":     echoArg("arg"),
		},
		query: `{ obj { a(arg: "val") } }`,
		want:  ok(map[string]any{"obj": map[string]any{"a": "val"}}),
		calls: []Call{
			syncCall("Query", "obj", nil, nil),
			syncCall("Obj", "a", map[string]any{"token": "root"}, map[string]any{"arg": "val"}),
		},
	}.run(t)
}

func TestNullability(t *testing.T) {
	list := func(sdl string, v any, want *ExecutionResult) execCase {
		return execCase{
			sdl:       sdl,
			resolvers: map[string]MockResolver{"Query.list": NewMockValueResolver(v)},
			query:     `{ list }`,
			want:      want,
		}
	}
	const nullableItems = `type Query { list: [String] }`
	const requiredItems = `type Query { list: [String!] }`

	cases := map[string]execCase{
		"list values":    list(nullableItems, []any{"A", "B"}, ok(map[string]any{"list": []any{"A", "B"}})),
		"list with null": list(nullableItems, []any{"A", nil, "B"}, ok(map[string]any{"list": []any{"A", nil, "B"}})),
		"null list":      list(nullableItems, nil, ok(map[string]any{"list": nil})),
		"null in non-null items": list(requiredItems, []any{"A", nil, "B"}, &ExecutionResult{
			Data:   map[string]any{"list": nil},
			Errors: []GraphQLError{{Message: "Cannot return null for non-nullable field list.[1]", Path: Path{"list", 1}}},
		}),
		"null field cancels siblings": {
			sdl: `
				type Query { obj: Obj! }
				type Obj { a: String! b: String! }`,
			async: []string{"Obj.b"},
			resolvers: map[string]MockResolver{
				"Query.obj": NewMockValueResolver(map[string]any{}),
				"Obj.a":     NewMockValueResolver(nil),
				"Obj.b":     NewMockValueResolver("B"),
			},
			query: `{ obj { a b } }`,
			want: &ExecutionResult{
				Data:   map[string]any{"obj": nil},
				Errors: []GraphQLError{{Message: "Cannot return null for non-nullable field obj.a", Path: Path{"obj", "a"}}},
			},
			calls: []Call{
				syncCall("Query", "obj", nil, nil),
				syncCall("Obj", "a", map[string]any{}, nil),
			},
		},
	}
	for name, c := range cases {
		t.Run(name, c.run)
	}
}

func TestErrorPaths(t *testing.T) {
	const sdl = `
		type Query { a: String obj: Obj objs: [Obj] }
		type Obj { a: String }`
	failSecond := func(_ context.Context, src any, _ map[string]any) (any, error) {
		if src.(map[string]any)["idx"] == 1 {
			return nil, errBoom
		}
		return "A", nil
	}

	for _, c := range []execCase{
		{
			name: "root", sdl: sdl,
			resolvers: map[string]MockResolver{"Query.a": NewMockErrorResolver(errBoom)},
			query:     `{ a }`,
			want:      &ExecutionResult{Data: map[string]any{"a": nil}, Errors: []GraphQLError{{Message: "boom", Path: Path{"a"}}}},
		},
		{
			name: "nested", sdl: sdl,
			resolvers: map[string]MockResolver{
				"Query.obj": NewMockValueResolver(map[string]any{}),
				"Obj.a":     NewMockErrorResolver(errBoom),
			},
			query: `{ obj { a } }`,
			want: &ExecutionResult{
				Data:   map[string]any{"obj": map[string]any{"a": nil}},
				Errors: []GraphQLError{{Message: "boom", Path: Path{"obj", "a"}}},
			},
		},
		{
			name: "list index", sdl: sdl,
			resolvers: map[string]MockResolver{
				"Query.objs": NewMockValueResolver([]any{map[string]any{"idx": 0}, map[string]any{"idx": 1}}),
				"Obj.a":      failSecond,
			},
			query: `{ objs { a } }`,
			want: &ExecutionResult{
				Data:   map[string]any{"objs": []any{map[string]any{"a": "A"}, map[string]any{"a": nil}}},
				Errors: []GraphQLError{{Message: "boom", Path: Path{"objs", 1, "a"}}},
			},
		},
	} {
		t.Run(c.name, c.run)
	}
}

func TestMutationsRunSerially(t *testing.T) {
	execCase{
		sdl: `
			type Query { noop: String }
			type Mutation { m1: String m2: String m3: String }`,
		resolvers: map[string]MockResolver{
			"Mutation.m1": NewMockValueResolver("1"),
			"Mutation.m2": NewMockErrorResolver(errBoom),
			"Mutation.m3": NewMockValueResolver("3"),
		},
		query: `mutation { m1 m2 m3 }`,
		want: &ExecutionResult{
			Data:   map[string]any{"m1": "1", "m2": nil, "m3": "3"},
			Errors: []GraphQLError{{Message: "boom", Path: Path{"m2"}}},
		},
		calls: []Call{
			syncCall("Mutation", "m1", nil, nil),
			syncCall("Mutation", "m2", nil, nil),
			syncCall("Mutation", "m3", nil, nil),
		},
	}.run(t)
}

func TestMergesDuplicateFields(t *testing.T) {
	execCase{
		sdl: `
			type Query { obj: Obj }
			type Obj { a: Sub }
			type Sub { x: String y: String }`,
		resolvers: map[string]MockResolver{
			"Query.obj": NewMockValueResolver(map[string]any{}),
			"Obj.a":     NewMockValueResolver(map[string]any{}),
			"Sub.x":     NewMockValueResolver("X"),
			"Sub.y":     NewMockValueResolver("Y"),
		},
		query: `{ obj { a { x } a { y } } }`,
		want:  ok(map[string]any{"obj": map[string]any{"a": map[string]any{"x": "X", "y": "Y"}}}),
		calls: []Call{
			syncCall("Query", "obj", nil, nil),
			syncCall("Obj", "a", map[string]any{}, nil),
			syncCall("Sub", "x", map[string]any{}, nil),
			syncCall("Sub", "y", map[string]any{}, nil),
		},
	}.run(t)
}

func TestLeafSerialization(t *testing.T) {
	const sdl = `type Query { a: String }`
	bang := func(rt *MockRuntime) {
		SetSerializer(rt, func(val any, _ schema.TypeRef) (any, error) {
			if s, ok := val.(string); ok {
				return s + "!", nil
			}
			return nil, fmt.Errorf("not a string: %v", val)
		})
	}
	failing := func(rt *MockRuntime) {
		SetSerializer(rt, func(any, schema.TypeRef) (any, error) { return nil, errors.New("serialize error") })
	}

	for _, c := range []execCase{
		{
			name: "serialized", sdl: sdl, setup: bang,
			resolvers: map[string]MockResolver{"Query.a": NewMockValueResolver("ok")},
			query:     `{ a }`,
			want:      ok(map[string]any{"a": "ok!"}),
		},
		{
			name: "serializer error", sdl: sdl, setup: failing,
			resolvers: map[string]MockResolver{"Query.a": NewMockValueResolver("bad")},
			query:     `{ a }`,
			want:      &ExecutionResult{Data: map[string]any{"a": nil}, Errors: []GraphQLError{{Message: "serialize error", Path: Path{"a"}}}},
		},
	} {
		t.Run(c.name, c.run)
	}
}

func TestAbstractTypeResolution(t *testing.T) {
	const sdl = `
		type Query { iface: Node }
		interface Node { a: String }
		type Obj implements Node { a: String }`
	resolveTo := func(name string, err error) func(*MockRuntime) {
		return func(rt *MockRuntime) {
			SetTypeResolver(rt, func(any) (string, error) { return name, err })
		}
	}
	root := syncCall("Query", "iface", nil, nil)

	for _, c := range []execCase{
		{
			name: "concrete type", sdl: sdl, setup: resolveTo("Obj", nil),
			resolvers: map[string]MockResolver{
				"Query.iface": NewMockValueResolver(map[string]any{"val": "A"}),
				"Obj.a":       NewMockValueResolver("A"),
			},
			query: `{ iface { a } }`,
			want:  ok(map[string]any{"iface": map[string]any{"a": "A"}}),
			calls: []Call{root, syncCall("Obj", "a", map[string]any{"val": "A"}, nil)},
		},
		{
			name: "resolver error", sdl: sdl, setup: resolveTo("", errBoom),
			resolvers: map[string]MockResolver{"Query.iface": NewMockValueResolver(map[string]any{})},
			query:     `{ iface { a } }`,
			want:      &ExecutionResult{Data: map[string]any{"iface": nil}, Errors: []GraphQLError{{Message: "boom", Path: Path{"iface"}}}},
			calls:     []Call{root},
		},
		{
			name: "unknown type", sdl: sdl, setup: resolveTo("Unknown", nil),
			resolvers: map[string]MockResolver{"Query.iface": NewMockValueResolver(map[string]any{})},
			query:     `{ iface { a } }`,
			want: &ExecutionResult{
				Data:   map[string]any{"iface": nil},
				Errors: []GraphQLError{{Message: "Abstract type Node must resolve to an Object type at runtime. Got: Unknown", Path: Path{"iface"}}},
			},
			calls: []Call{root},
		},
	} {
		t.Run(c.name, c.run)
	}
}

func TestRuntimeHooksCalledOncePerValue(t *testing.T) {
	var types, leaves int
	execCase{
		sdl: `
			type Query { iface: Node }
			interface Node { a: String }
			type Obj implements Node { a: String }`,
		setup: func(rt *MockRuntime) {
			SetTypeResolver(rt, func(any) (string, error) { types++; return "Obj", nil })
			SetSerializer(rt, func(val any, _ schema.TypeRef) (any, error) { leaves++; return val.(string) + "!", nil })
		},
		resolvers: map[string]MockResolver{
			"Query.iface": NewMockValueResolver(map[string]any{}),
			"Obj.a":       NewMockValueResolver("A"),
		},
		query: `{ iface { a } }`,
		want:  ok(map[string]any{"iface": map[string]any{"a": "A!"}}),
	}.run(t)
	require.Equal(t, 1, types)
	require.Equal(t, 1, leaves)
}

type codedError struct{ code string }

func (e codedError) Error() string              { return "coded" }
func (e codedError) Extensions() map[string]any { return map[string]any{"code": e.code} }

func TestErrorExtensionsSurvive(t *testing.T) {
	execCase{
		sdl:   `type Query { a: String b: String }`,
		async: []string{"Query.b"},
		resolvers: map[string]MockResolver{
			"Query.a": NewMockErrorResolver(codedError{code: "NOPE"}),
			"Query.b": NewMockErrorResolver(fmt.Errorf("wrapped: %w", GraphQLError{Message: "inner", Extensions: map[string]any{"source": "Users"}})),
		},
		query: `{ a b }`,
		want: &ExecutionResult{
			Data: map[string]any{"a": nil, "b": nil},
			Errors: []GraphQLError{
				{Message: "coded", Path: Path{"a"}, Extensions: map[string]any{"code": "NOPE"}},
				{Message: "wrapped: inner", Path: Path{"b"}, Extensions: map[string]any{"source": "Users"}},
			},
		},
	}.run(t)
}

func TestAsyncResultUnderNulledObjectIsDropped(t *testing.T) {
	execCase{
		sdl: `
			type Query { obj: Obj }
			type Obj { b: String a: String! }`,
		async: []string{"Obj.b"},
		resolvers: map[string]MockResolver{
			"Query.obj": NewMockValueResolver(map[string]any{}),
			"Obj.a":     NewMockValueResolver(nil),
			"Obj.b":     NewMockValueResolver("B"),
		},
		query: `{ obj { b a } }`,
		want: &ExecutionResult{
			Data:   map[string]any{"obj": nil},
			Errors: []GraphQLError{{Message: "Cannot return null for non-nullable field obj.a", Path: Path{"obj", "a"}}},
		},
	}.run(t)
}

func TestCancelledContextSkipsBatches(t *testing.T) {
	sch := buildSchema(t, `type Query { a: String b: String }`, "Query.b")
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": NewMockValueResolver("A"),
		"Query.b": NewMockValueResolver("B"),
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := NewExecutor(rt, sch).ExecuteRequest(ctx, mustParseQuery(t, `{ a b }`), "", nil, nil)
	require.Equal(t, map[string]any{"a": "A", "b": nil}, got.Data)
	require.Equal(t, []GraphQLError{{Message: context.Canceled.Error(), Path: Path{"b"}}}, got.Errors)
	require.Equal(t, []Call{syncCall("Query", "a", nil, nil)}, rt.GetCalls())
}
