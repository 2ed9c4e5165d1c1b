package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	language "github.com/hanpama/gramps/internal/language"
	schema "github.com/hanpama/gramps/internal/schema"
)

func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	require.NoError(t, err)
	return d
}

// buildSchema builds sdl and marks each "Type.field" in async as batched.
func buildSchema(t *testing.T, sdl string, async ...string) *schema.Schema {
	t.Helper()
	sch, err := schema.BuildFromSDL(sdl)
	require.NoError(t, err)
	for _, key := range async {
		typeName, fieldName := splitKey(key)
		typ := sch.Types[typeName]
		require.NotNil(t, typ, "unknown type in %s", key)
		f := typ.Field(fieldName)
		require.NotNil(t, f, "unknown field %s", key)
		f.SetAsync(true)
	}
	return sch
}

// execCase runs query against a mock runtime and compares the result and,
// when calls is non-nil, the recorded runtime calls.
type execCase struct {
	name      string
	sdl       string
	async     []string
	resolvers map[string]MockResolver
	setup     func(rt *MockRuntime)
	query     string
	operation string
	variables map[string]any

	want  *ExecutionResult
	calls []Call
}

func (c execCase) run(t *testing.T) {
	t.Helper()
	sch := &schema.Schema{}
	if c.sdl != "" {
		sch = buildSchema(t, c.sdl, c.async...)
	}
	rt := NewMockRuntime(c.resolvers)
	if c.setup != nil {
		c.setup(rt)
	}
	got := NewExecutor(rt, sch).ExecuteRequest(context.Background(), mustParseQuery(t, c.query), c.operation, c.variables, nil)
	if diff := cmp.Diff(c.want, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	if c.calls != nil {
		if diff := cmp.Diff(c.calls, rt.GetCalls()); diff != "" {
			t.Fatalf("runtime calls mismatch (-want +got):\n%s", diff)
		}
	}
}

func ok(data map[string]any) *ExecutionResult {
	return &ExecutionResult{Data: data, Errors: []GraphQLError{}}
}

func syncCall(typ, field string, src any, args map[string]any) Call {
	if args == nil {
		args = map[string]any{}
	}
	return Call{Kind: "sync", ObjectType: typ, Field: field, Source: src, Args: args}
}

func asyncCall(typ, field string, src any, batch int) Call {
	return Call{Kind: "async", ObjectType: typ, Field: field, Source: src, Args: map[string]any{}, BatchID: batch}
}
