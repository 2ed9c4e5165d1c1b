package datasource

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	executable "github.com/hanpama/gramps/internal/executable"
	resolver "github.com/hanpama/gramps/internal/resolver"
)

func TestTypeDefs_Resolve(t *testing.T) {
	cases := []struct {
		name string
		defs TypeDefs
		want []string
	}{
		{name: "zero", defs: TypeDefs{}, want: nil},
		{name: "static", defs: Static("a", "b"), want: []string{"a", "b"}},
		{name: "string", defs: Of("a"), want: []string{"a"}},
		{name: "nested any", defs: Of([]any{"a", []string{"b", "c"}, Static("d")}), want: []string{"a", "b", "c", "d"}},
		{name: "lazy", defs: Lazy(func() TypeDefs { return Of(func() []string { return []string{"a", "b"} }) }), want: []string{"a", "b"}},
		{name: "func any", defs: Of(func() any { return []any{func() string { return "x" }} }), want: []string{"x"}},
		{name: "list of TypeDefs", defs: Of([]TypeDefs{Static("a"), Of("b")}), want: []string{"a", "b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.defs.Resolve()
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Resolve mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTypeDefs_ResolveRejectsNonText(t *testing.T) {
	for _, v := range []any{42, []any{"a", nil}, map[string]string{}} {
		_, err := Of(v).Resolve()
		var bad *TypeDefsError
		require.True(t, errors.As(err, &bad), "%T", v)
	}
}

func TestTypeDefs_LazyRunsOnEachResolve(t *testing.T) {
	calls := 0
	defs := Lazy(func() TypeDefs {
		calls++
		return Static("type Query { a: Int }")
	})
	require.False(t, defs.IsZero())
	_, err := defs.Resolve()
	require.NoError(t, err)
	_, err = defs.Resolve()
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestDataSource_LegacyFields(t *testing.T) {
	ds := &DataSource{Namespace: "Old", Schema: "type Query { a: Int }", Model: StaticContext("model")}
	require.True(t, ds.UsesLegacySchema())
	defs, err := ds.SourceTypeDefs().Resolve()
	require.NoError(t, err)
	require.Equal(t, []string{"type Query { a: Int }"}, defs)
	require.Equal(t, "model", ds.ContextFor(nil))

	ds.TypeDefs = Static("type Query { b: Int }")
	ds.Context = ContextFunc(func(r *http.Request) any { return r.URL.Query().Get("id") })
	require.False(t, ds.UsesLegacySchema())
	require.Equal(t, "abc", ds.ContextFor(httptest.NewRequest("GET", "/?id=abc", nil)))
}

func TestCombineStitchingResolvers(t *testing.T) {
	echo := func(field string) func(*executable.MergeInfo) resolver.Map {
		return func(info *executable.MergeInfo) resolver.Map {
			return resolver.Map{"User": resolver.Object{
				field: resolver.FieldFunc(func(any, map[string]any, any, *resolver.Info) (any, error) {
					return info, nil
				}),
			}}
		}
	}
	sources := []*DataSource{
		{Namespace: "A", Stitching: &Stitching{Resolvers: echo("name")}},
		{Namespace: "Plain"},
		{Namespace: "B", Stitching: &Stitching{Resolvers: echo("age")}},
	}
	combined := CombineStitchingResolvers(sources)

	first, second := &executable.MergeInfo{}, &executable.MergeInfo{}
	for _, info := range []*executable.MergeInfo{first, second} {
		out := combined(info)
		for _, field := range []string{"name", "age"} {
			fn, ok := out.Field("User", field)
			require.True(t, ok, field)
			got, err := fn(nil, nil, nil, nil)
			require.NoError(t, err)
			require.Same(t, info, got)
		}
	}
}

func TestCombineStitchingResolvers_LaterSourceWins(t *testing.T) {
	returning := func(v string) func(*executable.MergeInfo) resolver.Map {
		return func(*executable.MergeInfo) resolver.Map {
			return resolver.Map{"User": resolver.Object{"name": resolver.FieldFunc(func(any, map[string]any, any, *resolver.Info) (any, error) {
				return v, nil
			})}}
		}
	}
	out := CombineStitchingResolvers([]*DataSource{
		{Namespace: "A", Stitching: &Stitching{Resolvers: returning("a")}},
		{Namespace: "B", Stitching: &Stitching{Resolvers: returning("b")}},
	})(nil)
	fn, ok := out.Field("User", "name")
	require.True(t, ok)
	got, _ := fn(nil, nil, nil, nil)
	require.Equal(t, "b", got)
}

func TestLinkTypeDefs(t *testing.T) {
	defs, err := LinkTypeDefs([]*DataSource{
		{Namespace: "A", Stitching: &Stitching{LinkTypeDefs: Static("extend type User { a: Int }")}},
		{Namespace: "B"},
		{Namespace: "C", Stitching: &Stitching{LinkTypeDefs: Of([]string{"extend type User { c: Int }"})}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"extend type User { a: Int }", "extend type User { c: Int }"}, defs)
}
