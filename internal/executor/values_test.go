package executor

import (
	"testing"

	"github.com/stretchr/testify/require"

	schema "github.com/hanpama/gramps/internal/schema"
)

func TestCoerceVariableValues(t *testing.T) {
	sch := buildSchema(t, `
		type Query { find(filter: FilterInput, count: Int): String }
		input FilterInput { required: String! optional: Int }`)

	for _, tc := range []struct {
		name    string
		query   string
		vars    map[string]any
		want    map[string]any
		wantErr string
	}{
		{
			name:  "input object",
			query: `query($filter: FilterInput!) { find(filter: $filter) }`,
			vars:  map[string]any{"filter": map[string]any{"required": "x", "optional": 10}},
			want:  map[string]any{"filter": map[string]any{"required": "x", "optional": 10}},
		},
		{
			name:    "input object missing required field",
			query:   `query($filter: FilterInput!) { find(filter: $filter) }`,
			vars:    map[string]any{"filter": map[string]any{"optional": 10}},
			wantErr: "required field 'required'",
		},
		{
			name:  "json number as int",
			query: `query($count: Int!) { find(count: $count) }`,
			vars:  map[string]any{"count": float64(42)},
			want:  map[string]any{"count": 42},
		},
		{
			name:    "scalar mismatch",
			query:   `query($count: Int!) { find(count: $count) }`,
			vars:    map[string]any{"count": "42"},
			wantErr: "cannot coerce",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			op := mustParseQuery(t, tc.query).Operations[0]
			got, err := coerceVariableValues(sch, op, tc.vars)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestCoerceInputScalars(t *testing.T) {
	for _, tc := range []struct {
		typ     string
		in      any
		want    any
		wantErr bool
	}{
		{typ: "Int", in: float64(7), want: 7},
		{typ: "Int", in: 7.5, wantErr: true},
		{typ: "Int", in: int64(1 << 40), wantErr: true},
		{typ: "Float", in: 2, want: 2.0},
		{typ: "String", in: 1, wantErr: true},
		{typ: "Boolean", in: true, want: true},
		{typ: "ID", in: float64(42), want: "42"},
		{typ: "ID", in: 42, want: "42"},
		{typ: "ID", in: "abc", want: "abc"},
		{typ: "ID", in: 1.5, wantErr: true},
	} {
		got, err := coerceInput(nil, tc.in, schema.NamedType(tc.typ))
		if tc.wantErr {
			require.Error(t, err, "%s %v", tc.typ, tc.in)
			continue
		}
		require.NoError(t, err, "%s %v", tc.typ, tc.in)
		require.Equal(t, tc.want, got, "%s %v", tc.typ, tc.in)
	}
}

func TestCoerceInputLists(t *testing.T) {
	list := schema.ListType(schema.NonNullType(schema.NamedType("Int")))

	got, err := coerceInput(nil, []any{float64(1), 2}, list)
	require.NoError(t, err)
	require.Equal(t, []any{1, 2}, got)

	got, err = coerceInput(nil, 3, list)
	require.NoError(t, err)
	require.Equal(t, []any{3}, got, "a single value is wrapped")

	_, err = coerceInput(nil, []any{1, nil}, list)
	require.Error(t, err)
}
