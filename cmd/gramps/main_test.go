package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	config "github.com/hanpama/gramps/internal/config"
	gramps "github.com/hanpama/gramps/internal/gramps"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(config.New())
	var out bytes.Buffer
	root.SetOutput(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeSource(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "datasource.yaml"), []byte("namespace: Users\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.graphql"), []byte("type Query { users: [User] }\ntype User { name: String }\n"), 0o644))
	return dir
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	require.Equal(t, gramps.Version+"\n", out)
}

func TestPrintSchema(t *testing.T) {
	dir := writeSource(t)
	out, err := run(t, "print-schema", "--data-sources", dir, "--log-level", "error")
	require.NoError(t, err)
	require.Equal(t, `type Query {
  grampsVersion: String!
  users: [User]
}

type User {
  name: String
}
`, out)
}

func TestPrintSchemaToFile(t *testing.T) {
	t.Setenv("GRAMPS_DATA_SOURCES", writeSource(t))
	t.Setenv("GRAMPS_PING", "true")
	path := filepath.Join(t.TempDir(), "schema.graphql")

	out, err := run(t, "print-schema", "--log-level", "error", "-o", path)
	require.NoError(t, err)
	require.Empty(t, out)
	sdl, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(sdl), "grampsPing: String!")
	require.Contains(t, string(sdl), "users: [User]")
}

func TestInvalidMode(t *testing.T) {
	_, err := run(t, "print-schema", "--mode", "fake")
	require.ErrorContains(t, err, `got "fake"`)
}
