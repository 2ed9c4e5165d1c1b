package logging

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/jensneuse/abstractlogger"
	"github.com/stretchr/testify/require"
)

func TestNew_FiltersBelowLevel(t *testing.T) {
	out := filepath.Join(t.TempDir(), "log.json")
	logger, flush, err := New(Options{Level: "warn", OutputPaths: []string{out}})
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Warn("loud", log.String("namespace", "Foo"))
	flush()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.NotContains(t, string(data), "quiet")
	require.Contains(t, string(data), `"msg":"loud"`)
	require.Contains(t, string(data), `"namespace":"Foo"`)
}

func TestNew_Development(t *testing.T) {
	out := filepath.Join(t.TempDir(), "log.txt")
	logger, flush, err := New(Options{Development: true, Level: "debug", OutputPaths: []string{out}})
	require.NoError(t, err)
	logger.Debug("details")
	flush()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(data), "details")
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New(Options{Level: "chatty"})
	require.Error(t, err)
}
