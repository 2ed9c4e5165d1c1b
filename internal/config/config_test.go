package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(New())
	require.NoError(t, err)
	require.Equal(t, ":8080", c.Addr)
	require.Equal(t, 10*time.Second, c.Timeout)
	require.Equal(t, "info", c.LogLevel)
	require.Equal(t, 1024, c.QueryCache)
	require.Empty(t, c.CORSOrigins)
	require.True(t, c.MockData())
	require.False(t, c.Production())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("GRAMPS_DATA_SOURCES", "./a, ./b")
	t.Setenv("GRAMPS_MODE", "Live")
	t.Setenv("GRAMPS_ENV", "production")
	t.Setenv("GRAMPS_TIMEOUT", "3s")
	t.Setenv("GRAMPS_QUERY_CACHE", "0")
	t.Setenv("GRAMPS_PING", "true")
	t.Setenv("GRAMPS_CORS", "http://a.test, http://b.test")

	c, err := Load(New())
	require.NoError(t, err)
	require.Equal(t, "./a, ./b", c.DataSources)
	require.Equal(t, ModeLive, c.Mode)
	require.True(t, c.Production())
	require.False(t, c.MockData())
	require.Equal(t, 3*time.Second, c.Timeout)
	require.Equal(t, 0, c.QueryCache)
	require.True(t, c.Ping)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, c.CORSOrigins)
}

func TestMockData(t *testing.T) {
	cases := []struct {
		mode, env string
		want      bool
	}{
		{"", "", true},
		{"", EnvProduction, false},
		{ModeMock, EnvProduction, true},
		{ModeLive, "", false},
	}
	for _, tc := range cases {
		c := Config{Mode: tc.mode, Env: tc.env}
		require.Equal(t, tc.want, c.MockData(), "mode=%q env=%q", tc.mode, tc.env)
	}
}

func TestLoad_InvalidMode(t *testing.T) {
	v := New()
	v.Set(KeyMode, "fake")
	_, err := Load(v)
	require.ErrorContains(t, err, `got "fake"`)
}
