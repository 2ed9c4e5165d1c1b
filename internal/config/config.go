// Package config reads the settings of the gramps command from flags and
// GRAMPS_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keys shared by viper, flags and the environment. A key maps to the
// variable GRAMPS_<KEY> with dashes turned into underscores.
const (
	KeyDataSources  = "data-sources"
	KeyMode         = "mode"
	KeyEnv          = "env"
	KeyAddr         = "addr"
	KeyTimeout      = "timeout"
	KeyPretty       = "pretty"
	KeyLogLevel     = "log-level"
	KeyOTelEndpoint = "otel-endpoint"
	KeyOTelService  = "otel-service"
	KeyQueryCache   = "query-cache"
	KeyPing         = "ping"
	KeyCORS         = "cors"
)

// Modes accepted by KeyMode.
const (
	ModeMock = "mock"
	ModeLive = "live"
)

// EnvProduction is the KeyEnv value that enables the production checks.
const EnvProduction = "production"

// Config holds the command settings.
type Config struct {
	// DataSources is the comma-separated list of dev data source paths.
	DataSources  string
	Mode         string
	Env          string
	Addr         string
	Timeout      time.Duration
	Pretty       bool
	LogLevel     string
	OTelEndpoint string
	OTelService  string
	QueryCache   int
	Ping         bool
	CORSOrigins  []string
}

// Production reports whether the environment is production.
func (c Config) Production() bool {
	return c.Env == EnvProduction
}

// MockData reports whether sources are overlaid with mocks. An unset mode
// mocks outside production.
func (c Config) MockData() bool {
	switch c.Mode {
	case ModeMock:
		return true
	case "":
		return !c.Production()
	default:
		return false
	}
}

// New returns a viper instance with defaults applied and the environment
// bound.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("gramps")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyTimeout, 10*time.Second)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyOTelService, "gramps")
	v.SetDefault(KeyQueryCache, 1024)
	return v
}

// Load reads a Config from v.
func Load(v *viper.Viper) (Config, error) {
	c := Config{
		DataSources:  v.GetString(KeyDataSources),
		Mode:         strings.ToLower(strings.TrimSpace(v.GetString(KeyMode))),
		Env:          strings.ToLower(strings.TrimSpace(v.GetString(KeyEnv))),
		Addr:         v.GetString(KeyAddr),
		Timeout:      v.GetDuration(KeyTimeout),
		Pretty:       v.GetBool(KeyPretty),
		LogLevel:     v.GetString(KeyLogLevel),
		OTelEndpoint: v.GetString(KeyOTelEndpoint),
		OTelService:  v.GetString(KeyOTelService),
		QueryCache:   v.GetInt(KeyQueryCache),
		Ping:         v.GetBool(KeyPing),
	}
	for _, o := range strings.Split(v.GetString(KeyCORS), ",") {
		if o = strings.TrimSpace(o); o != "" {
			c.CORSOrigins = append(c.CORSOrigins, o)
		}
	}

	switch c.Mode {
	case "", ModeMock, ModeLive:
	default:
		return Config{}, fmt.Errorf("config: %s must be %q or %q, got %q", KeyMode, ModeMock, ModeLive, c.Mode)
	}
	if c.QueryCache < 0 {
		return Config{}, fmt.Errorf("config: %s must not be negative", KeyQueryCache)
	}
	return c, nil
}
