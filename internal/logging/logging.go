// Package logging builds the zap-backed logger handed to every component.
package logging

import (
	"fmt"

	log "github.com/jensneuse/abstractlogger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	// Level is a zap level name such as "debug" or "warn". Empty means info.
	Level string
	// Development selects the console encoder and stack traces on warnings.
	Development bool
	// OutputPaths overrides where log lines go. Defaults to stderr.
	OutputPaths []string
}

// New returns a logger and a function flushing its buffers.
func New(opts Options) (log.Logger, func(), error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, nil, fmt.Errorf("logging: %w", err)
		}
	}

	cfg := zap.NewProductionConfig()
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	if len(opts.OutputPaths) > 0 {
		cfg.OutputPaths = opts.OutputPaths
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}
	// zap filters by level; the facade passes everything through.
	return log.NewZapLogger(logger, log.DebugLevel), func() { _ = logger.Sync() }, nil
}
