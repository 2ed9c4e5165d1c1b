package server

import (
	"time"

	log "github.com/jensneuse/abstractlogger"

	eventbus "github.com/hanpama/gramps/internal/eventbus"
)

// DefaultQueryCacheSize is the cache size New uses unless told otherwise.
const DefaultQueryCacheSize = 1024

// Options configure a Handler. The zero value serves without timeout, body
// limit, query cache or CORS.
type Options struct {
	// Timeout applies when the request context carries no deadline.
	Timeout time.Duration
	// Pretty indents JSON responses.
	Pretty bool
	// MaxBodyBytes caps POST bodies; 0 means no cap.
	MaxBodyBytes int64
	// CORS is disabled while AllowedOrigins is empty.
	CORS CORSOptions
	// QueryCacheSize bounds the cache of validated documents keyed by query
	// text; 0 disables it.
	QueryCacheSize int

	Logger log.Logger
	Bus    *eventbus.Bus
}

type CORSOptions struct {
	AllowedOrigins []string
}

type Option func(*Options)

func defaultOptions() Options {
	return Options{Timeout: 10 * time.Second, QueryCacheSize: DefaultQueryCacheSize, Logger: log.NoopLogger}
}

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithQueryCache(size int) Option     { return func(o *Options) { o.QueryCacheSize = size } }
func WithBus(b *eventbus.Bus) Option     { return func(o *Options) { o.Bus = b } }

// WithLogger sets the logger for response write failures. nil keeps the
// no-op logger.
func WithLogger(l log.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithCORS allows the given origins; "*" allows any.
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
