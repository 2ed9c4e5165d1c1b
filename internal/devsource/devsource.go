// Package devsource loads development-only data sources from paths named in
// configuration and lets them replace same-namespace production sources.
//
// Loading never imports code at runtime: a path resolves through a Loader the
// host supplies, either a Registry of already-imported sources or a DirLoader
// reading a data source directory.
package devsource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/jensneuse/abstractlogger"

	datasource "github.com/hanpama/gramps/internal/datasource"
)

// Loader resolves an absolute path to a data source.
type Loader interface {
	Load(ctx context.Context, path string) (*datasource.DataSource, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, path string) (*datasource.DataSource, error)

func (f LoaderFunc) Load(ctx context.Context, path string) (*datasource.DataSource, error) {
	return f(ctx, path)
}

// ErrNotFound is returned when nothing is known at a path.
var ErrNotFound = errors.New("devsource: no data source at path")

// Registry maps absolute paths to data sources the host has imported.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]*datasource.DataSource
}

func NewRegistry() *Registry {
	return &Registry{sources: map[string]*datasource.DataSource{}}
}

// Provide registers ds under the absolute form of path.
func (r *Registry) Provide(path string, ds *datasource.DataSource) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("devsource: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[abs] = ds
	return nil
}

func (r *Registry) Load(_ context.Context, path string) (*datasource.DataSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ds, ok := r.sources[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return ds, nil
}

// ChainLoader tries each loader in order and returns the first success.
type ChainLoader []Loader

func (c ChainLoader) Load(ctx context.Context, path string) (*datasource.DataSource, error) {
	var errs []error
	for _, l := range c {
		ds, err := l.Load(ctx, path)
		if err == nil {
			return ds, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return nil, errors.Join(errs...)
}

// Options configures Load.
type Options struct {
	// Paths lists data source locations. Raw is a comma-separated list
	// appended to Paths.
	Paths []string
	Raw   string
	// Loader defaults to DirLoader.
	Loader Loader
	Logger log.Logger
	// WorkDir resolves relative paths. Defaults to the process working
	// directory.
	WorkDir string
	// Production enables the production warning.
	Production bool
}

// Result is the outcome of Load.
type Result struct {
	Sources []*datasource.DataSource
	// UsedExternalData is set once any path loaded, even when the loaded
	// source was then dropped for lacking a namespace.
	UsedExternalData bool
	Namespaces       []string
}

// ParsePaths splits a comma-separated list, trimming entries and dropping
// empty ones.
func ParsePaths(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load resolves every configured path. Paths that fail to load or lack a
// namespace are logged and dropped. Only a cancelled ctx or an unusable
// working directory fails the call.
func Load(ctx context.Context, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NoopLogger
	}
	loader := opts.Loader
	if loader == nil {
		loader = DirLoader{}
	}
	paths := append(append([]string(nil), opts.Paths...), ParsePaths(opts.Raw)...)

	var res Result
	if len(paths) == 0 {
		return res, nil
	}
	workDir := opts.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return res, fmt.Errorf("devsource: working directory: %w", err)
		}
		workDir = wd
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(workDir, p)
		}
		abs = filepath.Clean(abs)

		ds, err := loader.Load(ctx, abs)
		if err != nil {
			logger.Warn("devsource: could not load data source",
				log.String("path", abs),
				log.Error(err),
			)
			continue
		}
		res.UsedExternalData = true
		if ds == nil || ds.Namespace == "" {
			logger.Warn("devsource: data source has no namespace and was skipped",
				log.String("path", abs),
			)
			continue
		}
		res.Sources = append(res.Sources, ds)
		res.Namespaces = append(res.Namespaces, ds.Namespace)
	}

	if len(res.Sources) > 0 {
		WarnInProduction(logger, res, opts.Production)
	}
	return res, nil
}
