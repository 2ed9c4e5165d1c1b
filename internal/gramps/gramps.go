// Package gramps composes independently authored data sources into one
// executable GraphQL schema and builds the per-request context that gives each
// source its own namespaced slice.
package gramps

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/jensneuse/abstractlogger"

	datasource "github.com/hanpama/gramps/internal/datasource"
	devsource "github.com/hanpama/gramps/internal/devsource"
	eventbus "github.com/hanpama/gramps/internal/eventbus"
	events "github.com/hanpama/gramps/internal/events"
	executable "github.com/hanpama/gramps/internal/executable"
	mock "github.com/hanpama/gramps/internal/mock"
	resolver "github.com/hanpama/gramps/internal/resolver"
)

// Config is the input of Prepare.
type Config struct {
	DataSources []*datasource.DataSource
	// EnableMockData overlays every source, the root source included, with
	// mock resolvers.
	EnableMockData bool
	// ExtraContext is evaluated once per request and merged under every
	// source's context slice.
	ExtraContext func(*http.Request) map[string]any
	Logger       log.Logger
	// DevSources locates development-only sources that replace supplied
	// sources of the same namespace. Its Logger defaults to Logger.
	DevSources devsource.Options
	// Schemas are ready-made executable schemas merged after the sources.
	Schemas []*executable.Schema
	// DiagnosticMutation adds the grampsPing mutation to the root source.
	DiagnosticMutation bool
	Executable         ExecutableOptions
	Mock               MockOptions
	Bus                *eventbus.Bus
}

// ExecutableOptions are handed to executable.Make for every source.
type ExecutableOptions struct {
	AllowResolversNotInSchema bool
}

// MockOptions are handed to mock.Add for every source when mocking.
type MockOptions struct {
	// Mocks apply to every source. A source's own mocks win.
	Mocks             mock.Map
	PreserveResolvers bool
	Rand              *rand.Rand
}

// DuplicateNamespaceError reports two sources sharing a namespace.
type DuplicateNamespaceError struct {
	Namespace string
}

func (e *DuplicateNamespaceError) Error() string {
	return fmt.Sprintf("gramps: namespace %q is used by more than one data source", e.Namespace)
}

// Composite is the result of Prepare.
type Composite struct {
	Schema *executable.Schema

	sources []*datasource.DataSource
	extra   func(*http.Request) map[string]any
	logger  log.Logger
}

// Sources returns the data sources that take part in context assembly, dev
// overrides applied and the root source excluded.
func (c *Composite) Sources() []*datasource.DataSource {
	return append([]*datasource.DataSource(nil), c.sources...)
}

// Prepare composes the configured data sources.
//
// Dev sources replace supplied sources of the same namespace, the root source
// is prepended, each source with type definitions becomes an executable
// schema with namespaced resolvers, and everything is merged together with
// the sources' stitching definitions.
//
// A source that still exports its type definitions through the deprecated
// Schema field is logged at warn level once per composition, so every call
// to Prepare repeats the warning for that source.
func Prepare(ctx context.Context, cfg Config) (c *Composite, err error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NoopLogger
	}

	devOpts := cfg.DevSources
	if devOpts.Logger == nil {
		devOpts.Logger = logger
	}
	dev, err := devsource.Load(ctx, devOpts)
	if err != nil {
		return nil, err
	}
	sources := devsource.OverrideLocalSources(cfg.DataSources, dev.Sources, logger)
	if sources, err = withNamespaces(sources, logger); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	namespaces := make([]string, len(sources))
	for i, s := range sources {
		namespaces[i] = s.Namespace
	}
	start := time.Now()
	eventbus.Publish(ctx, cfg.Bus, events.ComposeStart{ID: id, Namespaces: namespaces, Mock: cfg.EnableMockData})
	defer func() {
		eventbus.Publish(ctx, cfg.Bus, events.ComposeFinish{ID: id, Namespaces: namespaces, Err: err, Duration: time.Since(start)})
	}()

	all := append([]*datasource.DataSource{rootSource(cfg.DiagnosticMutation)}, sources...)
	parts := make([]*executable.Schema, 0, len(all)+len(cfg.Schemas))
	for _, s := range all {
		part, err := buildSource(s, cfg, logger)
		if err != nil {
			return nil, err
		}
		if part != nil {
			parts = append(parts, part)
		}
	}
	parts = append(parts, cfg.Schemas...)

	links, err := datasource.LinkTypeDefs(all)
	if err != nil {
		return nil, err
	}
	merged, err := executable.Merge(executable.MergeConfig{
		Schemas:   parts,
		TypeDefs:  links,
		Resolvers: datasource.CombineStitchingResolvers(all),
	})
	if err != nil {
		return nil, fmt.Errorf("gramps: %w", err)
	}

	logger.Debug("gramps: composed data sources",
		log.Strings("namespaces", namespaces),
		log.Any("mock", cfg.EnableMockData),
	)
	return &Composite{
		Schema:  merged,
		sources: sources,
		extra:   cfg.ExtraContext,
		logger:  logger,
	}, nil
}

func withNamespaces(sources []*datasource.DataSource, logger log.Logger) ([]*datasource.DataSource, error) {
	out := make([]*datasource.DataSource, 0, len(sources))
	seen := make(map[string]bool, len(sources))
	for i, s := range sources {
		if s == nil || s.Namespace == "" {
			logger.Warn("gramps: data source has no namespace and was skipped", log.Int("index", i))
			continue
		}
		if seen[s.Namespace] {
			return nil, &DuplicateNamespaceError{Namespace: s.Namespace}
		}
		seen[s.Namespace] = true
		out = append(out, s)
	}
	return out, nil
}

// buildSource returns nil for a source without type definitions. Such a
// source still contributes its context.
func buildSource(s *datasource.DataSource, cfg Config, logger log.Logger) (*executable.Schema, error) {
	if s.UsesLegacySchema() {
		logger.Warn("gramps: type definitions must be exported as TypeDefs; Schema is deprecated and will be removed in a future release",
			log.String("namespace", s.Namespace),
		)
	}
	defs := s.SourceTypeDefs()
	if defs.IsZero() {
		return nil, nil
	}

	var (
		typeDefs  []string
		resolvers resolver.Map
		mocks     = s.Mocks
		err       error
	)
	if s.PrefixTypes || s.NamespaceQuery {
		mapped, err := datasource.MapSchema(datasource.MapOptions{
			Namespace:      s.Namespace,
			TypeDefs:       defs,
			Resolvers:      s.Resolvers,
			Mocks:          s.Mocks,
			PrefixTypes:    s.PrefixTypes,
			NamespaceQuery: s.NamespaceQuery,
		})
		if err != nil {
			return nil, err
		}
		typeDefs, resolvers, mocks = mapped.TypeDefs, mapped.Resolvers, mapped.Mocks
	} else {
		if typeDefs, err = defs.Resolve(); err != nil {
			return nil, err
		}
		if resolvers, err = resolver.Namespace(s.Namespace, s.Resolvers); err != nil {
			return nil, err
		}
	}
	if len(typeDefs) == 0 {
		return nil, nil
	}

	part, err := executable.Make(executable.Config{
		TypeDefs:                  typeDefs,
		Resolvers:                 resolvers,
		AllowResolversNotInSchema: cfg.Executable.AllowResolversNotInSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("gramps: data source %q: %w", s.Namespace, err)
	}
	if cfg.EnableMockData {
		err := mock.Add(part, mock.Options{
			Mocks:             overlay(cfg.Mock.Mocks, mocks),
			PreserveResolvers: cfg.Mock.PreserveResolvers,
			Rand:              cfg.Mock.Rand,
		})
		if err != nil {
			return nil, fmt.Errorf("gramps: data source %q: %w", s.Namespace, err)
		}
	}
	return part, nil
}

func overlay(base, top mock.Map) mock.Map {
	if len(base) == 0 {
		return top
	}
	out := make(mock.Map, len(base)+len(top))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range top {
		out[k] = v
	}
	return out
}
