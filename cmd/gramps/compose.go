package main

import (
	"context"

	log "github.com/jensneuse/abstractlogger"

	config "github.com/hanpama/gramps/internal/config"
	devsource "github.com/hanpama/gramps/internal/devsource"
	eventbus "github.com/hanpama/gramps/internal/eventbus"
	gramps "github.com/hanpama/gramps/internal/gramps"
)

// compose prepares the composite schema the way every command sees it.
func compose(ctx context.Context, cfg config.Config, logger log.Logger, bus *eventbus.Bus) (*gramps.Composite, error) {
	return gramps.Prepare(ctx, gramps.Config{
		EnableMockData:     cfg.MockData(),
		Logger:             logger,
		DiagnosticMutation: cfg.Ping,
		Bus:                bus,
		DevSources: devsource.Options{
			Raw:        cfg.DataSources,
			Production: cfg.Production(),
		},
	})
}
