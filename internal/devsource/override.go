package devsource

import (
	"strings"

	log "github.com/jensneuse/abstractlogger"

	datasource "github.com/hanpama/gramps/internal/datasource"
)

const rule = "======================================================================"

// WarnInProduction logs an error banner naming the external sources when
// they are in use in production.
func WarnInProduction(logger log.Logger, res Result, production bool) {
	if !res.UsedExternalData || !production {
		return
	}
	if logger == nil {
		logger = log.NoopLogger
	}
	msg := strings.Join([]string{
		rule,
		"     ERROR: Do not use local GraphQL data sources in production.",
		"",
		"     External source(s): " + strings.Join(res.Namespaces, ", "),
		rule,
	}, "\n")
	logger.Error(msg, log.Strings("namespaces", res.Namespaces))
}

// OverrideLocalSources drops every source whose namespace matches a dev
// source and appends the dev sources. With no dev sources the input slice is
// returned as is. A warning names the namespaces that were replaced.
func OverrideLocalSources(sources, devSources []*datasource.DataSource, logger log.Logger) []*datasource.DataSource {
	if len(devSources) == 0 {
		return sources
	}
	if logger == nil {
		logger = log.NoopLogger
	}
	dev := make(map[string]bool, len(devSources))
	var devOut []*datasource.DataSource
	for _, ds := range devSources {
		if ds == nil {
			continue
		}
		dev[ds.Namespace] = true
		devOut = append(devOut, ds)
	}

	out := make([]*datasource.DataSource, 0, len(sources)+len(devSources))
	var overridden []string
	for _, s := range sources {
		if s != nil && dev[s.Namespace] {
			overridden = append(overridden, s.Namespace)
			continue
		}
		out = append(out, s)
	}
	out = append(out, devOut...)

	if len(overridden) > 0 {
		msg := strings.Join([]string{
			"========================= WARNING ==========================",
			"     Existing data sources have been overridden by",
			"     development-only data sources. This WILL NOT work",
			"     in production environments.",
			"",
			"     These data sources are running in dev-only mode:",
			"     - " + strings.Join(overridden, "\n     - "),
			"============================================================",
		}, "\n")
		logger.Warn(msg, log.Strings("namespaces", overridden))
	}
	return out
}
