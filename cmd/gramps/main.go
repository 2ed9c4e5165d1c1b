// Command gramps serves data sources composed into one GraphQL schema.
//
// Data sources are directories listed in GRAMPS_DATA_SOURCES (or --data-sources),
// each holding a datasource.yaml manifest and .graphql files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	config "github.com/hanpama/gramps/internal/config"
)

func main() {
	if err := newRootCmd(config.New()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "gramps",
		Short:         "gramps composes GraphQL data sources into one schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String(config.KeyDataSources, "", "comma-separated data source directories (GRAMPS_DATA_SOURCES)")
	flags.String(config.KeyMode, "", `"mock" or "live"; unset mocks outside production (GRAMPS_MODE)`)
	flags.String(config.KeyEnv, "", `"production" enables production checks (GRAMPS_ENV)`)
	flags.String(config.KeyLogLevel, "info", "log level (GRAMPS_LOG_LEVEL)")
	flags.Bool(config.KeyPing, false, "add the grampsPing diagnostic mutation (GRAMPS_PING)")
	for _, key := range []string{config.KeyDataSources, config.KeyMode, config.KeyEnv, config.KeyLogLevel, config.KeyPing} {
		_ = v.BindPFlag(key, flags.Lookup(key))
	}

	root.AddCommand(newServeCmd(v), newPrintSchemaCmd(v), newVersionCmd())
	return root
}
