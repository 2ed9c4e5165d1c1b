package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/jensneuse/abstractlogger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	config "github.com/hanpama/gramps/internal/config"
	logging "github.com/hanpama/gramps/internal/logging"
)

func newPrintSchemaCmd(v *viper.Viper) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "print-schema",
		Short: "print the SDL of the composed schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			logger, flush, err := logging.New(logging.Options{Level: cfg.LogLevel, Development: true})
			if err != nil {
				return err
			}
			defer flush()

			c, err := compose(context.Background(), cfg, logger, nil)
			if err != nil {
				return err
			}
			sdl := c.Schema.SDL()
			if out == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), sdl)
				return err
			}
			if err := os.WriteFile(out, []byte(sdl), 0o644); err != nil {
				return err
			}
			logger.Info("gramps: schema written", log.String("path", out))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the SDL to a file instead of stdout")
	return cmd
}
