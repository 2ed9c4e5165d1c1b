package main

import (
	"fmt"

	"github.com/spf13/cobra"

	gramps "github.com/hanpama/gramps/internal/gramps"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the gramps version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), gramps.Version)
			return err
		},
	}
}
