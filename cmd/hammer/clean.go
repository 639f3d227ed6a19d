package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:     "clean",
		Short:   "Prune containers and delete deployments beyond the retention count",
		Args:    cobra.NoArgs,
		PreRunE: requireRoot,
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := eng.Clean(cmd.Context())
			if err != nil {
				return err
			}
			if len(deleted) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to clean")
				return nil
			}
			for _, name := range deleted {
				fmt.Fprintln(cmd.OutOrStdout(), "deleted", name)
			}
			return nil
		},
	})
}
