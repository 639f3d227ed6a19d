package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:     "check",
		Short:   "Report whether an update is available, without creating a deployment",
		Args:    cobra.NoArgs,
		PreRunE: requireRoot,
		RunE: func(cmd *cobra.Command, args []string) error {
			available, err := eng.Check(cmd.Context())
			if err != nil {
				return err
			}
			if available {
				fmt.Fprintln(cmd.OutOrStdout(), "update available")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "up to date")
			}
			return nil
		},
	})
}
