package main

import "github.com/spf13/cobra"

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:     "refresh",
		Short:   "Refresh package-manager metadata without creating a deployment",
		Args:    cobra.NoArgs,
		PreRunE: requireRoot,
		RunE: func(cmd *cobra.Command, args []string) error {
			return reportResult(cmd.OutOrStdout(), eng.Refresh(cmd.Context()), "package metadata refreshed")
		},
	})
}
