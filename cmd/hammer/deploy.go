package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:     "deploy",
		Short:   "Create a new deployment identical to the current one",
		Args:    cobra.NoArgs,
		PreRunE: requireRoot,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _, err := eng.Deploy(cmd.Context())
			return reportResult(cmd.OutOrStdout(), err, fmt.Sprintf("created deployment %s, reboot to activate it", name))
		},
	})
}
