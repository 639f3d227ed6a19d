package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:     "init",
		Short:   "Perform first-time provisioning of a new deployment",
		Args:    cobra.NoArgs,
		PreRunE: requireRoot,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _, err := eng.Init(cmd.Context())
			return reportResult(cmd.OutOrStdout(), err, fmt.Sprintf("created deployment %s, reboot to activate it", name))
		},
	})
}
