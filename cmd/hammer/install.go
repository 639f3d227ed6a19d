package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:     "install <pkg>",
		Short:   "Install a package into a new deployment",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireRoot,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _, err := eng.Install(cmd.Context(), args[0])
			return reportResult(cmd.OutOrStdout(), err, fmt.Sprintf("created deployment %s, reboot to activate it", name))
		},
	})
}
