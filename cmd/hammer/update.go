package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	var force bool
	cmd := &cobra.Command{
		Use:     "update",
		Short:   "Upgrade the system into a new deployment",
		Args:    cobra.NoArgs,
		PreRunE: requireRoot,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _, err := eng.Update(cmd.Context(), force)
			return reportResult(cmd.OutOrStdout(), err, fmt.Sprintf("created deployment %s, reboot to activate it", name))
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Create a new deployment even if nothing would change")
	rootCmd.AddCommand(cmd)
}
