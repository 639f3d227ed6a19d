package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:     "rollback [n]",
		Short:   "Repoint current at the deployment n generations back (default 1)",
		Args:    cobra.MaximumNArgs(1),
		PreRunE: requireRoot,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 1
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid rollback count %q", args[0])
				}
				n = v
			}
			target, err := eng.Rollback(cmd.Context(), n)
			return reportResult(cmd.OutOrStdout(), err, fmt.Sprintf("rolled back current to %s, reboot to activate it", target))
		},
	})
}
