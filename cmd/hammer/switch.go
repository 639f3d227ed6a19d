package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:     "switch [name]",
		Short:   "Repoint current at an existing deployment",
		Args:    cobra.MaximumNArgs(1),
		PreRunE: requireRoot,
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			target, err := eng.Switch(cmd.Context(), name)
			return reportResult(cmd.OutOrStdout(), err, fmt.Sprintf("switched current to %s, reboot to activate it", target))
		},
	})
}
