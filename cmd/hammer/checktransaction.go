package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:     "check-transaction",
		Short:   "Reconcile a pending transaction marker after boot",
		Args:    cobra.NoArgs,
		PreRunE: requireRoot,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := eng.Reconcile()
			if err != nil {
				return err
			}
			if status == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no pending transaction")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reconciled pending transaction: %s\n", status)
			return nil
		},
	})
}
