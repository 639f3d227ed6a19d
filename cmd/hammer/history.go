package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List every deployment, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := eng.History(limit)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), entries)
			}
			for _, entry := range entries {
				marker := " "
				if entry.Current {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\t%s\t%s\n", marker, entry.Name, entry.Meta.Status, entry.Meta.Created)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "n", "n", 0, "Limit the number of entries printed (0 = unlimited)")
	rootCmd.AddCommand(cmd)
}
